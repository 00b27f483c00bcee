package mesh

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Primitive is CPU-side geometry: triangle-list vertices with 16-bit indices and the radius of
// a bounding sphere centered at the local origin.
type Primitive struct {
	Name     string
	Vertices []Vertex
	Indices  []uint16
	Radius   float32
}

// quad appends one face of four vertices spanning center +- u +- v, wound counter-clockwise
// when seen from the side normal points to. u x v must equal normal.
func (p *Primitive) quad(center, u, v, normal mgl32.Vec3) {
	base := uint16(len(p.Vertices))
	p.Vertices = append(p.Vertices,
		Vertex{Position: center.Sub(u).Sub(v), Normal: normal},
		Vertex{Position: center.Add(u).Sub(v), Normal: normal},
		Vertex{Position: center.Add(u).Add(v), Normal: normal},
		Vertex{Position: center.Sub(u).Add(v), Normal: normal},
	)
	p.Indices = append(p.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Cube returns an axis-aligned cube with edge length size and one flat normal per face.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - Primitive: 24 vertices and 36 indices
func Cube(size float32) Primitive {
	h := size / 2
	x, y, z := mgl32.Vec3{h, 0, 0}, mgl32.Vec3{0, h, 0}, mgl32.Vec3{0, 0, h}
	p := Primitive{Name: "cube", Radius: h * math32.Sqrt(3)}
	p.quad(x, y, z, mgl32.Vec3{1, 0, 0})
	p.quad(x.Mul(-1), z, y, mgl32.Vec3{-1, 0, 0})
	p.quad(y, z, x, mgl32.Vec3{0, 1, 0})
	p.quad(y.Mul(-1), x, z, mgl32.Vec3{0, -1, 0})
	p.quad(z, x, y, mgl32.Vec3{0, 0, 1})
	p.quad(z.Mul(-1), y, x, mgl32.Vec3{0, 0, -1})
	return p
}

// Plane returns a square in the XZ plane facing +Y with edge length size.
func Plane(size float32) Primitive {
	h := size / 2
	p := Primitive{Name: "plane", Radius: h * math32.Sqrt(2)}
	p.quad(mgl32.Vec3{}, mgl32.Vec3{0, 0, h}, mgl32.Vec3{h, 0, 0}, mgl32.Vec3{0, 1, 0})
	return p
}

// Sphere returns a UV sphere of the given radius. segments is clamped to at least 3 and rings
// to at least 2.
//
// Parameters:
//   - radius: the sphere radius
//   - segments: the number of slices around Y
//   - rings: the number of stacks from pole to pole
//
// Returns:
//   - Primitive: (segments+1)*(rings+1) vertices
func Sphere(radius float32, segments, rings int) Primitive {
	segments = max(segments, 3)
	rings = max(rings, 2)
	p := Primitive{Name: "sphere", Radius: radius}
	for r := 0; r <= rings; r++ {
		phi := math32.Pi * float32(r) / float32(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math32.Pi * float32(s) / float32(segments)
			n := mgl32.Vec3{
				math32.Sin(phi) * math32.Cos(theta),
				math32.Cos(phi),
				math32.Sin(phi) * math32.Sin(theta),
			}
			p.Vertices = append(p.Vertices, Vertex{Position: n.Mul(radius), Normal: n})
		}
	}
	stride := uint16(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint16(r)*stride + uint16(s)
			b := a + stride
			p.Indices = append(p.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return p
}
