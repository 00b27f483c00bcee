package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrForeignGraph is returned when a camera built on another transform graph is attached.
	ErrForeignGraph = errors.New("scene: camera belongs to another graph")

	// ErrInvalidNode is returned when a light or drawable node is not live in the scene graph.
	ErrInvalidNode = errors.New("scene: node is not part of the scene graph")
)

// Bounded is implemented by drawables that can be frustum culled. The sphere is in world space.
type Bounded interface {
	BoundingSphere() (center mgl32.Vec3, radius float32)
}

// FrameStats reports the work done by the most recent Frame call.
type FrameStats struct {
	// Frames counts Frame calls that rendered.
	Frames int
	// Update is the matrix walk of the last frame.
	Update transform.UpdateStats
	// Drawn counts drawables handed to the main pass.
	Drawn int
	// Culled counts drawables rejected by the camera frustum.
	Culled int
	// ShadowPasses counts depth passes recorded by the scene's shadows.
	ShadowPasses int
	// BytesFlushed counts registry bytes uploaded.
	BytesFlushed int
	// Overflows counts registry capacity rebuilds since the previous frame.
	Overflows int
}

// Scene owns the root of a transform graph together with the camera, lights and drawables
// hanging off it, and drives one frame at a time: matrix update, registry flush, shadow passes,
// main pass and submission.
// The scene lock only orders membership changes (Add, Remove, AddLight, SetActive and the like)
// made from other goroutines against Frame, which holds it for the whole frame. The graph, the
// lights and the renderer are not synchronized and must be mutated from the frame goroutine.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether Frame renders this scene.
	Active() bool

	// SetActive sets whether Frame renders this scene.
	SetActive(active bool)

	// Graph returns the transform graph every scene node lives in.
	Graph() *transform.Graph

	// Root returns the scene's root node.
	Root() transform.NodeID

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// Camera returns the scene's camera, or nil.
	Camera() camera.Camera

	// SetCamera binds cam to the renderer's registry and parents it under the root when it
	// has no parent.
	//
	// Parameters:
	//   - cam: the camera, built on the scene graph
	//
	// Returns:
	//   - error: ErrForeignGraph if cam lives in another graph
	SetCamera(cam camera.Camera) error

	// AddLight parents l under the root when it has no parent, attaches it to the renderer
	// and registers the scene's shadow casters and receivers with its shadow.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - error: error if the light node is not live or the registry could not grow
	AddLight(l light.Light) error

	// RemoveLight removes l from the scene and destroys it, freeing its slot and shadow.
	//
	// Parameters:
	//   - l: the light
	//
	// Returns:
	//   - bool: true if l was part of the scene
	RemoveLight(l light.Light) bool

	// Lights returns a copy of the scene's lights.
	Lights() []light.Light

	// Add registers a drawable for the main pass, parenting its node under the root when it
	// has no parent. Adding a drawable twice does nothing.
	//
	// Parameters:
	//   - d: the drawable
	//
	// Returns:
	//   - error: ErrInvalidNode if the drawable's node is not live
	Add(d renderer.Drawable) error

	// AddShadowCaster adds d like Add and marks it as a shadow caster. Casters are registered
	// with every active shadow at the start of each frame.
	//
	// Parameters:
	//   - d: the drawable
	//
	// Returns:
	//   - error: ErrInvalidNode if the drawable's node is not live
	AddShadowCaster(d renderer.Drawable) error

	// Remove unregisters a drawable from the main pass and from every shadow.
	//
	// Parameters:
	//   - d: the drawable
	//
	// Returns:
	//   - bool: true if d was part of the scene
	Remove(d renderer.Drawable) bool

	// Drawables returns a copy of the registered drawables.
	Drawables() []renderer.Drawable

	// Count returns the number of registered drawables.
	Count() int

	// Clear removes every drawable. Lights and the camera stay.
	Clear()

	// CullingDisabled reports whether frustum culling is off.
	CullingDisabled() bool

	// SetCullingDisabled turns frustum culling of Bounded drawables off or on.
	SetCullingDisabled(disabled bool)

	// Resize resizes the renderer and, for a perspective camera, its viewport.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: error from the renderer
	Resize(width, height int) error

	// Frame renders one frame when the scene is active.
	//
	// Returns:
	//   - error: error from the renderer
	Frame() error

	// Stats returns the counters of the most recent frame.
	Stats() FrameStats

	// Release destroys every light, the camera and the root node. The renderer is not released.
	Release()
}

type scene struct {
	// guards membership and flags, not the graph or the renderer
	mu sync.RWMutex

	name   string
	active bool

	graph *transform.Graph
	root  transform.NodeID
	r     renderer.Renderer
	cam   camera.Camera

	lights    []light.Light
	drawables []renderer.Drawable
	casters   []renderer.Drawable

	cullingDisabled bool
	logger          common.Logger

	// reused between frames
	visible []renderer.Drawable

	stats     FrameStats
	overflows int
}

var _ Scene = &scene{}

// NewScene creates a scene rendering through r. A graph and root node are created unless
// supplied through options.
//
// Parameters:
//   - name: the scene name
//   - r: the renderer (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the new scene
//   - error: error if r is nil or an initial camera, light or drawable could not be attached
func NewScene(name string, r renderer.Renderer, options ...SceneBuilderOption) (Scene, error) {
	if r == nil {
		return nil, errors.New("scene: nil renderer")
	}
	settings := &sceneSettings{active: true}
	for _, option := range options {
		option(settings)
	}

	s := &scene{
		name:            name,
		active:          settings.active,
		graph:           settings.graph,
		r:               r,
		cullingDisabled: settings.cullingDisabled,
		logger:          common.Coalesce[common.Logger](settings.logger, r.Logger()),
	}
	if s.graph == nil {
		s.graph = transform.NewGraph(transform.WithLogger(s.logger))
	}
	s.root = s.graph.CreateNode(name + " root")

	if settings.camera != nil {
		if err := s.SetCamera(settings.camera); err != nil {
			return nil, err
		}
	}
	for _, l := range settings.lights {
		if err := s.AddLight(l); err != nil {
			return nil, fmt.Errorf("add light %s: %w", l.Label(), err)
		}
	}
	for _, d := range settings.drawables {
		if err := s.Add(d); err != nil {
			return nil, err
		}
	}
	for _, d := range settings.casters {
		if err := s.AddShadowCaster(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Graph() *transform.Graph {
	return s.graph
}

func (s *scene) Root() transform.NodeID {
	return s.root
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cam == nil {
		s.cam = nil
		return nil
	}
	if cam.Graph() != s.graph {
		return ErrForeignGraph
	}
	if err := s.adopt(cam.Node()); err != nil {
		return err
	}
	cam.SetRenderer(s.r.Registry())
	s.cam = cam
	return nil
}

func (s *scene) AddLight(l light.Light) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.lights, l) {
		return nil
	}
	if err := s.adopt(l.Node()); err != nil {
		return err
	}
	if err := l.SetRenderer(s.r); err != nil {
		return err
	}
	s.lights = append(s.lights, l)
	if sh := l.Shadow(); sh != nil {
		for _, d := range s.drawables {
			if recv, ok := d.(renderer.ShadowReceiver); ok {
				sh.AddShadowReceivingMesh(recv)
			}
		}
	}
	s.logger.Debugf("scene %q: added %s light %q at slot %d", s.name, l.LightType(), l.Label(), l.Index())
	return nil
}

func (s *scene) RemoveLight(l light.Light) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.lights, l)
	if i < 0 {
		return false
	}
	s.lights = slices.Delete(s.lights, i, i+1)
	l.Destroy()
	return true
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) Add(d renderer.Drawable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(d)
}

func (s *scene) add(d renderer.Drawable) error {
	if slices.Contains(s.drawables, d) {
		return nil
	}
	if err := s.adopt(d.Node()); err != nil {
		return err
	}
	s.drawables = append(s.drawables, d)
	if recv, ok := d.(renderer.ShadowReceiver); ok {
		for _, l := range s.lights {
			if sh := l.Shadow(); sh != nil {
				sh.AddShadowReceivingMesh(recv)
			}
		}
	}
	return nil
}

func (s *scene) AddShadowCaster(d renderer.Drawable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.add(d); err != nil {
		return err
	}
	if !slices.Contains(s.casters, d) {
		s.casters = append(s.casters, d)
	}
	return nil
}

func (s *scene) Remove(d renderer.Drawable) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(d)
}

func (s *scene) remove(d renderer.Drawable) bool {
	i := slices.Index(s.drawables, d)
	if i < 0 {
		return false
	}
	s.drawables = slices.Delete(s.drawables, i, i+1)
	if j := slices.Index(s.casters, d); j >= 0 {
		s.casters = slices.Delete(s.casters, j, j+1)
	}
	recv, receives := d.(renderer.ShadowReceiver)
	for _, l := range s.lights {
		sh := l.Shadow()
		if sh == nil {
			continue
		}
		sh.RemoveShadowCastingMesh(d)
		if receives {
			sh.RemoveShadowReceivingMesh(recv)
		}
	}
	return true
}

func (s *scene) Drawables() []renderer.Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.drawables)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drawables)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.drawables) > 0 {
		s.remove(s.drawables[len(s.drawables)-1])
	}
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.r.Resize(width, height); err != nil {
		return err
	}
	if p, ok := s.cam.(camera.PerspectiveCamera); ok {
		p.SetSize(float32(width), float32(height))
	}
	return nil
}

func (s *scene) Frame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.syncCasters()
	s.stats.Update = s.graph.UpdateMatrixStack(s.root)
	s.cull()

	passes := s.shadowPasses()
	before := s.r.Registry().Stats()
	err := s.r.Render(s.visible)
	after := s.r.Registry().Stats()

	s.stats.Frames++
	s.stats.ShadowPasses = s.shadowPasses() - passes
	s.stats.BytesFlushed = after.BytesFlushed - before.BytesFlushed
	s.stats.Overflows = after.Overflows - s.overflows
	s.overflows = after.Overflows
	return err
}

func (s *scene) shadowPasses() int {
	n := 0
	for _, l := range s.lights {
		if sh := l.Shadow(); sh != nil {
			n += sh.Stats().Passes
		}
	}
	return n
}

func (s *scene) Stats() FrameStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lights {
		l.Destroy()
	}
	s.lights = nil
	s.drawables, s.casters, s.visible = nil, nil, nil
	if s.cam != nil {
		s.cam.Destroy()
		s.cam = nil
	}
	s.graph.Destroy(s.root)
}

// adopt parents a root-level node under the scene root.
func (s *scene) adopt(id transform.NodeID) error {
	if !s.graph.Valid(id) {
		return ErrInvalidNode
	}
	if id == s.root || s.graph.Parent(id).IsValid() {
		return nil
	}
	return s.graph.SetParent(id, s.root)
}

// syncCasters registers every caster with every active shadow. Shadows drop their casters
// when deactivated, so this runs each frame.
func (s *scene) syncCasters() {
	for _, l := range s.lights {
		sh := l.Shadow()
		if sh == nil || !sh.IsActive() {
			continue
		}
		for _, d := range s.casters {
			if err := sh.AddShadowCastingMesh(d); err != nil {
				s.logger.Warnf("scene %q: %s shadow %d rejected caster: %v", s.name, sh.LightType(), sh.Index(), err)
			}
		}
	}
}

// cull fills s.visible with the drawables that pass the camera frustum.
func (s *scene) cull() {
	s.visible = s.visible[:0]
	s.stats.Culled = 0

	var frustum common.Frustum
	culling := !s.cullingDisabled && s.cam != nil
	if culling {
		frustum = s.cam.FrustumPlanes()
	}
	for _, d := range s.drawables {
		if !d.Visible() {
			continue
		}
		if b, ok := d.(Bounded); ok && culling {
			center, radius := b.BoundingSphere()
			if !frustum.IntersectsSphere(center, radius) {
				s.stats.Culled++
				continue
			}
		}
		s.visible = append(s.visible, d)
	}
	s.stats.Drawn = len(s.visible)
}
