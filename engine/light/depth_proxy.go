package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// depthProxy is the depth-only stand-in of a shadow-casting drawable. It shares the drawable's
// geometry and extra bind groups, follows it through a child node, and owns one DepthInstance
// copy per rendered face.
type depthProxy struct {
	shadow   *shadowBase
	drawable renderer.Drawable
	node     transform.NodeID

	// The following fields are GPU allocated resources and must be released when no longer needed.

	buffer     renderer.BufferHandle
	group      renderer.BindGroupHandle
	pipeline   renderer.PipelineHandle
	generation int
}

func newDepthProxy(s *shadowBase, d renderer.Drawable) *depthProxy {
	graph := s.light.graph
	p := &depthProxy{shadow: s, drawable: d, generation: -1}
	p.node = graph.CreateNode(fmt.Sprintf("%s_depth_proxy", graph.Label(d.Node())))
	if graph.Valid(d.Node()) {
		if err := graph.SetParent(p.node, d.Node()); err != nil {
			s.light.logger.Warnf("depth proxy for %s: %v", d.Node(), err)
		}
	}
	return p
}

// modelMatrix returns the caster's world matrix. A drawable without a node in the light's
// graph provides its own.
func (p *depthProxy) modelMatrix() mgl32.Mat4 {
	graph := p.shadow.light.graph
	if graph.Valid(p.drawable.Node()) && graph.Valid(p.node) {
		return graph.WorldMatrix(p.node)
	}
	return p.drawable.WorldMatrix()
}

// prepare creates the proxy's buffer, then its bind group and pipeline whenever the shadow's
// depth state was rebuilt since they were made.
func (p *depthProxy) prepare() error {
	s := p.shadow
	backend := s.renderer.Backend()
	faces := s.variant.faces()
	label := fmt.Sprintf("%s %s Depth Proxy", s.light.label, p.drawable.Node())

	if p.buffer == 0 {
		buf, err := backend.CreateBuffer(renderer.BufferDescriptor{
			Label: label + " Instances",
			Size:  uint64(faces * shader.DepthInstanceAlignment),
			Usage: renderer.BufferUsageUniform | renderer.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create %s buffer: %w", label, err)
		}
		p.buffer = buf
	}
	if p.generation == s.generation && p.group != 0 && p.pipeline != 0 {
		return nil
	}
	p.releaseBindings()

	group, err := backend.CreateBindGroup(renderer.BindGroupDescriptor{
		Label:  label + " Bind Group",
		Layout: s.instanceLayout,
		Entries: []renderer.BindGroupEntry{
			{Binding: 0, Buffer: p.buffer, Size: shader.DepthInstanceSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create %s bind group: %w", label, err)
	}

	geometry := p.drawable.Geometry()
	layouts := []renderer.BindGroupLayoutHandle{s.renderer.Registry().BindGroupLayout(), s.instanceLayout}
	for _, extra := range p.drawable.ExtraBindGroups() {
		layouts = append(layouts, extra.Layout)
	}
	pipeline, err := backend.CreateRenderPipeline(renderer.RenderPipelineDescriptor{
		Label:            label + " Pipeline",
		BindGroupLayouts: layouts,
		VertexModule:     s.depthModule,
		VertexEntryPoint: shader.DepthVertexEntryPoint,
		VertexBuffers:    []renderer.VertexBufferLayout{geometry.VertexLayout},
		DepthFormat:      ShadowDepthFormat,
		CullMode:         renderer.CullModeNone,
	})
	if err != nil {
		backend.ReleaseBindGroup(group)
		return fmt.Errorf("create %s pipeline: %w", label, err)
	}

	p.group, p.pipeline = group, pipeline
	p.generation = s.generation
	return nil
}

// instanceWrites returns one DepthInstance upload per face at its dynamic offset.
func (p *depthProxy) instanceWrites(faces int) []renderer.BufferWrite {
	model := p.modelMatrix()
	writes := make([]renderer.BufferWrite, faces)
	for f := range faces {
		instance := GPUDepthInstance{ModelMatrix: model, Face: uint32(f)}
		writes[f] = renderer.BufferWrite{
			Buffer: p.buffer,
			Offset: uint64(f * shader.DepthInstanceAlignment),
			Data:   instance.Marshal(),
		}
	}
	return writes
}

func (p *depthProxy) draw(pass renderer.RenderPass, lights renderer.BindGroupHandle, face int) {
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, lights, nil)
	pass.SetBindGroup(1, p.group, []uint32{uint32(face * shader.DepthInstanceAlignment)})
	for i, extra := range p.drawable.ExtraBindGroups() {
		pass.SetBindGroup(uint32(2+i), extra.Group, nil)
	}
	renderer.DrawGeometry(pass, p.drawable.Geometry())
}

func (p *depthProxy) releaseBindings() {
	if p.shadow.renderer == nil {
		p.group, p.pipeline = 0, 0
		return
	}
	backend := p.shadow.renderer.Backend()
	if p.pipeline != 0 {
		backend.ReleasePipeline(p.pipeline)
	}
	if p.group != 0 {
		backend.ReleaseBindGroup(p.group)
	}
	p.group, p.pipeline = 0, 0
}

// releaseGPU frees the proxy's GPU objects; prepare recreates them.
func (p *depthProxy) releaseGPU() {
	p.releaseBindings()
	if p.buffer != 0 && p.shadow.renderer != nil {
		p.shadow.renderer.Backend().DestroyBuffer(p.buffer)
	}
	p.buffer = 0
	p.generation = -1
}

func (p *depthProxy) destroy() {
	p.releaseGPU()
	p.shadow.light.graph.Destroy(p.node)
}
