package light

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrShadowInactive is returned when an operation needs an active shadow.
	ErrShadowInactive = errors.New("light: shadow is not active")

	// ErrNoRenderer is returned when an operation needs the light to be attached to a renderer.
	ErrNoRenderer = errors.New("light: light is not attached to a renderer")
)

// defaultDirection is used when a light's target coincides with its position.
var defaultDirection = mgl32.Vec3{0, -1, 0}

// lightVariant is implemented by every concrete light. The base calls it to serialize the slot
// and to react to a recomputed world matrix.
type lightVariant interface {
	encode() []byte
	onWorldUpdate()
}

// shadowOwner is the part of a shadow its light drives.
type shadowOwner interface {
	Shadow
	write()
	bind(r renderer.Renderer) error
	release()
}

type lightBase struct {
	graph *transform.Graph
	node  transform.NodeID
	kind  renderer.LightType
	label string
	index int

	color     mgl32.Vec3
	intensity float32

	renderer renderer.Renderer
	logger   common.Logger

	variant lightVariant
	self    Light
	shadow  shadowOwner
}

// Light is a transform node that owns one slot of its type's registry buffer.
// The slot index is picked on the first SetRenderer and never changes afterwards.
// Before a light is attached every property write is kept locally; attaching pushes it all.
type Light interface {
	renderer.LightSlot

	// Node returns the light's transform node.
	//
	// Returns:
	//   - transform.NodeID: the node handle
	Node() transform.NodeID

	// Label returns the debug label of the light's node.
	//
	// Returns:
	//   - string: the label
	Label() string

	// SetParent attaches the light's node under parent (NilNode detaches).
	//
	// Parameters:
	//   - parent: the new parent node
	//
	// Returns:
	//   - error: transform.ErrCycle or transform.ErrInvalidNode
	SetParent(parent transform.NodeID) error

	// Color returns the linear RGB color.
	//
	// Returns:
	//   - mgl32.Vec3: the color
	Color() mgl32.Vec3

	// SetColor sets the linear RGB color.
	//
	// Parameters:
	//   - color: the color
	SetColor(color mgl32.Vec3)

	// Intensity returns the scalar multiplier.
	//
	// Returns:
	//   - float32: the intensity
	Intensity() float32

	// SetIntensity sets the scalar multiplier, clamped to at least 0.
	//
	// Parameters:
	//   - intensity: the intensity
	SetIntensity(intensity float32)

	// Position returns the light's local position.
	//
	// Returns:
	//   - mgl32.Vec3: position in parent space
	Position() mgl32.Vec3

	// SetPosition sets the light's local position. Ambient lights ignore it.
	//
	// Parameters:
	//   - position: position in parent space
	SetPosition(position mgl32.Vec3)

	// WorldPosition returns the light's position after the last matrix update.
	//
	// Returns:
	//   - mgl32.Vec3: world-space position
	WorldPosition() mgl32.Vec3

	// Renderer returns the attached renderer, or nil.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// SetRenderer attaches the light to r. The first call picks the slot index (the first free
	// slot of the type). Every call grows the registry when the index does not fit, registers
	// the light, pushes its data and rebinds its shadow. Reassigning to another renderer
	// unregisters from the previous one first.
	//
	// Parameters:
	//   - r: the renderer
	//
	// Returns:
	//   - error: renderer.ErrSlotTaken, a buffer allocation error, or a shadow resource error
	SetRenderer(r renderer.Renderer) error

	// Shadow returns the light's shadow, or nil for ambient lights.
	//
	// Returns:
	//   - Shadow: the shadow
	Shadow() Shadow

	// Destroy unregisters the light (zeroing its slot), deactivates its shadow and frees its node.
	Destroy()
}

// newLightBase creates the node and shared state of a light variant.
func newLightBase(graph *transform.Graph, kind renderer.LightType, s *lightSettings) *lightBase {
	l := &lightBase{
		graph:     graph,
		kind:      kind,
		label:     s.label,
		index:     -1,
		color:     s.color,
		intensity: max(s.intensity, 0),
		logger:    common.NopLogger(),
	}
	l.node = graph.CreateNode(s.label)
	return l
}

// observe installs the node observer. Ambient lights never call it.
func (l *lightBase) observe() {
	l.graph.SetObserver(l.node, func(_ transform.NodeID, update transform.MatrixUpdate) {
		if update&transform.WorldUpdated == 0 {
			return
		}
		l.variant.onWorldUpdate()
		l.write()
	})
}

func (l *lightBase) LightType() renderer.LightType {
	return l.kind
}

func (l *lightBase) Index() int {
	return l.index
}

func (l *lightBase) Node() transform.NodeID {
	return l.node
}

func (l *lightBase) Label() string {
	return l.label
}

func (l *lightBase) SetParent(parent transform.NodeID) error {
	return l.graph.SetParent(l.node, parent)
}

func (l *lightBase) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightBase) SetColor(color mgl32.Vec3) {
	l.color = color
	l.write()
}

func (l *lightBase) Intensity() float32 {
	return l.intensity
}

func (l *lightBase) SetIntensity(intensity float32) {
	l.intensity = max(intensity, 0)
	l.write()
}

func (l *lightBase) Position() mgl32.Vec3 {
	return l.graph.Position(l.node)
}

func (l *lightBase) SetPosition(position mgl32.Vec3) {
	l.graph.SetPosition(l.node, position)
}

func (l *lightBase) WorldPosition() mgl32.Vec3 {
	return l.graph.WorldPosition(l.node)
}

func (l *lightBase) Renderer() renderer.Renderer {
	return l.renderer
}

func (l *lightBase) SetRenderer(r renderer.Renderer) error {
	if r == nil {
		return ErrNoRenderer
	}
	registry := r.Registry()
	if l.index < 0 {
		l.index = registry.NextIndex(l.kind)
	}
	grown, err := registry.EnsureCapacity(l.kind, l.index)
	if err != nil {
		return err
	}
	// the previous registry keeps the slot until the new one has accepted the light
	if err := registry.AddLight(l.self); err != nil {
		return err
	}
	if l.renderer != nil && l.renderer != r {
		l.renderer.Registry().RemoveLight(l.self)
	}
	l.renderer = r
	l.logger = r.Logger()
	if grown {
		l.logger.Debugf("%s light %q joined slot %d after a registry rebuild", l.kind, l.label, l.index)
	}

	l.write()
	if l.shadow != nil {
		return l.shadow.bind(r)
	}
	return nil
}

func (l *lightBase) Reset() {
	l.write()
	if l.shadow != nil {
		l.shadow.write()
	}
}

func (l *lightBase) Shadow() Shadow {
	if l.shadow == nil {
		return nil
	}
	return l.shadow
}

func (l *lightBase) Destroy() {
	if l.shadow != nil {
		l.shadow.release()
	}
	if l.renderer != nil {
		l.renderer.Registry().RemoveLight(l.self)
		l.renderer = nil
	}
	l.graph.SetObserver(l.node, nil)
	l.graph.Destroy(l.node)
}

// write pushes the light's slot. It is a no-op until the light is attached.
func (l *lightBase) write() {
	if l.renderer == nil || l.index < 0 {
		return
	}
	l.renderer.Registry().WriteLight(l.kind, l.index, l.variant.encode())
}

// directionTo returns normalize(target - worldPosition), with target given in the light's
// parent space.
func (l *lightBase) directionTo(target mgl32.Vec3) mgl32.Vec3 {
	parentWorld := l.graph.WorldMatrix(l.graph.Parent(l.node))
	targetWorld := common.TransformPoint(parentWorld, target)
	return common.NormalizeOr(targetWorld.Sub(l.WorldPosition()), defaultDirection)
}

// aim orients the node so that its -Z axis faces target. Shadow cameras parented to the node
// inherit the orientation.
func (l *lightBase) aim(target mgl32.Vec3) {
	l.graph.LookAt(l.node, target, l.graph.Position(l.node), mgl32.Vec3{0, 1, 0})
}
