package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// module is the implementation of the Module interface.
// It holds the processed source and the reflection data needed for pipeline creation.
type module struct {
	key          string
	source       string
	declarations []Annotation
	bindings     []ReflectedBinding
	layouts      map[string]StructLayout
}

// Module is a pre-processed and reflected WGSL shader. It exposes the final source, the
// @oxy: declarations it was generated from, and its resource bindings as renderer layout
// entries so pipelines can be built without hand-written layout tables.
type Module interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the entry point name for a stage, or "" if the stage is absent.
	//
	// Parameters:
	//   - stage: ShaderStageVertex or ShaderStageFragment
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint(stage renderer.ShaderStage) string

	// Declarations returns the group and provider annotations the source was generated from.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// Bindings returns every reflected resource binding sorted by group and binding.
	//
	// Returns:
	//   - []ReflectedBinding: the bindings
	Bindings() []ReflectedBinding

	// StructLayout returns the computed layout of a struct declared in the source.
	//
	// Parameters:
	//   - name: the WGSL struct name
	//
	// Returns:
	//   - StructLayout: the layout
	//   - bool: whether the struct exists and could be resolved
	StructLayout(name string) (StructLayout, bool)

	// LayoutEntries converts the reflected bindings of one group to bind group layout entries.
	//
	// Parameters:
	//   - group: the bind group index
	//   - visibility: the shader stages the entries are visible to
	//
	// Returns:
	//   - []renderer.BindGroupLayoutEntry: the entries sorted by binding
	LayoutEntries(group uint32, visibility renderer.ShaderStage) []renderer.BindGroupLayoutEntry

	// Create compiles the source through backend.
	//
	// Parameters:
	//   - backend: the GPU backend
	//
	// Returns:
	//   - renderer.ShaderModuleHandle: the compiled module
	//   - error: error from the backend
	Create(backend renderer.Backend) (renderer.ShaderModuleHandle, error)
}

var _ Module = &module{}

// NewModule pre-processes annotated source and reflects its structs and bindings.
//
// Parameters:
//   - key: a unique identifier for the shader, used for labels
//   - source: WGSL source, optionally containing @oxy: annotations
//
// Returns:
//   - Module: the processed module
//   - error: an error if an annotation is malformed
func NewModule(key, source string) (Module, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	decls := make([]Annotation, len(pp.Declarations()))
	copy(decls, pp.Declarations())
	return &module{
		key:          key,
		source:       processed,
		declarations: decls,
		bindings:     ReflectBindings(processed),
		layouts:      StructLayouts(processed),
	}, nil
}

func (m *module) Key() string {
	return m.key
}

func (m *module) Source() string {
	return m.source
}

func (m *module) EntryPoint(stage renderer.ShaderStage) string {
	return EntryPoint(m.source, stage)
}

func (m *module) Declarations() []Annotation {
	return m.declarations
}

func (m *module) Bindings() []ReflectedBinding {
	return m.bindings
}

func (m *module) StructLayout(name string) (StructLayout, bool) {
	l, ok := m.layouts[name]
	return l, ok
}

func (m *module) LayoutEntries(group uint32, visibility renderer.ShaderStage) []renderer.BindGroupLayoutEntry {
	var entries []renderer.BindGroupLayoutEntry
	for _, b := range m.bindings {
		if b.Group != group {
			continue
		}
		entries = append(entries, renderer.BindGroupLayoutEntry{
			Binding:        b.Binding,
			Visibility:     visibility,
			Type:           b.Type,
			ViewDimension:  b.ViewDimension,
			MinBindingSize: b.MinBindingSize,
		})
	}
	return entries
}

func (m *module) Create(backend renderer.Backend) (renderer.ShaderModuleHandle, error) {
	h, err := backend.CreateShaderModule(renderer.ShaderModuleDescriptor{Label: m.key, Code: m.source})
	if err != nil {
		return 0, fmt.Errorf("shader %s: %w", m.key, err)
	}
	return h, nil
}
