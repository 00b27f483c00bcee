package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// DepthVertexEntryPoint is the entry point of every generated depth vertex shader.
const DepthVertexEntryPoint = "vs_depth"

// bindingStruct resolves a registry binding to its struct argument, address space and whether
// it is a runtime-sized array.
func bindingStruct(b renderer.BindingEntry) (AnnotationArg, AnnotationArg, bool, error) {
	if b.Name == renderer.CameraBindingName {
		return AnnotationArgCamera, annotationArgStorageTypeUniform, false, nil
	}
	for _, t := range renderer.LightTypes {
		switch b.Name {
		case renderer.LightBindingName(t):
			return LightStructArg(t), annotationArgStorageTypeRead, true, nil
		case renderer.ShadowBindingName(t):
			if arg := ShadowStructArg(t); arg != "" {
				return arg, annotationArgStorageTypeRead, true, nil
			}
		}
	}
	return "", "", false, fmt.Errorf("binding %q has no registered struct", b.Name)
}

// forwardAnnotations writes one include and one group annotation per binding.
func forwardAnnotations(sb *strings.Builder, bindings []renderer.BindingEntry, group int) error {
	for _, b := range bindings {
		arg, space, array, err := bindingStruct(b)
		if err != nil {
			return err
		}
		typeArg := string(arg)
		if array {
			typeArg = "array<" + typeArg + ">"
		}
		fmt.Fprintf(sb, "//%sinclude %s\n", annotationPrefix, arg)
		fmt.Fprintf(sb, "//%sgroup %d %d %s %s %s\n", annotationPrefix, group, b.Binding, space, b.Name, typeArg)
	}
	return nil
}

// ForwardDeclarations returns the WGSL struct and @group/@binding declarations of the lights
// group: the camera uniform and every light-type and shadow-type buffer present in bindings.
// Binding numbers are taken from the entries so the output matches the registry layout.
//
// Parameters:
//   - bindings: the registry bindings, usually LightsBindingRegistry.Bindings()
//   - group: the bind group index the lights group is bound at
//
// Returns:
//   - string: WGSL declarations
//   - error: error if a binding has no registered struct
func ForwardDeclarations(bindings []renderer.BindingEntry, group int) (string, error) {
	var sb strings.Builder
	if err := forwardAnnotations(&sb, bindings, group); err != nil {
		return "", err
	}
	return NewPreProcessor().Process(sb.String())
}

// depthAnnotatedSource builds the annotated depth vertex shader of the shadow at index.
// The lights group is bound at group and the DepthInstance uniform at group+1.
func depthAnnotatedSource(bindings []renderer.BindingEntry, kind renderer.LightType, index, group int) (string, error) {
	if !kind.HasShadow() {
		return "", fmt.Errorf("%s lights have no shadow", kind)
	}
	if index < 0 {
		return "", fmt.Errorf("invalid shadow index %d", index)
	}
	shadowVar := renderer.ShadowBindingName(kind)
	found := false
	for _, b := range bindings {
		if b.Name == shadowVar {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("bindings have no %s buffer", shadowVar)
	}

	var sb strings.Builder
	if err := forwardAnnotations(&sb, bindings, group); err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "//%sinclude %s\n", annotationPrefix, AnnotationArgDepthInstance)
	fmt.Fprintf(&sb, "//%sgroup %d 0 %s depthInstance %s\n", annotationPrefix, group+1, annotationArgStorageTypeUniform, AnnotationArgDepthInstance)

	// index through the storage reference; runtime indexing of a let-bound array is not allowed
	shadow := fmt.Sprintf("%s[%du]", shadowVar, index)
	view := shadow + ".viewMatrix"
	if kind == renderer.LightTypePoint {
		view = shadow + ".viewMatrices[depthInstance.face]"
	}
	fmt.Fprintf(&sb, `
@vertex
fn %s(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    let world = depthInstance.modelMatrix * vec4<f32>(position, 1.0);
    return %s.projectionMatrix * %s * world;
}
`, DepthVertexEntryPoint, shadow, view)
	return sb.String(), nil
}

// DepthVertexShader returns a depth-only vertex shader for the shadow of kind at index.
// It reads the shadow's view and projection from the lights group bound at group, and the
// caster's world matrix from a DepthInstance uniform at group+1. The point variant selects
// the cube face view through DepthInstance.face (one copy per face, dynamic offset).
//
// Parameters:
//   - bindings: the registry bindings
//   - kind: the light type owning the shadow
//   - index: the shadow slot
//   - group: the bind group index of the lights group
//
// Returns:
//   - string: WGSL source
//   - error: error for ambient lights, negative indices or a missing shadow binding
func DepthVertexShader(bindings []renderer.BindingEntry, kind renderer.LightType, index, group int) (string, error) {
	m, err := NewDepthModule(bindings, kind, index, group)
	if err != nil {
		return "", err
	}
	return m.Source(), nil
}

// NewDepthModule builds and reflects the depth vertex shader of DepthVertexShader.
func NewDepthModule(bindings []renderer.BindingEntry, kind renderer.LightType, index, group int) (Module, error) {
	annotated, err := depthAnnotatedSource(bindings, kind, index, group)
	if err != nil {
		return nil, err
	}
	return NewModule(fmt.Sprintf("%s_depth_%d", kind, index), annotated)
}

// ShadowMapDeclarations returns the hand-written depth texture and comparison sampler
// declarations a receiving material binds to sample the shadow of kind at index.
//
// Parameters:
//   - kind: the light type owning the shadow
//   - index: the shadow slot
//   - group: the bind group index
//   - binding: the binding of the depth texture; the sampler takes binding+1
//
// Returns:
//   - string: WGSL declarations, with provider annotations recorded for reflection
func ShadowMapDeclarations(kind renderer.LightType, index, group, binding int) string {
	texture := "texture_depth_2d"
	if kind == renderer.LightTypePoint {
		texture = "texture_depth_cube"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "//%sprovider %d %d %s %s\n", annotationPrefix, group, binding, AnnotationArgShadowMap, AnnotationArgDepthTexture)
	fmt.Fprintf(&sb, "@group(%d) @binding(%d) var %sShadowMap%d: %s;\n", group, binding, kind, index, texture)
	fmt.Fprintf(&sb, "//%sprovider %d %d %s %s\n", annotationPrefix, group, binding+1, AnnotationArgShadowMap, AnnotationArgComparisonSampler)
	fmt.Fprintf(&sb, "@group(%d) @binding(%d) var %sShadowSampler%d: sampler_comparison;\n", group, binding+1, kind, index)
	return sb.String()
}
