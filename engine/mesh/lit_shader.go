package mesh

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
)

// Bind group indices of the lit pipeline. The lights group is always group 0.
const (
	MeshGroup   = 1
	ShadowGroup = 2
)

const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

const meshDeclarations = `
struct MeshUniform {
    modelMatrix: mat4x4<f32>,
    normalMatrix: mat4x4<f32>,
    color: vec4<f32>,
}

@group(1) @binding(0) var<uniform> mesh: MeshUniform;

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) world: vec3<f32>,
    @location(1) normal: vec3<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) normal: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    let world = mesh.modelMatrix * vec4<f32>(position, 1.0);
    out.world = world.xyz;
    out.normal = (mesh.normalMatrix * vec4<f32>(normal, 0.0)).xyz;
    out.clip = camera.projectionMatrix * camera.viewMatrix * world;
    return out;
}

fn attenuation(d: f32, range: f32) -> f32 {
    if (range <= 0.0) {
        return 1.0 / max(d * d, 1e-4);
    }
    let f = clamp(1.0 - d / range, 0.0, 1.0);
    return f * f;
}
`

// shadowFunction samples a 2D shadow map with an optional 3x3 PCF kernel.
// Arguments: shadow buffer, slot, depth texture, comparison sampler.
const shadowFunction = `
fn shadowFactor(world: vec3<f32>, n: vec3<f32>) -> f32 {
    let s = %[1]s[%[2]du];
    if (s.isActive == 0u) {
        return 1.0;
    }
    let clip = s.projectionMatrix * s.viewMatrix * vec4<f32>(world + n * s.normalBias, 1.0);
    if (clip.w <= 0.0) {
        return 1.0;
    }
    let ndc = clip.xyz / clip.w;
    let uv = vec2<f32>(ndc.x * 0.5 + 0.5, 0.5 - ndc.y * 0.5);
    if (any(uv < vec2<f32>(0.0)) || any(uv > vec2<f32>(1.0)) || ndc.z > 1.0) {
        return 1.0;
    }
    let texel = 1.0 / vec2<f32>(textureDimensions(%[3]s));
    let radius = select(0, 1, s.pcfSamples > 1u);
    var visible = 0.0;
    var taps = 0.0;
    for (var x = -radius; x <= radius; x++) {
        for (var y = -radius; y <= radius; y++) {
            let offset = vec2<f32>(f32(x), f32(y)) * texel;
            visible += textureSampleCompareLevel(%[3]s, %[4]s, uv + offset, ndc.z - s.bias);
            taps += 1.0;
        }
    }
    return mix(1.0 - s.intensity, 1.0, visible / taps);
}
`

// lightLoops holds the fragment loop body of each light type. %[1]s is the light buffer,
// %[2]s the shadow term.
var lightLoops = map[renderer.LightType]string{
	renderer.LightTypeAmbient: `
    for (var i = 0u; i < arrayLength(&%[1]s); i++) {
        lit += %[1]s[i].color * %[1]s[i].intensity;
    }
`,
	renderer.LightTypeDirectional: `
    for (var i = 0u; i < arrayLength(&%[1]s); i++) {
        let l = %[1]s[i];
        if (l.intensity <= 0.0) {
            continue;
        }
        let ndotl = max(dot(n, -normalize(l.direction)), 0.0);
        lit += l.color * l.intensity * ndotl * %[2]s;
    }
`,
	renderer.LightTypePoint: `
    for (var i = 0u; i < arrayLength(&%[1]s); i++) {
        let l = %[1]s[i];
        if (l.intensity <= 0.0) {
            continue;
        }
        let toLight = l.position - in.world;
        let d = length(toLight);
        let ndotl = max(dot(n, toLight / max(d, 1e-4)), 0.0);
        lit += l.color * l.intensity * ndotl * attenuation(d, l.range) * %[2]s;
    }
`,
	renderer.LightTypeSpot: `
    for (var i = 0u; i < arrayLength(&%[1]s); i++) {
        let l = %[1]s[i];
        if (l.intensity <= 0.0) {
            continue;
        }
        let toLight = l.position - in.world;
        let d = length(toLight);
        let dir = toLight / max(d, 1e-4);
        let ndotl = max(dot(n, dir), 0.0);
        let cosTheta = dot(-dir, normalize(l.direction));
        let cone = clamp((cosTheta - l.coneCos) / max(l.penumbraCos - l.coneCos, 1e-4), 0.0, 1.0);
        lit += l.color * l.intensity * ndotl * cone * attenuation(d, l.range) * %[2]s;
    }
`,
}

// SampledShadow reports whether a shadow map of kind can be sampled by the lit shader.
// Point shadows are cube maps and only cast onto other lights' receivers.
func SampledShadow(kind renderer.LightType) bool {
	return kind == renderer.LightTypeDirectional || kind == renderer.LightTypeSpot
}

// LitShader builds the main pass module of a lit mesh: Lambert shading over every light type
// present in bindings, with the camera and lights group at 0, the MeshUniform at MeshGroup and,
// when sampled is non-nil, its depth texture and comparison sampler at ShadowGroup.
//
// Parameters:
//   - bindings: the registry bindings, usually LightsBindingRegistry.Bindings()
//   - sampled: the 2D shadow map to sample, or nil
//
// Returns:
//   - shader.Module: the reflected module
//   - error: error for an unknown binding or an unsupported shadow kind
func LitShader(bindings []renderer.BindingEntry, sampled *renderer.ShadowMap) (shader.Module, error) {
	forward, err := shader.ForwardDeclarations(bindings, 0)
	if err != nil {
		return nil, err
	}
	has := func(name string) bool {
		return slices.ContainsFunc(bindings, func(b renderer.BindingEntry) bool { return b.Name == name })
	}

	var sb strings.Builder
	sb.WriteString(forward)
	sb.WriteString(meshDeclarations)

	key := "lit_mesh"
	if sampled != nil {
		if !SampledShadow(sampled.LightType) {
			return nil, fmt.Errorf("%s shadows cannot be sampled by the lit shader", sampled.LightType)
		}
		buffer := renderer.ShadowBindingName(sampled.LightType)
		if !has(buffer) {
			return nil, fmt.Errorf("bindings have no %s buffer", buffer)
		}
		sb.WriteString("\n")
		sb.WriteString(shader.ShadowMapDeclarations(sampled.LightType, sampled.Index, ShadowGroup, 0))
		fmt.Fprintf(&sb, shadowFunction, buffer, sampled.Index,
			fmt.Sprintf("%sShadowMap%d", sampled.LightType, sampled.Index),
			fmt.Sprintf("%sShadowSampler%d", sampled.LightType, sampled.Index))
		key = fmt.Sprintf("lit_mesh_%s_shadow_%d", sampled.LightType, sampled.Index)
	}

	sb.WriteString(`
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let n = normalize(in.normal);
    var lit = vec3<f32>(0.0);
`)
	for _, t := range renderer.LightTypes {
		buffer := renderer.LightBindingName(t)
		if !has(buffer) {
			continue
		}
		term := "1.0"
		if sampled != nil && sampled.LightType == t {
			term = fmt.Sprintf("select(1.0, shadowFactor(in.world, n), i == %du)", sampled.Index)
		}
		fmt.Fprintf(&sb, lightLoops[t], buffer, term)
	}
	sb.WriteString(`    return vec4<f32>(mesh.color.rgb * lit, mesh.color.a);
}
`)
	return shader.NewModule(key, sb.String())
}
