package shader

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// WGSL struct sources. Each struct's layout matches the renderer slot stride of the same name.

//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

//go:embed assets/ambient_light.wgsl
var GPUAmbientLightSource string

//go:embed assets/directional_light.wgsl
var GPUDirectionalLightSource string

//go:embed assets/point_light.wgsl
var GPUPointLightSource string

//go:embed assets/spot_light.wgsl
var GPUSpotLightSource string

//go:embed assets/directional_shadow.wgsl
var GPUDirectionalShadowSource string

//go:embed assets/point_shadow.wgsl
var GPUPointShadowSource string

//go:embed assets/spot_shadow.wgsl
var GPUSpotShadowSource string

// GPUDepthInstanceSource is the per-proxy uniform of the depth pass: the caster's world matrix
// and, for point shadows, the cube face selected through the dynamic offset.
//
//go:embed assets/depth_instance.wgsl
var GPUDepthInstanceSource string

// DepthInstanceSize is the byte size of the DepthInstance struct.
const DepthInstanceSize = 80

// DepthInstanceAlignment is the dynamic-offset stride between per-face DepthInstance copies.
const DepthInstanceAlignment = 256

// LightStructArg returns the struct annotation argument of the light-type buffer of t.
func LightStructArg(t renderer.LightType) AnnotationArg {
	switch t {
	case renderer.LightTypeAmbient:
		return AnnotationArgAmbientLight
	case renderer.LightTypeDirectional:
		return AnnotationArgDirectionalLight
	case renderer.LightTypePoint:
		return AnnotationArgPointLight
	case renderer.LightTypeSpot:
		return AnnotationArgSpotLight
	default:
		return ""
	}
}

// ShadowStructArg returns the struct annotation argument of the shadow-type buffer of t,
// or "" for ambient.
func ShadowStructArg(t renderer.LightType) AnnotationArg {
	switch t {
	case renderer.LightTypeDirectional:
		return AnnotationArgDirectionalShadow
	case renderer.LightTypePoint:
		return AnnotationArgPointShadow
	case renderer.LightTypeSpot:
		return AnnotationArgSpotShadow
	default:
		return ""
	}
}
