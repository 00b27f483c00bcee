package renderer

// LightType identifies one of the light kinds sharing a registry buffer.
type LightType int

const (
	LightTypeAmbient LightType = iota
	LightTypeDirectional
	LightTypePoint
	LightTypeSpot
)

// LightTypes lists every light type in binding order.
var LightTypes = [...]LightType{LightTypeAmbient, LightTypeDirectional, LightTypePoint, LightTypeSpot}

func (t LightType) String() string {
	switch t {
	case LightTypeAmbient:
		return "ambient"
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// HasShadow reports whether lights of this type own a Shadow and a shadow-type buffer.
func (t LightType) HasShadow() bool {
	return t != LightTypeAmbient
}

// Byte sizes of the per-slot GPU structs. Each matches the WGSL struct of the same name
// under storage-buffer alignment rules.
const (
	// CameraUniformSize: view mat4, projection mat4, position vec3 (+pad).
	CameraUniformSize = 144

	// AmbientLightStride: color vec3, intensity f32.
	AmbientLightStride = 16

	// DirectionalLightStride: color vec3, intensity f32, direction vec3 (+pad).
	DirectionalLightStride = 32

	// PointLightStride: color vec3, intensity f32, position vec3, range f32.
	PointLightStride = 32

	// SpotLightStride: color vec3, intensity f32, position vec3, range f32, direction vec3,
	// coneCos f32, penumbraCos f32 (+pad).
	SpotLightStride = 64

	// DirectionalShadowStride: isActive u32, pcfSamples u32, bias f32, normalBias f32,
	// intensity f32 (+pad), viewMatrix mat4, projectionMatrix mat4.
	DirectionalShadowStride = 160

	// SpotShadowStride shares the directional layout.
	SpotShadowStride = 160

	// PointShadowStride: isActive u32, pcfSamples u32, bias f32, normalBias f32, intensity f32,
	// cameraNear f32, cameraFar f32 (+pad), projectionMatrix mat4, viewMatrices array<mat4, 6>.
	PointShadowStride = 480
)

// LightStride returns the slot size of the light-type buffer for t.
func LightStride(t LightType) int {
	switch t {
	case LightTypeAmbient:
		return AmbientLightStride
	case LightTypeDirectional:
		return DirectionalLightStride
	case LightTypePoint:
		return PointLightStride
	case LightTypeSpot:
		return SpotLightStride
	default:
		return 0
	}
}

// ShadowStride returns the slot size of the shadow-type buffer for t, or 0 for ambient.
func ShadowStride(t LightType) int {
	switch t {
	case LightTypeDirectional:
		return DirectionalShadowStride
	case LightTypePoint:
		return PointShadowStride
	case LightTypeSpot:
		return SpotShadowStride
	default:
		return 0
	}
}

// LightBindingName returns the WGSL variable name of the light-type buffer for t.
func LightBindingName(t LightType) string {
	return t.String() + "Lights"
}

// ShadowBindingName returns the WGSL variable name of the shadow-type buffer for t.
func ShadowBindingName(t LightType) string {
	return t.String() + "Shadows"
}

// CameraBindingName is the WGSL variable name of the camera uniform.
const CameraBindingName = "camera"
