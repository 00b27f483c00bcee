package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryBindings(t *testing.T, options ...renderer.RegistryBuilderOption) []renderer.BindingEntry {
	t.Helper()
	r, err := renderer.NewLightsBindingRegistry(renderer.NewMemoryBackend(), options...)
	require.NoError(t, err)
	require.NoError(t, r.Flush())
	return r.Bindings()
}

func TestStructSourcesMatchSlotStrides(t *testing.T) {
	cases := []struct {
		source string
		name   string
		size   int
	}{
		{GPUCameraUniformSource, "CameraUniform", renderer.CameraUniformSize},
		{GPUAmbientLightSource, "AmbientLight", renderer.AmbientLightStride},
		{GPUDirectionalLightSource, "DirectionalLight", renderer.DirectionalLightStride},
		{GPUPointLightSource, "PointLight", renderer.PointLightStride},
		{GPUSpotLightSource, "SpotLight", renderer.SpotLightStride},
		{GPUDirectionalShadowSource, "DirectionalShadow", renderer.DirectionalShadowStride},
		{GPUPointShadowSource, "PointShadow", renderer.PointShadowStride},
		{GPUSpotShadowSource, "SpotShadow", renderer.SpotShadowStride},
		{GPUDepthInstanceSource, "DepthInstance", DepthInstanceSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout, ok := StructLayouts(tc.source)[tc.name]
			require.True(t, ok)
			assert.Equal(t, uint64(tc.size), layout.Size)
		})
	}
}

func TestStructFieldOffsets(t *testing.T) {
	offset := func(source, name, field string) uint64 {
		l := StructLayouts(source)[name]
		f, ok := l.Field(field)
		require.True(t, ok, "%s.%s", name, field)
		return f.Offset
	}
	assert.Equal(t, uint64(128), offset(GPUCameraUniformSource, "CameraUniform", "position"))
	assert.Equal(t, uint64(16), offset(GPUDirectionalLightSource, "DirectionalLight", "direction"))
	assert.Equal(t, uint64(28), offset(GPUPointLightSource, "PointLight", "range"))
	assert.Equal(t, uint64(44), offset(GPUSpotLightSource, "SpotLight", "coneCos"))
	assert.Equal(t, uint64(48), offset(GPUSpotLightSource, "SpotLight", "penumbraCos"))
	assert.Equal(t, uint64(32), offset(GPUDirectionalShadowSource, "DirectionalShadow", "viewMatrix"))
	assert.Equal(t, uint64(96), offset(GPUDirectionalShadowSource, "DirectionalShadow", "projectionMatrix"))
	assert.Equal(t, uint64(24), offset(GPUPointShadowSource, "PointShadow", "cameraFar"))
	assert.Equal(t, uint64(96), offset(GPUPointShadowSource, "PointShadow", "viewMatrices"))
	assert.Equal(t, uint64(64), offset(GPUDepthInstanceSource, "DepthInstance", "face"))
}

func TestForwardDeclarationsFollowRegistryLayout(t *testing.T) {
	bindings := registryBindings(t, renderer.WithLightCapacity(renderer.LightTypeSpot, 0))

	src, err := ForwardDeclarations(bindings, 0)
	require.NoError(t, err)

	assert.Contains(t, src, "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.Contains(t, src, "@group(0) @binding(1) var<storage, read> ambientLights: array<AmbientLight>;")
	assert.Contains(t, src, "@group(0) @binding(4) var<storage, read> pointLights: array<PointLight>;")
	assert.Contains(t, src, "@group(0) @binding(5) var<storage, read> pointShadows: array<PointShadow>;")
	assert.NotContains(t, src, "spotLights")
	assert.Equal(t, 1, strings.Count(src, "struct PointShadow"))

	reflected := ReflectBindings(src)
	require.Len(t, reflected, len(bindings))
	for i, b := range bindings {
		assert.Equal(t, b.Name, reflected[i].Name)
		assert.Equal(t, b.Binding, reflected[i].Binding)
		assert.Equal(t, b.Type, reflected[i].Type)
	}
	assert.Equal(t, uint64(renderer.CameraUniformSize), reflected[0].MinBindingSize)
	assert.Equal(t, uint64(renderer.PointShadowStride), reflected[5].MinBindingSize)
}

func TestForwardDeclarationsRejectsUnknownBinding(t *testing.T) {
	_, err := ForwardDeclarations([]renderer.BindingEntry{{Name: "mystery"}}, 0)
	assert.Error(t, err)
}

func TestDepthVertexShaderPointSelectsFace(t *testing.T) {
	bindings := registryBindings(t)

	m, err := NewDepthModule(bindings, renderer.LightTypePoint, 2, 0)
	require.NoError(t, err)

	assert.Contains(t, m.Source(), "pointShadows[2u].viewMatrices[depthInstance.face]")
	assert.Equal(t, DepthVertexEntryPoint, m.EntryPoint(renderer.ShaderStageVertex))
	assert.Empty(t, m.EntryPoint(renderer.ShaderStageFragment))

	entries := m.LayoutEntries(1, renderer.ShaderStageVertex)
	require.Len(t, entries, 1)
	assert.Equal(t, renderer.BindingTypeUniformBuffer, entries[0].Type)
	assert.Equal(t, uint64(DepthInstanceSize), entries[0].MinBindingSize)
	assert.Len(t, m.LayoutEntries(0, renderer.ShaderStageVertex), len(bindings))
}

func TestDepthVertexShaderDirectionalUsesSingleView(t *testing.T) {
	src, err := DepthVertexShader(registryBindings(t), renderer.LightTypeDirectional, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, src, "directionalShadows[0u].projectionMatrix * directionalShadows[0u].viewMatrix * world")
	assert.NotContains(t, src, "//@oxy:")
}

func TestDepthVertexShaderErrors(t *testing.T) {
	bindings := registryBindings(t, renderer.WithLightCapacity(renderer.LightTypeSpot, 0))

	_, err := DepthVertexShader(bindings, renderer.LightTypeAmbient, 0, 0)
	assert.Error(t, err)
	_, err = DepthVertexShader(bindings, renderer.LightTypeSpot, 0, 0)
	assert.Error(t, err, "no spot shadow binding yet")
	_, err = DepthVertexShader(bindings, renderer.LightTypePoint, -1, 0)
	assert.Error(t, err)
}

func TestShadowMapDeclarationsReflect(t *testing.T) {
	m, err := NewModule("receiver", ShadowMapDeclarations(renderer.LightTypePoint, 1, 2, 0))
	require.NoError(t, err)

	bindings := m.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "pointShadowMap1", bindings[0].Name)
	assert.Equal(t, renderer.BindingTypeDepthTexture, bindings[0].Type)
	assert.Equal(t, renderer.TextureViewDimensionCube, bindings[0].ViewDimension)
	assert.Equal(t, renderer.BindingTypeComparisonSampler, bindings[1].Type)

	decls := m.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, AnnotationTypeProvider, decls[0].Type)
	assert.Equal(t, []AnnotationArg{AnnotationArgShadowMap, AnnotationArgDepthTexture}, decls[0].Args)
	assert.Equal(t, 2, *decls[1].Group)
	assert.Equal(t, 1, *decls[1].Binding)
}

func TestModuleCreate(t *testing.T) {
	backend := renderer.NewMemoryBackend()
	m, err := NewDepthModule(registryBindings(t), renderer.LightTypeSpot, 0, 0)
	require.NoError(t, err)

	h, err := m.Create(backend)
	require.NoError(t, err)
	src, ok := backend.ShaderSource(h)
	require.True(t, ok)
	assert.Equal(t, m.Source(), src)
}

func TestParseAnnotation(t *testing.T) {
	cases := []struct {
		line    string
		wantErr bool
		isNil   bool
	}{
		{line: "let x = 1;", isNil: true},
		{line: "//@oxy:include point_light"},
		{line: "//@oxy:include texture", wantErr: true},
		{line: "//@oxy:group 0 1 storage_read lights array<point_light>"},
		{line: "//@oxy:group 0 1 storage_write lights array<point_light>", wantErr: true},
		{line: "//@oxy:group x 1 storage_read lights point_light", wantErr: true},
		{line: "//@oxy:provider 1 0 shadow_map depth_texture"},
		{line: "//@oxy:provider 1 0 material", wantErr: true},
		{line: "//@oxy:", wantErr: true},
		{line: "//@oxy:bogus 1", wantErr: true},
	}
	for _, tc := range cases {
		a, err := parseAnnotation(tc.line, 1)
		if tc.wantErr {
			assert.Error(t, err, tc.line)
			continue
		}
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.isNil, a == nil, tc.line)
	}
}

func TestPreProcessorIncludesOnce(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:include camera\n//@oxy:include camera\n//@oxy:group 0 0 storage_uniform camera camera")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"))
	assert.Len(t, pp.Declarations(), 1)
}
