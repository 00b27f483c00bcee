package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// StructLayouts computes the layout of every struct declared in source.
// Structs whose members cannot be resolved are omitted.
//
// Parameters:
//   - source: WGSL source
//
// Returns:
//   - map[string]StructLayout: layouts keyed by struct name
func StructLayouts(source string) map[string]StructLayout {
	structs := parseStructBlocks(stripComments(source))
	known := make(map[string]wgslTypeLayout, len(structs))
	out := make(map[string]StructLayout, len(structs))

	remaining := structs
	for len(remaining) > 0 {
		progress := false
		next := remaining[:0:0]
		for _, ps := range remaining {
			layout, ok := computeStructLayout(ps, known)
			if !ok {
				next = append(next, ps)
				continue
			}
			known[ps.name] = wgslTypeLayout{layout.Size, layout.Align}
			out[ps.name] = layout
			progress = true
		}
		if !progress {
			break
		}
		remaining = next
	}
	return out
}

// ReflectBindings extracts every @group/@binding declaration of source, sorted by group then
// binding. Buffer bindings carry the size of their bound type (one element for runtime arrays).
//
// Parameters:
//   - source: WGSL source
//
// Returns:
//   - []ReflectedBinding: the declarations
func ReflectBindings(source string) []ReflectedBinding {
	cleaned := stripComments(source)
	layouts := StructLayouts(cleaned)
	known := make(map[string]wgslTypeLayout, len(layouts))
	for name, l := range layouts {
		known[name] = wgslTypeLayout{l.Size, l.Align}
	}

	var out []ReflectedBinding
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		b := ReflectedBinding{
			Group:    uint32(group),
			Binding:  uint32(binding),
			Name:     strings.TrimSpace(match[4]),
			TypeName: strings.TrimSpace(match[5]),
		}
		if !classifyResource(strings.TrimSpace(match[3]), &b) {
			continue
		}
		if b.Type == renderer.BindingTypeUniformBuffer || b.Type == renderer.BindingTypeReadOnlyStorageBuffer {
			if l, ok := resolveTypeLayout(b.TypeName, known); ok {
				b.MinBindingSize = l.size
			}
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}

// EntryPoint returns the name of the first entry point of the given stage, or "".
//
// Parameters:
//   - source: WGSL source
//   - stage: ShaderStageVertex or ShaderStageFragment
//
// Returns:
//   - string: the entry point function name
func EntryPoint(source string, stage renderer.ShaderStage) string {
	var re *regexp.Regexp
	switch stage {
	case renderer.ShaderStageVertex:
		re = vertexEntryRegex
	case renderer.ShaderStageFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// classifyResource fills in the binding type from the address space and type name.
// Returns false for resources the renderer cannot bind (read_write storage, filtering samplers,
// color textures).
func classifyResource(addressSpace string, b *ReflectedBinding) bool {
	switch {
	case addressSpace == "uniform":
		b.Type = renderer.BindingTypeUniformBuffer
		return true
	case strings.HasPrefix(addressSpace, "storage"):
		if strings.Contains(addressSpace, "read_write") {
			return false
		}
		b.Type = renderer.BindingTypeReadOnlyStorageBuffer
		return true
	case addressSpace != "":
		return false
	}

	switch {
	case b.TypeName == "sampler_comparison":
		b.Type = renderer.BindingTypeComparisonSampler
		return true
	case strings.HasPrefix(b.TypeName, "texture_depth_"):
		dim, ok := wgslDepthTextureMap[b.TypeName]
		if !ok {
			return false
		}
		b.Type = renderer.BindingTypeDepthTexture
		b.ViewDimension = dim
		return true
	}
	return false
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment using primitives
// and previously-computed struct layouts. Runtime-sized arrays resolve to one element stride.
//
// Parameters:
//   - typeName: the WGSL type name, e.g. "f32", "PointShadow", "array<mat4x4<f32>, 6>"
//   - knownTypes: already-resolved struct layouts
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false for unknown types
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	if strings.HasPrefix(typeName, "array<") && strings.HasSuffix(typeName, ">") {
		inner := typeName[6 : len(typeName)-1]
		elemType, countStr := inner, ""
		// the element type may itself contain a comma (nested generics are not split)
		if i := strings.LastIndex(inner, ","); i >= 0 && !strings.Contains(inner[i:], ">") {
			elemType, countStr = inner[:i], inner[i+1:]
		}
		elemLayout, ok := resolveTypeLayout(strings.TrimSpace(elemType), knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}
		stride := roundUpAlign(elemLayout.align, elemLayout.size)
		if countStr == "" {
			return wgslTypeLayout{stride, elemLayout.align}, true
		}
		count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
		if err != nil {
			return wgslTypeLayout{}, false
		}
		return wgslTypeLayout{count * stride, elemLayout.align}, true
	}
	return wgslTypeLayout{}, false
}

// computeStructLayout places each field at the next aligned offset; the total size is rounded
// up to the struct alignment (max alignment of all fields). Builtin fields are skipped.
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (StructLayout, bool) {
	layout := StructLayout{Name: ps.name, Align: 1}
	offset := uint64(0)
	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(field.typeName, knownTypes)
		if !ok {
			return StructLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset)
		layout.Fields = append(layout.Fields, FieldLayout{
			Name:   field.name,
			Type:   field.typeName,
			Offset: offset,
			Size:   fl.size,
		})
		offset += fl.size
		layout.Align = max(layout.Align, fl.align)
	}
	layout.Size = roundUpAlign(layout.Align, offset)
	return layout, true
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a struct block into individual fields
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		fields = append(fields, parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			isBuiltin: builtinRegex.MatchString(line),
		})
	}
	return fields
}

// stripComments removes both single-line (//) and block (/* */) comments from WGSL source.
// Block comments may be nested per the WGSL specification.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes single-line // comments from WGSL source
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments (/* ... */) from WGSL source,
// handling nested block comments per the WGSL specification
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	i := 0
	for i < len(source) {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets,
// so array<mat4x4<f32>, 6> stays one field.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
