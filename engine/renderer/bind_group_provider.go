package renderer

import (
	"errors"
	"fmt"
)

// BindingEntry is one named resource of a BindGroupProvider. Its binding number is its position.
type BindingEntry struct {
	Name       string
	Binding    uint32
	Type       BindingType
	Visibility ShaderStage
	Buffer     BufferHandle
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	entries []BindingEntry

	// The following fields are GPU allocated resources and must be released when no longer needed.

	// bindGroup is the bind group built from entries, or 0 before the first Rebuild.
	bindGroup BindGroupHandle
	// bindGroupLayout is the layout built from entries, or 0 before the first Rebuild.
	bindGroupLayout BindGroupLayoutHandle

	// layoutDirty means the entry list changed shape and the layout must be rebuilt.
	layoutDirty bool
	// groupDirty means a resource was replaced by identity; the layout is still valid.
	groupDirty bool

	layoutVersion  uint64
	layoutRebuilds int
	groupRebuilds  int
}

// BindGroupProvider owns one bind group and its layout, described by an ordered list of named
// buffer bindings. Replacing a buffer under an existing name only rebuilds the bind group;
// adding or removing a name changes the binding count and forces a layout rebuild.
//
// Usage pattern:
//  1. Owner calls SetBuffer for every binding
//  2. Owner calls Rebuild once per frame before the group is bound (no-op when clean)
//  3. Draw code binds BindGroup() and builds pipelines against BindGroupLayout()
//  4. Pipelines compare LayoutVersion() with the version they were built for
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the current bind group, or 0 if Rebuild has not run yet.
	//
	// Returns:
	//   - BindGroupHandle: the bind group
	BindGroup() BindGroupHandle

	// BindGroupLayout returns the current layout, or 0 if Rebuild has not run yet.
	//
	// Returns:
	//   - BindGroupLayoutHandle: the layout
	BindGroupLayout() BindGroupLayoutHandle

	// LayoutVersion increments every time the layout is rebuilt.
	//
	// Returns:
	//   - uint64: the layout version
	LayoutVersion() uint64

	// Entries returns a copy of the ordered binding entries.
	//
	// Returns:
	//   - []BindingEntry: the entries, binding number equals index
	Entries() []BindingEntry

	// Entry looks up a binding by name.
	//
	// Parameters:
	//   - name: the binding name
	//
	// Returns:
	//   - BindingEntry: the entry
	//   - bool: whether it exists
	Entry(name string) (BindingEntry, bool)

	// SetBuffer replaces the buffer bound under name, or appends a new binding.
	//
	// Parameters:
	//   - name: the binding name
	//   - kind: the binding type (uniform or read-only storage)
	//   - visibility: the shader stages that see the binding
	//   - buffer: the buffer handle
	//
	// Returns:
	//   - bool: true if a binding was appended (the layout must be rebuilt)
	SetBuffer(name string, kind BindingType, visibility ShaderStage, buffer BufferHandle) bool

	// RemoveBinding drops a binding by name and forces a layout rebuild.
	//
	// Parameters:
	//   - name: the binding name
	//
	// Returns:
	//   - bool: whether the binding existed
	RemoveBinding(name string) bool

	// MarkDirty forces a bind group rebuild on the next Rebuild without touching the layout.
	MarkDirty()

	// Dirty reports whether the next Rebuild has work to do.
	Dirty() bool

	// Rebuild recreates the layout and/or bind group through backend when dirty.
	//
	// Parameters:
	//   - backend: the GPU backend
	//
	// Returns:
	//   - error: error from the backend
	Rebuild(backend Backend) error

	// Release frees the bind group and layout.
	//
	// Parameters:
	//   - backend: the GPU backend
	Release(backend Backend)

	// Rebuilds returns how many times the layout and the bind group were rebuilt.
	//
	// Returns:
	//   - layouts: layout rebuild count
	//   - groups: bind group rebuild count (including those caused by a layout rebuild)
	Rebuilds() (layouts, groups int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string) BindGroupProvider {
	return &bindGroupProvider{label: label, layoutDirty: true}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() BindGroupHandle {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() BindGroupLayoutHandle {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) LayoutVersion() uint64 {
	return p.layoutVersion
}

func (p *bindGroupProvider) Entries() []BindingEntry {
	out := make([]BindingEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

func (p *bindGroupProvider) Entry(name string) (BindingEntry, bool) {
	for _, e := range p.entries {
		if e.Name == name {
			return e, true
		}
	}
	return BindingEntry{}, false
}

func (p *bindGroupProvider) SetBuffer(name string, kind BindingType, visibility ShaderStage, buffer BufferHandle) bool {
	for i := range p.entries {
		if p.entries[i].Name == name {
			if p.entries[i].Buffer != buffer {
				p.entries[i].Buffer = buffer
				p.groupDirty = true
			}
			return false
		}
	}
	p.entries = append(p.entries, BindingEntry{
		Name:       name,
		Binding:    uint32(len(p.entries)),
		Type:       kind,
		Visibility: visibility,
		Buffer:     buffer,
	})
	p.layoutDirty = true
	return true
}

func (p *bindGroupProvider) RemoveBinding(name string) bool {
	for i := range p.entries {
		if p.entries[i].Name != name {
			continue
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		for j := range p.entries {
			p.entries[j].Binding = uint32(j)
		}
		p.layoutDirty = true
		return true
	}
	return false
}

func (p *bindGroupProvider) MarkDirty() {
	p.groupDirty = true
}

func (p *bindGroupProvider) Dirty() bool {
	return p.layoutDirty || p.groupDirty
}

func (p *bindGroupProvider) Rebuild(backend Backend) error {
	if !p.Dirty() {
		return nil
	}
	if len(p.entries) == 0 {
		return errors.New("bind group provider has no entries")
	}

	if p.layoutDirty {
		layoutEntries := make([]BindGroupLayoutEntry, len(p.entries))
		for i, e := range p.entries {
			layoutEntries[i] = BindGroupLayoutEntry{
				Binding:    e.Binding,
				Visibility: e.Visibility,
				Type:       e.Type,
			}
		}
		layout, err := backend.CreateBindGroupLayout(BindGroupLayoutDescriptor{
			Label:   p.label + " Layout",
			Entries: layoutEntries,
		})
		if err != nil {
			return fmt.Errorf("%s layout: %w", p.label, err)
		}
		if p.bindGroupLayout != 0 {
			backend.ReleaseBindGroupLayout(p.bindGroupLayout)
		}
		p.bindGroupLayout = layout
		p.layoutVersion++
		p.layoutRebuilds++
	}

	groupEntries := make([]BindGroupEntry, len(p.entries))
	for i, e := range p.entries {
		groupEntries[i] = BindGroupEntry{Binding: e.Binding, Buffer: e.Buffer}
	}
	group, err := backend.CreateBindGroup(BindGroupDescriptor{
		Label:   p.label + " Bind Group",
		Layout:  p.bindGroupLayout,
		Entries: groupEntries,
	})
	if err != nil {
		return fmt.Errorf("%s bind group: %w", p.label, err)
	}
	if p.bindGroup != 0 {
		backend.ReleaseBindGroup(p.bindGroup)
	}
	p.bindGroup = group
	p.groupRebuilds++

	p.layoutDirty = false
	p.groupDirty = false
	return nil
}

func (p *bindGroupProvider) Release(backend Backend) {
	if p.bindGroup != 0 {
		backend.ReleaseBindGroup(p.bindGroup)
		p.bindGroup = 0
	}
	if p.bindGroupLayout != 0 {
		backend.ReleaseBindGroupLayout(p.bindGroupLayout)
		p.bindGroupLayout = 0
	}
	p.layoutDirty = true
}

func (p *bindGroupProvider) Rebuilds() (layouts, groups int) {
	return p.layoutRebuilds, p.groupRebuilds
}
