package renderer

// slotBuffer is the CPU mirror of one GPU buffer made of fixed-size slots.
// Writes land in data and mark their slot dirty; flush uploads contiguous dirty runs.
type slotBuffer struct {
	name   string
	kind   BindingType
	stride int
	data   []byte
	dirty  []bool
	handle BufferHandle
}

func newSlotBuffer(name string, kind BindingType, stride, slots int) *slotBuffer {
	return &slotBuffer{
		name:   name,
		kind:   kind,
		stride: stride,
		data:   make([]byte, stride*slots),
		dirty:  make([]bool, slots),
	}
}

func (b *slotBuffer) slots() int {
	return len(b.dirty)
}

func (b *slotBuffer) size() uint64 {
	return uint64(len(b.data))
}

// write copies src into slot index, truncated to the stride. Out-of-range slots are ignored.
func (b *slotBuffer) write(index int, src []byte) bool {
	if index < 0 || index >= b.slots() {
		return false
	}
	off := index * b.stride
	n := copy(b.data[off:off+b.stride], src)
	clear(b.data[off+n : off+b.stride])
	b.dirty[index] = true
	return true
}

// zero clears slot index and marks it dirty.
func (b *slotBuffer) zero(index int) {
	if index < 0 || index >= b.slots() {
		return
	}
	clear(b.data[index*b.stride : (index+1)*b.stride])
	b.dirty[index] = true
}

func (b *slotBuffer) slot(index int) []byte {
	if index < 0 || index >= b.slots() {
		return nil
	}
	return b.data[index*b.stride : (index+1)*b.stride]
}

func (b *slotBuffer) markAllDirty() {
	for i := range b.dirty {
		b.dirty[i] = true
	}
}

func (b *slotBuffer) isDirty() bool {
	for _, d := range b.dirty {
		if d {
			return true
		}
	}
	return false
}

// pendingWrites coalesces contiguous dirty slots into one write each and clears the flags.
func (b *slotBuffer) pendingWrites() []BufferWrite {
	var writes []BufferWrite
	for i := 0; i < len(b.dirty); {
		if !b.dirty[i] {
			i++
			continue
		}
		start := i
		for i < len(b.dirty) && b.dirty[i] {
			b.dirty[i] = false
			i++
		}
		writes = append(writes, BufferWrite{
			Buffer: b.handle,
			Offset: uint64(start * b.stride),
			Data:   b.data[start*b.stride : i*b.stride],
		})
	}
	return writes
}
