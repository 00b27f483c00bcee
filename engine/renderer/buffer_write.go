package renderer

import "fmt"

// BufferWrite describes a single GPU buffer write operation at a given byte offset.
type BufferWrite struct {
	Buffer BufferHandle
	Offset uint64
	Data   []byte
}

// WriteBuffers issues every write in order and stops at the first failure.
//
// Parameters:
//   - backend: the GPU backend
//   - writes: the staged writes
//
// Returns:
//   - error: the first backend error, annotated with the failing write
func WriteBuffers(backend Backend, writes []BufferWrite) error {
	for _, w := range writes {
		if err := backend.WriteBuffer(w.Buffer, w.Offset, w.Data); err != nil {
			return fmt.Errorf("write %d bytes at %d: %w", len(w.Data), w.Offset, err)
		}
	}
	return nil
}
