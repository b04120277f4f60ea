package pixbuf

import (
	"github.com/thesyncim/libgopixbuf/pkg/frame"
)

// Buffer is an externally owned pixel store that can be registered.
//
// The registry brackets every access with Lock/Unlock and never keeps the
// returned slice past Unlock. Lock may be called concurrently with
// readOnly=true; a readOnly=false lock is always exclusive.
type Buffer interface {
	// Width returns the width in pixels.
	Width() int

	// Height returns the height in pixels.
	Height() int

	// Format returns the pixel format agreed with the producer.
	Format() frame.PixelFormat

	// ByteCount returns the addressable length of the backing store.
	ByteCount() int

	// Lock pins the backing store and returns it. The slice must be
	// exactly ByteCount bytes long.
	Lock(readOnly bool) ([]byte, error)

	// Unlock releases a Lock with the same readOnly flag.
	Unlock(readOnly bool) error
}

// MemoryBuffer is a Buffer backed by a Go-heap frame.
type MemoryBuffer struct {
	f *frame.Frame
}

// NewMemoryBuffer wraps f. The frame stays owned by the caller.
func NewMemoryBuffer(f *frame.Frame) *MemoryBuffer {
	return &MemoryBuffer{f: f}
}

// Frame returns the wrapped frame.
func (b *MemoryBuffer) Frame() *frame.Frame { return b.f }

func (b *MemoryBuffer) Width() int                { return b.f.Width }
func (b *MemoryBuffer) Height() int               { return b.f.Height }
func (b *MemoryBuffer) Format() frame.PixelFormat { return b.f.Format }
func (b *MemoryBuffer) ByteCount() int            { return len(b.f.Data) }

func (b *MemoryBuffer) Lock(readOnly bool) ([]byte, error) {
	return b.f.Data, nil
}

func (b *MemoryBuffer) Unlock(readOnly bool) error {
	return nil
}
