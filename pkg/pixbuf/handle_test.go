package pixbuf

import (
	"testing"

	"github.com/thesyncim/libgopixbuf/pkg/frame"
)

func TestHandleEncoding(t *testing.T) {
	tests := []struct {
		index int
		gen   uint32
	}{
		{0, 1},
		{1, 1},
		{63, 7},
		{1000, 1 << 31},
		{0, ^uint32(0)},
	}

	for _, tt := range tests {
		h := makeHandle(tt.index, tt.gen)
		if h == 0 {
			t.Errorf("makeHandle(%d, %d) = 0", tt.index, tt.gen)
		}
		if got := h.index(); got != tt.index {
			t.Errorf("index() = %d, want %d", got, tt.index)
		}
		if got := h.generation(); got != tt.gen {
			t.Errorf("generation() = %d, want %d", got, tt.gen)
		}
	}
}

func TestZeroHandle(t *testing.T) {
	var h Handle
	if h.index() != -1 {
		t.Errorf("zero handle index = %d, want -1", h.index())
	}
	if h.String() != "pixbuf(nil)" {
		t.Errorf("String() = %q", h.String())
	}
	if got := makeHandle(3, 2).String(); got != "pixbuf(3/2)" {
		t.Errorf("String() = %q, want pixbuf(3/2)", got)
	}
}

func TestGenerationWraps(t *testing.T) {
	r := NewRegistry(1)
	r.slots[0].gen = ^uint32(0)

	h, err := r.Register(&fakeBuffer{w: 1, h: 1, data: make([]byte, 4)})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if r.slots[0].gen != 1 {
		t.Errorf("generation after wrap = %d, want 1", r.slots[0].gen)
	}
}

// fakeBuffer counts Lock/Unlock pairs.
type fakeBuffer struct {
	w, h    int
	data    []byte
	locks   int
	unlocks int
	lockErr error
	trim    int
}

func (b *fakeBuffer) Width() int  { return b.w }
func (b *fakeBuffer) Height() int { return b.h }

func (b *fakeBuffer) Format() frame.PixelFormat { return frame.PixelFormatBGRA }
func (b *fakeBuffer) ByteCount() int           { return len(b.data) }

func (b *fakeBuffer) Lock(readOnly bool) ([]byte, error) {
	if b.lockErr != nil {
		return nil, b.lockErr
	}
	b.locks++
	return b.data[:len(b.data)-b.trim], nil
}

func (b *fakeBuffer) Unlock(readOnly bool) error {
	b.unlocks++
	return nil
}
