// Package testutil provides shared test utilities for libgopixbuf tests.
package testutil

import (
	"runtime"
	"testing"

	"github.com/thesyncim/libgopixbuf/internal/ffi"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

// CreateTestFrame creates a packed frame filled with a diagonal gradient.
// Every byte depends on its position, so misplaced copies are detectable.
func CreateTestFrame(width, height int, format frame.PixelFormat) *frame.Frame {
	f := frame.NewFrame(width, height, format)
	FillGradient(f, 0)
	return f
}

// FillGradient writes the gradient pattern shifted by seed into f.
func FillGradient(f *frame.Frame, seed int) {
	bpp := f.Format.BytesPerPixel()
	if bpp == 0 {
		return
	}
	for i := range f.Data {
		px := i / bpp
		y := px / max(f.Width, 1)
		x := px % max(f.Width, 1)
		f.Data[i] = byte((x + y + i%bpp*64 + seed) % 256)
	}
}

// CreateGrayFrame creates a frame with every byte set to 128.
func CreateGrayFrame(width, height int, format frame.PixelFormat) *frame.Frame {
	f := frame.NewFrame(width, height, format)
	for i := range f.Data {
		f.Data[i] = 128
	}
	return f
}

// RegisterFrame registers f as a MemoryBuffer and releases it at test cleanup
// unless the test already did.
func RegisterFrame(tb testing.TB, reg *pixbuf.Registry, f *frame.Frame) pixbuf.Handle {
	tb.Helper()
	h, err := reg.Register(pixbuf.NewMemoryBuffer(f))
	if err != nil {
		tb.Fatalf("register: %v", err)
	}
	tb.Cleanup(func() {
		if reg.Valid(h) {
			_ = reg.Release(h)
		}
	})
	return h
}

// RequireCoreVideo skips the test unless CoreVideo can be loaded.
func RequireCoreVideo(tb testing.TB) {
	tb.Helper()
	if runtime.GOOS != "darwin" {
		tb.Skip("CoreVideo is only available on darwin")
	}
	if err := ffi.LoadCoreVideo(); err != nil {
		tb.Skipf("CoreVideo not available: %v", err)
	}
}
