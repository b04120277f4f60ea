// Package corevideo exposes CoreVideo pixel buffers as pixbuf.Buffer values.
//
// A producer that already holds a CVPixelBufferRef (for example one frame
// from a capture callback) wraps it with Wrap and registers the result;
// the wrapper neither retains nor releases the ref. New allocates a buffer
// owned by the wrapper, released by Close.
package corevideo

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/thesyncim/libgopixbuf/internal/ffi"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

// Common errors
var (
	ErrNilRef            = errors.New("nil CVPixelBufferRef")
	ErrPlanar            = errors.New("planar pixel buffers are not supported")
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	ErrClosed            = errors.New("pixel buffer is closed")
)

// Buffer is a pixbuf.Buffer backed by a CVPixelBufferRef.
type Buffer struct {
	ref    uintptr
	info   ffi.PixelBufferInfo
	format frame.PixelFormat
	owned  bool
	closed atomic.Bool
}

var _ pixbuf.Buffer = (*Buffer)(nil)

// Wrap wraps a producer-owned CVPixelBufferRef. The ref must stay valid
// until the wrapper is unregistered.
func Wrap(ref uintptr) (*Buffer, error) {
	if err := ffi.LoadCoreVideo(); err != nil {
		return nil, err
	}
	if ref == 0 {
		return nil, ErrNilRef
	}
	return wrap(ref, false)
}

// New allocates a CoreVideo pixel buffer of the given geometry.
// The caller must Close it after unregistering.
func New(width, height int, format frame.PixelFormat) (*Buffer, error) {
	if err := ffi.LoadCoreVideo(); err != nil {
		return nil, err
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}

	ref, err := ffi.CreatePixelBuffer(width, height, format.FourCC())
	if err != nil {
		return nil, err
	}

	b, err := wrap(ref, true)
	if err != nil {
		ffi.PixelBufferRelease(ref)
		return nil, err
	}
	return b, nil
}

func wrap(ref uintptr, owned bool) (*Buffer, error) {
	info, err := ffi.PixelBufferGetInfo(ref)
	if err != nil {
		return nil, err
	}
	if info.Planar {
		return nil, ErrPlanar
	}
	format, ok := frame.PixelFormatFromFourCC(info.FourCC)
	if !ok {
		return nil, fmt.Errorf("%w: fourcc %#08x", ErrUnsupportedFormat, info.FourCC)
	}
	return &Buffer{ref: ref, info: info, format: format, owned: owned}, nil
}

// Ref returns the underlying CVPixelBufferRef.
func (b *Buffer) Ref() uintptr { return b.ref }

// BytesPerRow returns the row stride, which may include padding.
func (b *Buffer) BytesPerRow() int { return b.info.BytesPerRow }

func (b *Buffer) Width() int                { return b.info.Width }
func (b *Buffer) Height() int               { return b.info.Height }
func (b *Buffer) Format() frame.PixelFormat { return b.format }

// ByteCount returns CVPixelBufferGetDataSize, including any row padding.
func (b *Buffer) ByteCount() int { return b.info.DataSize }

// Lock locks the base address and returns the pixel store.
func (b *Buffer) Lock(readOnly bool) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	base, err := ffi.PixelBufferLock(b.ref, lockFlags(readOnly))
	if err != nil {
		return nil, err
	}
	return ffi.BytesAt(base, b.info.DataSize), nil
}

// Unlock unlocks the base address.
func (b *Buffer) Unlock(readOnly bool) error {
	return ffi.PixelBufferUnlock(b.ref, lockFlags(readOnly))
}

// Close releases the ref if this wrapper created it. Wrapped refs are
// left to their producer.
func (b *Buffer) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if b.owned {
		ffi.PixelBufferRelease(b.ref)
	}
	return nil
}

func lockFlags(readOnly bool) uint64 {
	if readOnly {
		return ffi.LockFlagsReadOnly
	}
	return ffi.LockFlagsNone
}
