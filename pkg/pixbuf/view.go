package pixbuf

import (
	"fmt"
	"io"

	"github.com/thesyncim/libgopixbuf/pkg/frame"
)

// View is a validated, locked window onto a registered buffer.
// It is only usable inside the callback it was passed to.
type View struct {
	buf    Buffer
	data   []byte
	closed bool
}

// Width returns the width in pixels.
func (v *View) Width() int { return v.buf.Width() }

// Height returns the height in pixels.
func (v *View) Height() int { return v.buf.Height() }

// Format returns the buffer's pixel format.
func (v *View) Format() frame.PixelFormat { return v.buf.Format() }

// ByteCount returns the length of the pixel store.
func (v *View) ByteCount() int { return len(v.data) }

// ReadAt implements io.ReaderAt over the pixel store.
func (v *View) ReadAt(p []byte, off int64) (int, error) {
	if v.closed {
		return 0, ErrInvalidHandle
	}
	if off < 0 || off > int64(len(v.data)) {
		return 0, fmt.Errorf("%w: read offset %d of %d", ErrBounds, off, len(v.data))
	}
	n := copy(p, v.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// MutableView is a View holding the buffer's exclusive lock.
type MutableView struct {
	View
}

// WriteAt copies p into the pixel store at off. It writes all of p or
// nothing; a write that would cross the end fails with ErrBounds.
func (v *MutableView) WriteAt(p []byte, off int64) (int, error) {
	if v.closed {
		return 0, ErrInvalidHandle
	}
	if off < 0 || off+int64(len(p)) > int64(len(v.data)) {
		return 0, fmt.Errorf("%w: write of %d bytes at %d into %d", ErrBounds, len(p), off, len(v.data))
	}
	return copy(v.data[off:], p), nil
}

// View runs fn with a read-locked view of h. Concurrent Views of the same
// handle may overlap; Memcpy, Update and Release wait for them.
func (r *Registry) View(h Handle, fn func(v *View) error) error {
	return r.withData(h, false, func(buf Buffer, data []byte) error {
		v := &View{buf: buf, data: data}
		defer func() { v.closed = true }()
		return fn(v)
	})
}

// Update runs fn with an exclusively locked, writable view of h.
func (r *Registry) Update(h Handle, fn func(v *MutableView) error) error {
	return r.withData(h, true, func(buf Buffer, data []byte) error {
		v := &MutableView{View{buf: buf, data: data}}
		defer func() { v.closed = true }()
		return fn(v)
	})
}

// withData acquires the slot, locks the backing store and trims it to
// ByteCount for the duration of fn.
func (r *Registry) withData(h Handle, exclusive bool, fn func(buf Buffer, data []byte) error) (err error) {
	s, buf, err := r.acquire(h, exclusive)
	if err != nil {
		return err
	}
	defer s.unlock(exclusive)

	readOnly := !exclusive
	data, err := buf.Lock(readOnly)
	if err != nil {
		return fmt.Errorf("pixbuf: lock %v: %w", h, err)
	}
	defer func() {
		if uerr := buf.Unlock(readOnly); uerr != nil && err == nil {
			err = fmt.Errorf("pixbuf: unlock %v: %w", h, uerr)
		}
	}()

	n := buf.ByteCount()
	if len(data) < n {
		return fmt.Errorf("%w: backing store is %d bytes, want %d", ErrInvalidBuffer, len(data), n)
	}
	return fn(buf, data[:n:n])
}
