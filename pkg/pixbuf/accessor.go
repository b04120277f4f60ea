package pixbuf

import "fmt"

// ByteCount returns the total byte length of the buffer's pixel store.
func (r *Registry) ByteCount(h Handle) (int32, error) {
	var n int32
	err := r.meta(h, func(buf Buffer) { n = int32(buf.ByteCount()) })
	return n, err
}

// Width returns the buffer width in pixels.
func (r *Registry) Width(h Handle) (int32, error) {
	var n int32
	err := r.meta(h, func(buf Buffer) { n = int32(buf.Width()) })
	return n, err
}

// Height returns the buffer height in pixels.
func (r *Registry) Height(h Handle) (int32, error) {
	var n int32
	err := r.meta(h, func(buf Buffer) { n = int32(buf.Height()) })
	return n, err
}

// Bytes returns an independent copy of the whole pixel store.
// The result is exactly ByteCount bytes long; mutating it never affects
// the registered buffer.
func (r *Registry) Bytes(h Handle) ([]byte, error) {
	var out []byte
	err := r.View(h, func(v *View) error {
		n := v.ByteCount()
		if n > r.maxCopy {
			return fmt.Errorf("%w: %d bytes exceeds copy limit %d", ErrAllocation, n, r.maxCopy)
		}
		b, err := allocate(n)
		if err != nil {
			return err
		}
		copy(b, v.data)
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BytesInto copies min(ByteCount, maxLength, len(dst)) leading bytes of
// the pixel store into dst and returns the count. Bytes of dst past that
// count are left untouched. A maxLength of zero or less copies nothing
// and is not an error; the handle is still validated.
func (r *Registry) BytesInto(h Handle, dst []byte, maxLength int32) (int32, error) {
	var written int32
	err := r.View(h, func(v *View) error {
		if maxLength <= 0 {
			return nil
		}
		n := min(v.ByteCount(), int(maxLength), len(dst))
		written = int32(copy(dst[:n], v.data[:n]))
		return nil
	})
	return written, err
}

// Memcpy overwrites the leading length bytes of the buffer named by dst
// with src[srcOffset:srcOffset+length]. Any out-of-range offset or length
// fails with ErrBounds before a single byte is written.
func (r *Registry) Memcpy(src []byte, srcOffset, length int32, dst Handle) error {
	return r.Update(dst, func(v *MutableView) error {
		if srcOffset < 0 || length < 0 {
			return fmt.Errorf("%w: negative offset %d or length %d", ErrBounds, srcOffset, length)
		}
		end := int64(srcOffset) + int64(length)
		if end > int64(len(src)) {
			return fmt.Errorf("%w: source range [%d:%d] of %d bytes", ErrBounds, srcOffset, end, len(src))
		}
		if int(length) > v.ByteCount() {
			return fmt.Errorf("%w: %d bytes into %d-byte buffer", ErrBounds, length, v.ByteCount())
		}
		_, err := v.WriteAt(src[srcOffset:end], 0)
		return err
	})
}

// meta runs fn with the buffer under the slot's read lock. The backing
// store itself is not locked.
func (r *Registry) meta(h Handle, fn func(buf Buffer)) error {
	s, buf, err := r.acquire(h, false)
	if err != nil {
		return err
	}
	defer s.unlock(false)
	fn(buf)
	return nil
}

func allocate(n int) (b []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			b, err = nil, fmt.Errorf("%w: %v", ErrAllocation, rec)
		}
	}()
	return make([]byte, n), nil
}
