package pixbuf

import "fmt"

// Handle is an opaque token naming one registration of a pixel buffer.
//
// The low 32 bits hold the slot index plus one and the high 32 bits the
// slot generation at registration time. Zero is never a valid handle.
type Handle int64

func makeHandle(index int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(index+1)))
}

// index returns the slot index, or -1 for the zero handle.
func (h Handle) index() int {
	return int(uint32(uint64(h))) - 1
}

func (h Handle) generation() uint32 {
	return uint32(uint64(h) >> 32)
}

// String returns a debug representation "slot/generation".
func (h Handle) String() string {
	if h == 0 {
		return "pixbuf(nil)"
	}
	return fmt.Sprintf("pixbuf(%d/%d)", h.index(), h.generation())
}
