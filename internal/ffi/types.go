package ffi

import (
	"unsafe"
)

// UintptrPtr returns a uintptr to a uintptr variable.
func UintptrPtr(p *uintptr) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// BytesAt returns a slice aliasing size bytes of native memory at ptr.
// The slice is only valid while the memory stays locked; callers must not
// retain it. Returns nil for a null pointer or non-positive size.
func BytesAt(ptr uintptr, size int) []byte {
	if ptr == 0 || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
}
