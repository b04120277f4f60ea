package ffi

import "fmt"

// Lock flags for CVPixelBufferLockBaseAddress (CVPixelBufferLockFlags).
const (
	LockFlagsNone     uint64 = 0
	LockFlagsReadOnly uint64 = 1 // kCVPixelBufferLock_ReadOnly
)

// CoreVideo function pointers, populated by registerFunctions.
var (
	cvPixelBufferGetWidth           func(ref uintptr) uintptr
	cvPixelBufferGetHeight          func(ref uintptr) uintptr
	cvPixelBufferGetDataSize        func(ref uintptr) uintptr
	cvPixelBufferGetBytesPerRow     func(ref uintptr) uintptr
	cvPixelBufferGetPixelFormatType func(ref uintptr) uint32
	cvPixelBufferIsPlanar           func(ref uintptr) bool
	cvPixelBufferLockBaseAddress    func(ref uintptr, flags uint64) int32
	cvPixelBufferUnlockBaseAddress  func(ref uintptr, flags uint64) int32
	cvPixelBufferGetBaseAddress     func(ref uintptr) uintptr
	cvPixelBufferRetain             func(ref uintptr) uintptr
	cvPixelBufferRelease            func(ref uintptr)
	cvPixelBufferCreate             func(allocator, width, height uintptr, format uint32, attrs, out uintptr) int32
)

// PixelBufferInfo is the immutable geometry of a CVPixelBufferRef.
type PixelBufferInfo struct {
	Width       int
	Height      int
	DataSize    int
	BytesPerRow int
	FourCC      uint32
	Planar      bool
}

// PixelBufferGetInfo reads the geometry of ref.
func PixelBufferGetInfo(ref uintptr) (PixelBufferInfo, error) {
	if !libLoaded.Load() {
		return PixelBufferInfo{}, ErrLibraryNotLoaded
	}
	if ref == 0 {
		return PixelBufferInfo{}, ErrInvalidArgument
	}
	return PixelBufferInfo{
		Width:       int(cvPixelBufferGetWidth(ref)),
		Height:      int(cvPixelBufferGetHeight(ref)),
		DataSize:    int(cvPixelBufferGetDataSize(ref)),
		BytesPerRow: int(cvPixelBufferGetBytesPerRow(ref)),
		FourCC:      cvPixelBufferGetPixelFormatType(ref),
		Planar:      cvPixelBufferIsPlanar(ref),
	}, nil
}

// PixelBufferLock locks the base address of ref and returns it.
// Every successful call must be paired with PixelBufferUnlock using the
// same flags.
func PixelBufferLock(ref uintptr, flags uint64) (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	if ref == 0 {
		return 0, ErrInvalidArgument
	}
	if err := CVError(cvPixelBufferLockBaseAddress(ref, flags)); err != nil {
		return 0, err
	}
	base := cvPixelBufferGetBaseAddress(ref)
	if base == 0 {
		cvPixelBufferUnlockBaseAddress(ref, flags)
		return 0, fmt.Errorf("%w: nil base address", ErrCVFailed)
	}
	return base, nil
}

// PixelBufferUnlock unlocks a base address locked by PixelBufferLock.
func PixelBufferUnlock(ref uintptr, flags uint64) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	if ref == 0 {
		return ErrInvalidArgument
	}
	return CVError(cvPixelBufferUnlockBaseAddress(ref, flags))
}

// PixelBufferRetain increments the retain count of ref.
func PixelBufferRetain(ref uintptr) {
	if !libLoaded.Load() || ref == 0 {
		return
	}
	cvPixelBufferRetain(ref)
}

// PixelBufferRelease decrements the retain count of ref.
func PixelBufferRelease(ref uintptr) {
	if !libLoaded.Load() || ref == 0 {
		return
	}
	cvPixelBufferRelease(ref)
}

// CreatePixelBuffer allocates a new pixel buffer with a retain count of one.
func CreatePixelBuffer(width, height int, fourcc uint32) (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	if width <= 0 || height <= 0 {
		return 0, ErrInvalidSize
	}

	var out uintptr
	result := cvPixelBufferCreate(0, uintptr(width), uintptr(height), fourcc, 0, UintptrPtr(&out))
	if err := CVError(result); err != nil {
		return 0, err
	}
	if out == 0 {
		return 0, ErrAllocationFailed
	}
	return out, nil
}
