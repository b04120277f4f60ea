package ffi

import (
	"errors"
	"testing"
	"unsafe"
)

func TestBytesAt_Invalid(t *testing.T) {
	data := []byte{1, 2, 3}
	ptr := uintptr(unsafe.Pointer(&data[0]))

	tests := []struct {
		name string
		ptr  uintptr
		size int
	}{
		{"null pointer", 0, 100},
		{"zero size", ptr, 0},
		{"negative size", ptr, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BytesAt(tt.ptr, tt.size); got != nil {
				t.Errorf("BytesAt = %v, want nil", got)
			}
		})
	}
}

func TestBytesAt_Aliases(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	view := BytesAt(uintptr(unsafe.Pointer(&data[0])), len(data))
	if len(view) != 4 {
		t.Fatalf("expected length 4, got %d", len(view))
	}
	view[3] = 40
	if data[3] != 40 {
		t.Error("BytesAt should alias the underlying memory")
	}
}

func TestCVError_AllCodes(t *testing.T) {
	tests := []struct {
		code     int32
		expected error
	}{
		{CVReturnSuccess, nil},
		{CVReturnError, ErrCVFailed},
		{CVReturnInvalidArgument, ErrInvalidArgument},
		{CVReturnAllocationFailed, ErrAllocationFailed},
		{CVReturnUnsupported, ErrUnsupported},
		{CVReturnInvalidPixelFormat, ErrInvalidPixelFormat},
		{CVReturnInvalidSize, ErrInvalidSize},
		{CVReturnPoolAllocationFailed, ErrPoolAllocationFailed},
	}

	for _, tc := range tests {
		result := CVError(tc.code)
		if result != tc.expected {
			t.Errorf("CVError(%d) = %v, want %v", tc.code, result, tc.expected)
		}
	}
}

func TestCVError_UnknownCode(t *testing.T) {
	err := CVError(-999)
	if err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestBindingsRequireLoad(t *testing.T) {
	if IsLoaded() {
		t.Skip("CoreVideo already loaded")
	}

	if _, err := PixelBufferGetInfo(1); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("PixelBufferGetInfo = %v, want ErrLibraryNotLoaded", err)
	}
	if _, err := PixelBufferLock(1, LockFlagsReadOnly); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("PixelBufferLock = %v, want ErrLibraryNotLoaded", err)
	}
	if err := PixelBufferUnlock(1, LockFlagsReadOnly); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("PixelBufferUnlock = %v, want ErrLibraryNotLoaded", err)
	}
	if _, err := CreatePixelBuffer(2, 2, 0x42475241); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("CreatePixelBuffer = %v, want ErrLibraryNotLoaded", err)
	}

	// Must not crash when unloaded.
	PixelBufferRetain(1)
	PixelBufferRelease(1)
}
