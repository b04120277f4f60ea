// Package ffi provides purego bindings to the CoreVideo pixel buffer API.
// Only darwin can load the framework; elsewhere LoadCoreVideo reports
// ErrNotSupported and every binding returns ErrLibraryNotLoaded.
package ffi

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

var (
	// ErrLibraryNotLoaded is returned when CoreVideo hasn't been loaded.
	ErrLibraryNotLoaded = errors.New("CoreVideo library not loaded")

	// ErrNotSupported is returned on platforms without CoreVideo.
	ErrNotSupported = errors.New("not supported")

	// CVReturn sentinels - these match kCVReturn codes and support errors.Is().
	ErrCVFailed             = errors.New("CoreVideo call failed")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrAllocationFailed     = errors.New("allocation failed")
	ErrUnsupported          = errors.New("unsupported operation")
	ErrInvalidPixelFormat   = errors.New("invalid pixel format")
	ErrInvalidSize          = errors.New("invalid size")
	ErrPoolAllocationFailed = errors.New("pool allocation failed")
)

// CVReturn codes from CoreVideo/CVReturn.h (int32 to match C int32_t)
const (
	CVReturnSuccess              int32 = 0
	CVReturnError                int32 = -6660
	CVReturnInvalidArgument      int32 = -6661
	CVReturnAllocationFailed     int32 = -6662
	CVReturnUnsupported          int32 = -6663
	CVReturnInvalidPixelFormat   int32 = -6680
	CVReturnInvalidSize          int32 = -6681
	CVReturnPoolAllocationFailed int32 = -6690
)

// CoreVideoPath is the default framework binary location.
const CoreVideoPath = "/System/Library/Frameworks/CoreVideo.framework/CoreVideo"

var (
	libHandle uintptr
	libLoaded atomic.Bool // Use atomic for lock-free reads
	libMu     sync.Mutex  // Still used for load/unload operations
)

// LoadCoreVideo loads the CoreVideo framework and binds the pixel buffer
// functions. The path can be overridden with LIBGOPIXBUF_COREVIDEO_PATH.
// Calling it again after a successful load is a no-op.
func LoadCoreVideo() error {
	libMu.Lock()
	defer libMu.Unlock()

	if libLoaded.Load() {
		return nil
	}

	path := CoreVideoPath
	if p := os.Getenv("LIBGOPIXBUF_COREVIDEO_PATH"); p != "" {
		path = p
	}

	handle, err := openCoreVideo(path)
	if err != nil {
		return err
	}

	libHandle = handle
	if err := registerFunctions(handle); err != nil {
		_ = dlcloseLibrary(handle)
		libHandle = 0
		return err
	}

	libLoaded.Store(true)
	return nil
}

// IsLoaded returns true if CoreVideo is loaded.
// Thread-safe due to atomic.Bool.
func IsLoaded() bool {
	return libLoaded.Load()
}

// Close unloads CoreVideo. Buffers created through it must be released first.
func Close() error {
	libMu.Lock()
	defer libMu.Unlock()

	if !libLoaded.Load() {
		return nil
	}

	if err := dlcloseLibrary(libHandle); err != nil {
		return err
	}

	libLoaded.Store(false)
	libHandle = 0
	return nil
}

// CVError converts a CVReturn code to a Go error.
// Returns sentinel errors that support errors.Is() comparisons.
func CVError(code int32) error {
	switch code {
	case CVReturnSuccess:
		return nil
	case CVReturnError:
		return ErrCVFailed
	case CVReturnInvalidArgument:
		return ErrInvalidArgument
	case CVReturnAllocationFailed:
		return ErrAllocationFailed
	case CVReturnUnsupported:
		return ErrUnsupported
	case CVReturnInvalidPixelFormat:
		return ErrInvalidPixelFormat
	case CVReturnInvalidSize:
		return ErrInvalidSize
	case CVReturnPoolAllocationFailed:
		return ErrPoolAllocationFailed
	default:
		return fmt.Errorf("unknown CVReturn: %d", code)
	}
}
