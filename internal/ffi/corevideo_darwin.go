//go:build darwin

package ffi

import (
	"fmt"

	"github.com/ebitengine/purego"
)

func openCoreVideo(path string) (uintptr, error) {
	handle, err := dlopenLibrary(path, RTLD_NOW|RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return handle, nil
}

// registerFunctions binds every CoreVideo symbol. purego panics on a
// missing symbol, which is turned into an error here.
func registerFunctions(handle uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to bind CoreVideo: %v", r)
		}
	}()

	purego.RegisterLibFunc(&cvPixelBufferGetWidth, handle, "CVPixelBufferGetWidth")
	purego.RegisterLibFunc(&cvPixelBufferGetHeight, handle, "CVPixelBufferGetHeight")
	purego.RegisterLibFunc(&cvPixelBufferGetDataSize, handle, "CVPixelBufferGetDataSize")
	purego.RegisterLibFunc(&cvPixelBufferGetBytesPerRow, handle, "CVPixelBufferGetBytesPerRow")
	purego.RegisterLibFunc(&cvPixelBufferGetPixelFormatType, handle, "CVPixelBufferGetPixelFormatType")
	purego.RegisterLibFunc(&cvPixelBufferIsPlanar, handle, "CVPixelBufferIsPlanar")
	purego.RegisterLibFunc(&cvPixelBufferLockBaseAddress, handle, "CVPixelBufferLockBaseAddress")
	purego.RegisterLibFunc(&cvPixelBufferUnlockBaseAddress, handle, "CVPixelBufferUnlockBaseAddress")
	purego.RegisterLibFunc(&cvPixelBufferGetBaseAddress, handle, "CVPixelBufferGetBaseAddress")
	purego.RegisterLibFunc(&cvPixelBufferRetain, handle, "CVPixelBufferRetain")
	purego.RegisterLibFunc(&cvPixelBufferRelease, handle, "CVPixelBufferRelease")
	purego.RegisterLibFunc(&cvPixelBufferCreate, handle, "CVPixelBufferCreate")
	return nil
}
