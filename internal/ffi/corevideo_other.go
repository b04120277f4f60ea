//go:build !darwin

package ffi

func openCoreVideo(path string) (uintptr, error) {
	return 0, ErrNotSupported
}

func registerFunctions(handle uintptr) error {
	return ErrNotSupported
}

func dlcloseLibrary(handle uintptr) error {
	return nil
}
