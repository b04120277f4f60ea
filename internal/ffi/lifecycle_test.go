package ffi

import (
	"errors"
	"runtime"
	"testing"
)

const fourCCBGRA uint32 = 0x42475241

func requireCoreVideo(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "darwin" {
		if err := LoadCoreVideo(); !errors.Is(err, ErrNotSupported) {
			t.Fatalf("LoadCoreVideo on %s = %v, want ErrNotSupported", runtime.GOOS, err)
		}
		t.Skip("CoreVideo is only available on darwin")
	}
	if err := LoadCoreVideo(); err != nil {
		t.Fatalf("CoreVideo required: %v", err)
	}
}

func TestLoadCoreVideo_Idempotent(t *testing.T) {
	requireCoreVideo(t)

	if err := LoadCoreVideo(); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !IsLoaded() {
		t.Error("IsLoaded = false after load")
	}
}

func TestPixelBuffer_CreateRelease_Repeated(t *testing.T) {
	requireCoreVideo(t)

	// Create and release many times - verifies no handle leak
	for i := 0; i < 50; i++ {
		ref, err := CreatePixelBuffer(64, 48, fourCCBGRA)
		if err != nil {
			t.Fatalf("iteration %d: create: %v", i, err)
		}
		PixelBufferRelease(ref)
	}
}

func TestPixelBuffer_Info(t *testing.T) {
	requireCoreVideo(t)

	ref, err := CreatePixelBuffer(64, 48, fourCCBGRA)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer PixelBufferRelease(ref)

	info, err := PixelBufferGetInfo(ref)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 64x48", info.Width, info.Height)
	}
	if info.FourCC != fourCCBGRA {
		t.Errorf("FourCC = %#x, want %#x", info.FourCC, fourCCBGRA)
	}
	if info.Planar {
		t.Error("BGRA buffer reported planar")
	}
	if info.BytesPerRow < 64*4 {
		t.Errorf("BytesPerRow = %d, want >= %d", info.BytesPerRow, 64*4)
	}
	if info.DataSize < info.BytesPerRow*info.Height {
		t.Errorf("DataSize = %d, want >= %d", info.DataSize, info.BytesPerRow*info.Height)
	}
}

func TestPixelBuffer_LockWriteRead(t *testing.T) {
	requireCoreVideo(t)

	ref, err := CreatePixelBuffer(8, 8, fourCCBGRA)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer PixelBufferRelease(ref)

	info, _ := PixelBufferGetInfo(ref)

	base, err := PixelBufferLock(ref, LockFlagsNone)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	mem := BytesAt(base, info.DataSize)
	for i := range mem {
		mem[i] = byte(i)
	}
	if err := PixelBufferUnlock(ref, LockFlagsNone); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	base, err = PixelBufferLock(ref, LockFlagsReadOnly)
	if err != nil {
		t.Fatalf("read lock: %v", err)
	}
	got := append([]byte(nil), BytesAt(base, info.DataSize)...)
	if err := PixelBufferUnlock(ref, LockFlagsReadOnly); err != nil {
		t.Fatalf("read unlock: %v", err)
	}

	for i := range got {
		if got[i] != byte(i) {
			t.Fatalf("byte %d = %d, want %d", i, got[i], byte(i))
		}
	}
}

func TestCreatePixelBuffer_InvalidSize(t *testing.T) {
	requireCoreVideo(t)

	if _, err := CreatePixelBuffer(0, 10, fourCCBGRA); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("create 0x10 = %v, want ErrInvalidSize", err)
	}
}
