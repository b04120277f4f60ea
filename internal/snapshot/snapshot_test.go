package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/thesyncim/libgopixbuf/internal/testutil"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

func TestWriteRead(t *testing.T) {
	reg := pixbuf.NewRegistry(1)
	src := testutil.CreateTestFrame(32, 16, frame.PixelFormatBGRA)
	h := testutil.RegisterFrame(t, reg, src)

	var buf bytes.Buffer
	if err := Write(&buf, reg, h); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.Bytes()[:4]; string(got) != "PXB1" {
		t.Errorf("magic = %q, want PXB1", got)
	}

	f, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Width != 32 || f.Height != 16 || f.Format != frame.PixelFormatBGRA {
		t.Errorf("frame = %dx%d %v, want 32x16 BGRA", f.Width, f.Height, f.Format)
	}
	if !bytes.Equal(f.Data, src.Data) {
		t.Error("pixel data differs after round trip")
	}
}

func TestRestore(t *testing.T) {
	reg := pixbuf.NewRegistry(2)
	src := testutil.CreateTestFrame(8, 8, frame.PixelFormatRGBA)
	hs := testutil.RegisterFrame(t, reg, src)

	var buf bytes.Buffer
	if err := Write(&buf, reg, hs); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dst := frame.NewFrame(8, 8, frame.PixelFormatRGBA)
	hd := testutil.RegisterFrame(t, reg, dst)
	if err := Restore(&buf, reg, hd); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !bytes.Equal(dst.Data, src.Data) {
		t.Error("restored buffer differs from source")
	}
}

func TestRestoreMismatch(t *testing.T) {
	reg := pixbuf.NewRegistry(2)
	hs := testutil.RegisterFrame(t, reg, testutil.CreateTestFrame(8, 8, frame.PixelFormatRGBA))

	tests := []struct {
		name string
		dst  *frame.Frame
	}{
		{"smaller", frame.NewFrame(4, 4, frame.PixelFormatRGBA)},
		{"other format", frame.NewFrame(8, 8, frame.PixelFormatBGRA)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, reg, hs); err != nil {
				t.Fatalf("Write: %v", err)
			}
			hd := testutil.RegisterFrame(t, reg, tt.dst)
			defer reg.Release(hd)

			if err := Restore(&buf, reg, hd); !errors.Is(err, ErrGeometryMismatch) {
				t.Errorf("Restore = %v, want ErrGeometryMismatch", err)
			}
			for i, b := range tt.dst.Data {
				if b != 0 {
					t.Fatalf("destination byte %d = %d, want untouched 0", i, b)
				}
			}
		})
	}
}

func TestRestorePaddedIntoPacked(t *testing.T) {
	// 4x2 RGB24 with 4 bytes of padding per row.
	padded := &frame.Frame{Width: 4, Height: 2, Format: frame.PixelFormatRGB24, Data: make([]byte, 32)}
	for i := range padded.Data {
		padded.Data[i] = byte(i + 1)
	}
	var buf bytes.Buffer
	hdr := Header{Width: 4, Height: 2, FourCC: frame.PixelFormatRGB24.FourCC(), ByteCount: 32}
	if err := WriteFrame(&buf, hdr, padded.Data); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	reg := pixbuf.NewRegistry(1)
	dst := frame.NewFrame(4, 2, frame.PixelFormatRGB24)
	h := testutil.RegisterFrame(t, reg, dst)
	defer reg.Release(h)

	if err := Restore(&buf, reg, h); !errors.Is(err, ErrGeometryMismatch) {
		t.Errorf("Restore = %v, want ErrGeometryMismatch", err)
	}
	for i, b := range dst.Data {
		if b != 0 {
			t.Fatalf("destination byte %d = %d, want untouched 0", i, b)
		}
	}
}

func TestWriteStaleHandle(t *testing.T) {
	reg := pixbuf.NewRegistry(1)
	h := testutil.RegisterFrame(t, reg, testutil.CreateGrayFrame(2, 2, frame.PixelFormatGray8))
	_ = reg.Release(h)

	var buf bytes.Buffer
	if err := Write(&buf, reg, h); !errors.Is(err, pixbuf.ErrInvalidHandle) {
		t.Errorf("Write = %v, want ErrInvalidHandle", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for a stale handle", buf.Len())
	}
}

func header(magic string, hdr Header) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, hdr)
	return buf.Bytes()
}

func TestReadInvalid(t *testing.T) {
	bgra := frame.PixelFormatBGRA.FourCC()

	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", header("PXB9", Header{1, 1, bgra, 4})},
		{"unknown fourcc", header("PXB1", Header{1, 1, 0xDEADBEEF, 4})},
		{"byte count too small", header("PXB1", Header{2, 2, bgra, 15})},
		{"byte count over limit", header("PXB1", Header{1, 1, bgra, pixbuf.DefaultMaxCopyBytes + 1})},
		{"missing pixel data", header("PXB1", Header{1, 1, bgra, 4})},
		{"overflowing geometry", header("PXB1", Header{math.MaxInt32, math.MaxInt32, bgra, 16})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(tt.data)); !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Read = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestWriteFrameLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, Header{Width: 1, Height: 1, FourCC: frame.PixelFormatGray8.FourCC(), ByteCount: 2}, []byte{1})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("WriteFrame = %v, want ErrInvalidFormat", err)
	}
}

func TestCompresses(t *testing.T) {
	reg := pixbuf.NewRegistry(1)
	f := testutil.CreateGrayFrame(256, 256, frame.PixelFormatBGRA)
	h := testutil.RegisterFrame(t, reg, f)

	var buf bytes.Buffer
	if err := Write(&buf, reg, h); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() >= len(f.Data)/10 {
		t.Errorf("snapshot of a flat frame is %d bytes, want < %d", buf.Len(), len(f.Data)/10)
	}
}

func BenchmarkWrite(b *testing.B) {
	reg := pixbuf.NewRegistry(1)
	h := testutil.RegisterFrame(b, reg, testutil.CreateTestFrame(640, 480, frame.PixelFormatBGRA))

	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := Write(&buf, reg, h); err != nil {
			b.Fatal(err)
		}
	}
}
