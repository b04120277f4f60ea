package frame

import (
	"math"
	"testing"
	"time"
)

func TestNewFrame(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		format PixelFormat
		want   int
	}{
		{"720p BGRA", 1280, 720, PixelFormatBGRA, 1280 * 720 * 4},
		{"1080p RGB24", 1920, 1080, PixelFormatRGB24, 1920 * 1080 * 3},
		{"VGA UYVY", 640, 480, PixelFormatUYVY, 640 * 480 * 2},
		{"small gray", 320, 240, PixelFormatGray8, 320 * 240},
		{"2x2 RGBA", 2, 2, PixelFormatRGBA, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(tt.width, tt.height, tt.format)

			if f.Width != tt.width {
				t.Errorf("Width = %v, want %v", f.Width, tt.width)
			}
			if f.Height != tt.height {
				t.Errorf("Height = %v, want %v", f.Height, tt.height)
			}
			if f.Format != tt.format {
				t.Errorf("Format = %v, want %v", f.Format, tt.format)
			}
			if f.ByteCount() != tt.want {
				t.Errorf("ByteCount = %v, want %v", f.ByteCount(), tt.want)
			}
			if got := f.Stride() * f.Height; got != tt.want {
				t.Errorf("Stride*Height = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestByteCount(t *testing.T) {
	if got := ByteCount(2, 2, PixelFormatBGRA); got != 16 {
		t.Errorf("ByteCount(2, 2, BGRA) = %v, want 16", got)
	}
	if got := ByteCount(-1, 2, PixelFormatBGRA); got != 0 {
		t.Errorf("ByteCount with negative width = %v, want 0", got)
	}
	if got := ByteCount(2, 2, PixelFormat(99)); got != 0 {
		t.Errorf("ByteCount with unknown format = %v, want 0", got)
	}
	if got := ByteCount(math.MaxInt32, math.MaxInt32, PixelFormatBGRA); got != -1 {
		t.Errorf("ByteCount(MaxInt32, MaxInt32, BGRA) = %v, want -1", got)
	}
	if got := ByteCount(math.MaxInt, 1, PixelFormatRGB24); got != -1 {
		t.Errorf("ByteCount(MaxInt, 1, RGB24) = %v, want -1", got)
	}
}

func TestFrameClone(t *testing.T) {
	original := NewFrame(64, 48, PixelFormatBGRA)
	original.Sequence = 12345
	original.Timestamp = time.Second * 10

	for i := range original.Data {
		original.Data[i] = byte(i % 256)
	}

	clone := original.Clone()

	if clone.Width != original.Width || clone.Height != original.Height {
		t.Error("Clone dimensions don't match")
	}
	if clone.Format != original.Format {
		t.Error("Clone format doesn't match")
	}
	if clone.Sequence != original.Sequence {
		t.Error("Clone Sequence doesn't match")
	}
	if clone.Timestamp != original.Timestamp {
		t.Error("Clone Timestamp doesn't match")
	}
	if &clone.Data[0] == &original.Data[0] {
		t.Error("Clone should have separate data buffer")
	}

	for i := range original.Data {
		if clone.Data[i] != original.Data[i] {
			t.Errorf("Clone data mismatch at %d", i)
			break
		}
	}

	clone.Data[0] = 0xFF
	if original.Data[0] == 0xFF {
		t.Error("Mutating clone changed original")
	}
}

func TestPool(t *testing.T) {
	pool := NewPool(1280, 720, PixelFormatBGRA, 4)

	if pool.Available() != 4 {
		t.Fatalf("Available = %d, want 4", pool.Available())
	}

	frames := make([]*Frame, 4)
	for i := 0; i < 4; i++ {
		frames[i] = pool.Get()
		if frames[i] == nil {
			t.Fatalf("Got nil frame at index %d", i)
		}
		if frames[i].Width != 1280 || frames[i].Height != 720 {
			t.Error("Frame dimensions don't match pool config")
		}
		frames[i].Sequence = uint64(i + 1)
	}

	// Pool should be exhausted, next get allocates new
	extra := pool.Get()
	if extra == nil {
		t.Error("Pool should allocate new frame when exhausted")
	}

	for _, f := range frames {
		f.Release()
	}
	extra.Release()

	// maxSize caps the free list
	if pool.Available() != 4 {
		t.Errorf("Available = %d, want 4", pool.Available())
	}

	reused := pool.Get()
	if reused.Sequence != 0 {
		t.Error("Sequence should be reset on reuse")
	}
}

func TestPoolIgnoresForeignFrames(t *testing.T) {
	pool := NewPool(16, 16, PixelFormatGray8, 1)
	_ = pool.Get()

	pool.Put(NewFrame(16, 16, PixelFormatGray8))
	pool.Put(nil)

	if pool.Available() != 0 {
		t.Errorf("Available = %d, want 0", pool.Available())
	}
}

func TestPixelFormatString(t *testing.T) {
	tests := []struct {
		format PixelFormat
		str    string
	}{
		{PixelFormatBGRA, "BGRA"},
		{PixelFormatRGBA, "RGBA"},
		{PixelFormatARGB, "ARGB"},
		{PixelFormatRGB24, "RGB24"},
		{PixelFormatUYVY, "UYVY"},
		{PixelFormatYUY2, "YUY2"},
		{PixelFormatGray8, "Gray8"},
		{PixelFormat(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.str {
			t.Errorf("%d.String() = %v, want %v", int(tt.format), got, tt.str)
		}
	}
}

func TestFourCCRoundTrip(t *testing.T) {
	formats := []PixelFormat{
		PixelFormatBGRA, PixelFormatRGBA, PixelFormatARGB,
		PixelFormatRGB24, PixelFormatUYVY, PixelFormatYUY2, PixelFormatGray8,
	}
	for _, f := range formats {
		got, ok := PixelFormatFromFourCC(f.FourCC())
		if !ok || got != f {
			t.Errorf("PixelFormatFromFourCC(%#x) = %v, %v; want %v", f.FourCC(), got, ok, f)
		}
	}

	if _, ok := PixelFormatFromFourCC(0x34323076); ok { // '420v' is planar
		t.Error("planar format should not map")
	}
}

func TestParsePixelFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    PixelFormat
		wantErr bool
	}{
		{"bgra", PixelFormatBGRA, false},
		{"BGRA", PixelFormatBGRA, false},
		{" rgb ", PixelFormatRGB24, false},
		{"2vuy", PixelFormatUYVY, false},
		{"yuyv", PixelFormatYUY2, false},
		{"gray", PixelFormatGray8, false},
		{"nv12", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePixelFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePixelFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePixelFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPixelFormatText(t *testing.T) {
	var f PixelFormat
	if err := f.UnmarshalText([]byte("uyvy")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if f != PixelFormatUYVY {
		t.Errorf("UnmarshalText = %v, want UYVY", f)
	}

	text, err := PixelFormatRGB24.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "rgb24" {
		t.Errorf("MarshalText = %q, want rgb24", text)
	}

	if _, err := PixelFormat(-1).MarshalText(); err == nil {
		t.Error("MarshalText of unknown format should fail")
	}
}

func BenchmarkNewFrame(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NewFrame(1920, 1080, PixelFormatBGRA)
	}
}

func BenchmarkPool(b *testing.B) {
	pool := NewPool(1920, 1080, PixelFormatBGRA, 8)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		f := pool.Get()
		f.Release()
	}
}

func BenchmarkFrameClone(b *testing.B) {
	f := NewFrame(1920, 1080, PixelFormatBGRA)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = f.Clone()
	}
}
