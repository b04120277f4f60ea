// Package frame provides pixel formats and packed video frame types.
package frame

import (
	"fmt"
	"math"
	"strings"
)

// PixelFormat represents the packed pixel layout of a buffer.
//
// The format is agreed out of band between a producer and its readers;
// the accessor itself only moves bytes.
type PixelFormat int

const (
	// PixelFormatBGRA is 32-bit BGRA, the default CoreVideo capture format.
	PixelFormatBGRA PixelFormat = iota

	// PixelFormatRGBA is 32-bit RGBA.
	PixelFormatRGBA

	// PixelFormatARGB is 32-bit ARGB (big-endian component order).
	PixelFormatARGB

	// PixelFormatRGB24 is 24-bit packed RGB.
	PixelFormatRGB24

	// PixelFormatUYVY is packed YUV 4:2:2, Cb Y0 Cr Y1 ('2vuy').
	PixelFormatUYVY

	// PixelFormatYUY2 is packed YUV 4:2:2, Y0 Cb Y1 Cr ('yuvs').
	PixelFormatYUY2

	// PixelFormatGray8 is a single 8-bit luminance component.
	PixelFormatGray8
)

// CoreVideo pixel format type codes (OSType four character codes).
const (
	FourCCBGRA  uint32 = 0x42475241 // 'BGRA'
	FourCCRGBA  uint32 = 0x52474241 // 'RGBA'
	FourCCARGB  uint32 = 0x00000020
	FourCCRGB24 uint32 = 0x00000018
	FourCCUYVY  uint32 = 0x32767579 // '2vuy'
	FourCCYUY2  uint32 = 0x79757673 // 'yuvs'
	FourCCGray8 uint32 = 0x4C303038 // 'L008'
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatBGRA:
		return "BGRA"
	case PixelFormatRGBA:
		return "RGBA"
	case PixelFormatARGB:
		return "ARGB"
	case PixelFormatRGB24:
		return "RGB24"
	case PixelFormatUYVY:
		return "UYVY"
	case PixelFormatYUY2:
		return "YUY2"
	case PixelFormatGray8:
		return "Gray8"
	default:
		return "Unknown"
	}
}

// BytesPerPixel returns the packed size of one pixel, or 0 for unknown formats.
// For the 4:2:2 formats this is the average over a macropixel pair.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatBGRA, PixelFormatRGBA, PixelFormatARGB:
		return 4
	case PixelFormatRGB24:
		return 3
	case PixelFormatUYVY, PixelFormatYUY2:
		return 2
	case PixelFormatGray8:
		return 1
	default:
		return 0
	}
}

// FourCC returns the CoreVideo pixel format type for f, or 0 if unknown.
func (f PixelFormat) FourCC() uint32 {
	switch f {
	case PixelFormatBGRA:
		return FourCCBGRA
	case PixelFormatRGBA:
		return FourCCRGBA
	case PixelFormatARGB:
		return FourCCARGB
	case PixelFormatRGB24:
		return FourCCRGB24
	case PixelFormatUYVY:
		return FourCCUYVY
	case PixelFormatYUY2:
		return FourCCYUY2
	case PixelFormatGray8:
		return FourCCGray8
	default:
		return 0
	}
}

// Valid reports whether f is a known packed format.
func (f PixelFormat) Valid() bool {
	return f.BytesPerPixel() > 0
}

// PixelFormatFromFourCC maps a CoreVideo pixel format type to a PixelFormat.
func PixelFormatFromFourCC(code uint32) (PixelFormat, bool) {
	switch code {
	case FourCCBGRA:
		return PixelFormatBGRA, true
	case FourCCRGBA:
		return PixelFormatRGBA, true
	case FourCCARGB:
		return PixelFormatARGB, true
	case FourCCRGB24:
		return PixelFormatRGB24, true
	case FourCCUYVY:
		return PixelFormatUYVY, true
	case FourCCYUY2:
		return PixelFormatYUY2, true
	case FourCCGray8:
		return PixelFormatGray8, true
	default:
		return 0, false
	}
}

// ParsePixelFormat parses a case-insensitive format name such as "bgra".
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bgra":
		return PixelFormatBGRA, nil
	case "rgba":
		return PixelFormatRGBA, nil
	case "argb":
		return PixelFormatARGB, nil
	case "rgb24", "rgb":
		return PixelFormatRGB24, nil
	case "uyvy", "2vuy":
		return PixelFormatUYVY, nil
	case "yuy2", "yuyv", "yuvs":
		return PixelFormatYUY2, nil
	case "gray8", "gray", "l008":
		return PixelFormatGray8, nil
	default:
		return 0, fmt.Errorf("unknown pixel format: %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *PixelFormat) UnmarshalText(text []byte) error {
	v, err := ParsePixelFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f PixelFormat) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown pixel format: %d", int(f))
	}
	return []byte(strings.ToLower(f.String())), nil
}

// ByteCount returns width*height*BytesPerPixel for a packed frame.
// Returns 0 for negative dimensions or unknown formats, and -1 when the
// product does not fit in an int.
func ByteCount(width, height int, format PixelFormat) int {
	if width < 0 || height < 0 {
		return 0
	}
	bpp := format.BytesPerPixel()
	if width == 0 || height == 0 || bpp == 0 {
		return 0
	}
	if width > math.MaxInt/bpp || height > math.MaxInt/(width*bpp) {
		return -1
	}
	return width * height * bpp
}
