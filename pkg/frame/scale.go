package frame

import (
	"errors"
	"fmt"
)

// ErrScaleMismatch is returned when two frames cannot be scaled into each other.
var ErrScaleMismatch = errors.New("frames cannot be scaled")

// unit returns the bytes per addressable unit and pixels per unit.
// Packed 4:2:2 formats share chroma across a pixel pair, so they scale in
// 4-byte macropixels.
func (f PixelFormat) unit() (bytes, pixels int) {
	switch f {
	case PixelFormatUYVY, PixelFormatYUY2:
		return 4, 2
	default:
		return f.BytesPerPixel(), 1
	}
}

// Scale resamples src into dst using a box filter (area averaging) per
// component. dst must already be allocated with the target dimensions and
// the same format. Upscaling repeats source units.
func Scale(src, dst *Frame) error {
	if err := checkScale(src, dst); err != nil {
		return err
	}
	ub, up := src.Format.unit()
	scalePacked(src.Data, dst.Data, src.Width/up, src.Height, dst.Width/up, dst.Height, ub)
	return nil
}

// ScaleNearest resamples src into dst using nearest neighbor (fast but
// lower quality).
func ScaleNearest(src, dst *Frame) error {
	if err := checkScale(src, dst); err != nil {
		return err
	}
	ub, up := src.Format.unit()
	srcW, dstW := src.Width/up, dst.Width/up
	srcStride, dstStride := srcW*ub, dstW*ub

	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(src.Height) / float64(dst.Height)

	for dstY := 0; dstY < dst.Height; dstY++ {
		srcRow := int(float64(dstY)*yRatio) * srcStride
		dstRow := dstY * dstStride
		for dstX := 0; dstX < dstW; dstX++ {
			srcX := int(float64(dstX) * xRatio)
			copy(dst.Data[dstRow+dstX*ub:dstRow+(dstX+1)*ub], src.Data[srcRow+srcX*ub:])
		}
	}
	return nil
}

func checkScale(src, dst *Frame) error {
	if src.Format != dst.Format {
		return fmt.Errorf("%w: format %v into %v", ErrScaleMismatch, src.Format, dst.Format)
	}
	if !src.Format.Valid() {
		return fmt.Errorf("%w: unknown format %v", ErrScaleMismatch, src.Format)
	}
	if src.Width <= 0 || src.Height <= 0 || dst.Width <= 0 || dst.Height <= 0 {
		return fmt.Errorf("%w: empty frame", ErrScaleMismatch)
	}
	_, up := src.Format.unit()
	if src.Width%up != 0 || dst.Width%up != 0 {
		return fmt.Errorf("%w: %v needs even widths", ErrScaleMismatch, src.Format)
	}
	if len(src.Data) < ByteCount(src.Width, src.Height, src.Format) ||
		len(dst.Data) < ByteCount(dst.Width, dst.Height, dst.Format) {
		return fmt.Errorf("%w: short pixel store", ErrScaleMismatch)
	}
	return nil
}

// scalePacked box-filters an interleaved plane of srcW x srcH units, each
// ub bytes wide, into dstW x dstH units.
func scalePacked(src, dst []byte, srcW, srcH, dstW, dstH, ub int) {
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)
	srcStride, dstStride := srcW*ub, dstW*ub

	sum := make([]int, ub)
	for dstY := 0; dstY < dstH; dstY++ {
		srcY0 := int(float64(dstY) * yRatio)
		srcY1 := max(min(int(float64(dstY+1)*yRatio), srcH), srcY0+1)

		dstRow := dstY * dstStride

		for dstX := 0; dstX < dstW; dstX++ {
			srcX0 := int(float64(dstX) * xRatio)
			srcX1 := max(min(int(float64(dstX+1)*xRatio), srcW), srcX0+1)

			clear(sum)
			count := 0
			for sy := srcY0; sy < srcY1; sy++ {
				srcRow := sy * srcStride
				for sx := srcX0; sx < srcX1; sx++ {
					px := src[srcRow+sx*ub : srcRow+(sx+1)*ub]
					for c, v := range px {
						sum[c] += int(v)
					}
					count++
				}
			}

			out := dst[dstRow+dstX*ub : dstRow+(dstX+1)*ub]
			for c := range out {
				out[c] = byte(sum[c] / count)
			}
		}
	}
}
