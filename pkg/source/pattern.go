package source

import "github.com/thesyncim/libgopixbuf/pkg/frame"

// Gradient draws a diagonal gradient that scrolls one pixel per frame.
func Gradient(f *frame.Frame, seq uint64) {
	bpp := f.Format.BytesPerPixel()
	if bpp == 0 || f.Width == 0 {
		return
	}
	shift := int(seq % 256)
	for i := range f.Data {
		px := i / bpp
		x, y := px%f.Width, px/f.Width
		f.Data[i] = byte(x + y + shift + (i%bpp)*64)
	}
}

// Solid returns a pattern that fills every byte with v.
func Solid(v byte) Pattern {
	return func(f *frame.Frame, _ uint64) {
		for i := range f.Data {
			f.Data[i] = v
		}
	}
}

// Counter stamps the little-endian frame number into the first eight bytes
// and leaves the rest zero.
func Counter(f *frame.Frame, seq uint64) {
	clear(f.Data)
	for i := 0; i < 8 && i < len(f.Data); i++ {
		f.Data[i] = byte(seq >> (8 * i))
	}
}
