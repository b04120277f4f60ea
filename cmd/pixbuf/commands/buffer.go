package commands

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/thesyncim/libgopixbuf/pkg/corevideo"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
	"github.com/thesyncim/libgopixbuf/pkg/source"
)

// geometryFlags selects the buffer a command works on. Zero values fall
// back to the [source] section of the config.
type geometryFlags struct {
	width     int
	height    int
	format    string
	coreVideo bool
}

func (g *geometryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&g.width, "width", 0, "buffer width (default from config)")
	cmd.Flags().IntVar(&g.height, "height", 0, "buffer height (default from config)")
	cmd.Flags().StringVar(&g.format, "format", "", "pixel format (default from config)")
	cmd.Flags().BoolVar(&g.coreVideo, "corevideo", false, "allocate a CoreVideo pixel buffer (darwin only)")
}

func (g *geometryFlags) resolve() (int, int, frame.PixelFormat, error) {
	w, h, format := cfg.Source.Width, cfg.Source.Height, cfg.Source.Format
	if g.width > 0 {
		w = g.width
	}
	if g.height > 0 {
		h = g.height
	}
	if g.format != "" {
		f, err := frame.ParsePixelFormat(g.format)
		if err != nil {
			return 0, 0, 0, err
		}
		format = f
	}
	if n := frame.ByteCount(w, h, format); n < 0 || n > math.MaxInt32 {
		return 0, 0, 0, fmt.Errorf("%dx%d %v is too large for a pixel buffer", w, h, format)
	}
	return w, h, format, nil
}

// newBuffer allocates an empty buffer. The closer releases native memory.
func newBuffer(w, h int, format frame.PixelFormat, coreVideo bool) (pixbuf.Buffer, io.Closer, error) {
	if coreVideo {
		b, err := corevideo.New(w, h, format)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	}
	return pixbuf.NewMemoryBuffer(frame.NewFrame(w, h, format)), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fillGradient writes frame seq of the gradient pattern into h.
func fillGradient(reg *pixbuf.Registry, h pixbuf.Handle, seq uint64) error {
	return reg.Update(h, func(v *pixbuf.MutableView) error {
		f := frame.NewFrame(v.Width(), v.Height(), v.Format())
		source.Gradient(f, seq)
		_, err := v.WriteAt(f.Data, 0)
		return err
	})
}

func newRegistry() *pixbuf.Registry {
	return pixbuf.NewRegistryWithOptions(cfg.RegistryOptions())
}
