package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/libgopixbuf/internal/logging"
	"github.com/thesyncim/libgopixbuf/internal/snapshot"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

var (
	dumpGeometry geometryFlags
	dumpSeq      uint64
	dumpScale    int
	dumpNearest  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Write a gradient frame to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpGeometry.register(dumpCmd)
	dumpCmd.Flags().Uint64Var(&dumpSeq, "seq", 0, "gradient frame number")
	dumpCmd.Flags().IntVar(&dumpScale, "scale", 1, "downscale factor applied before writing")
	dumpCmd.Flags().BoolVar(&dumpNearest, "nearest", false, "scale with nearest-neighbour sampling instead of a box filter")
}

func runDump(cmd *cobra.Command, args []string) error {
	w, h, format, err := dumpGeometry.resolve()
	if err != nil {
		return err
	}

	buf, closer, err := newBuffer(w, h, format, dumpGeometry.coreVideo)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := newRegistry()
	handle, err := reg.Register(buf)
	if err != nil {
		return err
	}
	defer reg.Release(handle)

	if err := fillGradient(reg, handle, dumpSeq); err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if dumpScale > 1 {
		err = writeScaled(f, reg, handle, dumpScale, dumpNearest)
	} else {
		err = snapshot.Write(f, reg, handle)
	}
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logging.WithField("file", args[0]).Infof("wrote %dx%d %v snapshot", w, h, format)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %dx%d %v, scale 1/%d\n", args[0], w, h, format, max(dumpScale, 1))
	return nil
}

// writeScaled copies the buffer out, filters it down by factor and writes
// the result.
func writeScaled(w io.Writer, reg *pixbuf.Registry, h pixbuf.Handle, factor int, nearest bool) error {
	var src frame.Frame
	if err := reg.View(h, func(v *pixbuf.View) error {
		src = frame.Frame{Width: v.Width(), Height: v.Height(), Format: v.Format()}
		src.Data = make([]byte, v.ByteCount())
		_, err := v.ReadAt(src.Data, 0)
		return err
	}); err != nil {
		return err
	}
	if len(src.Data) != frame.ByteCount(src.Width, src.Height, src.Format) {
		return fmt.Errorf("scaling needs a packed buffer, got %d bytes for %dx%d %v", len(src.Data), src.Width, src.Height, src.Format)
	}

	scale := frame.Scale
	if nearest {
		scale = frame.ScaleNearest
	}
	dst := frame.NewFrame(max(src.Width/factor, 1), max(src.Height/factor, 1), src.Format)
	if err := scale(&src, dst); err != nil {
		return err
	}

	return snapshot.WriteFrame(w, snapshot.Header{
		Width:     uint32(dst.Width),
		Height:    uint32(dst.Height),
		FourCC:    src.Format.FourCC(),
		ByteCount: uint32(len(dst.Data)),
	}, dst.Data)
}
