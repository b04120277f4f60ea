package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/libgopixbuf/internal/logging"
	"github.com/thesyncim/libgopixbuf/internal/snapshot"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

var ErrVerifyFailed = errors.New("restored buffer does not match snapshot")

var restoreCoreVideo bool

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Copy a snapshot into a fresh buffer and verify it",
	Long: `Read a snapshot, register an empty buffer of the same geometry, copy
the pixels in through the handle and read them back to verify.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().BoolVar(&restoreCoreVideo, "corevideo", false, "restore into a CoreVideo pixel buffer (darwin only)")
}

func runRestore(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	hdr, err := snapshot.ReadHeader(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	format, _ := frame.PixelFormatFromFourCC(hdr.FourCC)

	var buf pixbuf.Buffer
	if restoreCoreVideo {
		cv, closer, err := newBuffer(int(hdr.Width), int(hdr.Height), format, true)
		if err != nil {
			return err
		}
		defer closer.Close()
		buf = cv
	} else {
		// Sized from the header so padded snapshots fit.
		buf = pixbuf.NewMemoryBuffer(&frame.Frame{
			Width:  int(hdr.Width),
			Height: int(hdr.Height),
			Format: format,
			Data:   make([]byte, hdr.ByteCount),
		})
	}

	reg := newRegistry()
	handle, err := reg.Register(buf)
	if err != nil {
		return err
	}
	defer reg.Release(handle)

	if err := snapshot.Restore(bytes.NewReader(raw), reg, handle); err != nil {
		return err
	}

	want, err := snapshot.Read(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	got := make([]byte, len(want.Data))
	n, err := reg.BytesInto(handle, got, int32(len(got)))
	if err != nil {
		return err
	}
	if !bytes.Equal(got[:n], want.Data) {
		return fmt.Errorf("%w: %s", ErrVerifyFailed, args[0])
	}

	logging.Infof("restored %s into handle %v", args[0], handle)
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s: %dx%d %v, %d bytes verified\n",
		args[0], hdr.Width, hdr.Height, format, n)
	return nil
}
