package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	inspectGeometry geometryFlags
	inspectPeek     int32
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Register a buffer and print what its handle reports",
	Long: `Register a synthetic buffer (or a CoreVideo buffer with --corevideo),
then read its metadata and a bounded prefix of its bytes back through
the handle.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectGeometry.register(inspectCmd)
	inspectCmd.Flags().Int32Var(&inspectPeek, "peek", 16, "number of leading bytes to print")
}

func runInspect(cmd *cobra.Command, args []string) error {
	w, h, format, err := inspectGeometry.resolve()
	if err != nil {
		return err
	}

	buf, closer, err := newBuffer(w, h, format, inspectGeometry.coreVideo)
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

	if err := fillGradient(reg, handle, 0); err != nil {
		return err
	}

	width, err := reg.Width(handle)
	if err != nil {
		return err
	}
	height, err := reg.Height(handle)
	if err != nil {
		return err
	}
	n, err := reg.ByteCount(handle)
	if err != nil {
		return err
	}

	peek := make([]byte, max(inspectPeek, 0))
	got, err := reg.BytesInto(handle, peek, inspectPeek)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "handle:     %v\n", handle)
	fmt.Fprintf(out, "width:      %d\n", width)
	fmt.Fprintf(out, "height:     %d\n", height)
	fmt.Fprintf(out, "format:     %v\n", format)
	fmt.Fprintf(out, "byte count: %d\n", n)
	fmt.Fprintf(out, "bytes[:%d]: %s\n", got, hex.EncodeToString(peek[:got]))
	return nil
}
