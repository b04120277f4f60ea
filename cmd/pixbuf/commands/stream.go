package commands

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/libgopixbuf/internal/logging"
	"github.com/thesyncim/libgopixbuf/pkg/packetizer"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
	"github.com/thesyncim/libgopixbuf/pkg/source"
)

var (
	streamFrames    uint64
	streamReaders   int
	streamTimeout   time.Duration
	streamGeometry  geometryFlags
	streamFPSOption float64
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run a source and packetize its frames to RTP",
	Long: `Start a synthetic source and, for every frame, packetize it to raw
video RTP while additional readers checksum the same handle concurrently.
Prints packet and byte totals when done.`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamGeometry.register(streamCmd)
	streamCmd.Flags().Uint64Var(&streamFrames, "frames", 30, "number of frames to stream")
	streamCmd.Flags().IntVar(&streamReaders, "readers", 2, "concurrent checksum readers per frame")
	streamCmd.Flags().DurationVar(&streamTimeout, "timeout", 30*time.Second, "give up after this long")
	streamCmd.Flags().Float64Var(&streamFPSOption, "fps", 0, "frame rate (default from config)")
}

type streamStats struct {
	frames    atomic.Uint64
	packets   atomic.Uint64
	bytes     atomic.Uint64
	checksums atomic.Uint64
}

func runStream(cmd *cobra.Command, args []string) error {
	w, h, format, err := streamGeometry.resolve()
	if err != nil {
		return err
	}
	srcCfg := cfg.SourceConfig()
	srcCfg.Width, srcCfg.Height, srcCfg.Format = w, h, format
	if streamFPSOption > 0 {
		srcCfg.FPS = streamFPSOption
	}

	reg := newRegistry()
	src, err := source.New(reg, srcCfg)
	if err != nil {
		return err
	}
	pk, err := packetizer.New(cfg.PacketizerConfig())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), streamTimeout)
	defer cancel()

	var (
		stats    streamStats
		firstErr error
		errOnce  sync.Once
		doneOnce sync.Once
		done     = make(chan struct{})
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		cancel()
	}

	// Callbacks run one at a time on the source's goroutine.
	err = src.Start(func(h pixbuf.Handle, seq uint64) {
		if ctx.Err() != nil || stats.frames.Load() >= streamFrames {
			return
		}
		ts := pk.Timestamp(time.Duration(float64(seq) / srcCfg.FPS * float64(time.Second)))
		if err := consumeFrame(ctx, reg, pk, h, ts, streamReaders, &stats); err != nil {
			fail(fmt.Errorf("frame %d: %w", seq, err))
			return
		}
		if stats.frames.Add(1) >= streamFrames {
			doneOnce.Do(func() { close(done) })
		}
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	if err := src.Stop(); err != nil {
		return err
	}

	if firstErr != nil {
		return firstErr
	}
	if stats.frames.Load() < streamFrames {
		return fmt.Errorf("streamed %d of %d frames: %w", stats.frames.Load(), streamFrames, ctx.Err())
	}

	st := src.Stats()
	logging.WithField("source", src.ID().String()).Infof("streamed %d frames", stats.frames.Load())
	if st.FramesDropped > 0 {
		logging.Warnf("source %s dropped %d frames on a full registry", src.ID(), st.FramesDropped)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source:    %s\n", src.ID())
	fmt.Fprintf(out, "frames:    %d (emitted %d, dropped %d)\n", stats.frames.Load(), st.FramesEmitted, st.FramesDropped)
	fmt.Fprintf(out, "packets:   %d\n", stats.packets.Load())
	fmt.Fprintf(out, "rtp bytes: %d\n", stats.bytes.Load())
	fmt.Fprintf(out, "checksums: %d\n", stats.checksums.Load())
	return nil
}

// consumeFrame packetizes h while readers checksum it concurrently.
// It returns once every reader is done, before h goes stale.
func consumeFrame(ctx context.Context, reg *pixbuf.Registry, pk *packetizer.Packetizer, h pixbuf.Handle, ts uint32, readers int, stats *streamStats) error {
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		pkts, err := pk.Packetize(reg, h, ts)
		if err != nil {
			return err
		}
		for _, p := range pkts {
			raw, err := p.Marshal()
			if err != nil {
				return err
			}
			stats.bytes.Add(uint64(len(raw)))
		}
		stats.packets.Add(uint64(len(pkts)))
		return nil
	})

	for i := 0; i < readers; i++ {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return reg.View(h, func(v *pixbuf.View) error {
				sum := crc32.NewIEEE()
				if _, err := io.Copy(sum, io.NewSectionReader(v, 0, int64(v.ByteCount()))); err != nil {
					return err
				}
				stats.checksums.Add(1)
				return nil
			})
		})
	}

	return errg.Wait()
}
