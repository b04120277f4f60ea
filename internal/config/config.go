// Package config loads the TOML configuration shared by the pixbuf tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/packetizer"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
	"github.com/thesyncim/libgopixbuf/pkg/source"
)

var ErrInvalid = errors.New("invalid config")

type Registry struct {
	Capacity     int `toml:"capacity"`
	MaxCopyBytes int `toml:"max_copy_bytes"`
}

type Source struct {
	Width    int               `toml:"width"`
	Height   int               `toml:"height"`
	Format   frame.PixelFormat `toml:"format"`
	FPS      float64           `toml:"fps"`
	PoolSize int               `toml:"pool_size"`
}

type RTP struct {
	MTU         uint16 `toml:"mtu"`
	PayloadType uint8  `toml:"payload_type"`
	SSRC        uint32 `toml:"ssrc"`
	ClockRate   uint32 `toml:"clock_rate"`
}

type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type Config struct {
	Registry Registry `toml:"registry"`
	Source   Source   `toml:"source"`
	RTP      RTP      `toml:"rtp"`
	Log      Log      `toml:"log"`
}

func Default() Config {
	src := source.DefaultConfig()
	return Config{
		Registry: Registry{
			Capacity:     pixbuf.DefaultCapacity,
			MaxCopyBytes: pixbuf.DefaultMaxCopyBytes,
		},
		Source: Source{
			Width:    src.Width,
			Height:   src.Height,
			Format:   src.Format,
			FPS:      src.FPS,
			PoolSize: src.PoolSize,
		},
		RTP: RTP{
			MTU:         packetizer.DefaultMTU,
			PayloadType: packetizer.DefaultPayloadType,
			ClockRate:   packetizer.DefaultClockRate,
		},
		Log: Log{
			Level: "info",
		},
	}
}

func Save(config Config, w io.Writer) error {
	return toml.NewEncoder(w).Encode(config)
}

// Load decodes r over the defaults, so missing keys keep their default
// values, and validates the result.
func Load(r io.Reader) (Config, error) {
	c := Default()

	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return c, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return c, fmt.Errorf("%w: unknown key %q", ErrInvalid, undecoded[0].String())
	}

	return c, c.Validate()
}

// LoadFile loads path. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return Load(f)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Registry.Capacity <= 0:
		return fmt.Errorf("%w: registry.capacity must be positive", ErrInvalid)
	case c.Registry.MaxCopyBytes < 0:
		return fmt.Errorf("%w: registry.max_copy_bytes must not be negative", ErrInvalid)
	case c.Source.Width <= 0 || c.Source.Height <= 0:
		return fmt.Errorf("%w: source dimensions %dx%d", ErrInvalid, c.Source.Width, c.Source.Height)
	case c.Source.FPS <= 0:
		return fmt.Errorf("%w: source.fps must be positive", ErrInvalid)
	case c.Source.PoolSize < 0:
		return fmt.Errorf("%w: source.pool_size must not be negative", ErrInvalid)
	case c.RTP.PayloadType > 127:
		return fmt.Errorf("%w: rtp.payload_type %d out of range", ErrInvalid, c.RTP.PayloadType)
	}
	return nil
}

// RegistryOptions converts the [registry] section.
func (c Config) RegistryOptions() pixbuf.RegistryOptions {
	return pixbuf.RegistryOptions{
		Capacity:     c.Registry.Capacity,
		MaxCopyBytes: c.Registry.MaxCopyBytes,
	}
}

// SourceConfig converts the [source] section.
func (c Config) SourceConfig() source.Config {
	return source.Config{
		Width:    c.Source.Width,
		Height:   c.Source.Height,
		Format:   c.Source.Format,
		FPS:      c.Source.FPS,
		PoolSize: c.Source.PoolSize,
	}
}

// PacketizerConfig converts the [rtp] section.
func (c Config) PacketizerConfig() packetizer.Config {
	return packetizer.Config{
		SSRC:        c.RTP.SSRC,
		PayloadType: c.RTP.PayloadType,
		MTU:         c.RTP.MTU,
		ClockRate:   c.RTP.ClockRate,
	}
}
