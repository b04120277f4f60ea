// Package source is a synthetic pixel buffer producer.
//
// A Source renders frames into pooled memory, registers each one with a
// pixbuf.Registry and hands the handle to a callback. The handle is valid
// only for the duration of the callback; the source releases it and
// recycles the frame as soon as the callback returns.
package source

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/libgopixbuf/internal/logging"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

// Common errors
var (
	ErrAlreadyStarted = errors.New("source already started")
	ErrNotStarted     = errors.New("source not started")
	ErrInvalidConfig  = errors.New("invalid source config")
)

// FrameCallback receives a registered frame. h must not be used after the
// callback returns. The callback must not call Stop.
type FrameCallback func(h pixbuf.Handle, seq uint64)

// Pattern renders frame number seq into f.
type Pattern func(f *frame.Frame, seq uint64)

// Config configures a Source.
type Config struct {
	Width    int
	Height   int
	Format   frame.PixelFormat
	FPS      float64
	PoolSize int

	// Pattern defaults to Gradient.
	Pattern Pattern
}

// DefaultConfig returns a 640x480 BGRA source at 30 fps.
func DefaultConfig() Config {
	return Config{
		Width:    640,
		Height:   480,
		Format:   frame.PixelFormatBGRA,
		FPS:      30,
		PoolSize: 4,
	}
}

// Stats holds producer counters.
type Stats struct {
	FramesEmitted  uint64
	FramesDropped  uint64
	CallbackPanics uint64
}

// Source produces frames into a registry.
type Source struct {
	id      uuid.UUID
	reg     *pixbuf.Registry
	cfg     Config
	pool    *frame.Pool
	log     *logrus.Entry
	started time.Time

	emitMu sync.Mutex
	seq    uint64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	emitted atomic.Uint64
	dropped atomic.Uint64
	panics  atomic.Uint64
}

// New creates a stopped source.
func New(reg *pixbuf.Registry, cfg Config) (*Source, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrInvalidConfig)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidConfig, cfg.Width, cfg.Height)
	}
	if !cfg.Format.Valid() {
		return nil, fmt.Errorf("%w: format %v", ErrInvalidConfig, cfg.Format)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("%w: fps %v", ErrInvalidConfig, cfg.FPS)
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}
	if cfg.Pattern == nil {
		cfg.Pattern = Gradient
	}

	id := uuid.New()
	return &Source{
		id:      id,
		reg:     reg,
		cfg:     cfg,
		pool:    frame.NewPool(cfg.Width, cfg.Height, cfg.Format, cfg.PoolSize),
		log:     logging.WithField("source", id.String()),
		started: time.Now(),
	}, nil
}

// ID returns the source's unique identifier.
func (s *Source) ID() uuid.UUID { return s.id }

// Config returns the effective configuration.
func (s *Source) Config() Config { return s.cfg }

// Start emits frames to cb at the configured rate until Stop.
func (s *Source) Start(cb FrameCallback) error {
	if cb == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyStarted
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	interval := time.Duration(float64(time.Second) / s.cfg.FPS)
	go s.loop(cb, interval, s.stop, s.done)

	s.log.WithFields(logrus.Fields{
		"width":  s.cfg.Width,
		"height": s.cfg.Height,
		"format": s.cfg.Format,
		"fps":    s.cfg.FPS,
	}).Info("source started")
	return nil
}

// Stop halts the emit loop and waits for an in-flight callback to return.
func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotStarted
	}
	close(s.stop)
	done := s.done
	s.running = false
	s.mu.Unlock()

	<-done
	s.log.WithField("emitted", s.emitted.Load()).Info("source stopped")
	return nil
}

// IsRunning reports whether the emit loop is active.
func (s *Source) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Emit synchronously produces one frame and delivers it to cb.
func (s *Source) Emit(cb FrameCallback) error {
	if cb == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidConfig)
	}
	return s.emit(cb)
}

// Stats returns a snapshot of the counters.
func (s *Source) Stats() Stats {
	return Stats{
		FramesEmitted:  s.emitted.Load(),
		FramesDropped:  s.dropped.Load(),
		CallbackPanics: s.panics.Load(),
	}
}

func (s *Source) loop(cb FrameCallback, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.emit(cb); err != nil {
				s.log.WithError(err).Warn("frame dropped")
			}
		}
	}
}

func (s *Source) emit(cb FrameCallback) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.seq++
	seq := s.seq

	f := s.pool.Get()
	f.Sequence = seq
	f.Timestamp = time.Since(s.started)
	s.cfg.Pattern(f, seq)

	h, err := s.reg.Register(pixbuf.NewMemoryBuffer(f))
	if err != nil {
		s.dropped.Add(1)
		f.Release()
		return fmt.Errorf("register frame %d: %w", seq, err)
	}

	s.safeCallback(cb, h, seq)

	if err := s.reg.Release(h); err != nil {
		s.log.WithError(err).WithField("handle", h).Error("release failed")
	}
	f.Release()
	s.emitted.Add(1)
	return nil
}

func (s *Source) safeCallback(cb FrameCallback, h pixbuf.Handle, seq uint64) {
	defer func() {
		if r := recover(); r != nil {
			s.panics.Add(1)
			s.log.WithField("seq", seq).Errorf("frame callback panicked: %v", r)
		}
	}()
	cb(h, seq)
}
