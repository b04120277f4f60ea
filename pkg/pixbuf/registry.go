// Package pixbuf provides handle-based access to externally owned pixel buffers.
//
// A producer registers a Buffer and hands the returned Handle to readers.
// Readers query metadata, copy the pixels out (fully or bounded), or write
// into the buffer with Memcpy. When the producer releases the handle the
// slot generation advances, so every later call with the old handle fails
// with ErrInvalidHandle instead of touching recycled memory.
//
// Accesses to one handle are serialized per slot: any number of readers
// may run together, while Memcpy, Update and Release are exclusive.
// Release waits for in-flight readers, so it must never be called from
// inside a View or Update callback on the same handle.
package pixbuf

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/libgopixbuf/internal/logging"
	"github.com/thesyncim/libgopixbuf/pkg/frame"
)

const (
	// DefaultCapacity is the slot count used when none is configured.
	DefaultCapacity = 64

	// DefaultMaxCopyBytes caps the size of a single full copy (256 MiB).
	DefaultMaxCopyBytes = 256 << 20
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Capacity is the number of buffers that can be registered at once.
	Capacity int

	// MaxCopyBytes is the largest allocation Bytes will attempt.
	MaxCopyBytes int

	// Logger receives debug events for registration and release.
	Logger logrus.FieldLogger
}

type slot struct {
	mu  sync.RWMutex
	gen uint32
	buf Buffer
}

// Registry is a fixed-capacity arena of live pixel buffers.
type Registry struct {
	slots   []slot
	maxCopy int
	log     logrus.FieldLogger

	mu   sync.Mutex // guards free
	free []int
	live atomic.Int32
}

// NewRegistry creates a registry with the given capacity and default options.
func NewRegistry(capacity int) *Registry {
	return NewRegistryWithOptions(RegistryOptions{Capacity: capacity})
}

// NewRegistryWithOptions creates a registry from opts, filling in defaults.
func NewRegistryWithOptions(opts RegistryOptions) *Registry {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MaxCopyBytes <= 0 {
		opts.MaxCopyBytes = DefaultMaxCopyBytes
	}
	if opts.Logger == nil {
		opts.Logger = logging.Get()
	}

	r := &Registry{
		slots:   make([]slot, opts.Capacity),
		free:    make([]int, 0, opts.Capacity),
		maxCopy: opts.MaxCopyBytes,
		log:     opts.Logger,
	}
	// Fill the free list in reverse so the first Register takes slot 0.
	for i := opts.Capacity - 1; i >= 0; i-- {
		r.slots[i].gen = 1
		r.free = append(r.free, i)
	}
	return r
}

// Register adds buf to the registry and returns its handle.
// The registry never frees buf; the caller keeps ownership and must call
// Release before destroying or recycling it.
func (r *Registry) Register(buf Buffer) (Handle, error) {
	if err := validateBuffer(buf); err != nil {
		return 0, err
	}

	r.mu.Lock()
	if len(r.free) == 0 {
		r.mu.Unlock()
		return 0, ErrRegistryFull
	}
	idx := r.free[len(r.free)-1]
	r.free = r.free[:len(r.free)-1]
	r.mu.Unlock()

	s := &r.slots[idx]
	s.mu.Lock()
	s.buf = buf
	h := makeHandle(idx, s.gen)
	s.mu.Unlock()

	r.live.Add(1)
	r.log.WithFields(logrus.Fields{
		"handle": h.String(),
		"width":  buf.Width(),
		"height": buf.Height(),
		"format": buf.Format().String(),
		"bytes":  buf.ByteCount(),
	}).Debug("pixel buffer registered")

	return h, nil
}

// Release ends the validity window of h. It blocks until every in-flight
// call on h has returned. Releasing a stale or unknown handle fails with
// ErrInvalidHandle. It must not be called from inside View or Update on
// the same handle, which would deadlock.
func (r *Registry) Release(h Handle) error {
	s, err := r.slot(h)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.buf == nil || s.gen != h.generation() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	s.buf = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.mu.Unlock()

	r.mu.Lock()
	r.free = append(r.free, h.index())
	r.mu.Unlock()

	r.live.Add(-1)
	r.log.WithField("handle", h.String()).Debug("pixel buffer released")
	return nil
}

// Valid reports whether h currently refers to a live buffer.
// The answer may be stale as soon as it is returned.
func (r *Registry) Valid(h Handle) bool {
	s, _, err := r.acquire(h, false)
	if err != nil {
		return false
	}
	s.unlock(false)
	return true
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	return int(r.live.Load())
}

// Cap returns the registry capacity.
func (r *Registry) Cap() int {
	return len(r.slots)
}

func (r *Registry) slot(h Handle) (*slot, error) {
	i := h.index()
	if i < 0 || i >= len(r.slots) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	return &r.slots[i], nil
}

// acquire locks the slot for h and verifies the generation. On success the
// caller must unlock the slot with the same exclusivity.
func (r *Registry) acquire(h Handle, exclusive bool) (*slot, Buffer, error) {
	s, err := r.slot(h)
	if err != nil {
		return nil, nil, err
	}

	if exclusive {
		s.mu.Lock()
	} else {
		s.mu.RLock()
	}

	if s.buf == nil || s.gen != h.generation() {
		s.unlock(exclusive)
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	return s, s.buf, nil
}

func (s *slot) unlock(exclusive bool) {
	if exclusive {
		s.mu.Unlock()
	} else {
		s.mu.RUnlock()
	}
}

func validateBuffer(buf Buffer) error {
	if buf == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}

	w, h, n := buf.Width(), buf.Height(), buf.ByteCount()
	if w < 0 || h < 0 || n < 0 {
		return fmt.Errorf("%w: negative geometry %dx%d (%d bytes)", ErrInvalidBuffer, w, h, n)
	}
	if n > math.MaxInt32 || w > math.MaxInt32 || h > math.MaxInt32 {
		return fmt.Errorf("%w: %d bytes exceeds int32 range", ErrInvalidBuffer, n)
	}

	// Native buffers may pad rows, so the store can be larger than the
	// packed size but never smaller.
	if f := buf.Format(); f.Valid() {
		want := frame.ByteCount(w, h, f)
		if want < 0 {
			return fmt.Errorf("%w: %dx%d %v overflows", ErrInvalidBuffer, w, h, f)
		}
		if n < want {
			return fmt.Errorf("%w: %d bytes, %dx%d %v needs %d", ErrInvalidBuffer, n, w, h, f, want)
		}
	}
	return nil
}
