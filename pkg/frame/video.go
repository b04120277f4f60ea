package frame

import (
	"sync"
	"time"
)

// Frame is a packed video frame: a single plane of Width*Height pixels
// with no row padding.
type Frame struct {
	// Width of the frame in pixels.
	Width int

	// Height of the frame in pixels.
	Height int

	// Format specifies the pixel format.
	Format PixelFormat

	// Data contains the packed pixel data, ByteCount(Width, Height, Format) bytes.
	Data []byte

	// Timestamp is the presentation timestamp.
	Timestamp time.Duration

	// Sequence is the producer's frame counter.
	Sequence uint64

	// pool is the pool this frame belongs to (for recycling).
	pool *Pool
}

// NewFrame creates a new frame with an allocated, zeroed pixel store.
// Geometry whose size overflows gets an empty store.
func NewFrame(width, height int, format PixelFormat) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Format: format,
		Data:   make([]byte, max(ByteCount(width, height, format), 0)),
	}
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * f.Format.BytesPerPixel()
}

// ByteCount returns the length of the pixel store.
func (f *Frame) ByteCount() int {
	return len(f.Data)
}

// Release returns the frame to its pool for reuse.
// After calling Release, the frame must not be used.
func (f *Frame) Release() {
	if f.pool != nil {
		f.pool.Put(f)
	}
}

// Clone creates a deep copy of the frame. The clone does not belong to a pool.
func (f *Frame) Clone() *Frame {
	clone := &Frame{
		Width:     f.Width,
		Height:    f.Height,
		Format:    f.Format,
		Timestamp: f.Timestamp,
		Sequence:  f.Sequence,
		Data:      make([]byte, len(f.Data)),
	}
	copy(clone.Data, f.Data)
	return clone
}

// Pool manages reusable frames of one size and format to reduce allocations.
type Pool struct {
	mu      sync.Mutex
	frames  []*Frame
	maxSize int
	width   int
	height  int
	format  PixelFormat
}

// NewPool creates a pool for frames of a specific size and format.
func NewPool(width, height int, format PixelFormat, poolSize int) *Pool {
	pool := &Pool{
		maxSize: poolSize,
		width:   width,
		height:  height,
		format:  format,
		frames:  make([]*Frame, 0, poolSize),
	}

	// Pre-allocate frames
	for i := 0; i < poolSize; i++ {
		pool.frames = append(pool.frames, pool.allocFrame())
	}

	return pool
}

// Get returns a frame from the pool or allocates a new one.
func (p *Pool) Get() *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) > 0 {
		f := p.frames[len(p.frames)-1]
		p.frames = p.frames[:len(p.frames)-1]
		// Reset metadata
		f.Timestamp = 0
		f.Sequence = 0
		return f
	}

	// Pool exhausted, allocate new
	return p.allocFrame()
}

// Put returns a frame to the pool.
func (p *Pool) Put(f *Frame) {
	if f == nil || f.pool != p {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.frames) < p.maxSize {
		p.frames = append(p.frames, f)
	}
	// Otherwise let GC handle it
}

// Available returns the number of idle frames held by the pool.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func (p *Pool) allocFrame() *Frame {
	f := NewFrame(p.width, p.height, p.format)
	f.pool = p
	return f
}
