// Package packetizer splits registered pixel buffers into RTP packets.
//
// Each packet payload starts with an 8-byte header: the high 16 bits of
// the extended sequence number, the segment length (uint16) and the
// segment's byte offset into the pixel store (uint32), all big endian.
// The marker bit is set on the last packet of a frame.
package packetizer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtp"

	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

// Errors
var (
	ErrInvalidConfig   = errors.New("invalid packetizer config")
	ErrBufferTooSmall  = errors.New("buffer too small")
	ErrInvalidPacket   = errors.New("invalid packet")
	ErrIncompleteFrame = errors.New("incomplete frame")
)

const (
	rtpHeaderSize = 12

	// HeaderSize is the per-packet payload header length.
	HeaderSize = 8

	DefaultMTU         = 1200
	DefaultClockRate   = 90000
	DefaultPayloadType = 96
)

// Config configures an RTP packetizer.
type Config struct {
	SSRC            uint32
	PayloadType     uint8
	MTU             uint16 // Maximum transmission unit (typically 1200)
	ClockRate       uint32 // RTP clock rate (90000 for video)
	InitialSequence uint16
}

// Packetizer converts pixel buffers into RTP packets. It is safe for
// concurrent use; packets of concurrent calls never interleave sequence
// numbers within one frame.
type Packetizer struct {
	config     Config
	maxPayload int

	mu  sync.Mutex
	seq uint32
}

// New creates a packetizer, applying defaults for zero fields.
func New(cfg Config) (*Packetizer, error) {
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = DefaultClockRate
	}
	if cfg.PayloadType == 0 {
		cfg.PayloadType = DefaultPayloadType
	}
	if cfg.PayloadType > 127 {
		return nil, fmt.Errorf("%w: payload type %d", ErrInvalidConfig, cfg.PayloadType)
	}

	maxPayload := int(cfg.MTU) - rtpHeaderSize - HeaderSize
	if maxPayload <= 0 {
		return nil, fmt.Errorf("%w: mtu %d leaves no room for payload", ErrInvalidConfig, cfg.MTU)
	}

	return &Packetizer{
		config:     cfg,
		maxPayload: maxPayload,
		seq:        uint32(cfg.InitialSequence),
	}, nil
}

// Config returns the effective configuration.
func (p *Packetizer) Config() Config { return p.config }

// MaxPackets returns the number of packets Packetize produces for a buffer
// of byteCount bytes.
func (p *Packetizer) MaxPackets(byteCount int) int {
	if byteCount <= 0 {
		return 1
	}
	return (byteCount + p.maxPayload - 1) / p.maxPayload
}

// MaxPacketSize returns the maximum size of a single marshaled packet.
func (p *Packetizer) MaxPacketSize() int {
	return int(p.config.MTU)
}

// SequenceNumber returns the sequence number the next packet will carry.
func (p *Packetizer) SequenceNumber() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint16(p.seq)
}

// Timestamp converts a presentation time to RTP clock units.
func (p *Packetizer) Timestamp(pts time.Duration) uint32 {
	return uint32(pts * time.Duration(p.config.ClockRate) / time.Second)
}

// Packetize reads the pixel store behind h and returns its packets.
// The buffer's read lock is held only while copying.
func (p *Packetizer) Packetize(reg *pixbuf.Registry, h pixbuf.Handle, timestamp uint32) ([]*rtp.Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var pkts []*rtp.Packet
	err := reg.View(h, func(v *pixbuf.View) error {
		size := v.ByteCount()
		pkts = make([]*rtp.Packet, 0, p.MaxPackets(size))

		off := 0
		for {
			n := min(p.maxPayload, size-off)
			payload := make([]byte, HeaderSize+n)
			if _, err := v.ReadAt(payload[HeaderSize:], int64(off)); err != nil {
				return err
			}
			pkts = append(pkts, p.packet(payload, uint16(n), uint32(off), timestamp))
			off += n
			if off >= size {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pkts[len(pkts)-1].Marker = true
	return pkts, nil
}

func (p *Packetizer) packet(payload []byte, length uint16, offset uint32, timestamp uint32) *rtp.Packet {
	seq := p.seq
	p.seq++

	binary.BigEndian.PutUint16(payload[0:2], uint16(seq>>16))
	binary.BigEndian.PutUint16(payload[2:4], length)
	binary.BigEndian.PutUint32(payload[4:8], offset)

	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    p.config.PayloadType,
			SequenceNumber: uint16(seq),
			Timestamp:      timestamp,
			SSRC:           p.config.SSRC,
		},
		Payload: payload,
	}
}
