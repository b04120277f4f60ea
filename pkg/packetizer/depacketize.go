package packetizer

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/pion/rtp"
)

// Segment is the decoded payload header of one packet.
type Segment struct {
	ExtendedSequence uint32
	Length           int
	Offset           int
	Data             []byte
}

// ParseSegment decodes a packet's payload header.
func ParseSegment(pkt *rtp.Packet) (Segment, error) {
	if pkt == nil || len(pkt.Payload) < HeaderSize {
		return Segment{}, fmt.Errorf("%w: payload shorter than header", ErrInvalidPacket)
	}
	ext := uint32(binary.BigEndian.Uint16(pkt.Payload[0:2]))<<16 | uint32(pkt.SequenceNumber)
	length := int(binary.BigEndian.Uint16(pkt.Payload[2:4]))
	offset := int(binary.BigEndian.Uint32(pkt.Payload[4:8]))
	data := pkt.Payload[HeaderSize:]
	if len(data) != length {
		return Segment{}, fmt.Errorf("%w: length %d, payload carries %d", ErrInvalidPacket, length, len(data))
	}
	return Segment{ExtendedSequence: ext, Length: length, Offset: offset, Data: data}, nil
}

// Depacketize reassembles the packets of one frame into dst and returns
// the frame size. Packets may arrive in any order; they must share a
// timestamp, cover the frame without gaps and include the marker packet.
func Depacketize(pkts []*rtp.Packet, dst []byte) (int, error) {
	if len(pkts) == 0 {
		return 0, fmt.Errorf("%w: no packets", ErrIncompleteFrame)
	}

	segs := make([]Segment, 0, len(pkts))
	ts := pkts[0].Timestamp
	marker := -1
	for _, pkt := range pkts {
		seg, err := ParseSegment(pkt)
		if err != nil {
			return 0, err
		}
		if pkt.Timestamp != ts {
			return 0, fmt.Errorf("%w: mixed timestamps %d and %d", ErrInvalidPacket, ts, pkt.Timestamp)
		}
		if pkt.Marker {
			marker = len(segs)
		}
		segs = append(segs, seg)
	}
	if marker < 0 {
		return 0, fmt.Errorf("%w: missing marker packet", ErrIncompleteFrame)
	}

	slices.SortFunc(segs, func(a, b Segment) int {
		return int(int64(a.Offset) - int64(b.Offset))
	})

	next := 0
	for _, seg := range segs {
		if seg.Offset != next {
			return 0, fmt.Errorf("%w: gap at byte %d", ErrIncompleteFrame, next)
		}
		end := seg.Offset + seg.Length
		if end > len(dst) {
			return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, end, len(dst))
		}
		copy(dst[seg.Offset:end], seg.Data)
		next = end
	}
	return next, nil
}
