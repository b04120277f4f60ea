// Package snapshot reads and writes pixel buffer dump files.
//
// Layout:
//
//	4 bytes: "PXB1"
//	u32: width
//	u32: height
//	u32: pixel format fourcc
//	u32: byte count
//	zstd stream: pixel bytes
//
// Integers are little endian.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/thesyncim/libgopixbuf/pkg/frame"
	"github.com/thesyncim/libgopixbuf/pkg/pixbuf"
)

const magic = "PXB1"

var (
	ErrInvalidFormat    = errors.New("invalid snapshot format")
	ErrGeometryMismatch = errors.New("snapshot geometry does not match buffer")
)

// Header describes the frame stored in a snapshot.
type Header struct {
	Width     uint32
	Height    uint32
	FourCC    uint32
	ByteCount uint32
}

// Write dumps the buffer behind h to w. The pixel bytes are copied under
// the buffer's read lock; compression runs after it is dropped.
func Write(w io.Writer, reg *pixbuf.Registry, h pixbuf.Handle) error {
	var hdr Header
	var data []byte
	err := reg.View(h, func(v *pixbuf.View) error {
		hdr = headerOf(v)
		data = make([]byte, v.ByteCount())
		_, err := v.ReadAt(data, 0)
		return err
	})
	if err != nil {
		return err
	}
	return WriteFrame(w, hdr, data)
}

func headerOf(v *pixbuf.View) Header {
	return Header{
		Width:     uint32(v.Width()),
		Height:    uint32(v.Height()),
		FourCC:    v.Format().FourCC(),
		ByteCount: uint32(v.ByteCount()),
	}
}

// WriteFrame writes a snapshot of data described by hdr.
func WriteFrame(w io.Writer, hdr Header, data []byte) error {
	if int(hdr.ByteCount) != len(data) {
		return fmt.Errorf("%w: header says %d bytes, have %d", ErrInvalidFormat, hdr.ByteCount, len(data))
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadHeader reads and validates the snapshot header.
func ReadHeader(r io.Reader) (Header, error) {
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return Header{}, err
	}
	if string(m[:]) != magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, m[:])
	}

	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Header{}, err
	}

	format, ok := frame.PixelFormatFromFourCC(hdr.FourCC)
	if !ok {
		return Header{}, fmt.Errorf("%w: unknown fourcc %#08x", ErrInvalidFormat, hdr.FourCC)
	}
	if hdr.Width > math.MaxInt32 || hdr.Height > math.MaxInt32 || hdr.ByteCount > math.MaxInt32 {
		return Header{}, fmt.Errorf("%w: header out of range", ErrInvalidFormat)
	}
	if hdr.ByteCount > pixbuf.DefaultMaxCopyBytes {
		return Header{}, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrInvalidFormat, hdr.ByteCount, pixbuf.DefaultMaxCopyBytes)
	}
	want := frame.ByteCount(int(hdr.Width), int(hdr.Height), format)
	if want < 0 {
		return Header{}, fmt.Errorf("%w: %dx%d %v overflows", ErrInvalidFormat, hdr.Width, hdr.Height, format)
	}
	if int(hdr.ByteCount) < want {
		return Header{}, fmt.Errorf("%w: %d bytes cannot hold %dx%d %v", ErrInvalidFormat, hdr.ByteCount, hdr.Width, hdr.Height, format)
	}
	return hdr, nil
}

// Read loads a snapshot into a new frame. Data may be longer than the
// packed size when the source buffer had row padding.
func Read(r io.Reader) (*frame.Frame, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data := make([]byte, hdr.ByteCount)
	if _, err := io.ReadFull(zr, data); err != nil {
		return nil, fmt.Errorf("%w: pixel data: %v", ErrInvalidFormat, err)
	}

	format, _ := frame.PixelFormatFromFourCC(hdr.FourCC)
	return &frame.Frame{
		Width:  int(hdr.Width),
		Height: int(hdr.Height),
		Format: format,
		Data:   data,
	}, nil
}

// Restore copies a snapshot into the buffer behind h. The buffer must
// have the snapshot's dimensions and format, and room for all of its
// bytes including any row padding.
func Restore(r io.Reader, reg *pixbuf.Registry, h pixbuf.Handle) error {
	f, err := Read(r)
	if err != nil {
		return err
	}

	var dst Header
	if err := reg.View(h, func(v *pixbuf.View) error {
		dst = headerOf(v)
		return nil
	}); err != nil {
		return err
	}
	if int(dst.Width) != f.Width || int(dst.Height) != f.Height || dst.FourCC != f.Format.FourCC() {
		return fmt.Errorf("%w: snapshot %dx%d %v, buffer %dx%d %#08x",
			ErrGeometryMismatch, f.Width, f.Height, f.Format, dst.Width, dst.Height, dst.FourCC)
	}
	if int(dst.ByteCount) < len(f.Data) {
		return fmt.Errorf("%w: snapshot has %d bytes, buffer holds %d",
			ErrGeometryMismatch, len(f.Data), dst.ByteCount)
	}

	return reg.Memcpy(f.Data, 0, int32(len(f.Data)), h)
}
