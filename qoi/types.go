package qoi

import (
	"encoding/binary"
	"fmt"
)

const (
	opIndex byte = 0x00 // 00xxxxxx
	opDiff  byte = 0x40 // 01xxxxxx
	opLuma  byte = 0x80 // 10xxxxxx
	opRun   byte = 0xc0 // 11xxxxxx
	opRGB   byte = 0xfe // 11111110
	opRGBA  byte = 0xff // 11111111

	opMask byte = 0xc0 // 11000000

	maxRun = 62

	HeaderSize  = 14
	TrailerSize = 8

	// MaxPixels bounds Width*Height accepted by the encoder and the decoder.
	MaxPixels = 400_000_000
)

var (
	Magic = string(magicBytes[:])

	magicBytes = [4]byte{'q', 'o', 'i', 'f'}
	trailer    = [TrailerSize]byte{0, 0, 0, 0, 0, 0, 0, 1}
)

type Colorspace uint8

const (
	SRGB   Colorspace = 0
	Linear Colorspace = 1
)

func (c Colorspace) String() string {
	switch c {
	case SRGB:
		return "srgb"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseColorspace accepts the names returned by Colorspace.String.
func ParseColorspace(name string) (Colorspace, error) {
	switch name {
	case "srgb":
		return SRGB, nil
	case "linear":
		return Linear, nil
	default:
		return 0, fmt.Errorf("unknown colorspace: %q", name)
	}
}

// Descriptor is the information carried by the 14-byte file header.
type Descriptor struct {
	Width, Height uint32
	Channels      uint8
	Colorspace    Colorspace
}

// Validate reports the first problem that makes d unusable for encoding.
func (d Descriptor) Validate() error {
	if d.Channels != 3 && d.Channels != 4 {
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, d.Channels)
	}
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrInconsistentGrid, d.Width, d.Height)
	}
	if d.Colorspace != SRGB && d.Colorspace != Linear {
		return fmt.Errorf("%w: colorspace %d", ErrInconsistentGrid, d.Colorspace)
	}
	return nil
}

// MarshalBinary returns the header bytes for d.
func (d Descriptor) MarshalBinary() ([]byte, error) {
	return d.appendHeader(make([]byte, 0, HeaderSize)), nil
}

func (d Descriptor) appendHeader(dst []byte) []byte {
	dst = append(dst, magicBytes[:]...)
	dst = binary.BigEndian.AppendUint32(dst, d.Width)
	dst = binary.BigEndian.AppendUint32(dst, d.Height)
	return append(dst, d.Channels, byte(d.Colorspace))
}

// ParseHeader reads the descriptor from the first HeaderSize bytes of data.
// Only the header is examined; the body and trailer are left to the decoder.
func ParseHeader(data []byte) (Descriptor, error) {
	if len(data) < HeaderSize {
		return Descriptor{}, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedStream, len(data), HeaderSize)
	}
	if [4]byte(data[:4]) != magicBytes {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrBadMagic, data[:4])
	}
	d := Descriptor{
		Width:      binary.BigEndian.Uint32(data[4:8]),
		Height:     binary.BigEndian.Uint32(data[8:12]),
		Channels:   data[12],
		Colorspace: Colorspace(data[13]),
	}
	if d.Channels != 3 && d.Channels != 4 {
		return d, fmt.Errorf("%w: %d", ErrUnsupportedChannels, d.Channels)
	}
	if d.Width == 0 || d.Height == 0 {
		return d, fmt.Errorf("%w: empty image %dx%d", ErrBadHeader, d.Width, d.Height)
	}
	if d.Colorspace != SRGB && d.Colorspace != Linear {
		return d, fmt.Errorf("%w: colorspace %d", ErrBadHeader, d.Colorspace)
	}
	if uint64(d.Width)*uint64(d.Height) > MaxPixels {
		return d, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, d.Width, d.Height)
	}
	return d, nil
}
