package qoi

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
)

func init() {
	image.RegisterFormat("qoi", Magic, Decode, DecodeConfig)
}

// Op identifies one of the record types of the format.
type Op uint8

const (
	OpIndex Op = iota
	OpDiff
	OpLuma
	OpRun
	OpRGB
	OpRGBA

	numOps
)

func (op Op) String() string {
	switch op {
	case OpIndex:
		return "index"
	case OpDiff:
		return "diff"
	case OpLuma:
		return "luma"
	case OpRun:
		return "run"
	case OpRGB:
		return "rgb"
	case OpRGBA:
		return "rgba"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(op))
	}
}

// OpStats counts the records of a decoded body per Op.
type OpStats struct {
	Records [numOps]int
	Bytes   [numOps]int
	// Pixels counts the pixels produced by each Op; runs count every
	// repeated pixel.
	Pixels [numOps]int
}

type decoder struct {
	body []byte
	pos  int

	prev Pixel
	run  int
	seen index

	stats *OpStats
}

// DecodeGrid decodes a complete file into a grid in canonical RGB order.
func DecodeGrid(data []byte) (Descriptor, *Grid, error) {
	return DecodeGridInto(data, OrderRGB)
}

// DecodeGridInto decodes a complete file into a grid with the given channel
// order.
func DecodeGridInto(data []byte, order ChannelOrder) (Descriptor, *Grid, error) {
	return decodeFile(data, order, nil)
}

// Analyze decodes data and reports how its body is composed.
func Analyze(data []byte) (Descriptor, OpStats, error) {
	d, _, stats, err := AnalyzeGrid(data)
	return d, stats, err
}

// AnalyzeGrid is Analyze that also returns the decoded grid in RGB order.
func AnalyzeGrid(data []byte) (Descriptor, *Grid, OpStats, error) {
	var stats OpStats
	d, g, err := decodeFile(data, OrderRGB, &stats)
	return d, g, stats, err
}

func decodeFile(data []byte, order ChannelOrder, stats *OpStats) (Descriptor, *Grid, error) {
	d, err := ParseHeader(data)
	if err != nil {
		return d, nil, err
	}
	if len(data) < HeaderSize+TrailerSize {
		return d, nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncatedStream, len(data), HeaderSize+TrailerSize)
	}
	if !bytes.Equal(data[len(data)-TrailerSize:], trailer[:]) {
		return d, nil, fmt.Errorf("%w: % x", ErrBadTrailer, data[len(data)-TrailerSize:])
	}

	// one body byte yields at most maxRun pixels
	body := data[HeaderSize : len(data)-TrailerSize]
	if uint64(len(body))*maxRun < uint64(d.Width)*uint64(d.Height) {
		return d, nil, fmt.Errorf("%w: %d body bytes cannot hold %dx%d pixels", ErrTruncatedStream,
			len(body), d.Width, d.Height)
	}

	g := NewGrid(int(d.Width), int(d.Height), int(d.Channels), order)
	p := decoder{
		body:  body,
		prev:  startPixel,
		seen:  newIndex(g.Channels),
		stats: stats,
	}
	for i := range g.Width * g.Height {
		px, err := p.next()
		if err != nil {
			return d, nil, fmt.Errorf("%w at pixel %d of %d", err, i, g.Width*g.Height)
		}
		g.setPixel(i, px)
	}
	return d, g, nil
}

// need makes sure n more bytes are available in the body.
func (p *decoder) need(n int) error {
	if p.pos+n > len(p.body) {
		return fmt.Errorf("%w: record at offset %d needs %d bytes, %d left", ErrTruncatedStream,
			HeaderSize+p.pos, n, len(p.body)-p.pos)
	}
	return nil
}

func (p *decoder) count(op Op, n int) {
	if p.stats == nil {
		return
	}
	p.stats.Records[op]++
	p.stats.Bytes[op] += n
	p.stats.Pixels[op]++
}

// next produces the pixel of the following grid cell.
func (p *decoder) next() (Pixel, error) {
	// inside a run of identical pixels; nothing to read
	if p.run > 0 {
		p.run--
		p.seen[p.prev.hash()] = p.prev
		if p.stats != nil {
			p.stats.Pixels[OpRun]++
		}
		return p.prev, nil
	}

	if err := p.need(1); err != nil {
		return Pixel{}, err
	}
	b1 := p.body[p.pos]

	switch {
	case b1 == opRGB:
		if err := p.need(4); err != nil {
			return Pixel{}, err
		}
		p.prev.R, p.prev.G, p.prev.B = p.body[p.pos+1], p.body[p.pos+2], p.body[p.pos+3]
		p.pos += 4
		p.count(OpRGB, 4)

	case b1 == opRGBA:
		if err := p.need(5); err != nil {
			return Pixel{}, err
		}
		p.prev = Pixel{p.body[p.pos+1], p.body[p.pos+2], p.body[p.pos+3], p.body[p.pos+4]}
		p.pos += 5
		p.count(OpRGBA, 5)

	case b1&opMask == opIndex:
		p.prev = p.seen[b1&0x3f]
		p.pos++
		p.count(OpIndex, 1)
		// the slot already holds this pixel
		return p.prev, nil

	case b1&opMask == opDiff:
		p.prev.R += (b1>>4)&0x03 - 2
		p.prev.G += (b1>>2)&0x03 - 2
		p.prev.B += b1&0x03 - 2
		p.pos++
		p.count(OpDiff, 1)

	case b1&opMask == opLuma:
		if err := p.need(2); err != nil {
			return Pixel{}, err
		}
		b2 := p.body[p.pos+1]
		dg := b1&0x3f - 32
		p.prev.R += dg + (b2>>4)&0x0f - 8
		p.prev.G += dg
		p.prev.B += dg + b2&0x0f - 8
		p.pos += 2
		p.count(OpLuma, 2)

	case b1&opMask == opRun:
		// this cell is the first pixel of the run
		p.run = int(b1 & 0x3f)
		p.pos++
		p.count(OpRun, 1)
	}

	p.seen[p.prev.hash()] = p.prev
	return p.prev, nil
}

// Decode reads a QOI image from r. The whole stream is read before decoding.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	_, g, err := DecodeGrid(data)
	if err != nil {
		return nil, err
	}
	return g.Image(), nil
}

// DecodeConfig returns the dimensions of a QOI image without decoding its
// body.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return image.Config{}, fmt.Errorf("%w: %v", ErrTruncatedStream, err)
		}
		return image.Config{}, err
	}
	d, err := ParseHeader(header[:])
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(d.Width),
		Height:     int(d.Height),
	}, nil
}
