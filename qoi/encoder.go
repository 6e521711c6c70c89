package qoi

import (
	"fmt"
	"image"
	"io"
)

// index is the running array of previously seen pixels.
type index [64]Pixel

func newIndex(channels int) index {
	var idx index
	if channels == 3 {
		for i := range idx {
			idx[i].A = 255
		}
	}
	return idx
}

type encoder struct {
	buf  []byte
	prev Pixel
	run  int
	seen index
}

// EncodeGrid returns the complete file (header, body and trailer) for g.
// The descriptor must describe g; only its Colorspace adds information.
func EncodeGrid(g *Grid, d Descriptor) ([]byte, error) {
	if g.Channels != 3 && g.Channels != 4 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, g.Channels)
	}
	if g.Width > 0 && g.Height > 0 && uint64(g.Width)*uint64(g.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupported, g.Width, g.Height, MaxPixels)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := g.check(); err != nil {
		return nil, err
	}
	if int(d.Width) != g.Width || int(d.Height) != g.Height || int(d.Channels) != g.Channels {
		return nil, fmt.Errorf("%w: descriptor %dx%dx%d does not match grid %dx%dx%d", ErrInconsistentGrid,
			d.Width, d.Height, d.Channels, g.Width, g.Height, g.Channels)
	}

	// Worst case is one literal per pixel.
	size := HeaderSize + g.Width*g.Height*(g.Channels+1) + TrailerSize
	e := encoder{
		buf:  d.appendHeader(make([]byte, 0, size)),
		prev: startPixel,
		seen: newIndex(g.Channels),
	}
	for i := range g.Width * g.Height {
		e.encode(g.pixel(i), g.Channels)
	}
	e.flushRun()
	return append(e.buf, trailer[:]...), nil
}

// encode appends the record for px. The checks run in the order of the
// format's operator priority and the first match wins.
func (e *encoder) encode(px Pixel, channels int) {
	if px == e.prev {
		e.run++
		if e.run == maxRun {
			e.flushRun()
		}
		return
	}
	e.flushRun()

	pos := px.hash()
	if e.seen[pos] == px {
		e.buf = append(e.buf, opIndex|pos)
		e.prev = px
		return
	}
	e.seen[pos] = px

	if px.A == e.prev.A {
		dr := int(int8(px.R - e.prev.R))
		dg := int(int8(px.G - e.prev.G))
		db := int(int8(px.B - e.prev.B))
		drdg := dr - dg
		dbdg := db - dg

		switch {
		case dr > -3 && dr < 2 &&
			dg > -3 && dg < 2 &&
			db > -3 && db < 2:
			e.buf = append(e.buf, opDiff|byte(dr+2)<<4|byte(dg+2)<<2|byte(db+2))
		case dg > -33 && dg < 32 &&
			drdg > -9 && drdg < 8 &&
			dbdg > -9 && dbdg < 8:
			e.buf = append(e.buf, opLuma|byte(dg+32), byte(drdg+8)<<4|byte(dbdg+8))
		case channels == 3:
			e.buf = append(e.buf, opRGB, px.R, px.G, px.B)
		default:
			e.buf = append(e.buf, opRGBA, px.R, px.G, px.B, px.A)
		}
	} else {
		// Alpha only ever changes in 4-channel images.
		e.buf = append(e.buf, opRGBA, px.R, px.G, px.B, px.A)
	}
	e.prev = px
}

func (e *encoder) flushRun() {
	if e.run == 0 {
		return
	}
	e.buf = append(e.buf, opRun|byte(e.run-1))
	e.run = 0
}

// Options adjusts how Encode turns an image into a grid.
type Options struct {
	// Channels is 3, 4, or 0 to pick 3 for fully opaque images.
	Channels   int
	Colorspace Colorspace
}

// Encode writes m to w in QOI format. A nil o selects automatic channels and
// sRGB.
func Encode(w io.Writer, m image.Image, o *Options) error {
	var opts Options
	if o != nil {
		opts = *o
	}
	g, err := GridFromImage(m, opts.Channels, OrderRGB)
	if err != nil {
		return err
	}
	data, err := EncodeGrid(g, Descriptor{
		Width:      uint32(g.Width),
		Height:     uint32(g.Height),
		Channels:   uint8(g.Channels),
		Colorspace: opts.Colorspace,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
