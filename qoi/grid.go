package qoi

import (
	"fmt"
	"image"
	"image/color"
)

// Pixel is a color in canonical wire order. Pixels of 3-channel images
// always carry A = 255.
type Pixel struct {
	R, G, B, A uint8
}

var startPixel = Pixel{0, 0, 0, 255}

// hash is the running index position of px. For 3-channel images A is the
// constant 255, so both layouts share one formula.
func (px Pixel) hash() uint8 {
	return uint8((int(px.R)*3 + int(px.G)*5 + int(px.B)*7 + int(px.A)*11) % 64)
}

// ChannelOrder is the in-memory byte order of a Grid's channels. Alpha, when
// present, is always last.
type ChannelOrder uint8

const (
	OrderRGB ChannelOrder = iota
	OrderBGR
)

func (o ChannelOrder) String() string {
	switch o {
	case OrderRGB:
		return "rgb"
	case OrderBGR:
		return "bgr"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// Grid is a row-major matrix of pixels sharing one channel count.
type Grid struct {
	Width, Height int
	Channels      int
	Order         ChannelOrder
	// Pix holds the pixels. The pixel at (x, y) starts at
	// Pix[(y*Width + x)*Channels].
	Pix []uint8
}

func NewGrid(width, height, channels int, order ChannelOrder) *Grid {
	return &Grid{
		Width:    width,
		Height:   height,
		Channels: channels,
		Order:    order,
		Pix:      make([]uint8, width*height*channels),
	}
}

// GridFromRows builds a grid from explicit rows. Every row must have the same
// length as the first one.
func GridFromRows(rows [][]Pixel, channels int, order ChannelOrder) (*Grid, error) {
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInconsistentGrid)
	}
	g := NewGrid(len(rows[0]), len(rows), channels, order)
	for y, row := range rows {
		if len(row) != g.Width {
			return nil, fmt.Errorf("%w: row %d has %d pixels, want %d", ErrInconsistentGrid, y, len(row), g.Width)
		}
		for x, px := range row {
			g.Set(x, y, px)
		}
	}
	return g, nil
}

// Stride is the number of bytes between vertically adjacent pixels.
func (g *Grid) Stride() int {
	return g.Width * g.Channels
}

// check verifies the grid against its own declared shape.
func (g *Grid) check() error {
	if g.Channels != 3 && g.Channels != 4 {
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, g.Channels)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: empty grid %dx%d", ErrInconsistentGrid, g.Width, g.Height)
	}
	if g.Order != OrderRGB && g.Order != OrderBGR {
		return fmt.Errorf("%w: channel order %s", ErrInconsistentGrid, g.Order)
	}
	if want := g.Width * g.Height * g.Channels; len(g.Pix) != want {
		return fmt.Errorf("%w: %d bytes of pixel data, want %d", ErrInconsistentGrid, len(g.Pix), want)
	}
	return nil
}

// pixel returns the i-th pixel in raster order converted to wire order.
func (g *Grid) pixel(i int) Pixel {
	p := g.Pix[i*g.Channels : i*g.Channels+g.Channels : i*g.Channels+g.Channels]
	px := Pixel{p[0], p[1], p[2], 255}
	if g.Order == OrderBGR {
		px.R, px.B = px.B, px.R
	}
	if g.Channels == 4 {
		px.A = p[3]
	}
	return px
}

// setPixel stores a wire-order pixel as the i-th pixel in raster order.
func (g *Grid) setPixel(i int, px Pixel) {
	p := g.Pix[i*g.Channels : i*g.Channels+g.Channels : i*g.Channels+g.Channels]
	if g.Order == OrderBGR {
		px.R, px.B = px.B, px.R
	}
	p[0], p[1], p[2] = px.R, px.G, px.B
	if g.Channels == 4 {
		p[3] = px.A
	}
}

func (g *Grid) At(x, y int) Pixel {
	return g.pixel(y*g.Width + x)
}

func (g *Grid) Set(x, y int, px Pixel) {
	g.setPixel(y*g.Width+x, px)
}

// Equal reports whether both grids hold the same pixels, regardless of
// their channel order.
func (g *Grid) Equal(other *Grid) bool {
	if g.Width != other.Width || g.Height != other.Height || g.Channels != other.Channels {
		return false
	}
	for i := range g.Width * g.Height {
		if g.pixel(i) != other.pixel(i) {
			return false
		}
	}
	return true
}

// Image returns a copy of the grid as a non-premultiplied image.
func (g *Grid) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for i := range g.Width * g.Height {
		px := g.pixel(i)
		img.Pix[i*4+0] = px.R
		img.Pix[i*4+1] = px.G
		img.Pix[i*4+2] = px.B
		img.Pix[i*4+3] = px.A
	}
	return img
}

// GridFromImage copies m into a new grid. With channels set to 0 the grid
// gets 3 channels when every pixel of m is fully opaque and 4 otherwise.
func GridFromImage(m image.Image, channels int, order ChannelOrder) (*Grid, error) {
	if channels == 0 {
		channels = 3
		if !isOpaque(m) {
			channels = 4
		}
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}

	b := m.Bounds()
	g := NewGrid(b.Dx(), b.Dy(), channels, order)
	if src, ok := m.(*image.NRGBA); ok {
		for y := range g.Height {
			row := src.Pix[y*src.Stride : y*src.Stride+g.Width*4]
			for x := range g.Width {
				p := row[x*4 : x*4+4]
				g.Set(x, y, Pixel{p[0], p[1], p[2], p[3]})
			}
		}
		return g, nil
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			g.Set(x-b.Min.X, y-b.Min.Y, Pixel{c.R, c.G, c.B, c.A})
		}
	}
	return g, nil
}

func isOpaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
