package qoi

import (
	"bytes"
	"errors"
	"testing"
)

func header(w, h uint32, channels uint8, cs Colorspace) []byte {
	b, _ := Descriptor{Width: w, Height: h, Channels: channels, Colorspace: cs}.MarshalBinary()
	return b
}

func file(hdr []byte, body ...byte) []byte {
	out := append([]byte{}, hdr...)
	out = append(out, body...)
	return append(out, trailer[:]...)
}

func mustGrid(t *testing.T, rows [][]Pixel, channels int) *Grid {
	t.Helper()
	g, err := GridFromRows(rows, channels, OrderRGB)
	if err != nil {
		t.Fatalf("GridFromRows() failed: %v", err)
	}
	return g
}

func descOf(g *Grid, cs Colorspace) Descriptor {
	return Descriptor{Width: uint32(g.Width), Height: uint32(g.Height), Channels: uint8(g.Channels), Colorspace: cs}
}

func body(t *testing.T, data []byte) []byte {
	t.Helper()
	if len(data) < HeaderSize+TrailerSize {
		t.Fatalf("encoded file has %d bytes", len(data))
	}
	return data[HeaderSize : len(data)-TrailerSize]
}

func TestEncodeSingleRedPixel(t *testing.T) {
	g := mustGrid(t, [][]Pixel{{{255, 0, 0, 255}}}, 3)
	got, err := EncodeGrid(g, descOf(g, Linear))
	if err != nil {
		t.Fatalf("EncodeGrid() failed: %v", err)
	}
	want := []byte{
		'q', 'o', 'i', 'f',
		0, 0, 0, 1,
		0, 0, 0, 1,
		3, 1,
		0xfe, 0xff, 0x00, 0x00,
		0, 0, 0, 0, 0, 0, 0, 1,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeGrid() = % x, want % x", got, want)
	}
}

func TestEncodeOperators(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		pixels   []Pixel
		want     []byte
	}{
		{
			name:     "run split at 62",
			channels: 4,
			pixels:   repeat(Pixel{0, 0, 0, 255}, 100),
			want:     []byte{opRun | 61, opRun | 37},
		},
		{
			name:     "exact run of 62",
			channels: 4,
			pixels:   repeat(Pixel{0, 0, 0, 255}, 62),
			want:     []byte{opRun | 61},
		},
		{
			name:     "diff at -2 and +1",
			channels: 3,
			pixels:   []Pixel{{10, 10, 10, 255}, {8, 11, 10, 255}},
			want:     []byte{0xaa, 0x88, 0x4e},
		},
		{
			name:     "delta -3 uses luma",
			channels: 3,
			pixels:   []Pixel{{10, 10, 10, 255}, {7, 10, 10, 255}},
			want:     []byte{0xaa, 0x88, 0xa0, 0x58},
		},
		{
			name:     "delta +2 uses luma",
			channels: 3,
			pixels:   []Pixel{{10, 10, 10, 255}, {12, 10, 10, 255}},
			want:     []byte{0xaa, 0x88, 0xa0, 0xa8},
		},
		{
			name:     "index on A B A",
			channels: 3,
			pixels:   []Pixel{{100, 50, 25, 255}, {0, 200, 0, 255}, {100, 50, 25, 255}},
			want:     []byte{opRGB, 100, 50, 25, opRGB, 0, 200, 0, opIndex | 10},
		},
		{
			name:     "diff wraps around",
			channels: 3,
			pixels:   []Pixel{{255, 255, 255, 255}},
			want:     []byte{0x55},
		},
		{
			name:     "alpha change forces rgba",
			channels: 4,
			pixels:   []Pixel{{0, 0, 0, 128}},
			want:     []byte{opRGBA, 0, 0, 0, 128},
		},
		{
			name:     "large delta uses rgba literal in 4 channels",
			channels: 4,
			pixels:   []Pixel{{200, 0, 100, 255}},
			want:     []byte{opRGBA, 200, 0, 100, 255},
		},
		{
			name:     "fresh index slot holds opaque black",
			channels: 3,
			pixels:   []Pixel{{1, 2, 3, 255}, {0, 0, 0, 255}},
			want:     []byte{0xa2, 0x79, opIndex | 53},
		},
		{
			name:     "run flushed before other record",
			channels: 3,
			pixels:   []Pixel{{0, 0, 0, 255}, {0, 0, 0, 255}, {1, 0, 0, 255}},
			want:     []byte{opRun | 1, 0x7a},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGrid(t, [][]Pixel{tt.pixels}, tt.channels)
			data, err := EncodeGrid(g, descOf(g, SRGB))
			if err != nil {
				t.Fatalf("EncodeGrid() failed: %v", err)
			}
			if got := body(t, data); !bytes.Equal(got, tt.want) {
				t.Errorf("body = % x, want % x", got, tt.want)
			}

			_, decoded, err := DecodeGrid(data)
			if err != nil {
				t.Fatalf("DecodeGrid() failed: %v", err)
			}
			if !decoded.Equal(g) {
				t.Errorf("decoded grid differs from input")
			}
		})
	}
}

func repeat(px Pixel, n int) []Pixel {
	out := make([]Pixel, n)
	for i := range out {
		out[i] = px
	}
	return out
}

func TestEncodeRejectsBadInput(t *testing.T) {
	good := NewGrid(2, 2, 3, OrderRGB)

	tests := []struct {
		name string
		grid *Grid
		desc Descriptor
		want error
	}{
		{
			name: "greyscale",
			grid: &Grid{Width: 2, Height: 2, Channels: 1, Pix: make([]uint8, 4)},
			desc: Descriptor{Width: 2, Height: 2, Channels: 1},
			want: ErrUnsupportedChannels,
		},
		{
			name: "zero channels",
			grid: &Grid{Width: 2, Height: 2},
			desc: Descriptor{Width: 2, Height: 2},
			want: ErrUnsupported,
		},
		{
			name: "short pixel buffer",
			grid: &Grid{Width: 2, Height: 2, Channels: 3, Pix: make([]uint8, 11)},
			desc: Descriptor{Width: 2, Height: 2, Channels: 3},
			want: ErrInconsistentGrid,
		},
		{
			name: "descriptor mismatch",
			grid: good,
			desc: Descriptor{Width: 3, Height: 2, Channels: 3},
			want: ErrInconsistentGrid,
		},
		{
			name: "descriptor channels mismatch",
			grid: good,
			desc: Descriptor{Width: 2, Height: 2, Channels: 4},
			want: ErrInconsistentGrid,
		},
		{
			name: "too many pixels",
			grid: &Grid{Width: 20001, Height: 20000, Channels: 3},
			desc: Descriptor{Width: 20001, Height: 20000, Channels: 3},
			want: ErrUnsupported,
		},
		{
			name: "bad colorspace",
			grid: good,
			desc: Descriptor{Width: 2, Height: 2, Channels: 3, Colorspace: 7},
			want: ErrInconsistentGrid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeGrid(tt.grid, tt.desc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("EncodeGrid() error = %v, want %v", err, tt.want)
			}
			if data != nil {
				t.Errorf("EncodeGrid() returned %d bytes alongside an error", len(data))
			}
		})
	}
}

func TestEncodeBGRMatchesRGB(t *testing.T) {
	for _, channels := range []int{3, 4} {
		rgb := testGrid(channels, 37, 23, OrderRGB)
		bgr := NewGrid(rgb.Width, rgb.Height, channels, OrderBGR)
		for y := range rgb.Height {
			for x := range rgb.Width {
				bgr.Set(x, y, rgb.At(x, y))
			}
		}
		if bytes.Equal(rgb.Pix, bgr.Pix) {
			t.Fatalf("channels=%d: BGR grid has the same memory layout as RGB", channels)
		}

		want, err := EncodeGrid(rgb, descOf(rgb, SRGB))
		if err != nil {
			t.Fatalf("EncodeGrid(rgb) failed: %v", err)
		}
		got, err := EncodeGrid(bgr, descOf(bgr, SRGB))
		if err != nil {
			t.Fatalf("EncodeGrid(bgr) failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("channels=%d: BGR encoding differs from RGB encoding", channels)
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	g := testGrid(4, 64, 64, OrderRGB)
	first, err := EncodeGrid(g, descOf(g, SRGB))
	if err != nil {
		t.Fatalf("EncodeGrid() failed: %v", err)
	}
	second, err := EncodeGrid(g, descOf(g, SRGB))
	if err != nil {
		t.Fatalf("EncodeGrid() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two encodings of the same grid differ")
	}
}
