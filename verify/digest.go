// Package verify checks that images survive a QOI round trip unchanged.
package verify

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"qoiproc/qoi"
)

// Digest is a BLAKE3 hash of a grid's shape and canonical pixel bytes. Two
// grids holding the same pixels have the same digest whatever their channel
// order.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// GridDigest hashes g.
func GridDigest(g *qoi.Grid) Digest {
	h := blake3.New()
	fmt.Fprintf(h, "qoiproc.grid %d %d %d\n", g.Width, g.Height, g.Channels)

	row := make([]byte, 0, g.Width*g.Channels)
	for y := range g.Height {
		row = row[:0]
		for x := range g.Width {
			px := g.At(x, y)
			row = append(row, px.R, px.G, px.B)
			if g.Channels == 4 {
				row = append(row, px.A)
			}
		}
		h.Write(row)
	}

	var d Digest
	h.Sum(d[:0])
	return d
}

// Result describes one checked image.
type Result struct {
	Source  Digest
	Decoded Digest
	// Encoded is the size of the QOI file produced for the image.
	Encoded int
}

// Match reports whether the decoded pixels equal the source pixels.
func (r Result) Match() bool {
	return r.Source == r.Decoded
}

// RoundTrip encodes g, decodes the result and digests both grids.
func RoundTrip(g *qoi.Grid, cs qoi.Colorspace) (Result, error) {
	data, err := qoi.EncodeGrid(g, qoi.Descriptor{
		Width:      uint32(g.Width),
		Height:     uint32(g.Height),
		Channels:   uint8(g.Channels),
		Colorspace: cs,
	})
	if err != nil {
		return Result{}, fmt.Errorf("could not encode: %w", err)
	}
	res := Result{Source: GridDigest(g), Encoded: len(data)}

	desc, decoded, err := qoi.DecodeGridInto(data, g.Order)
	if err != nil {
		return res, fmt.Errorf("could not decode: %w", err)
	}
	if desc.Colorspace != cs {
		return res, fmt.Errorf("colorspace %s came back as %s", cs, desc.Colorspace)
	}
	res.Decoded = GridDigest(decoded)
	return res, nil
}

// Compare digests an existing QOI file against the source grid it should
// reproduce.
func Compare(g *qoi.Grid, data []byte) (Result, error) {
	res := Result{Source: GridDigest(g), Encoded: len(data)}
	_, decoded, err := qoi.DecodeGrid(data)
	if err != nil {
		return res, fmt.Errorf("could not decode: %w", err)
	}
	res.Decoded = GridDigest(decoded)
	return res, nil
}
