// Package baseline measures general purpose compressors against QOI so a
// report can show what the format gains over them.
package baseline

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
)

// Method identifies a baseline compressor.
type Method uint8

const (
	LZ4 Method = iota
	Zstd
)

func (m Method) String() string {
	switch m {
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Sizes holds the compressed size of one buffer per method. A size equal to
// Raw means the compressor could not shrink the input.
type Sizes struct {
	Raw  int `yaml:"raw"`
	LZ4  int `yaml:"lz4"`
	Zstd int `yaml:"zstd"`
}

// Get returns the size recorded for m.
func (s Sizes) Get(m Method) int {
	switch m {
	case LZ4:
		return s.LZ4
	case Zstd:
		return s.Zstd
	default:
		return s.Raw
	}
}

// zstdEncoder is shared; EncodeAll is safe for concurrent use.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("baseline: zstd encoder initialization failed: " + err.Error())
	}
}

// Measure compresses data with every method concurrently.
func Measure(data []byte) (Sizes, error) {
	sizes := Sizes{Raw: len(data)}

	var g errgroup.Group
	g.Go(func() error {
		n, err := lz4Size(data)
		sizes.LZ4 = n
		return err
	})
	g.Go(func() error {
		sizes.Zstd = zstdSize(data)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Sizes{}, err
	}
	return sizes, nil
}

// compress returns data compressed with m.
func compress(data []byte, m Method) ([]byte, error) {
	switch m {
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("unsupported method: %s", m)
	}
}

var errIncompressible = errors.New("incompressible")

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if n == 0 {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func lz4Size(data []byte) (int, error) {
	out, err := compress(data, LZ4)
	if errors.Is(err, errIncompressible) {
		return len(data), nil
	}
	if err != nil {
		return 0, err
	}
	return min(len(out), len(data)), nil
}

func zstdSize(data []byte) int {
	out, _ := compress(data, Zstd)
	return min(len(out), len(data))
}
