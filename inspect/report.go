package inspect

import (
	"fmt"
	"io"
	"strings"

	"qoiproc/baseline"
	"qoiproc/entropy"
	"qoiproc/qoi"
)

type OpReport struct {
	Records int `yaml:"records"`
	Bytes   int `yaml:"bytes"`
	Pixels  int `yaml:"pixels"`
}

type Report struct {
	File       string `yaml:"file"`
	Width      uint32 `yaml:"width"`
	Height     uint32 `yaml:"height"`
	Channels   uint8  `yaml:"channels"`
	Colorspace string `yaml:"colorspace"`
	// Size is the whole file; Raw is Width*Height*Channels.
	Size  int     `yaml:"size"`
	Raw   int     `yaml:"raw"`
	Ratio float64 `yaml:"ratio"`

	Ops map[string]OpReport `yaml:"ops"`
	// Entropy of the encoded body in bits per byte, keyed by window size.
	Entropy map[int]float64 `yaml:"entropy"`

	Pixels *baseline.Sizes `yaml:"pixels_baseline,omitempty"`
	Body   *baseline.Sizes `yaml:"body_baseline,omitempty"`
}

// Analyze builds the report for one QOI file.
func Analyze(name string, data []byte, maxOrder int, withBaseline bool) (*Report, error) {
	desc, g, stats, err := qoi.AnalyzeGrid(data)
	if err != nil {
		return nil, err
	}

	r := &Report{
		File:       name,
		Width:      desc.Width,
		Height:     desc.Height,
		Channels:   desc.Channels,
		Colorspace: desc.Colorspace.String(),
		Size:       len(data),
		Raw:        int(desc.Width) * int(desc.Height) * int(desc.Channels),
		Ops:        make(map[string]OpReport),
		Entropy:    make(map[int]float64),
	}
	r.Ratio = float64(r.Size) / float64(r.Raw)

	for _, op := range opOrder {
		if stats.Records[op] == 0 {
			continue
		}
		r.Ops[op.String()] = OpReport{
			Records: stats.Records[op],
			Bytes:   stats.Bytes[op],
			Pixels:  stats.Pixels[op],
		}
	}

	body := data[qoi.HeaderSize : len(data)-qoi.TrailerSize]
	for _, n := range entropy.Orders(len(body), maxOrder) {
		r.Entropy[n] = entropy.H(body, n)
	}

	if withBaseline {
		pixels, err := baseline.Measure(g.Pix)
		if err != nil {
			return nil, fmt.Errorf("could not measure pixel baseline: %w", err)
		}
		bodySizes, err := baseline.Measure(body)
		if err != nil {
			return nil, fmt.Errorf("could not measure body baseline: %w", err)
		}
		r.Pixels, r.Body = &pixels, &bodySizes
	}
	return r, nil
}

var opOrder = []qoi.Op{qoi.OpRun, qoi.OpIndex, qoi.OpDiff, qoi.OpLuma, qoi.OpRGB, qoi.OpRGBA}

// WriteText prints r in a human readable layout.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %dx%d, %d channels, %s\n", r.File, r.Width, r.Height, r.Channels, r.Colorspace)
	fmt.Fprintf(&b, "  size %d bytes, raw %d bytes, ratio %.3f\n", r.Size, r.Raw, r.Ratio)
	for _, op := range opOrder {
		o, ok := r.Ops[op.String()]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %-5s %9d records %10d bytes %10d pixels\n", op, o.Records, o.Bytes, o.Pixels)
	}
	for n := 1; n <= len(r.Entropy); n++ {
		fmt.Fprintf(&b, "  H%d %.4f bits/byte\n", n, r.Entropy[n])
	}
	if r.Pixels != nil && r.Body != nil {
		for _, m := range []baseline.Method{baseline.LZ4, baseline.Zstd} {
			fmt.Fprintf(&b, "  %-4s pixels %d bytes, qoi body %d bytes\n", m, r.Pixels.Get(m), r.Body.Get(m))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
