package verify

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/alecthomas/kong"

	"qoiproc/convert"
	"qoiproc/fileop"
	"qoiproc/parallel"
	"qoiproc/qoi"
)

type CLICmd struct {
	Scan     string `help:"Source folder to scan" default:"."`
	Encoded  string `help:"Folder holding earlier encoder output to compare against. Relative to scan dir if not absolute." default:"qoi"`
	Channels string `help:"Channels used for the in-memory round trip" enum:"auto,3,4" default:"auto"`
	Order    string `help:"In-memory channel order used for the round trip" enum:"rgb,bgr" default:"rgb"`

	channels int              `kong:"-"`
	order    qoi.ChannelOrder `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	if err := fileop.ResolveDirs(&c.Scan, &c.Encoded); err != nil {
		return err
	}

	var err error
	c.channels = 0
	if c.Channels != "auto" {
		if c.channels, err = strconv.Atoi(c.Channels); err != nil {
			return fmt.Errorf("invalid channels %q: %w", c.Channels, err)
		}
	}
	c.order = qoi.OrderRGB
	if c.Order == "bgr" {
		c.order = qoi.OrderBGR
	}
	return nil
}

var errMismatch = errors.New("pixels differ")

func (c *CLICmd) Run(pool *parallel.Pool) error {
	exts := slices.DeleteFunc(slices.Clone(convert.SourceExts), func(ext string) bool { return ext == ".qoi" })
	files, err := fileop.List(c.Scan, exts...)
	if err != nil {
		return err
	}

	for _, name := range files {
		pool.Do(func() error {
			logger := slog.Default().With("file", name)
			if err := c.verifyFile(logger, name); err != nil {
				logger.Error("verification failed", "error", err)
				return err
			}
			return nil
		})
	}

	stats := pool.Wait()
	slog.Info("stats", "verified", stats.Processed, "errors", stats.Failed, "total", stats.Total())
	if stats.Failed > 0 {
		return fmt.Errorf("error processing %d files", stats.Failed)
	}
	return nil
}

func (c *CLICmd) verifyFile(logger *slog.Logger, name string) error {
	img, _, err := convert.LoadImage(name)
	if err != nil {
		return err
	}
	g, err := qoi.GridFromImage(img, c.channels, c.order)
	if err != nil {
		return err
	}

	res, err := RoundTrip(g, qoi.SRGB)
	if err != nil {
		return err
	}
	if !res.Match() {
		return fmt.Errorf("round trip: %w: source %s, decoded %s", errMismatch, res.Source, res.Decoded)
	}
	logger.Info("round trip", "digest", res.Source, "encoded", res.Encoded)

	encoded := filepath.Join(c.Encoded, fileop.ReplaceExt(filepath.Base(name), ".qoi"))
	data, err := fileop.ReadFile(encoded)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no encoded file to compare", "encoded", encoded)
		return nil
	} else if err != nil {
		return err
	}

	// compare with the channel count the file was written with
	desc, err := qoi.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("could not read header of %q: %w", encoded, err)
	}
	stored, err := qoi.GridFromImage(img, int(desc.Channels), qoi.OrderRGB)
	if err != nil {
		return err
	}
	res, err = Compare(stored, data)
	if err != nil {
		return fmt.Errorf("%q: %w", encoded, err)
	}
	if !res.Match() {
		return fmt.Errorf("%q: %w: source %s, file %s", encoded, errMismatch, res.Source, res.Decoded)
	}
	logger.Info("encoded file matches", "encoded", encoded, "digest", res.Decoded)
	return nil
}
