package convert

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/alecthomas/kong"

	"qoiproc/fileop"
	"qoiproc/parallel"
	"qoiproc/qoi"
)

type OpParams struct {
	Scan      string `help:"Source folder to scan" default:"."`
	Overwrite bool   `help:"Replace existing destination files" default:"false"`
}

type EncodeCmd struct {
	OpParams
	Dest       string `help:"Destination folder for QOI files. Relative to scan dir if not absolute." default:"qoi"`
	Channels   string `help:"Channels to store; auto stores 3 for fully opaque images" enum:"auto,3,4" default:"auto"`
	Colorspace string `help:"Colorspace flag written to the header. Pixels are not converted." enum:"srgb,linear" default:"srgb"`
	Resize     bool   `help:"Resize image before encoding" default:"false" group:"resize"`
	Width      int    `help:"Max width" group:"resize"`
	Height     int    `help:"Max height" group:"resize"`
	Crop       bool   `help:"Crop image to maintain requested aspect ratio" default:"false" group:"resize"`
	Fill       string `help:"If given and not cropping, will fill background with this color to maintain destination aspect ratio" group:"resize"`

	FillColor color.Color `kong:"-"`
	Options   qoi.Options `kong:"-"`
}

func (c *EncodeCmd) Validate(kctx *kong.Context) error {
	if err := fileop.ResolveDirs(&c.Scan, &c.Dest); err != nil {
		return err
	}

	if c.Resize {
		switch {
		case c.Width < 0:
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case c.Height < 0:
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case c.Width == 0 && c.Height == 0:
			return fmt.Errorf("no resize dimensions given")
		}
	}

	var err error
	if !c.Crop && c.Fill != "" {
		if c.FillColor, err = parseHexColor(c.Fill); err != nil {
			return err
		}
	}

	if c.Options.Colorspace, err = qoi.ParseColorspace(c.Colorspace); err != nil {
		return err
	}
	c.Options.Channels = 0
	if c.Channels != "auto" {
		if c.Options.Channels, err = strconv.Atoi(c.Channels); err != nil {
			return fmt.Errorf("invalid channels %q: %w", c.Channels, err)
		}
	}
	return nil
}

func (c *EncodeCmd) Run(pool *parallel.Pool) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	exts := slices.DeleteFunc(slices.Clone(SourceExts), func(ext string) bool { return ext == ".qoi" })
	files, err := fileop.List(c.Scan, exts...)
	if err != nil {
		return err
	}

	for _, name := range files {
		pool.Do(func() error {
			logger := slog.Default().With("file", name)
			err := c.encodeFile(logger, name)
			if err != nil {
				logger.Error("could not encode image", "error", err)
			}
			return err
		})
	}
	return report(pool.Wait())
}

func (c *EncodeCmd) encodeFile(logger *slog.Logger, name string) error {
	img, format, err := LoadImage(name)
	if err != nil {
		return err
	}
	logger.Debug("decoded source", "format", format, "bounds", img.Bounds())

	if c.Resize {
		img = resize(logger, img, c.Width, c.Height, c.Crop, c.FillColor)
	}

	dest := filepath.Join(c.Dest, fileop.ReplaceExt(filepath.Base(name), ".qoi"))
	if err := fileop.WriteAtomic(dest, c.Overwrite, func(w io.Writer) error {
		return writeImage(w, img, "qoi", &c.Options)
	}); err != nil {
		return err
	}
	logger.Info("encoded", "dest", dest)
	return nil
}

type DecodeCmd struct {
	OpParams
	Dest   string `help:"Destination folder for decoded images. Relative to scan dir if not absolute." default:"decoded"`
	Format string `help:"Output format of decoded images" enum:"png,bmp,tiff,gif,jpeg" default:"png"`
}

func (c *DecodeCmd) Validate(kctx *kong.Context) error {
	return fileop.ResolveDirs(&c.Scan, &c.Dest)
}

func (c *DecodeCmd) Run(pool *parallel.Pool) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := fileop.List(c.Scan, ".qoi")
	if err != nil {
		return err
	}

	for _, name := range files {
		pool.Do(func() error {
			logger := slog.Default().With("file", name)
			err := c.decodeFile(logger, name)
			if err != nil {
				logger.Error("could not decode image", "error", err)
			}
			return err
		})
	}
	return report(pool.Wait())
}

func (c *DecodeCmd) decodeFile(logger *slog.Logger, name string) error {
	data, err := fileop.ReadFile(name)
	if err != nil {
		return err
	}
	desc, g, err := qoi.DecodeGrid(data)
	if err != nil {
		return fmt.Errorf("could not decode QOI file %q: %w", name, err)
	}
	logger.Debug("decoded source", "width", desc.Width, "height", desc.Height,
		"channels", desc.Channels, "colorspace", desc.Colorspace)

	dest := filepath.Join(c.Dest, fileop.ReplaceExt(filepath.Base(name), formatExt[c.Format]))
	if err := fileop.WriteAtomic(dest, c.Overwrite, func(w io.Writer) error {
		return writeImage(w, g.Image(), c.Format, nil)
	}); err != nil {
		return err
	}
	logger.Info("decoded", "dest", dest)
	return nil
}

func report(stats parallel.Stats) error {
	slog.Info("stats", "processed", stats.Processed, "errors", stats.Failed, "total", stats.Total())
	if stats.Failed > 0 {
		return fmt.Errorf("error processing %d files", stats.Failed)
	}
	return nil
}
