package inspect

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"qoiproc/fileop"
	"qoiproc/parallel"
)

type CLICmd struct {
	Files    []string `arg:"" optional:"" type:"existingfile" help:"QOI files to inspect. When none is given the scan folder is searched."`
	Scan     string   `help:"Source folder to scan" default:"."`
	MaxOrder int      `help:"Largest window size for entropy measurement" default:"4"`
	Baseline bool     `help:"Compare against lz4 and zstd" default:"true" negatable:""`
	Output   string   `help:"Report format" enum:"text,yaml" default:"text"`

	Out io.Writer `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	if c.MaxOrder < 1 {
		return fmt.Errorf("invalid max order: %d", c.MaxOrder)
	}
	if len(c.Files) > 0 {
		return nil
	}
	return fileop.ResolveDirs(&c.Scan)
}

func (c *CLICmd) Run(pool *parallel.Pool) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}

	files := c.Files
	if len(files) == 0 {
		var err error
		if files, err = fileop.List(c.Scan, ".qoi"); err != nil {
			return err
		}
	}

	// reports keep the order of files; each job owns its slot
	reports := make([]*Report, len(files))
	for i, name := range files {
		pool.Do(func() error {
			logger := slog.Default().With("file", name)
			data, err := fileop.ReadFile(name)
			if err != nil {
				logger.Error("could not read file", "error", err)
				return err
			}
			if reports[i], err = Analyze(name, data, c.MaxOrder, c.Baseline); err != nil {
				logger.Error("could not analyze file", "error", err)
				return err
			}
			return nil
		})
	}
	stats := pool.Wait()

	var ok []*Report
	for _, r := range reports {
		if r != nil {
			ok = append(ok, r)
		}
	}
	if err := c.write(out, ok); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}

	slog.Info("stats", "processed", stats.Processed, "errors", stats.Failed, "total", stats.Total())
	if stats.Failed > 0 {
		return fmt.Errorf("error processing %d files", stats.Failed)
	}
	return nil
}

func (c *CLICmd) write(w io.Writer, reports []*Report) error {
	if c.Output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	}
	for _, r := range reports {
		if err := r.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}
