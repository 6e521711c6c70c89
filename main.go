package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"qoiproc/config"
	"qoiproc/convert"
	"qoiproc/inspect"
	"qoiproc/parallel"
	"qoiproc/verify"
)

var cli struct {
	Workers   int               `help:"Number of files processed at once. 0 uses one worker per CPU." default:"0"`
	LogLevel  string            `help:"Minimum level of log messages" enum:"debug,info,warn,error" default:"info"`
	LogFormat string            `help:"Log output format" enum:"text,json" default:"text"`
	Config    kong.ConfigFlag   `help:"Load defaults from a YAML file"`
	Encode    convert.EncodeCmd `cmd:"" help:"Encode pictures to QOI"`
	Decode    convert.DecodeCmd `cmd:"" help:"Decode QOI pictures to another format"`
	Inspect   inspect.CLICmd    `cmd:"" help:"Report operator usage, entropy and compression baselines of QOI files"`
	Verify    verify.CLICmd     `cmd:"" help:"Check that pictures survive a QOI round trip unchanged"`
}

func setupLogging(level, format string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("qoiproc"),
		kong.Description("Lossless QOI picture encoder, decoder and analyzer"),
		kong.UsageOnError(),
		kong.Configuration(config.YAML, "~/.config/qoiproc.yaml", ".qoiproc.yaml"),
	)
	setupLogging(cli.LogLevel, cli.LogFormat)

	pool := parallel.Start(cli.Workers)
	kctx.FatalIfErrorf(kctx.Run(pool))
}
