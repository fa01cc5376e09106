// Command framesel extracts frames from a local video and runs a keyframe
// selector over them without any of the worker's infrastructure.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type cli struct {
	LogLevel string `name:"log-level" default:"warn" help:"Log level (debug, info, warn, error)."`

	Extract extractCmd `cmd:"" help:"Extract frames from a video with ffmpeg."`
	Select  selectCmd  `cmd:"" help:"Select keyframes from a directory of extracted frames."`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var c cli
	parser, err := kong.New(&c,
		kong.Name("framesel"),
		kong.Description("Keyframe extraction and selection for local videos."),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{Tree: true}),
		kong.UsageOnError(),
	)
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = kctx.Run(&c)
	parser.FatalIfErrorf(err)
}
