// Package main runs vlist, a terminal viewer for a large virtual list.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xqrs/vlist"
	"github.com/xqrs/vlist/config"
	"github.com/xqrs/vlist/virtual"
)

type options struct {
	items      int
	variable   bool
	configPath string
	logPath    string
	stream     time.Duration
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "vlist",
		Short: "Scroll through a virtual list of generated items",
		Long: `vlist shows a list of generated items. Only the visible rows are built,
so the list stays responsive with millions of items.

Keys are read from the [keys] table of the config file, for example:

  [keys]
  down = ["j", "down"]
  quit = ["q", "ctrl+c"]`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.items, "items", "n", 100_000, "number of generated items")
	cmd.Flags().BoolVar(&opts.variable, "variable", false, "give items different heights")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "vlist.toml", "config file")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "write logs to this file")
	cmd.Flags().DurationVar(&opts.stream, "stream", 0, "append an item at this interval")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if opts.items < 0 {
		return fmt.Errorf("--items must not be negative, got %d", opts.items)
	}

	logger, closeLog, err := newLogger(opts.logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	source := virtual.NewSlice(generateItems(0, opts.items, opts.variable)...)
	view, err := newView(source, cfg, opts.variable, logger)
	if err != nil {
		return err
	}

	app := vlist.NewApplication().SetLogger(logger).SetRoot(view)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.stream > 0 {
		go streamItems(ctx, app, view, opts.stream, opts.variable)
	}

	logger.Info("starting", "items", opts.items, "variable", opts.variable, "config", opts.configPath)
	if err := app.Run(); err != nil {
		return fmt.Errorf("failed to run: %w", err)
	}
	return nil
}

func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

// streamItems appends an item at every tick until ctx is done. The list is
// only touched on the event loop goroutine.
func streamItems(ctx context.Context, app *vlist.Application, v *view, interval time.Duration, variable bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.QueueUpdateDraw(func() {
				v.appendGenerated(variable)
			})
		}
	}
}
