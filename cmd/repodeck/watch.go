package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/repodeck/source"
)

func watchCmd(flags *globalFlags, deps appDeps) *cobra.Command {
	opts := &generateOptions{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Regenerate the deck whenever the project's README changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags, deps)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Watch(cmd.Context(), args[0], opts, debounce, cmd.OutOrStdout())
		},
	}
	opts.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", source.DefaultDebounce, "Wait this long for further edits before regenerating")
	return cmd
}

// Watch generates a deck for dir, then regenerates it after each change to
// its documentation until ctx ends. Failed generations are logged and the
// watch continues.
func (a *App) Watch(ctx context.Context, dir string, opts *generateOptions, debounce time.Duration, out io.Writer) error {
	watcher := source.NewDocWatcher(dir, a.local,
		source.WithDebounce(debounce),
		source.WithWatchLogger(a.logger))

	regenerate := func(ctx context.Context, reason string) {
		a.logger.Info("Generating deck", "dir", dir, "reason", reason)
		path, err := a.Generate(ctx, dir, opts)
		if err != nil {
			a.logger.Error("Generation failed", "dir", dir, "error", err)
			return
		}
		fmt.Fprintln(out, path)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(ctx)
	})
	g.Go(func() error {
		regenerate(ctx, "initial")
		for rel := range watcher.Changes() {
			regenerate(ctx, rel+" changed")
		}
		return nil
	})
	return g.Wait()
}
