package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/repodeck/export"
	"github.com/c360studio/repodeck/presentation"
	"github.com/c360studio/repodeck/workflow"
)

// generateOptions are the per-run choices of generate and watch.
type generateOptions struct {
	format   string
	outDir   string
	noImages bool
}

func (o *generateOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "Export format: pptx, json or md (default from config)")
	cmd.Flags().StringVarP(&o.outDir, "out", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&o.noImages, "no-images", false, "Skip slide image generation")
}

func generateCmd(flags *globalFlags, deps appDeps) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <github-url|web-url|path>",
		Short: "Generate a pitch deck and export it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags, deps)
			if err != nil {
				return err
			}
			defer app.Close()

			path, err := app.Generate(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// Generate analyzes ref, exports the deck and returns the written path.
func (a *App) Generate(ctx context.Context, ref string, opts *generateOptions) (string, error) {
	name := opts.format
	if name == "" {
		name = a.cfg.Export.Format
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return "", err
	}
	outDir := opts.outDir
	if outDir == "" {
		outDir = a.cfg.Export.Dir
	}

	var analyzerOpts []workflow.AnalyzerOption
	if opts.noImages {
		analyzerOpts = append(analyzerOpts,
			workflow.WithPresentationOptions(presentation.WithEagerTitleImage(false)))
	}
	analyzer := a.NewAnalyzer(analyzerOpts...)

	pres, err := analyzer.Analyze(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%s: %w", analyzer.Machine().Message(), err)
	}
	defer func() {
		_ = analyzer.Close()
	}()

	var images export.ImageSource = pres
	if opts.noImages {
		images = nil
	}
	path, err := a.exporter.ExportFile(ctx, a.fs, outDir, format, pres.Deck(), images)
	if err != nil {
		return "", fmt.Errorf("%s: %w", workflow.UserMessage(err), err)
	}
	pres.Wait()
	return path, nil
}
