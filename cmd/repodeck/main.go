// Package main provides the repodeck binary entry point.
// Repodeck turns a repository README into an investor pitch deck with
// AI-generated slide visuals and exports it as PowerPoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/repodeck/llm/providers"

	"github.com/c360studio/repodeck/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "repodeck"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(appDeps{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd(deps appDeps) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Turn a README into a pitch deck",
		Long: `Repodeck reads a project's README, asks a language model to write an
investor pitch deck from it, renders a background visual for each slide and
exports the result as an editable PowerPoint file.

Sources can be GitHub repository URLs, other web pages or local directories.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		generateCmd(flags, deps),
		watchCmd(flags, deps),
		serveCmd(flags, deps),
		schemaCmd(),
		initCmd(flags),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func initCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default user config if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.NewLoader(newLogger(cmd, flags.logLevel)).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newLogger(cmd *cobra.Command, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// setup loads configuration and builds the app for a subcommand.
func setup(cmd *cobra.Command, flags *globalFlags, deps appDeps) (*App, error) {
	logger := newLogger(cmd, flags.logLevel)
	slog.SetDefault(logger)

	loaderOpts := []config.LoaderOption{}
	if deps.fs != nil {
		loaderOpts = append(loaderOpts, config.WithFs(deps.fs))
	}
	cfg, err := config.NewLoader(logger, loaderOpts...).Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	app, err := NewApp(cmd.Context(), cfg, logger, deps)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}
	return app, nil
}
