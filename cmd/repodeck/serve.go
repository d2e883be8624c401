package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/c360studio/repodeck/api"
	"github.com/c360studio/repodeck/workflow"
)

func serveCmd(flags *globalFlags, deps appDeps) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags, deps)
			if err != nil {
				return err
			}
			defer app.Close()
			if addr != "" {
				app.cfg.Server.Addr = addr
			}
			return app.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

// Server builds the HTTP API over a session registry whose contexts end
// with ctx.
func (a *App) Server(ctx context.Context) (*api.Server, error) {
	opts := []api.Option{
		api.WithExporter(a.exporter),
		api.WithGatherer(a.registry),
		api.WithLogger(a.logger),
	}
	pub, err := a.Publisher()
	if err != nil {
		return nil, err
	}
	if pub != nil {
		opts = append(opts, api.WithPublisher(pub))
	}

	sessions := api.NewSessions(ctx, func(string) *workflow.Analyzer {
		return a.NewAnalyzer()
	})
	return api.NewServer(sessions, opts...), nil
}

// Serve runs the HTTP API until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	srv, err := a.Server(ctx)
	if err != nil {
		return err
	}
	s := a.cfg.Server
	return srv.Serve(ctx, s.Addr, s.ReadHeaderTimeout, s.ShutdownTimeout)
}
