// Package app assembles the artconnect command line: the HTTP service, its
// database maintenance commands and the terminal client.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/artconnect/artconnect/internal/config"
	"github.com/artconnect/artconnect/internal/db"
	"github.com/artconnect/artconnect/internal/handlers"
	"github.com/artconnect/artconnect/internal/httpserver"
	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/middleware"
)

// Run executes the command line described by args.
func Run(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "artconnect",
		Short: "Social marketplace for local artisans",
		Long: `ArtConnect lets artisans share their work, tell its story and sell it.

The serve command runs the API. The client command drives it from a terminal
the way the web interface does: likes, comments, follows, posts with generated
captions, and the marketplace.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedCmd(),
		clientCmd(),
	)

	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	reg, httpMetrics := newMetricsRegistry()
	deps, cleanup, err := buildDependencies(ctx, pool, cfg, reg)
	if err != nil {
		return err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(cleanupCtx); err != nil {
			logger.Error("stop background workers", "error", err)
		}
	}()

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)
	if !cfg.ObjectStore.Enabled() {
		mux.Handle("GET /static/uploads/", http.StripPrefix("/static/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	handler := middleware.RequestLogger(logger)(httpMetrics.Middleware(mux))

	srv := httpserver.New(cfg.AppPort, handler)

	logger.Info("starting http server", "port", cfg.AppPort)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server", "cause", context.Cause(ctx))
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
