package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/config"
	"github.com/atlasinovacoes/portalperf/internal/execution"
	"github.com/atlasinovacoes/portalperf/internal/history"
	"github.com/atlasinovacoes/portalperf/internal/metrics"
	"github.com/atlasinovacoes/portalperf/internal/notify"
	"github.com/atlasinovacoes/portalperf/internal/preview"
	"github.com/atlasinovacoes/portalperf/internal/runlog"
	"github.com/atlasinovacoes/portalperf/internal/server"
	"github.com/atlasinovacoes/portalperf/internal/session"
	"github.com/atlasinovacoes/portalperf/internal/store"
	"github.com/atlasinovacoes/portalperf/internal/upload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console server",
	RunE:  runServe,
}

var configFile string

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/portalperf/config.yaml", "Path to configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	// Setup logger
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Logging.Level),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Logging.Level),
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	server.Version = version

	st, err := store.Open(cfg.Storage.StatePath, cfg.Email.MandatoryCc, cfg.Email.DefaultSenderName)
	if err != nil {
		return err
	}
	defer st.Close()

	db, err := runlog.New(cfg.Storage.HistoryPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}
	runs := runlog.NewRepository(db)

	m := metrics.New()
	metrics.SetGlobal(m)

	client := backend.NewClient(cfg.Backend.BaseURL, st, cfg.Backend.Timeout)
	gate := session.NewGate(client, st, logger)
	client.OnUnauthorized(gate.MarkUnauthenticated)

	// Resolve the stored credential before accepting requests.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	gate.Init(initCtx)
	cancelInit()

	notifier := notify.NewCenter(logger)

	srv := server.NewServer(cfg, server.Deps{
		Gate:         gate,
		Orchestrator: execution.New(client, st, runs, notifier, logger),
		Reconciler:   preview.NewReconciler(client, st, notifier, logger),
		Stage:        upload.NewStage(client, notifier, logger),
		History:      history.NewService(client, logger),
		Runs:         runs,
		Client:       client,
		Store:        st,
		Notifier:     notifier,
		Metrics:      m,
	}, logger)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down...", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
