package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/fairshare/internal/api"
	"github.com/mmynk/fairshare/internal/auth"
	"github.com/mmynk/fairshare/internal/config"
	"github.com/mmynk/fairshare/internal/metrics"
	"github.com/mmynk/fairshare/internal/persist"
	"github.com/mmynk/fairshare/internal/service"
	"github.com/mmynk/fairshare/internal/storage/memory"
	"github.com/mmynk/fairshare/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := memory.New()
	recorder := metrics.New()

	sink, err := openSink(ctx, cfg.Persistence)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	var wg sync.WaitGroup
	if sink != nil {
		defer sink.Close()

		if _, err := persist.Restore(ctx, sink, store); err != nil {
			return err
		}
		snapshotter := persist.NewSnapshotter(store, sink, cfg.Persistence.Interval,
			persist.WithResultHook(recorder.ObserveSnapshot))
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshotter.Run(ctx)
		}()
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := service.NewAuthService(auth.NewPasswordlessAuthenticator(store), jwtManager, slog.Default())
	srv := api.NewServer(store, authSvc, jwtManager, recorder)

	// Wrap with h2c for HTTP/2 without TLS
	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		wg.Wait()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}

	// The snapshotter writes a final snapshot once ctx is done.
	wg.Wait()
	slog.Info("Server stopped")
	return nil
}
