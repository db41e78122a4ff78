package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptrevino/mediashelf/config"
	mediashelfhttp "github.com/ptrevino/mediashelf/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the streaming gateway",
	Long:  `Start the Mediashelf HTTP gateway.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, closeStore, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer closeStore()

	slog.Info("connected to object store", "type", cfg.Storage.Type)

	handlerConfig := mediashelfhttp.Config{
		CORS:             cfg.CORS,
		MetadataTimeout:  time.Duration(cfg.Gateway.MetadataTimeout) * time.Second,
		FetchTimeout:     time.Duration(cfg.Gateway.FetchTimeout) * time.Second,
		IdleTimeout:      time.Duration(cfg.Gateway.IdleTimeout) * time.Second,
		WatchdogInterval: time.Duration(cfg.Gateway.WatchdogInterval) * time.Second,
		PresignTTL:       time.Duration(cfg.Presign.TTL) * time.Second,
		PresignMaxTTL:    time.Duration(cfg.Presign.MaxTTL) * time.Second,
	}

	handler, err := mediashelfhttp.NewHandler(&handlerConfig, store)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// No WriteTimeout: it would cap total response time and kill long
	// media downloads. Stalled streams are bounded by the gateway's
	// idle watchdog instead.
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
