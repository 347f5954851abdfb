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

	"github.com/avelts/filecrate"
	"github.com/avelts/filecrate/auth"
	"github.com/avelts/filecrate/config"
	"github.com/avelts/filecrate/database"
	filecratehttp "github.com/avelts/filecrate/http"
	"github.com/avelts/filecrate/s3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Filecrate HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	coordinator, cleanup, err := buildCoordinator(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var authenticator filecratehttp.Authenticator
	if cfg.Auth.JWTSecret != "" {
		verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			return fmt.Errorf("create verifier: %w", err)
		}
		authenticator = verifier
	} else {
		slog.Warn("no jwt secret configured, record routes are public")
	}

	handlerConfig := filecratehttp.HandlerConfig{
		CORS:           cfg.CORS,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}

	handler := filecratehttp.NewHandler(&handlerConfig, coordinator, authenticator)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "bucket", cfg.S3.Bucket)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// buildCoordinator wires the object store, metadata repo, and session
// registry into a Coordinator. The returned cleanup closes the database.
func buildCoordinator(ctx context.Context, cfg *config.Config) (*filecrate.Coordinator, func(), error) {
	repo, cleanup, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	store, err := s3.NewClient(cfg.S3)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create s3 client: %w", err)
	}

	coordinatorCfg := filecrate.CoordinatorConfig{
		AbortTimeout: time.Duration(cfg.Server.AbortTimeout) * time.Second,
	}

	coordinator, err := filecrate.NewCoordinator(store, repo, filecrate.NewSessionRegistry(), coordinatorCfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create coordinator: %w", err)
	}

	return coordinator, cleanup, nil
}
