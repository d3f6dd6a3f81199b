package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wedding-appgen/internal/handler"
	"wedding-appgen/internal/whatsapp"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the app generation API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger, err := openLedger()
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer ledger.Close()

	gen, err := newGenerator(cfg.OutputDir, ledger)
	if err != nil {
		return err
	}

	var notifier handler.Notifier
	if cfg.WhatsApp.Enabled {
		svc, err := whatsapp.NewService(&whatsapp.Config{DataDir: cfg.WhatsApp.DataDir, Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp service: %w", err)
		}
		logger.Info().Msg("Connecting to WhatsApp...")
		if err := svc.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to WhatsApp: %w", err)
		}
		defer svc.Disconnect()
		notifier = svc
	}

	h := handler.NewGenerateHandler(gen, notifier, ledger, &handler.Config{
		AllowedOrigin: cfg.AllowedOrigin,
		MaxBodyBytes:  cfg.MaxBodyBytes,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Str("output_dir", cfg.OutputDir).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	h.Wait()
	logger.Info().Msg("Goodbye!")
	return nil
}
