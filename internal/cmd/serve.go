package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuzeguitarist/qrgen/internal/generator"
	"github.com/yuzeguitarist/qrgen/internal/logger"
	"github.com/yuzeguitarist/qrgen/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the generator web form (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		if err := logger.Initialize(cfg.LogLevel); err != nil {
			return err
		}
		defer func() { _ = logger.Log.Sync() }()
		if err := cfg.EnsureKeys(); err != nil {
			return err
		}

		srv, err := web.NewServer(cfg, generator.New(cfg.QROptions(), cfg.BarcodeOptions()))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handler, err := srv.Router(ctx)
		if err != nil {
			return err
		}
		httpSrv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Log.Info("Running server",
				zap.String("address", cfg.Listen),
				zap.Bool("auth", cfg.Auth.Enabled()),
				zap.Float64("rate_limit_rps", cfg.RateLimit.RPS),
			)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default from config: 127.0.0.1:8080)")
}
