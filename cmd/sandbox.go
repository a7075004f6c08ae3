package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/admin-console/internal/sandbox"
	"github.com/frahmantamala/admin-console/pkg/logger"
	"github.com/spf13/cobra"
)

var sandboxPort int

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Start the in-memory sandbox backend",
	Long:  `Start a seeded, in-memory backend that serves the admin REST API for local use.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return startSandbox(cmd)
	},
}

func startSandbox(cmd *cobra.Command) error {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.InitFormat(os.Stderr, cfg.Logging.Format, logger.ParseLevel(cfg.Logging.Level, cfg.App.Env))
	lg := logger.L()

	if cmd.Flags().Changed("port") {
		cfg.Sandbox.Port = sandboxPort
	}

	srv, err := sandbox.New(cmd.Context(), cfg.Sandbox, lg)
	if err != nil {
		return fmt.Errorf("failed to start sandbox: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Sandbox.Port)
	lg.Info("Starting sandbox server", "address", addr, "api", sandbox.APIPrefix)

	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: cfg.Sandbox.ReadHeaderTimeout,
		ReadTimeout:       cfg.Sandbox.ReadTimeout,
		WriteTimeout:      cfg.Sandbox.WriteTimeout,
		IdleTimeout:       cfg.Sandbox.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sandbox server failed: %w", err)
		}
	}

	lg.Info("Server stopped")
	return nil
}

func init() {
	sandboxCmd.Flags().IntVarP(&sandboxPort, "port", "p", 8080, "listen port, overrides sandbox.port")
}
