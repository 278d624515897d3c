package cli

import (
	"context"
	"fmt"
	"time"

	"careercoach/internal/api"
	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
	"careercoach/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the resume web client",
		Long: `Start the web client for the resume service.

Pages:
- GET /: Dashboard with the resume count and recent resumes
- GET /resumes: Resume list with search and job role filter
- GET /resumes/new, /resumes/{id}/edit: Create and edit forms
- GET /resumes/{id}: Resume detail
- GET /resumes/{id}/interview, /resumes/{id}/learning-path: AI generation
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().String("host", "", "Host to bind to (default from config)")
	cmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	return cmd
}

// applyServeFlags copies explicitly set flags over the config values
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	overrides := []struct {
		flag   string
		target *string
	}{
		{"port", &cfg.Server.Port},
		{"host", &cfg.Server.Host},
		{"tls-mode", &cfg.Server.TLS.Mode},
		{"cert-file", &cfg.Server.TLS.CertFile},
		{"key-file", &cfg.Server.TLS.KeyFile},
		{"ca-file", &cfg.Server.TLS.CAFile},
	}
	for _, o := range overrides {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		value, err := cmd.Flags().GetString(o.flag)
		if err != nil {
			return err
		}
		*o.target = value
	}

	if cfg.Server.TLS.Mutual() && cfg.Server.TLS.ClientAuthPolicy == "" {
		cfg.Server.TLS.ClientAuthPolicy = "require"
	}
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to initialize observability", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	backend := api.NewClient(cfg.Backend, logger, api.WithObservability(om))

	srv, err := server.NewServer(cfg, backend, Version, logger)
	if err != nil {
		return err
	}

	if cfg.Watch(reloadLogLevel(logger, cmd.Flags().Changed("log-level"))) {
		logger.Debug("Watching configuration file for log level changes")
	}

	return srv.Start(cmd.Context(), om)
}

// reloadLogLevel applies the log level of a reloaded config file. A level
// pinned with --log-level outranks the file and is left alone.
func reloadLogLevel(logger *errors.Logger, pinned bool) func(*config.Config) {
	return func(next *config.Config) {
		if pinned {
			logger.Info("Configuration reloaded, keeping --log-level", "file_log_level", next.App.LogLevel)
			return
		}
		if err := logger.SetLevel(next.App.LogLevel); err != nil {
			logger.LogError(err, "Ignoring log level change")
			return
		}
		logger.Info("Configuration reloaded", "log_level", next.App.LogLevel)
	}
}
