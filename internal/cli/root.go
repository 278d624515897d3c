package cli

import (
	"context"

	"careercoach/internal/api"
	"careercoach/internal/common"
	"careercoach/internal/config"
	"careercoach/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "careercoach",
		Short: "Manage developer resumes and AI interview preparation",
		Long: `Careercoach is a client for the resume service. It serves a web UI for
creating and browsing resumes, and offers the same operations on the
command line together with AI-generated interview questions and
learning paths.`,
		SilenceUsage:      true,
		PersistentPreRunE: applyGlobalFlags,
	}

	cmd.PersistentFlags().String("backend-url", "", "Resume service base URL (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newGenerateCmd())
	return cmd
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// applyGlobalFlags applies persistent flag overrides to the loaded config
func applyGlobalFlags(cmd *cobra.Command, _ []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	flags := cmd.Flags()
	if flags.Changed("backend-url") {
		cfg.Backend.BaseURL, _ = flags.GetString("backend-url")
		if err := cfg.Validate(); err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Invalid --backend-url", err)
		}
	}
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		if err := logger.SetLevel(level); err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Invalid --log-level", err)
		}
	}
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// getBackend returns a client for the configured resume service
func getBackend(cmd *cobra.Command) *api.Client {
	cfg := getConfigFromContext(cmd.Context())
	return api.NewClient(cfg.Backend, getLoggerFromContext(cmd.Context()))
}

// commandOutput resolves -o/--format flags into an output config and handler
func commandOutput(cmd *cobra.Command) (common.CommandConfig, *common.OutputHandler, error) {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	requested, _ := cmd.Flags().GetString("format")
	format, err := common.ResolveOutputFormat(requested, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
	if err != nil {
		return common.CommandConfig{}, nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "Invalid output format", err)
	}
	outputFile, _ := cmd.Flags().GetString("output")

	return common.CommandConfig{OutputFile: outputFile, OutputFormat: format},
		common.NewOutputHandler(logger, cmd.OutOrStdout()),
		nil
}

// addOutputFlags registers the flags read by commandOutput
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringP("format", "f", "", "Output format: json, text, markdown (default from config)")
}
