package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TFMV/deltabox/display"
)

var rootCmd = &cobra.Command{
	Use:   "deltabox",
	Short: "A client for Delta Lake table operations over a relational engine",
	Long: `Deltabox is a thin client for Delta Lake table operations.

It speaks the engine's relation protocol over gRPC and exposes the
table-level operations: commit history, table detail, restore,
in-place conversion, and delta-table checks.`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteWithContext runs the root command with context containing display and logger
func ExecuteWithContext(ctx context.Context) error {
	rootCmd.SetContext(ctx)

	if logger := getLoggerFromContext(ctx); logger != nil {
		logger.Info().Str("cmd", "root").Msg("Executing root command")
	}

	return rootCmd.Execute()
}

type contextKey string

const loggerKey contextKey = "logger"

// WithLogger attaches the CLI logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// getLoggerFromContext retrieves the logger from context
func getLoggerFromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return &logger
	}
	return nil
}

// getDisplayFromContext retrieves the display instance from context
func getDisplayFromContext(ctx context.Context) display.Display {
	return display.GetDisplayOrDefault(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
