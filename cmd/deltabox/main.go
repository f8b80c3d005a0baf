package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/TFMV/deltabox/cli"
	"github.com/TFMV/deltabox/display"
)

func main() {
	logger := setupLogger()

	ctx := context.Background()
	ctx = display.WithDisplay(ctx, display.New())
	ctx = cli.WithLogger(ctx, logger)

	logger.Info().Str("cmd", "main").Msg("Starting Deltabox CLI")

	if err := cli.ExecuteWithContext(ctx); err != nil {
		logger.Error().Str("cmd", "main").Err(err).Msg("CLI execution failed")
		os.Exit(1)
	}

	logger.Info().Str("cmd", "main").Msg("Deltabox CLI completed successfully")
}

// setupLogger initializes zerolog with file output
func setupLogger() zerolog.Logger {
	logFile := getLogFilePath()

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(file).With().
		Timestamp().
		Str("app", "deltabox").
		Logger()
}

// getLogFilePath determines the log file path
func getLogFilePath() string {
	if projectRoot := findProjectRoot(); projectRoot != "" {
		return filepath.Join(projectRoot, "deltabox.log")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(os.TempDir(), "deltabox.log")
	}

	return filepath.Join(cwd, "deltabox.log")
}

// findProjectRoot searches for .deltabox.yml to determine project root
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ".deltabox.yml")
		if _, err := os.Stat(configPath); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
