package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TFMV/deltabox/client"
	"github.com/TFMV/deltabox/client/config"
	"github.com/TFMV/deltabox/display"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage Delta tables",
	Long: `Manage Delta tables through the connected engine.

This command provides subcommands for table operations:
- history: Show the commit history of a table
- detail: Show a table's metadata
- restore: Roll a table back to a version or timestamp
- convert: Convert a parquet table to delta in place
- is-delta: Check whether a path is the root of a delta table

Examples:
  deltabox table history sales.orders
  deltabox table history sales.orders --limit 10
  deltabox table detail /data/events
  deltabox table restore sales.orders --version 3
  deltabox table convert "parquet.` + "`/data/events`" + `" --partitioned-by "dt DATE"
  deltabox table is-delta /data/events`,
}

var tableHistoryCmd = &cobra.Command{
	Use:   "history <table>",
	Short: "Show the commit history of a table",
	Long: `Display the commit history of a Delta table, newest commit first.

The table may be given as a qualified name or as a path. Use --limit to
show only the most recent commits.

Examples:
  deltabox table history sales.orders
  deltabox table history /data/events --limit 5
  deltabox table history sales.orders --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTableHistory,
}

var tableDetailCmd = &cobra.Command{
	Use:   "detail <table>",
	Short: "Show a table's metadata",
	Long: `Show the metadata row of a Delta table: format, id, name, location,
timestamps, file counts and sizes, and table properties.

Examples:
  deltabox table detail sales.orders
  deltabox table detail /data/events --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTableDetail,
}

var tableRestoreCmd = &cobra.Command{
	Use:   "restore <table>",
	Short: "Roll a table back to an earlier state",
	Long: `Restore a Delta table to an earlier version or timestamp.

Exactly one of --version and --timestamp must be given. The command
prints the engine's restore metrics row.

Examples:
  deltabox table restore sales.orders --version 3
  deltabox table restore /data/events --timestamp "2026-01-15 00:00:00"`,
	Args: cobra.ExactArgs(1),
	RunE: runTableRestore,
}

var tableConvertCmd = &cobra.Command{
	Use:   "convert <identifier>",
	Short: "Convert a parquet table to delta in place",
	Long: `Convert an existing parquet table to delta format in place.

The identifier uses the engine's convention, e.g. "parquet.` + "`/path`" + `"
or a catalog table name. For partitioned tables the partition schema
must be given as DDL.

Examples:
  deltabox table convert "parquet.` + "`/data/events`" + `"
  deltabox table convert "parquet.` + "`/data/events`" + `" --partitioned-by "dt DATE"`,
	Args: cobra.ExactArgs(1),
	RunE: runTableConvert,
}

var tableIsDeltaCmd = &cobra.Command{
	Use:   "is-delta <path>",
	Short: "Check whether a path is the root of a delta table",
	Long: `Check whether the given path is the root of a Delta table, i.e.
contains a _delta_log directory with commits.

Examples:
  deltabox table is-delta /data/events
  deltabox table is-delta s3://bucket/events`,
	Args: cobra.ExactArgs(1),
	RunE: runTableIsDelta,
}

type tableHistoryOptions struct {
	limit  int
	format string
}

type tableDetailOptions struct {
	format string
}

type tableRestoreOptions struct {
	version   int64
	timestamp string
}

type tableConvertOptions struct {
	partitionedBy string
}

var (
	tableHistoryOpts = &tableHistoryOptions{}
	tableDetailOpts  = &tableDetailOptions{}
	tableRestoreOpts = &tableRestoreOptions{}
	tableConvertOpts = &tableConvertOptions{}
)

func init() {
	rootCmd.AddCommand(tableCmd)

	tableCmd.AddCommand(tableHistoryCmd)
	tableCmd.AddCommand(tableDetailCmd)
	tableCmd.AddCommand(tableRestoreCmd)
	tableCmd.AddCommand(tableConvertCmd)
	tableCmd.AddCommand(tableIsDeltaCmd)

	tableHistoryCmd.Flags().IntVar(&tableHistoryOpts.limit, "limit", -1, "maximum number of commits to show")
	tableHistoryCmd.Flags().StringVar(&tableHistoryOpts.format, "format", "table", "output format: table, csv, json")

	tableDetailCmd.Flags().StringVar(&tableDetailOpts.format, "format", "table", "output format: table, csv, json")

	tableRestoreCmd.Flags().Int64Var(&tableRestoreOpts.version, "version", -1, "version to restore to")
	tableRestoreCmd.Flags().StringVar(&tableRestoreOpts.timestamp, "timestamp", "", "timestamp to restore to")

	tableConvertCmd.Flags().StringVar(&tableConvertOpts.partitionedBy, "partitioned-by", "", "partition schema as DDL, e.g. \"dt DATE\"")
}

// connect loads configuration and opens a connected client. The caller
// must Close it.
func connect(ctx context.Context, d display.Display, logger *zerolog.Logger) (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		if logger != nil {
			logger.Error().Str("cmd", "table").Err(err).Msg("Failed to load configuration")
		}
		d.Error("Failed to load configuration: %v", err)
		return nil, err
	}

	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}

	c := client.New(cfg, log)
	if err := c.Connect(ctx); err != nil {
		d.Error("Failed to connect to engine at %s: %v", cfg.Endpoint(), err)
		d.Info("Is the engine running? Check the server address in .deltabox.yml")
		return nil, err
	}
	return c, nil
}

func runTableHistory(cmd *cobra.Command, args []string) error {
	tableName := args[0]
	ctx := cmd.Context()
	d := getDisplayFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if logger != nil {
		logger.Info().Str("cmd", "table-history").Str("table", tableName).Int("limit", tableHistoryOpts.limit).Msg("Starting table history operation")
	}

	c, err := connect(ctx, d, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.History(ctx, tableName, tableHistoryOpts.limit)
	if err != nil {
		if logger != nil {
			logger.Error().Str("cmd", "table-history").Str("table", tableName).Err(err).Msg("Failed to fetch history")
		}
		d.Error("Failed to fetch history for '%s': %v", tableName, err)
		return err
	}

	if logger != nil {
		logger.Info().Str("cmd", "table-history").Str("table", tableName).Int64("rows", result.RowCount).Msg("Successfully fetched history")
	}

	title := fmt.Sprintf("History of '%s' (%d commits)", tableName, result.RowCount)
	return renderResult(d, result, tableHistoryOpts.format, title)
}

func runTableDetail(cmd *cobra.Command, args []string) error {
	tableName := args[0]
	ctx := cmd.Context()
	d := getDisplayFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if logger != nil {
		logger.Info().Str("cmd", "table-detail").Str("table", tableName).Msg("Starting table detail operation")
	}

	c, err := connect(ctx, d, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.Detail(ctx, tableName)
	if err != nil {
		if logger != nil {
			logger.Error().Str("cmd", "table-detail").Str("table", tableName).Err(err).Msg("Failed to fetch detail")
		}
		d.Error("Failed to fetch detail for '%s': %v", tableName, err)
		return err
	}

	title := fmt.Sprintf("Detail of '%s'", tableName)
	return renderResult(d, result, tableDetailOpts.format, title)
}

func runTableRestore(cmd *cobra.Command, args []string) error {
	tableName := args[0]
	ctx := cmd.Context()
	d := getDisplayFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	hasVersion := cmd.Flag("version").Changed
	hasTimestamp := tableRestoreOpts.timestamp != ""
	if hasVersion == hasTimestamp {
		d.Error("Exactly one of --version and --timestamp is required")
		return fmt.Errorf("exactly one of --version and --timestamp is required")
	}

	if logger != nil {
		logger.Info().Str("cmd", "table-restore").Str("table", tableName).Msg("Starting table restore operation")
	}

	c, err := connect(ctx, d, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	var result *client.QueryResult
	if hasVersion {
		result, err = c.RestoreToVersion(ctx, tableName, tableRestoreOpts.version)
	} else {
		result, err = c.RestoreToTimestamp(ctx, tableName, tableRestoreOpts.timestamp)
	}
	if err != nil {
		if logger != nil {
			logger.Error().Str("cmd", "table-restore").Str("table", tableName).Err(err).Msg("Failed to restore table")
		}
		d.Error("Failed to restore '%s': %v", tableName, err)
		return err
	}

	if logger != nil {
		logger.Info().Str("cmd", "table-restore").Str("table", tableName).Msg("Successfully restored table")
	}

	d.Success("Successfully restored '%s'", tableName)
	return renderResult(d, result, "table", "Restore metrics")
}

func runTableConvert(cmd *cobra.Command, args []string) error {
	identifier := args[0]
	ctx := cmd.Context()
	d := getDisplayFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if logger != nil {
		logger.Info().Str("cmd", "table-convert").Str("identifier", identifier).Msg("Starting table convert operation")
	}

	c, err := connect(ctx, d, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	name, err := c.Convert(ctx, identifier, tableConvertOpts.partitionedBy)
	if err != nil {
		if logger != nil {
			logger.Error().Str("cmd", "table-convert").Str("identifier", identifier).Err(err).Msg("Failed to convert table")
		}
		d.Error("Failed to convert '%s': %v", identifier, err)
		return err
	}

	if logger != nil {
		logger.Info().Str("cmd", "table-convert").Str("identifier", identifier).Str("table", name).Msg("Successfully converted table")
	}

	d.Success("Successfully converted to delta: %s", name)
	return nil
}

func runTableIsDelta(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()
	d := getDisplayFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	c, err := connect(ctx, d, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ok, err := c.IsDelta(ctx, path)
	if err != nil {
		if logger != nil {
			logger.Error().Str("cmd", "table-is-delta").Str("path", path).Err(err).Msg("Failed to check path")
		}
		d.Error("Failed to check '%s': %v", path, err)
		return err
	}

	if ok {
		d.Success("%s is a delta table", path)
	} else {
		d.Info("%s is not a delta table", path)
	}
	return nil
}

func renderResult(d display.Display, result *client.QueryResult, format, title string) error {
	if result.RowCount == 0 {
		d.Info("No rows returned")
		return nil
	}

	data := display.TableData{
		Headers: result.Columns,
		Rows:    result.Rows,
	}

	switch format {
	case "table":
		return d.Table(data).WithTitle(title).Render()
	case "csv":
		return d.Table(data).WithFormat(display.FormatCSV).Render()
	case "json":
		return d.Table(data).WithFormat(display.FormatJSON).Render()
	default:
		d.Error("Unsupported format: %s", format)
		return fmt.Errorf("unsupported format: %s", format)
	}
}
