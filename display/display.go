// Package display renders CLI output. Commands never print directly;
// they hand rows and messages to a Display so output stays consistent
// and tests can capture it.
package display

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
)

// Format selects how tabular data is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// TableData is the renderer-agnostic shape of a result set.
type TableData struct {
	Headers []string
	Rows    [][]interface{}
}

// Display is the output surface used by CLI commands
type Display interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	Table(data TableData) *TableRenderer
}

type ptermDisplay struct {
	out io.Writer
}

// New creates a Display writing to stdout.
func New() Display {
	return &ptermDisplay{out: os.Stdout}
}

// NewWithWriter creates a Display writing to w. Used by tests.
func NewWithWriter(w io.Writer) Display {
	return &ptermDisplay{out: w}
}

func (d *ptermDisplay) Info(format string, args ...interface{}) {
	fmt.Fprintln(d.out, fmt.Sprintf(format, args...))
}

func (d *ptermDisplay) Success(format string, args ...interface{}) {
	fmt.Fprintln(d.out, pterm.Green(fmt.Sprintf(format, args...)))
}

func (d *ptermDisplay) Warning(format string, args ...interface{}) {
	fmt.Fprintln(d.out, pterm.Yellow(fmt.Sprintf(format, args...)))
}

func (d *ptermDisplay) Error(format string, args ...interface{}) {
	fmt.Fprintln(d.out, pterm.Red(fmt.Sprintf(format, args...)))
}

func (d *ptermDisplay) Table(data TableData) *TableRenderer {
	return &TableRenderer{out: d.out, data: data, format: FormatTable}
}

// TableRenderer renders TableData in one of the supported formats.
type TableRenderer struct {
	out    io.Writer
	data   TableData
	format Format
	title  string
}

// WithTitle sets a title printed above the table.
func (r *TableRenderer) WithTitle(title string) *TableRenderer {
	r.title = title
	return r
}

// WithFormat overrides the output format.
func (r *TableRenderer) WithFormat(format Format) *TableRenderer {
	r.format = format
	return r
}

// Render writes the table to the display's writer.
func (r *TableRenderer) Render() error {
	switch r.format {
	case FormatTable:
		return r.renderTable()
	case FormatCSV:
		return r.renderCSV()
	case FormatJSON:
		return r.renderJSON()
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *TableRenderer) renderTable() error {
	if r.title != "" {
		fmt.Fprintln(r.out, pterm.Bold.Sprint(r.title))
	}

	rows := pterm.TableData{r.data.Headers}
	for _, row := range r.data.Rows {
		rows = append(rows, stringify(row))
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithWriter(r.out).
		WithData(rows).
		Render()
}

func (r *TableRenderer) renderCSV() error {
	w := csv.NewWriter(r.out)
	if err := w.Write(r.data.Headers); err != nil {
		return err
	}
	for _, row := range r.data.Rows {
		if err := w.Write(stringify(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (r *TableRenderer) renderJSON() error {
	records := make([]map[string]interface{}, 0, len(r.data.Rows))
	for _, row := range r.data.Rows {
		record := make(map[string]interface{}, len(r.data.Headers))
		for i, header := range r.data.Headers {
			if i < len(row) {
				record[header] = row[i]
			}
		}
		records = append(records, record)
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func stringify(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			out[i] = ""
			continue
		}
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}

type contextKey string

const displayKey contextKey = "display"

// WithDisplay attaches a Display to the context.
func WithDisplay(ctx context.Context, d Display) context.Context {
	return context.WithValue(ctx, displayKey, d)
}

// GetDisplayOrDefault returns the context's Display, or a stdout one.
func GetDisplayOrDefault(ctx context.Context) Display {
	if d, ok := ctx.Value(displayKey).(Display); ok {
		return d
	}
	return New()
}
