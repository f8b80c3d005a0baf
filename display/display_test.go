package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() TableData {
	return TableData{
		Headers: []string{"version", "operation"},
		Rows: [][]interface{}{
			{int64(2), "RESTORE"},
			{int64(1), "WRITE"},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf)

	require.NoError(t, d.Table(sample()).WithFormat(FormatCSV).Render())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "version,operation", lines[0])
	assert.Equal(t, "2,RESTORE", lines[1])
	assert.Equal(t, "1,WRITE", lines[2])
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf)

	require.NoError(t, d.Table(sample()).WithFormat(FormatJSON).Render())

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "RESTORE", records[0]["operation"])
}

func TestRenderTableIncludesHeaders(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf)

	require.NoError(t, d.Table(sample()).WithTitle("History").Render())

	out := buf.String()
	assert.Contains(t, out, "History")
	assert.Contains(t, out, "version")
	assert.Contains(t, out, "RESTORE")
}

func TestNilValuesRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf)

	data := TableData{Headers: []string{"a"}, Rows: [][]interface{}{{nil}}}
	require.NoError(t, d.Table(data).WithFormat(FormatCSV).Render())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "", lines[1])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithWriter(&buf)

	ctx := WithDisplay(t.Context(), d)
	assert.Same(t, d, GetDisplayOrDefault(ctx))
	assert.NotNil(t, GetDisplayOrDefault(t.Context()))
}
