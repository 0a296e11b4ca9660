package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	next := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)
	return h, dir
}

func readRecords(t *testing.T, dir string) []LogRecord {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var records []LogRecord
	for _, e := range entries {
		rows, err := parquet.ReadFile[LogRecord](filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		records = append(records, rows...)
	}
	return records
}

func TestParquetHandlerBuffersErrors(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	ctx := WithTransform(context.Background(), "Username Search")
	ctx = WithNodeID(ctx, "node-1")
	ctx = WithRequestSource(ctx, "server")

	logger.InfoContext(ctx, "not persisted")
	logger.ErrorContext(ctx, "transform failed", "attempt", 2)

	// Below the batch size, the record stays buffered until Close.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, h.Close())

	records := readRecords(t, dir)
	require.Len(t, records, 1)
	assert.Equal(t, "transform failed", records[0].Message)
	assert.Equal(t, "ERROR", records[0].Level)
	assert.Equal(t, "Username Search", records[0].Transform)
	assert.Equal(t, "node-1", records[0].NodeID)
	assert.Equal(t, "server", records[0].RequestSource)
	assert.Contains(t, records[0].Attributes, `"attempt":2`)
	assert.NotEmpty(t, records[0].ID)
}

func TestParquetHandlerFlushesAtBatchSize(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	for i := 0; i < 100; i++ {
		logger.Error("boom")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	records := readRecords(t, dir)
	assert.Len(t, records, 100)
}

func TestParquetHandlerCloseEmptyBuffer(t *testing.T) {
	h, dir := newTestHandler(t)
	require.NoError(t, h.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
