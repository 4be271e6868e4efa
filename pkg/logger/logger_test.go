package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	return New(Config{Level: level, Format: "json", Writer: &buf}), &buf
}

func lines(buf *bytes.Buffer) []map[string]interface{} {
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			out = append(out, entry)
		}
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, buf := newTestLogger(t, "warn")

	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error")

	entries := lines(buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["message"])
	assert.Equal(t, "error", entries[1]["level"])
}

func TestLogger_Fields(t *testing.T) {
	log, buf := newTestLogger(t, "debug")

	log.WithField("keyword", "react").
		WithFields(map[string]interface{}{"region": "BR", "operation": "related_queries"}).
		WithError(assert.AnError).
		Warn("call failed")

	entries := lines(buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "react", entries[0]["keyword"])
	assert.Equal(t, "BR", entries[0]["region"])
	assert.Equal(t, "related_queries", entries[0]["operation"])
	assert.Equal(t, assert.AnError.Error(), entries[0]["error"])
	assert.Contains(t, entries[0], "time")
}

func TestConsoleFormat_NoColorOffTerminal(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	New(Config{Level: "info", Format: "console", Writer: &buf}).WithField("region", "BR").Warn("plain")
	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), "\x1b[")

	f, err := os.Create(filepath.Join(t.TempDir(), "trends.log"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
	assert.False(t, isTerminal(&buf))

	New(Config{Level: "info", Format: "console", Writer: f}).Warn("to file")
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\x1b[")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.Disabled, parseLevel("disabled"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", 1).Error("discarded")
	})
}

func TestProgressReporter(t *testing.T) {
	log, buf := newTestLogger(t, "info")

	pr := NewProgressReporter(log, 3, "Keywords processed", time.Hour)
	pr.Update(1)
	assert.Empty(t, lines(buf), "interval not elapsed")

	pr.Update(2)
	assert.Equal(t, 3, pr.Current())
	assert.InDelta(t, 100.0, pr.Percentage(), 0.001)

	entries := lines(buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "progress", entries[0]["component"])
	assert.Equal(t, "Keywords processed: 3/3 (100.0%)", entries[0]["message"])
}

func TestProgressReporter_EmptyBatch(t *testing.T) {
	pr := NewProgressReporter(Nop(), 0, "noop", time.Second)
	assert.Equal(t, 100.0, pr.Percentage())
}
