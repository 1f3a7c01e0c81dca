package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestSetupWriter_ProductionWritesJSON(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev; slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "production", "info")
	With("conversion").Info("Stage reached", "percent", 45)
	Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Stage reached", line["msg"])
	assert.Equal(t, "conversion", line["component"])
	assert.EqualValues(t, 45, line["percent"])
}

func TestGormLogger_Trace(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev; slog.SetDefault(prev) })

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		took    time.Duration
		err     error
		wantMsg string
	}{
		{name: "failed query", level: gormlogger.Warn, err: assert.AnError, wantMsg: "query failed"},
		{name: "missing record is not an error", level: gormlogger.Warn, err: gorm.ErrRecordNotFound},
		{name: "slow query", level: gormlogger.Warn, took: time.Second, wantMsg: "slow query"},
		{name: "silent", level: gormlogger.Silent, err: assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetupWriter(&buf, "production", "debug")

			l := NewGormLogger("DEPCRED.db", tt.level, 200*time.Millisecond)
			l.Trace(context.Background(), time.Now().Add(-tt.took), func() (string, int64) {
				return "SELECT 1", 1
			}, tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, buf.String())
				return
			}
			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.wantMsg, line["msg"])
			assert.Equal(t, "DEPCRED.db", line["db"])
		})
	}
}
