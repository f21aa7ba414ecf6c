package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffered(level LogLevel, format string) (*ViewLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	return NewLogger(&LoggerConfig{Level: level, Format: format, Output: &buf}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warning ", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelInfo, true},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBuffered(LevelWarn, "text")
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "error=boom")
}

func TestDebugLevelIsEmitted(t *testing.T) {
	logger, buf := newBuffered(LevelDebug, "text")

	logger.Debug(context.Background(), "compiled", "template", "page")
	assert.Contains(t, buf.String(), "template=page")
}

func TestJSONFieldsAndComponent(t *testing.T) {
	logger, buf := newBuffered(LevelInfo, "json")

	logger.WithComponent("watcher").
		With("source", "./templates").
		Info(context.Background(), "changed", "path", "page.mustache", 42)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "changed", record["msg"])
	assert.Equal(t, "watcher", record["component"])
	assert.Equal(t, "./templates", record["source"])
	assert.Equal(t, "page.mustache", record["path"])
}

func TestWithDoesNotLeak(t *testing.T) {
	logger, buf := newBuffered(LevelInfo, "text")

	child := logger.With("request", "a")
	_ = child.With("extra", "b")
	logger.Info(context.Background(), "parent")

	assert.NotContains(t, buf.String(), "request=a")
	assert.NotContains(t, buf.String(), "extra=b")
}

func TestPerfLogger(t *testing.T) {
	logger, buf := newBuffered(LevelDebug, "text")
	ctx := context.Background()

	StartOperation(logger, "render").End(ctx)
	StartOperation(logger, "compile").EndWithError(ctx, errors.New("bad"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "operation=render")
	assert.Contains(t, lines[0], "duration_ms=")
	assert.Contains(t, lines[1], "operation=compile")
	assert.Contains(t, lines[1], "error=bad")
}

func TestNopLogger(t *testing.T) {
	var logger Logger = NopLogger{}
	logger.With("k", "v").WithComponent("c").Error(context.Background(), errors.New("x"), "ignored")
}
