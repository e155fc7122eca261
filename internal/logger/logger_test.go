package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestProductionLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", zapcore.AddSync(&buf))

	log.Debug("hidden")
	log.Info("served", zap.String("route", "/v1/clean"), zap.Int("status", 200))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "served", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "/v1/clean", entry["route"])
	assert.EqualValues(t, 200, entry["status"])
}

func TestDevelopmentLogsPrefixedConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", zapcore.AddSync(&buf))

	log.Debug("starting", zap.String("addr", ":8080"))
	log.With(zap.String("component", "server")).Warn("slow request")

	out := buf.String()
	assert.Contains(t, out, prefix)
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "starting")
	assert.Contains(t, out, `"addr": ":8080"`)
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, `"component": "server"`)
}
