package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithAttr(slog.String("svc", "test")))

		log.Debug("hidden")
		assert.Zero(t, buf.Len(), "debug is below the default level")

		log.Info("hello")
		entry := decodeLine(t, &buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "test", entry["svc"])
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.New(logger.WithOutput(&buf), logger.WithTextFormatter()).Info("hello")
		assert.Contains(t, buf.String(), "level=INFO msg=hello")
	})

	t.Run("last format wins", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.New(logger.WithOutput(&buf), logger.WithTextFormatter(), logger.WithJSONFormatter()).Info("hello")
		assert.Equal(t, "hello", decodeLine(t, &buf)["msg"])
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.WithFormat("xml") })
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env       string
		wantEnv   string
		debugSeen bool
		json      bool
	}{
		{"development", logger.EnvDevelopment, true, false},
		{"", logger.EnvDevelopment, true, false},
		{"stage", logger.EnvStaging, false, true},
		{"PRODUCTION", logger.EnvProduction, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.wantEnv+"/"+tt.env, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := logger.New(logger.WithEnvironment(tt.env, "sessiond"), logger.WithOutput(&buf))

			log.Debug("probe")
			assert.Equal(t, tt.debugSeen, buf.Len() > 0)

			buf.Reset()
			log.Info("probe")
			if tt.json {
				entry := decodeLine(t, &buf)
				assert.Equal(t, "sessiond", entry["service"])
				assert.Equal(t, tt.wantEnv, entry["env"])
			} else {
				assert.Contains(t, buf.String(), "service=sessiond env="+tt.wantEnv)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewFromConfig(
		logger.Config{Env: logger.EnvProduction, Service: "sessiond", Level: "warn"},
		logger.WithOutput(&buf),
	)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, logger.EnvProduction, entry["env"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, ok := logger.ParseLevel(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := logger.ParseLevel("verbose")
	assert.False(t, ok)
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger.SetAsDefault(logger.New(logger.WithOutput(&buf)))
	slog.Info("default")
	assert.Equal(t, "default", decodeLine(t, &buf)["msg"])
}
