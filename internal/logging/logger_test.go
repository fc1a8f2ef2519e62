package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"fatal", LevelCritical},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modlogger.log")

	logger, err := NewLogger(LevelInfo, path)
	require.NoError(t, err)

	logger.Debug("hidden %d", 1)
	logger.Info("delivered record %s", "abc")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"delivered record abc"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modlogger.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	small := NewLogRotation(1024, time.Hour, 0)
	assert.False(t, small.ShouldRotate(path))
	assert.False(t, small.ShouldRotate(filepath.Join(dir, "missing.log")))

	tiny := NewLogRotation(5, time.Hour, 0)
	require.True(t, tiny.ShouldRotate(path))

	rotated, err := tiny.Rotate(path)
	require.NoError(t, err)
	assert.FileExists(t, rotated)
	assert.NoFileExists(t, path)

	stale := NewLogRotation(1024, time.Minute, 0)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	stale.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.True(t, stale.ShouldRotate(path))
}

func TestLogRotationKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modlogger.log")

	lr := NewLogRotation(1, time.Hour, 2)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var rotated []string
	for i := 0; i < 4; i++ {
		now := start.Add(time.Duration(i) * time.Minute)
		lr.now = func() time.Time { return now }
		require.NoError(t, os.WriteFile(path, []byte("entry"), 0644))
		p, err := lr.Rotate(path)
		require.NoError(t, err)
		rotated = append(rotated, p)
	}

	assert.NoFileExists(t, rotated[0])
	assert.NoFileExists(t, rotated[1])
	assert.FileExists(t, rotated[2])
	assert.FileExists(t, rotated[3])
}
