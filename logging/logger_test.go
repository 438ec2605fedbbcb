package logging

import (
	"os"
	"path/filepath"
	"testing"

	"chatdesk/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileOutputAndLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger := New(config.LogConfig{Level: "warn", Format: "json", Output: path})

	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	logger.Info().Msg("dropped")
	logger.Warn().Str("component", "test").Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger := New(config.LogConfig{Level: "verbose"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
