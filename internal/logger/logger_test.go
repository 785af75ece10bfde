package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Domenick1991/visitbooking/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StdoutOnly(t *testing.T) {
	log, err := New(config.LogConfig{Debug: true})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.True(t, log.Core().Enabled(-1)) // debug
}

func TestNew_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "visits.log")

	log, err := New(config.LogConfig{File: path})
	require.NoError(t, err)

	log.Info("booking_completed")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "booking_completed")
	assert.False(t, log.Core().Enabled(-1))
}
