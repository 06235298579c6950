package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New("debug", "")
	require.NoError(t, err)
	assert.NotNil(t, log)
	log.Debug("hello")
}

func TestNewWithFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "service.log")
	log, err := New("info", file)
	require.NoError(t, err)

	log.Info("written to both sinks")

	assert.FileExists(t, file)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("shouting", "")
	require.Error(t, err)
}
