package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "plan.log")
	logger, err := New("info", path)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("event created", zap.Int64("id", 42))
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"event created"`)
	assert.Contains(t, string(b), `"id":42`)
	assert.NotContains(t, string(b), "hidden")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New("loud", "")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewDefaultsToWarn(t *testing.T) {
	t.Parallel()

	logger, err := New("", filepath.Join(t.TempDir(), "plan.log"))
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}
