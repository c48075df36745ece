package obs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_ProductionDisablesDebugLevel(t *testing.T) {
	logger, err := NewLogger("production")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLogger_NonProductionEnablesDebugLevel(t *testing.T) {
	logger, err := NewLogger("development")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger("")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
