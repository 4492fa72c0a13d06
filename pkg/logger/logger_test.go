package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerBeforeInitialize(t *testing.T) {
	log = nil
	assert.NotNil(t, Logger())
	assert.NoError(t, Sync())
}

func TestInitialize(t *testing.T) {
	t.Cleanup(func() { log = nil })

	require.NoError(t, Initialize("debug", "console"))
	assert.NotNil(t, Logger())

	assert.Error(t, Initialize("loud", ""))
	assert.ErrorContains(t, Initialize("info", "xml"), "unknown log encoding")
}
