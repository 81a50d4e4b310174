package regionserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchdog_StartsHealthy(t *testing.T) {
	w := NewWatchdog(t.TempDir(), nil)
	assert.True(t, w.Healthy())
}

func TestWatchdog_CheckSucceedsOnValidDir(t *testing.T) {
	w := NewWatchdog(t.TempDir(), nil)
	assert.True(t, w.Check())
	assert.True(t, w.Healthy())
}

func TestWatchdog_CheckFailsAndAbortsOnMissingDir(t *testing.T) {
	var reason string
	w := NewWatchdog("/nonexistent/regionserver/root/dir", func(r string) { reason = r })

	assert.False(t, w.Check())
	assert.False(t, w.Healthy())
	require.NotEmpty(t, reason)
}

func TestWatchdog_AbortCalledOnlyOnceForRepeatedFailures(t *testing.T) {
	var calls int
	w := NewWatchdog("/nonexistent/regionserver/root/dir", func(string) { calls++ })

	w.Check()
	w.Check()
	w.Check()
	assert.Equal(t, 1, calls)
}
