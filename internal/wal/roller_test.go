package wal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRoller_RequestRollTriggersActualRoll(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "wal"))
	require.NoError(t, err)
	defer w.Close()

	rolled := make(chan string, 1)
	roller := NewLogRoller(w, func(closed string) { rolled <- closed })
	go roller.Run()
	defer roller.Stop()

	require.NoError(t, w.Append("region-1", 1, []byte("payload")))
	roller.RequestRoll()

	select {
	case closed := <-rolled:
		assert.NotEmpty(t, closed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for roll callback")
	}
}

func TestLogRoller_AppendOverThresholdRollsAutomatically(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "wal"))
	require.NoError(t, err)
	defer w.Close()
	w.rollSize = 4

	rolled := make(chan string, 1)
	roller := NewLogRoller(w, func(closed string) { rolled <- closed })
	go roller.Run()
	defer roller.Stop()

	require.NoError(t, w.Append("region-1", 1, []byte("payload well over the threshold")))

	select {
	case <-rolled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for automatic roll")
	}
}

func TestLogRoller_StopEndsRunLoop(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "wal"))
	require.NoError(t, err)
	defer w.Close()

	roller := NewLogRoller(w, nil)
	done := make(chan struct{})
	go func() {
		roller.Run()
		close(done)
	}()

	roller.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
