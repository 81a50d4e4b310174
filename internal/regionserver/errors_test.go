package regionserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotServingRegion_WrapsSentinelWithName(t *testing.T) {
	err := NotServingRegion("table,,123")
	assert.ErrorIs(t, err, ErrNotServingRegion)
	assert.Contains(t, err.Error(), "table,,123")
}

func TestUnknownScanner_WrapsSentinelWithID(t *testing.T) {
	err := UnknownScanner(42)
	assert.ErrorIs(t, err, ErrUnknownScanner)
	assert.Contains(t, err.Error(), "42")
}

func TestRemoteException_WrapsUnderlyingCause(t *testing.T) {
	cause := assert.AnError
	err := RemoteException(cause)
	assert.ErrorIs(t, err, ErrRemoteException)
	assert.Contains(t, err.Error(), cause.Error())
}
