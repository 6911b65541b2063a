package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopFlag_StopAndStopped(t *testing.T) {
	a := assert.New(t)
	var f StopFlag
	a.False(f.Stopped())
	f.Stop()
	a.True(f.Stopped())
}

func TestStopFlag_NilReceiverIsNotStopped(t *testing.T) {
	a := assert.New(t)
	var f *StopFlag
	a.False(f.Stopped())
}
