package alsa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	alsa "github.com/sidevesh/alsa-lib"
)

func TestAsyncHandlerFires(t *testing.T) {
	pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	fired := make(chan struct{}, 1)
	h, err := pcm.AsyncAddHandler(func(h *alsa.AsyncHandler) {
		assert.Same(t, pcm, h.PCM())
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	// a freshly prepared playback buffer is all free space, so the
	// handler fires straight away
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("async handler never fired")
	}

	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.Close(), unix.EINVAL)
}

func TestAsyncHandlerValidation(t *testing.T) {
	pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)
	_, err := pcm.AsyncAddHandler(nil)
	assert.ErrorIs(t, err, unix.EINVAL)
}

func TestAsyncHandlerClosedWithHandle(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)

	_, err = pcm.AsyncAddHandler(func(*alsa.AsyncHandler) {})
	require.NoError(t, err)
	require.NoError(t, pcm.Close())
}
