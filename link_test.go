package alsa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	alsa "github.com/sidevesh/alsa-lib"
)

func TestLinkTriggersTogether(t *testing.T) {
	a := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)
	b := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	require.NoError(t, a.Link(b))

	require.NoError(t, a.Start())
	assert.Equal(t, alsa.StateRunning, a.State())
	assert.Equal(t, alsa.StateRunning, b.State())

	require.NoError(t, b.Drop())
	assert.Equal(t, alsa.StateSetup, a.State())
	assert.Equal(t, alsa.StateSetup, b.State())

	require.NoError(t, a.Prepare())
	assert.Equal(t, alsa.StatePrepared, a.State())
	assert.Equal(t, alsa.StatePrepared, b.State())
}

func TestLinkThreeWay(t *testing.T) {
	a := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)
	b := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)
	c := newNullPCM(t, alsa.StreamCapture, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	require.NoError(t, a.Link(b))
	require.NoError(t, a.Link(c))

	require.NoError(t, b.Start())
	assert.Equal(t, alsa.StateRunning, a.State())
	assert.Equal(t, alsa.StateRunning, b.State())
	assert.Equal(t, alsa.StateRunning, c.State())
	require.NoError(t, c.Drop())
}

func TestLinkValidation(t *testing.T) {
	a := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)
	b := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	assert.ErrorIs(t, a.Link(a), unix.EINVAL)

	require.NoError(t, a.Link(b))
	// relinking the same pair is a no-op
	assert.NoError(t, a.Link(b))
	assert.NoError(t, b.Link(a))
}

func TestUnlink(t *testing.T) {
	a := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)
	b := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	require.NoError(t, a.Link(b))
	require.NoError(t, a.Unlink())

	// the departed handle no longer follows the group
	require.NoError(t, b.Start())
	assert.Equal(t, alsa.StateRunning, b.State())
	assert.Equal(t, alsa.StatePrepared, a.State())
	require.NoError(t, b.Drop())

	assert.ErrorIs(t, a.Unlink(), unix.EINVAL)
}
