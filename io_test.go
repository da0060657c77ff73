package alsa_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	alsa "github.com/sidevesh/alsa-lib"
)

func TestWriteiNull(t *testing.T) {
	pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	data := make([]int16, 16)
	for i := range data {
		data[i] = int16(i)
	}
	n, err := pcm.Writei(data, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	// the instant clock consumed everything at start
	assert.Equal(t, alsa.StateRunning, pcm.State())

	d, err := pcm.Delay()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestReadiNull(t *testing.T) {
	t.Run("S16 capture reads silence", func(t *testing.T) {
		pcm := newNullPCM(t, alsa.StreamCapture, alsa.AccessRWInterleaved, alsa.FormatS16LE)

		data := make([]int16, 16)
		for i := range data {
			data[i] = -1
		}
		n, err := pcm.Readi(data, 8)
		require.NoError(t, err)
		assert.Equal(t, 8, n)
		assert.Equal(t, alsa.StateRunning, pcm.State())
		for i, v := range data {
			assert.Zero(t, v, "sample %d", i)
		}
	})

	t.Run("U8 capture reads the unsigned midpoint", func(t *testing.T) {
		pcm := newNullPCM(t, alsa.StreamCapture, alsa.AccessRWInterleaved, alsa.FormatU8)

		data := make([]byte, 16)
		n, err := pcm.Readi(data, 8)
		require.NoError(t, err)
		assert.Equal(t, 8, n)
		for i, v := range data {
			assert.Equal(t, byte(0x80), v, "byte %d", i)
		}
	})
}

func TestNoninterleavedNull(t *testing.T) {
	t.Run("writen", func(t *testing.T) {
		pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWNoninterleaved, alsa.FormatS16LE)

		left := []int16{1, 2, 3, 4}
		right := []int16{-1, -2, -3, -4}
		n, err := pcm.Writen([][]int16{left, right}, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, alsa.StateRunning, pcm.State())
	})

	t.Run("readn", func(t *testing.T) {
		pcm := newNullPCM(t, alsa.StreamCapture, alsa.AccessRWNoninterleaved, alsa.FormatS16LE)

		left := make([]int16, 4)
		right := make([]int16, 4)
		n, err := pcm.Readn([][]int16{left, right}, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("channel count must match", func(t *testing.T) {
		pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWNoninterleaved, alsa.FormatS16LE)
		_, err := pcm.Writen([][]int16{make([]int16, 4)}, 4)
		assert.ErrorIs(t, err, unix.EINVAL)
	})
}

func TestTransferValidation(t *testing.T) {
	pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	t.Run("against stream direction", func(t *testing.T) {
		_, err := pcm.Readi(make([]int16, 8), 4)
		assert.ErrorIs(t, err, unix.EINVAL)
	})

	t.Run("buffer shorter than frame count", func(t *testing.T) {
		_, err := pcm.Writei(make([]int16, 2), 4)
		assert.ErrorIs(t, err, unix.EINVAL)
	})

	t.Run("negative frame count", func(t *testing.T) {
		_, err := pcm.Writei(make([]int16, 8), -1)
		assert.ErrorIs(t, err, unix.EINVAL)
	})

	t.Run("nil buffer", func(t *testing.T) {
		_, err := pcm.Writei(nil, 4)
		assert.ErrorIs(t, err, unix.EINVAL)
	})

	t.Run("unsupported element type", func(t *testing.T) {
		_, err := pcm.Writei([]string{"x"}, 1)
		assert.ErrorIs(t, err, unix.EINVAL)
	})

	t.Run("interleaved call on non-interleaved access", func(t *testing.T) {
		ni := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWNoninterleaved, alsa.FormatS16LE)
		_, err := ni.Writei(make([]int16, 8), 4)
		assert.ErrorIs(t, err, unix.EINVAL)
	})

	t.Run("before setup", func(t *testing.T) {
		raw, err := alsa.Open("null", alsa.StreamPlayback, 0)
		require.NoError(t, err)
		defer raw.Close()
		_, err = raw.Writei(make([]int16, 8), 4)
		assert.ErrorIs(t, err, unix.EBADFD)
	})
}

func TestLoopRoundTrip(t *testing.T) {
	pb, cp := newLoopPair(t, "io-rt")

	src := []int16{1, -1, 2, -2, 3, -3, 4, -4}
	n, err := pb.Writei(src, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, alsa.StateRunning, pb.State())

	d, err := pb.Delay()
	require.NoError(t, err)
	assert.Equal(t, 4, d)

	require.NoError(t, cp.Start())
	require.NoError(t, alsa.LoopByName("io-rt").Advance(4))

	got := make([]int16, 8)
	n, err = cp.Readi(got, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, src, got)

	d, err = pb.Delay()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestLoopXrun(t *testing.T) {
	pb, _ := newLoopPair(t, "io-xrun")

	n, err := pb.Writei(make([]int16, 8), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// advancing past the queue underruns the playback side
	require.NoError(t, alsa.LoopByName("io-xrun").Advance(5))
	assert.Equal(t, alsa.StateXrun, pb.State())

	_, err = pb.Writei(make([]int16, 8), 4)
	assert.ErrorIs(t, err, syscall.EPIPE)

	require.NoError(t, pb.Prepare())
	assert.Equal(t, alsa.StatePrepared, pb.State())
	n, err = pb.Writei(make([]int16, 8), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, pb.Drop())
}

func TestLoopXrunDisabled(t *testing.T) {
	pb, _ := newLoopPair(t, "io-noxrun")

	var sw alsa.SwParams
	require.NoError(t, pb.SwParamsCurrent(&sw))
	sw.SetXrunMode(pb, alsa.XrunNone)
	require.NoError(t, pb.SwParamsInstall(&sw))

	_, err := pb.Writei(make([]int16, 8), 4)
	require.NoError(t, err)
	require.NoError(t, alsa.LoopByName("io-noxrun").Advance(10))
	assert.Equal(t, alsa.StateRunning, pb.State())
	require.NoError(t, pb.Drop())
}

func TestLoopNonblock(t *testing.T) {
	pb, _ := newLoopPair(t, "io-eagain")

	t.Run("full buffer reports EAGAIN", func(t *testing.T) {
		n, err := pb.Writei(make([]int16, 32), 16)
		require.NoError(t, err)
		assert.Equal(t, 16, n)

		_, err = pb.Writei(make([]int16, 8), 4)
		assert.ErrorIs(t, err, unix.EAGAIN)
	})

	t.Run("partial progress wins over the late error", func(t *testing.T) {
		require.NoError(t, alsa.LoopByName("io-eagain").Advance(4))

		n, err := pb.Writei(make([]int16, 16), 8)
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		_, err = pb.Writei(make([]int16, 8), 4)
		assert.ErrorIs(t, err, unix.EAGAIN)
	})

	require.NoError(t, pb.Drop())
}

func TestLoopDrain(t *testing.T) {
	pb, _ := newLoopPair(t, "io-drain")

	n, err := pb.Writei(make([]int16, 8), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// non-blocking drain returns immediately and leaves the stream
	// draining until the clock consumes the queue
	require.NoError(t, pb.Drain())
	assert.Equal(t, alsa.StateDraining, pb.State())

	require.NoError(t, alsa.LoopByName("io-drain").Advance(4))
	assert.Equal(t, alsa.StateSetup, pb.State())
}

func TestLoopByName(t *testing.T) {
	assert.Same(t, alsa.LoopByName("io-same"), alsa.LoopByName("io-same"))
	assert.NotSame(t, alsa.LoopByName("io-same"), alsa.LoopByName("io-other"))

	assert.ErrorIs(t, alsa.LoopByName("io-same").Advance(-1), unix.EINVAL)
	// an idle pair has no clock to move
	assert.NoError(t, alsa.LoopByName("io-idle").Advance(100))
}
