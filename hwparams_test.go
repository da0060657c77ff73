package alsa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	alsa "github.com/sidevesh/alsa-lib"
)

func TestHwParamsAny(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)
	defer pcm.Close()

	var hw alsa.HwParams
	require.NoError(t, pcm.HwParamsAny(&hw))

	min, err := pcm.HwParamsGetMin(&hw, alsa.ParamChannels)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), min)
	max, err := pcm.HwParamsGetMax(&hw, alsa.ParamChannels)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), max)

	min, err = pcm.HwParamsGetMin(&hw, alsa.ParamRate)
	require.NoError(t, err)
	assert.Equal(t, uint32(4000), min)
	max, err = pcm.HwParamsGetMax(&hw, alsa.ParamRate)
	require.NoError(t, err)
	assert.Equal(t, uint32(384000), max)

	min, err = pcm.HwParamsGetMin(&hw, alsa.ParamPeriods)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), min)

	// subformat is pinned, format is still wide open
	v, err := pcm.HwParamsGet(&hw, alsa.ParamSubformat)
	require.NoError(t, err)
	assert.Equal(t, uint32(alsa.SubformatStd), v)
	_, err = pcm.HwParamsGet(&hw, alsa.ParamFormat)
	assert.ErrorIs(t, err, unix.EINVAL)

	assert.True(t, pcm.HwParamsTest(&hw, alsa.ParamFormat, uint32(alsa.FormatS16LE)))
	assert.True(t, pcm.HwParamsTest(&hw, alsa.ParamChannels, 2))
	assert.False(t, pcm.HwParamsTest(&hw, alsa.ParamChannels, 5000))
}

func TestHwParamsPropagation(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)
	defer pcm.Close()

	var hw alsa.HwParams
	require.NoError(t, pcm.HwParamsAny(&hw))
	require.NoError(t, pcm.SetFormat(&hw, alsa.FormatS16LE))
	require.NoError(t, pcm.SetChannels(&hw, 2))

	bits, err := pcm.HwParamsGet(&hw, alsa.ParamSampleBits)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), bits)
	fb, err := pcm.HwParamsGet(&hw, alsa.ParamFrameBits)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), fb)

	require.NoError(t, pcm.SetRate(&hw, 48000))
	require.NoError(t, pcm.SetPeriodSize(&hw, 4))

	pb, err := pcm.HwParamsGet(&hw, alsa.ParamPeriodBytes)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), pb)

	require.NoError(t, pcm.SetPeriods(&hw, 4))
	bs, err := pcm.HwParamsGet(&hw, alsa.ParamBufferSize)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), bs)
	bb, err := pcm.HwParamsGet(&hw, alsa.ParamBufferBytes)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), bb)
}

func TestHwParamsSampleBitsRestrictFormats(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)
	defer pcm.Close()

	var hw alsa.HwParams
	require.NoError(t, pcm.HwParamsAny(&hw))
	require.NoError(t, pcm.HwParamsSet(&hw, alsa.ParamSampleBits, 16))

	assert.True(t, pcm.HwParamsTest(&hw, alsa.ParamFormat, uint32(alsa.FormatS16LE)))
	assert.True(t, pcm.HwParamsTest(&hw, alsa.ParamFormat, uint32(alsa.FormatU16BE)))
	assert.False(t, pcm.HwParamsTest(&hw, alsa.ParamFormat, uint32(alsa.FormatS32LE)))
	assert.False(t, pcm.HwParamsTest(&hw, alsa.ParamFormat, uint32(alsa.FormatU8)))
}

func TestHwParamsSetFailureRestoresSpace(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)
	defer pcm.Close()

	var hw alsa.HwParams
	require.NoError(t, pcm.HwParamsAny(&hw))

	err = pcm.SetChannels(&hw, 0)
	assert.ErrorIs(t, err, unix.EINVAL)

	// the failed refinement must not have narrowed the space
	min, err := pcm.HwParamsGetMin(&hw, alsa.ParamChannels)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), min)
	max, err := pcm.HwParamsGetMax(&hw, alsa.ParamChannels)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), max)
}

func TestHwParamsSetNear(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)
	defer pcm.Close()

	t.Run("exact value is kept", func(t *testing.T) {
		var hw alsa.HwParams
		require.NoError(t, pcm.HwParamsAny(&hw))
		got, err := pcm.SetRateNear(&hw, 44100)
		require.NoError(t, err)
		assert.Equal(t, uint32(44100), got)
	})

	t.Run("clamps below the range", func(t *testing.T) {
		var hw alsa.HwParams
		require.NoError(t, pcm.HwParamsAny(&hw))
		require.NoError(t, pcm.HwParamsSetMinMax(&hw, alsa.ParamRate, 8000, 16000))
		got, err := pcm.SetRateNear(&hw, 4000)
		require.NoError(t, err)
		assert.Equal(t, uint32(8000), got)
	})

	t.Run("clamps above the range", func(t *testing.T) {
		var hw alsa.HwParams
		require.NoError(t, pcm.HwParamsAny(&hw))
		require.NoError(t, pcm.HwParamsSetMinMax(&hw, alsa.ParamRate, 8000, 16000))
		got, err := pcm.SetRateNear(&hw, 100000)
		require.NoError(t, err)
		assert.Equal(t, uint32(16000), got)
	})
}

func TestHwParamsFirstLast(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)
	defer pcm.Close()

	var hw alsa.HwParams
	require.NoError(t, pcm.HwParamsAny(&hw))

	first, err := pcm.HwParamsSetFirst(&hw, alsa.ParamChannels)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), first)

	require.NoError(t, pcm.HwParamsAny(&hw))
	last, err := pcm.HwParamsSetLast(&hw, alsa.ParamChannels)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), last)

	require.NoError(t, pcm.HwParamsAny(&hw))
	first, err = pcm.HwParamsSetFirst(&hw, alsa.ParamFormat)
	require.NoError(t, err)
	assert.Equal(t, uint32(alsa.FormatS8), first)
}

func TestHwParamsInstall(t *testing.T) {
	t.Run("the full negotiation flow", func(t *testing.T) {
		pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
		require.NoError(t, err)
		defer pcm.Close()

		var hw alsa.HwParams
		require.NoError(t, pcm.HwParamsAny(&hw))
		require.NoError(t, pcm.SetAccess(&hw, alsa.AccessRWInterleaved))
		require.NoError(t, pcm.SetFormat(&hw, alsa.FormatS16LE))
		require.NoError(t, pcm.SetChannels(&hw, 2))
		got, err := pcm.SetRateNear(&hw, 48000)
		require.NoError(t, err)
		assert.Equal(t, uint32(48000), got)

		// 1024 frames at 48 kHz has a non-integer period time; the
		// negotiation must survive it
		period, err := pcm.SetPeriodSizeNear(&hw, 1024)
		require.NoError(t, err)
		assert.Equal(t, uint32(1024), period)
		buffer, err := pcm.SetBufferSizeNear(&hw, period*4)
		require.NoError(t, err)
		assert.Equal(t, uint32(4096), buffer)

		require.NoError(t, pcm.HwParamsInstall(&hw))
		assert.Equal(t, alsa.StatePrepared, pcm.State())
		assert.Equal(t, alsa.AccessRWInterleaved, pcm.Access())
		assert.Equal(t, alsa.FormatS16LE, pcm.Format())
		assert.Equal(t, uint32(2), pcm.Channels())
		assert.Equal(t, uint32(48000), pcm.Rate())
		assert.Equal(t, uint32(1024), pcm.PeriodSize())
		assert.Equal(t, uint32(4096), pcm.BufferSize())
		assert.NotZero(t, pcm.Boundary())
		assert.Zero(t, pcm.Boundary()%uint64(pcm.BufferSize()))
	})

	t.Run("rejected while running", func(t *testing.T) {
		pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)
		require.NoError(t, pcm.Start())

		var hw alsa.HwParams
		require.NoError(t, pcm.HwParamsAny(&hw))
		err := pcm.HwParamsInstall(&hw)
		assert.ErrorIs(t, err, unix.EBADFD)
		require.NoError(t, pcm.Drop())
	})
}

func TestHwParamsCurrent(t *testing.T) {
	pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	var hw alsa.HwParams
	require.NoError(t, pcm.HwParamsCurrent(&hw))

	access, err := pcm.GetAccess(&hw)
	require.NoError(t, err)
	assert.Equal(t, alsa.AccessRWInterleaved, access)
	format, err := pcm.GetFormat(&hw)
	require.NoError(t, err)
	assert.Equal(t, alsa.FormatS16LE, format)
	ch, err := pcm.HwParamsGet(&hw, alsa.ParamChannels)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), ch)
	ps, err := pcm.HwParamsGet(&hw, alsa.ParamPeriodSize)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), ps)
}

func TestHwFree(t *testing.T) {
	pcm := newNullPCM(t, alsa.StreamPlayback, alsa.AccessRWInterleaved, alsa.FormatS16LE)

	require.NoError(t, pcm.HwFree())
	assert.Equal(t, alsa.StateOpen, pcm.State())

	_, err := pcm.FramesToBytes(1)
	assert.ErrorIs(t, err, unix.EINVAL)

	err = pcm.HwFree()
	assert.ErrorIs(t, err, unix.EBADFD)

	var hw alsa.HwParams
	err = pcm.HwParamsCurrent(&hw)
	assert.ErrorIs(t, err, unix.EBADFD)
}

func TestHwParamsUnknownParam(t *testing.T) {
	pcm, err := alsa.Open("null", alsa.StreamPlayback, 0)
	require.NoError(t, err)
	defer pcm.Close()

	var hw alsa.HwParams
	require.NoError(t, pcm.HwParamsAny(&hw))

	err = pcm.HwParamsSet(&hw, alsa.Param(99), 1)
	assert.ErrorIs(t, err, unix.EINVAL)
	_, err = pcm.HwParamsGet(&hw, alsa.Param(99))
	assert.ErrorIs(t, err, unix.EINVAL)
}
