package alsa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	alsa "github.com/sidevesh/alsa-lib"
)

func TestFormatNameValue(t *testing.T) {
	tests := []struct {
		format alsa.Format
		name   string
	}{
		{alsa.FormatS8, "S8"},
		{alsa.FormatU8, "U8"},
		{alsa.FormatS16LE, "S16_LE"},
		{alsa.FormatS24BE, "S24_BE"},
		{alsa.FormatS32LE, "S32_LE"},
		{alsa.FormatFloatLE, "FLOAT_LE"},
		{alsa.FormatFloat64BE, "FLOAT64_BE"},
		{alsa.FormatMuLaw, "MU_LAW"},
		{alsa.FormatALaw, "A_LAW"},
		{alsa.FormatImaADPCM, "IMA_ADPCM"},
		{alsa.FormatSpecial, "SPECIAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, alsa.FormatName(tt.format))
			f, err := alsa.FormatValue(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.format, f)
		})
	}

	assert.Equal(t, "UNKNOWN", alsa.FormatName(alsa.Format(200)))
	_, err := alsa.FormatValue("NOT_A_FORMAT")
	assert.ErrorIs(t, err, unix.EINVAL)
}

func TestFormatWidths(t *testing.T) {
	tests := []struct {
		format   alsa.Format
		width    int
		physical int
	}{
		{alsa.FormatS8, 8, 8},
		{alsa.FormatU16BE, 16, 16},
		{alsa.FormatS24LE, 24, 32},
		{alsa.FormatU24BE, 24, 32},
		{alsa.FormatS32LE, 32, 32},
		{alsa.FormatFloatLE, 32, 32},
		{alsa.FormatFloat64LE, 64, 64},
		{alsa.FormatMuLaw, 8, 8},
		{alsa.FormatImaADPCM, 4, 4},
	}
	for _, tt := range tests {
		t.Run(alsa.FormatName(tt.format), func(t *testing.T) {
			w, err := alsa.FormatWidth(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.width, w)
			pw, err := alsa.FormatPhysicalWidth(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.physical, pw)
		})
	}

	_, err := alsa.FormatWidth(alsa.FormatMPEG)
	assert.ErrorIs(t, err, unix.EINVAL)
	_, err = alsa.FormatPhysicalWidth(alsa.FormatGSM)
	assert.ErrorIs(t, err, unix.EINVAL)
}

func TestFormatProperties(t *testing.T) {
	assert.True(t, alsa.FormatLinear(alsa.FormatS16LE))
	assert.True(t, alsa.FormatLinear(alsa.FormatU24BE))
	assert.False(t, alsa.FormatLinear(alsa.FormatFloatLE))
	assert.False(t, alsa.FormatLinear(alsa.FormatMuLaw))

	signed, err := alsa.FormatSigned(alsa.FormatS16LE)
	require.NoError(t, err)
	assert.True(t, signed)
	signed, err = alsa.FormatSigned(alsa.FormatU8)
	require.NoError(t, err)
	assert.False(t, signed)
	_, err = alsa.FormatSigned(alsa.FormatFloatLE)
	assert.ErrorIs(t, err, unix.EINVAL)

	le, err := alsa.FormatLittleEndian(alsa.FormatS16LE)
	require.NoError(t, err)
	assert.True(t, le)
	le, err = alsa.FormatLittleEndian(alsa.FormatS32BE)
	require.NoError(t, err)
	assert.False(t, le)
	_, err = alsa.FormatLittleEndian(alsa.FormatS8)
	assert.ErrorIs(t, err, unix.EINVAL)
}

func TestFormatDescription(t *testing.T) {
	assert.Equal(t, "Signed 16 bit Little Endian", alsa.FormatDescription(alsa.FormatS16LE))
	assert.Equal(t, "Unknown", alsa.FormatDescription(alsa.Format(200)))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "PLAYBACK", alsa.StreamName(alsa.StreamPlayback))
	assert.Equal(t, "CAPTURE", alsa.StreamName(alsa.StreamCapture))
	assert.Equal(t, "UNKNOWN", alsa.StreamName(alsa.Stream(9)))

	assert.Equal(t, "RUNNING", alsa.StateName(alsa.StateRunning))
	assert.Equal(t, "DISCONNECTED", alsa.StateName(alsa.StateDisconnected))
	assert.Equal(t, "UNKNOWN", alsa.StateName(alsa.State(42)))

	assert.Equal(t, "RW_INTERLEAVED", alsa.AccessName(alsa.AccessRWInterleaved))
	assert.Equal(t, "MMAP_NONINTERLEAVED", alsa.AccessName(alsa.AccessMmapNoninterleaved))
	assert.Equal(t, "UNKNOWN", alsa.AccessName(alsa.Access(42)))

	assert.Equal(t, "STD", alsa.SubformatName(alsa.SubformatStd))
	assert.Equal(t, "NONE", alsa.TstampName(alsa.TstampNone))
	assert.Equal(t, "MMAP", alsa.TstampName(alsa.TstampMmap))

	assert.Equal(t, "DATA", alsa.StartModeName(alsa.StartData))
	assert.Equal(t, "EXPLICIT", alsa.StartModeName(alsa.StartExplicit))
	assert.Equal(t, "NONE", alsa.XrunModeName(alsa.XrunNone))
	assert.Equal(t, "STOP", alsa.XrunModeName(alsa.XrunStop))

	assert.Equal(t, "CHANNELS", alsa.ParamName(alsa.ParamChannels))
	assert.Equal(t, "BUFFER_SIZE", alsa.ParamName(alsa.ParamBufferSize))
	assert.Equal(t, "UNKNOWN", alsa.ParamName(alsa.Param(99)))
}
