package alsa_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	alsa "github.com/sidevesh/alsa-lib"
)

func int16Bytes(vals ...int16) []byte {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func TestAreaSilence(t *testing.T) {
	t.Run("U8 silences to 0x80", func(t *testing.T) {
		buf := []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
		// channel 1 of an interleaved stereo U8 buffer
		a := alsa.Area{Addr: buf, First: 8, Step: 16}
		require.NoError(t, alsa.AreaSilence(&a, 0, 3, alsa.FormatU8))
		assert.Equal(t, []byte{0xAA, 0x80, 0xAA, 0x80, 0xAA, 0x80, 0xAA, 0xAA}, buf)
	})

	t.Run("S16 silences to zero", func(t *testing.T) {
		buf := int16Bytes(100, 200, 300, 400)
		a := alsa.Area{Addr: buf, First: 0, Step: 16}
		require.NoError(t, alsa.AreaSilence(&a, 1, 2, alsa.FormatS16LE))
		assert.Equal(t, int16Bytes(100, 0, 0, 400), buf)
	})

	t.Run("nil destination is a no-op", func(t *testing.T) {
		a := alsa.Area{}
		assert.NoError(t, alsa.AreaSilence(&a, 0, 4, alsa.FormatS16LE))
	})

	t.Run("misaligned area is rejected", func(t *testing.T) {
		a := alsa.Area{Addr: make([]byte, 4), First: 4, Step: 8}
		err := alsa.AreaSilence(&a, 0, 2, alsa.FormatU8)
		assert.ErrorIs(t, err, unix.EINVAL)
	})
}

func TestAreaCopy(t *testing.T) {
	t.Run("deinterleaves one channel", func(t *testing.T) {
		src := alsa.Area{Addr: int16Bytes(1, 2, 3, 4, 5, 6), First: 0, Step: 32}
		dstBuf := make([]byte, 6)
		dst := alsa.Area{Addr: dstBuf, First: 0, Step: 16}
		require.NoError(t, alsa.AreaCopy(&dst, 0, &src, 0, 3, alsa.FormatS16LE))
		assert.Equal(t, int16Bytes(1, 3, 5), dstBuf)
	})

	t.Run("contiguous runs use a single copy", func(t *testing.T) {
		src := alsa.Area{Addr: int16Bytes(7, 8, 9, 10), First: 0, Step: 16}
		dstBuf := make([]byte, 8)
		dst := alsa.Area{Addr: dstBuf, First: 0, Step: 16}
		require.NoError(t, alsa.AreaCopy(&dst, 0, &src, 0, 4, alsa.FormatS16LE))
		assert.Equal(t, src.Addr, dstBuf)
	})

	t.Run("nil source silences the destination", func(t *testing.T) {
		dstBuf := make([]byte, 4)
		dst := alsa.Area{Addr: dstBuf, First: 0, Step: 8}
		require.NoError(t, alsa.AreaCopy(&dst, 0, &alsa.Area{}, 0, 4, alsa.FormatU8))
		assert.Equal(t, []byte{0x80, 0x80, 0x80, 0x80}, dstBuf)
	})
}

func TestAreaNibble(t *testing.T) {
	t.Run("copy preserves nibble order", func(t *testing.T) {
		src := alsa.Area{Addr: []byte{0x21, 0x43}, First: 0, Step: 4}
		dstBuf := make([]byte, 2)
		dst := alsa.Area{Addr: dstBuf, First: 0, Step: 4}
		require.NoError(t, alsa.AreaCopy(&dst, 0, &src, 0, 4, alsa.FormatImaADPCM))
		assert.Equal(t, []byte{0x21, 0x43}, dstBuf)
	})

	t.Run("copy into a shifted destination", func(t *testing.T) {
		src := alsa.Area{Addr: []byte{0x21, 0x43}, First: 0, Step: 4}
		dstBuf := make([]byte, 2)
		dst := alsa.Area{Addr: dstBuf, First: 4, Step: 4}
		require.NoError(t, alsa.AreaCopy(&dst, 0, &src, 0, 3, alsa.FormatImaADPCM))
		assert.Equal(t, []byte{0x10, 0x32}, dstBuf)
	})

	t.Run("silence clears nibbles without touching neighbours", func(t *testing.T) {
		buf := []byte{0xFF, 0xFF}
		a := alsa.Area{Addr: buf, First: 0, Step: 4}
		require.NoError(t, alsa.AreaSilence(&a, 1, 2, alsa.FormatImaADPCM))
		assert.Equal(t, []byte{0x0F, 0xF0}, buf)
	})

	t.Run("non-nibble alignment is rejected", func(t *testing.T) {
		a := alsa.Area{Addr: make([]byte, 2), First: 2, Step: 4}
		err := alsa.AreaSilence(&a, 0, 1, alsa.FormatImaADPCM)
		assert.ErrorIs(t, err, unix.EINVAL)
	})
}

func TestAreasSilence(t *testing.T) {
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = 0x11
	}
	areas := []alsa.Area{
		{Addr: buf, First: 0, Step: 16},
		{Addr: buf, First: 8, Step: 16},
	}
	require.NoError(t, alsa.AreasSilence(areas, 0, 2, 4, alsa.FormatU8))
	for i, b := range buf {
		assert.Equal(t, byte(0x80), b, "byte %d", i)
	}
}

func TestAreasCopy(t *testing.T) {
	sbuf := int16Bytes(1, -1, 2, -2, 3, -3, 4, -4)
	srcAreas := []alsa.Area{
		{Addr: sbuf, First: 0, Step: 32},
		{Addr: sbuf, First: 16, Step: 32},
	}

	t.Run("interleaved to interleaved collapses to one run", func(t *testing.T) {
		dbuf := make([]byte, len(sbuf))
		dstAreas := []alsa.Area{
			{Addr: dbuf, First: 0, Step: 32},
			{Addr: dbuf, First: 16, Step: 32},
		}
		require.NoError(t, alsa.AreasCopy(dstAreas, 0, srcAreas, 0, 2, 4, alsa.FormatS16LE))
		assert.Equal(t, sbuf, dbuf)
	})

	t.Run("interleaved to per-channel buffers", func(t *testing.T) {
		left := make([]byte, 8)
		right := make([]byte, 8)
		dstAreas := []alsa.Area{
			{Addr: left, First: 0, Step: 16},
			{Addr: right, First: 0, Step: 16},
		}
		require.NoError(t, alsa.AreasCopy(dstAreas, 0, srcAreas, 0, 2, 4, alsa.FormatS16LE))
		assert.Equal(t, int16Bytes(1, 2, 3, 4), left)
		assert.Equal(t, int16Bytes(-1, -2, -3, -4), right)
	})

	t.Run("offsets address frames inside the buffers", func(t *testing.T) {
		dbuf := make([]byte, len(sbuf))
		dstAreas := []alsa.Area{
			{Addr: dbuf, First: 0, Step: 32},
			{Addr: dbuf, First: 16, Step: 32},
		}
		require.NoError(t, alsa.AreasCopy(dstAreas, 2, srcAreas, 0, 2, 2, alsa.FormatS16LE))
		assert.Equal(t, int16Bytes(0, 0, 0, 0, 1, -1, 2, -2), dbuf)
	})
}
