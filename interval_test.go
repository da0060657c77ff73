package alsa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestIntervalRefine(t *testing.T) {
	t.Run("narrows to the intersection", func(t *testing.T) {
		i := intervalAny()
		v := interval{min: 10, max: 20}
		changed, err := i.refine(&v)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, uint32(10), i.min)
		assert.Equal(t, uint32(20), i.max)
	})

	t.Run("disjoint ranges empty the interval", func(t *testing.T) {
		i := interval{min: 1, max: 5}
		v := interval{min: 10, max: 20}
		_, err := i.refine(&v)
		assert.ErrorIs(t, err, unix.EINVAL)
		assert.True(t, i.checkEmpty())
	})

	t.Run("open bounds of integer intervals are normalised", func(t *testing.T) {
		i := interval{min: 1, max: 10, integer: true}
		v := interval{min: 5, max: 10, openMin: true}
		changed, err := i.refine(&v)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, uint32(6), i.min)
		assert.False(t, i.openMin)
	})

	t.Run("refining an already empty interval fails", func(t *testing.T) {
		var i interval
		i.setEmpty()
		v := intervalAny()
		_, err := i.refine(&v)
		assert.ErrorIs(t, err, unix.EINVAL)
	})
}

func TestIntervalSingle(t *testing.T) {
	tests := []struct {
		name   string
		iv     interval
		single bool
		value  uint32
	}{
		{"point", interval{min: 7, max: 7, integer: true}, true, 7},
		{"range", interval{min: 7, max: 9, integer: true}, false, 0},
		{"integer half open unit width", interval{min: 7, max: 8, openMax: true, integer: true}, true, 7},
		{"rational unit width both open", interval{min: 7, max: 8, openMin: true, openMax: true}, false, 0},
		{"empty", interval{empty: true}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.single, tt.iv.single())
			if tt.single {
				assert.Equal(t, tt.value, tt.iv.value())
			}
		})
	}
}

func TestIntervalBounds(t *testing.T) {
	i := interval{min: 21333, max: 21334, openMin: true, openMax: true}
	assert.False(t, i.checkEmpty())
	assert.Equal(t, uint32(21334), i.lowest())
	assert.Equal(t, uint32(21333), i.highest())
}

func TestIntervalRefineFirst(t *testing.T) {
	t.Run("collapses onto the lower bound", func(t *testing.T) {
		i := interval{min: 2, max: 10, integer: true}
		changed, err := i.refineFirst()
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, i.single())
		assert.Equal(t, uint32(2), i.value())
	})

	t.Run("keeps an open rational neighbourhood alive", func(t *testing.T) {
		// 1024 frames at 48 kHz: the period time in usec is the open
		// range (21333, 21334) and must stay non-empty.
		i := interval{min: 21333, max: 21334, openMin: true, openMax: true}
		_, err := i.refineFirst()
		require.NoError(t, err)
		assert.False(t, i.checkEmpty())
		assert.Equal(t, uint32(21334), i.lowest())
	})

	t.Run("wide open lower bound stays open", func(t *testing.T) {
		i := interval{min: 83, max: 500, openMin: true}
		changed, err := i.refineFirst()
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, uint32(83), i.min)
		assert.Equal(t, uint32(84), i.max)
		assert.True(t, i.openMin)
		assert.True(t, i.openMax)
		assert.False(t, i.checkEmpty())
	})

	t.Run("single value is a no-op", func(t *testing.T) {
		i := interval{min: 5, max: 5, integer: true}
		changed, err := i.refineFirst()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("empty interval fails", func(t *testing.T) {
		var i interval
		i.setEmpty()
		_, err := i.refineFirst()
		assert.ErrorIs(t, err, unix.EINVAL)
	})
}

func TestIntervalRefineLast(t *testing.T) {
	i := interval{min: 2, max: 10, integer: true}
	changed, err := i.refineLast()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, i.single())
	assert.Equal(t, uint32(10), i.value())

	open := interval{min: 83, max: 500, openMax: true}
	_, err = open.refineLast()
	require.NoError(t, err)
	assert.Equal(t, uint32(499), open.min)
	assert.Equal(t, uint32(500), open.max)
	assert.True(t, open.openMin)
	assert.True(t, open.openMax)
	assert.False(t, open.checkEmpty())
}

func TestIntervalRefineMinMaxSet(t *testing.T) {
	i := intervalAny()
	_, err := i.refineMin(100, false)
	require.NoError(t, err)
	_, err = i.refineMax(200, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), i.lowest())
	assert.Equal(t, uint32(200), i.highest())

	_, err = i.refineSet(150)
	require.NoError(t, err)
	assert.True(t, i.single())
	assert.Equal(t, uint32(150), i.value())

	_, err = i.refineSet(151)
	assert.ErrorIs(t, err, unix.EINVAL)
}

func TestIntervalArithmetic(t *testing.T) {
	t.Run("mul", func(t *testing.T) {
		a := interval{min: 2, max: 3, integer: true}
		b := interval{min: 4, max: 5, integer: true}
		c := intervalMul(&a, &b)
		assert.Equal(t, uint32(8), c.min)
		assert.Equal(t, uint32(15), c.max)
		assert.True(t, c.integer)
	})

	t.Run("mul saturates", func(t *testing.T) {
		a := interval{min: 1, max: math.MaxUint32, integer: true}
		b := interval{min: 1, max: 2, integer: true}
		c := intervalMul(&a, &b)
		assert.Equal(t, uint32(math.MaxUint32), c.max)
	})

	t.Run("div widens on remainders", func(t *testing.T) {
		a := interval{min: 10, max: 10, integer: true}
		b := interval{min: 3, max: 3, integer: true}
		c := intervalDiv(&a, &b)
		assert.Equal(t, uint32(3), c.min)
		assert.True(t, c.openMin)
		assert.Equal(t, uint32(4), c.max)
		assert.True(t, c.openMax)
	})

	t.Run("div by a range touching zero is unbounded above", func(t *testing.T) {
		a := interval{min: 10, max: 10, integer: true}
		b := interval{min: 0, max: 5, integer: true}
		c := intervalDiv(&a, &b)
		assert.Equal(t, uint32(math.MaxUint32), c.max)
	})

	t.Run("mul div k derives the period time", func(t *testing.T) {
		ps := interval{min: 1024, max: 1024, integer: true}
		usec := interval{min: 1000000, max: 1000000, integer: true}
		c := intervalMulDivK(&ps, &usec, 48000)
		assert.Equal(t, uint32(21333), c.min)
		assert.True(t, c.openMin)
		assert.Equal(t, uint32(21334), c.max)
		assert.True(t, c.openMax)
	})

	t.Run("mul k div exact results stay closed", func(t *testing.T) {
		ps := interval{min: 1000, max: 1000, integer: true}
		rate := interval{min: 8000, max: 8000, integer: true}
		c := intervalMulKDiv(&ps, 1000000, &rate)
		assert.Equal(t, uint32(125000), c.min)
		assert.False(t, c.openMin)
		assert.Equal(t, uint32(125000), c.max)
		assert.False(t, c.openMax)
	})

	t.Run("empty operands yield empty results", func(t *testing.T) {
		var e interval
		e.setEmpty()
		a := intervalAny()
		rMul := intervalMul(&e, &a)
		rDiv := intervalDiv(&a, &e)
		rMulDivK := intervalMulDivK(&e, &a, 8)
		rMulKDiv := intervalMulKDiv(&e, 8, &a)
		assert.True(t, rMul.checkEmpty())
		assert.True(t, rDiv.checkEmpty())
		assert.True(t, rMulDivK.checkEmpty())
		assert.True(t, rMulKDiv.checkEmpty())
	})
}
