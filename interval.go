package alsa

import "math"

// interval is one integer range constraint of a configuration space. The
// bounds are inclusive unless the matching open flag is set. An integer
// interval admits only whole values; open bounds of integer intervals are
// normalised away on refine.
type interval struct {
	min, max         uint32
	openMin, openMax bool
	integer          bool
	empty            bool
}

func intervalAny() interval {
	return interval{min: 0, max: math.MaxUint32}
}

func (i *interval) setEmpty() {
	*i = interval{empty: true}
}

func (i *interval) checkEmpty() bool {
	return i.empty || i.min > i.max ||
		(i.min == i.max && (i.openMin || i.openMax))
}

// single reports whether the interval admits exactly one value.
func (i *interval) single() bool {
	if i.checkEmpty() {
		return false
	}
	return i.min == i.max ||
		(i.integer && i.min+1 == i.max && (i.openMin || i.openMax))
}

// value returns the single admitted value. Only meaningful when single.
func (i *interval) value() uint32 {
	if i.openMin {
		return i.max
	}
	return i.min
}

// lowest returns the smallest admitted value.
func (i *interval) lowest() uint32 {
	if i.openMin {
		return i.min + 1
	}
	return i.min
}

// highest returns the largest admitted value.
func (i *interval) highest() uint32 {
	if i.openMax {
		return i.max - 1
	}
	return i.max
}

// refine intersects i with v. It reports whether i changed and fails with
// EINVAL when the intersection is empty.
func (i *interval) refine(v *interval) (bool, error) {
	if i.checkEmpty() {
		i.setEmpty()
		return false, errInvalid("empty interval")
	}
	changed := false
	if i.min < v.min {
		i.min = v.min
		i.openMin = v.openMin
		changed = true
	} else if i.min == v.min && !i.openMin && v.openMin {
		i.openMin = true
		changed = true
	}
	if i.max > v.max {
		i.max = v.max
		i.openMax = v.openMax
		changed = true
	} else if i.max == v.max && !i.openMax && v.openMax {
		i.openMax = true
		changed = true
	}
	if !i.integer && v.integer {
		i.integer = true
		changed = true
	}
	if i.integer {
		if i.openMin {
			i.min++
			i.openMin = false
		}
		if i.openMax {
			i.max--
			i.openMax = false
		}
	} else if !i.openMin && !i.openMax && i.min == i.max {
		i.integer = true
	}
	if i.checkEmpty() {
		i.setEmpty()
		return true, errInvalid("empty interval")
	}
	return changed, nil
}

func (i *interval) refineMin(min uint32, open bool) (bool, error) {
	v := intervalAny()
	v.min = min
	v.openMin = open
	return i.refine(&v)
}

func (i *interval) refineMax(max uint32, open bool) (bool, error) {
	v := intervalAny()
	v.max = max
	v.openMax = open
	return i.refine(&v)
}

func (i *interval) refineSet(val uint32) (bool, error) {
	v := intervalAny()
	v.min, v.max = val, val
	v.integer = true
	return i.refine(&v)
}

// refineFirst collapses the interval onto its lower bound. An open lower
// bound stays open with the matching half-open upper bound, so rational
// intervals keep admitting the bound's neighbourhood.
func (i *interval) refineFirst() (bool, error) {
	if i.checkEmpty() {
		i.setEmpty()
		return false, errInvalid("empty interval")
	}
	if i.single() {
		return false, nil
	}
	i.max = i.min
	i.openMax = i.openMin
	if i.openMax {
		i.max++
	}
	return true, nil
}

// refineLast collapses the interval onto its upper bound.
func (i *interval) refineLast() (bool, error) {
	if i.checkEmpty() {
		i.setEmpty()
		return false, errInvalid("empty interval")
	}
	if i.single() {
		return false, nil
	}
	i.min = i.max
	i.openMin = i.openMax
	if i.openMin {
		i.min--
	}
	return true, nil
}

func mulSat(a, b uint32) uint32 {
	p := uint64(a) * uint64(b)
	if p > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(p)
}

func divRem(a, b uint32) (q, r uint32) {
	if b == 0 {
		return math.MaxUint32, 0
	}
	return a / b, a % b
}

func mulDivRem(a, b, k uint32) (q uint32, r uint32) {
	if k == 0 {
		return math.MaxUint32, 0
	}
	n := uint64(a) * uint64(b)
	rem := uint32(n % uint64(k))
	n /= uint64(k)
	if n > math.MaxUint32 {
		return math.MaxUint32, 0
	}
	return uint32(n), rem
}

// intervalMul computes c = a * b with openness propagation.
func intervalMul(a, b *interval) interval {
	if a.checkEmpty() || b.checkEmpty() {
		return interval{empty: true}
	}
	var c interval
	c.min = mulSat(a.min, b.min)
	c.openMin = a.openMin || b.openMin
	c.max = mulSat(a.max, b.max)
	c.openMax = a.openMax || b.openMax
	c.integer = a.integer && b.integer
	return c
}

// intervalDiv computes c = a / b with remainder-driven widening.
func intervalDiv(a, b *interval) interval {
	if a.checkEmpty() || b.checkEmpty() {
		return interval{empty: true}
	}
	var c interval
	var r uint32
	c.min, r = divRem(a.min, b.max)
	c.openMin = r != 0 || a.openMin || b.openMax
	if b.min > 0 {
		c.max, r = divRem(a.max, b.min)
		if r != 0 {
			c.max++
			c.openMax = true
		} else {
			c.openMax = a.openMax || b.openMin
		}
	} else {
		c.max = math.MaxUint32
	}
	return c
}

// intervalMulDivK computes c = a * b / k.
func intervalMulDivK(a, b *interval, k uint32) interval {
	if a.checkEmpty() || b.checkEmpty() {
		return interval{empty: true}
	}
	var c interval
	var r uint32
	c.min, r = mulDivRem(a.min, b.min, k)
	c.openMin = r != 0 || a.openMin || b.openMin
	c.max, r = mulDivRem(a.max, b.max, k)
	if r != 0 {
		c.max++
		c.openMax = true
	} else {
		c.openMax = a.openMax || b.openMax
	}
	return c
}

// intervalMulKDiv computes c = a * k / b.
func intervalMulKDiv(a *interval, k uint32, b *interval) interval {
	if a.checkEmpty() || b.checkEmpty() {
		return interval{empty: true}
	}
	var c interval
	var r uint32
	c.min, r = mulDivRem(a.min, k, b.max)
	c.openMin = r != 0 || a.openMin || b.openMax
	if b.min > 0 {
		c.max, r = mulDivRem(a.max, k, b.min)
		if r != 0 {
			c.max++
			c.openMax = true
		} else {
			c.openMax = a.openMax || b.openMin
		}
	} else {
		c.max = math.MaxUint32
	}
	return c
}
