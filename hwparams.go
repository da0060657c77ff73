package alsa

// Param identifies one hardware parameter of a configuration space.
// Values match the kernel PCM interface: masks first, intervals from 8.
type Param int

const (
	ParamAccess Param = iota
	ParamFormat
	ParamSubformat
)

const (
	ParamSampleBits Param = iota + 8
	ParamFrameBits
	ParamChannels
	ParamRate
	ParamPeriodTime
	ParamPeriodSize
	ParamPeriodBytes
	ParamPeriods
	ParamBufferTime
	ParamBufferSize
	ParamBufferBytes
	ParamTickTime
)

const (
	paramFirstMask     = ParamAccess
	paramLastMask      = ParamSubformat
	paramFirstInterval = ParamSampleBits
	paramLastInterval  = ParamTickTime
)

var paramNames = map[Param]string{
	ParamAccess:      "ACCESS",
	ParamFormat:      "FORMAT",
	ParamSubformat:   "SUBFORMAT",
	ParamSampleBits:  "SAMPLE_BITS",
	ParamFrameBits:   "FRAME_BITS",
	ParamChannels:    "CHANNELS",
	ParamRate:        "RATE",
	ParamPeriodTime:  "PERIOD_TIME",
	ParamPeriodSize:  "PERIOD_SIZE",
	ParamPeriodBytes: "PERIOD_BYTES",
	ParamPeriods:     "PERIODS",
	ParamBufferTime:  "BUFFER_TIME",
	ParamBufferSize:  "BUFFER_SIZE",
	ParamBufferBytes: "BUFFER_BYTES",
	ParamTickTime:    "TICK_TIME",
}

// ParamName returns the name of a hardware parameter.
func ParamName(p Param) string {
	if n, ok := paramNames[p]; ok {
		return n
	}
	return "UNKNOWN"
}

// integer interval parameters; the three time parameters stay rational.
var paramInteger = map[Param]bool{
	ParamSampleBits:  true,
	ParamFrameBits:   true,
	ParamChannels:    true,
	ParamRate:        true,
	ParamPeriodSize:  true,
	ParamPeriodBytes: true,
	ParamPeriods:     true,
	ParamBufferSize:  true,
	ParamBufferBytes: true,
}

// paramBiasHigh marks parameters whose rounding bias points up; all other
// parameters round down on ties.
var paramBiasHigh = map[Param]bool{
	ParamBufferTime:  true,
	ParamBufferSize:  true,
	ParamBufferBytes: true,
}

// HwParams is a configuration space: the set of hardware parameter tuples
// still admissible for a stream. It is a value object and may be copied
// freely. A fully refined space that admits exactly one tuple is what
// HwParamsInstall commits.
type HwParams struct {
	masks     [3]mask
	intervals [12]interval

	info             uint32
	msbits           uint32
	rateNum, rateDen uint32
	fifoSize         uint64
}

func (hw *HwParams) maskOf(p Param) *mask {
	if p >= paramFirstMask && p <= paramLastMask {
		return &hw.masks[p-paramFirstMask]
	}
	return nil
}

func (hw *HwParams) intervalOf(p Param) *interval {
	if p >= paramFirstInterval && p <= paramLastInterval {
		return &hw.intervals[p-paramFirstInterval]
	}
	return nil
}

// fillAny resets the space to the universal set.
func (hw *HwParams) fillAny() {
	for i := range hw.masks {
		hw.masks[i] = maskAny()
	}
	for p := paramFirstInterval; p <= paramLastInterval; p++ {
		iv := intervalAny()
		iv.integer = paramInteger[p]
		hw.intervals[p-paramFirstInterval] = iv
	}
	hw.info = 0
	hw.msbits = 0
	hw.rateNum, hw.rateDen = 0, 0
	hw.fifoSize = 0
}

// sampleBitsOfFormats returns the physical-width range covered by the
// formats still admitted by the format mask.
func (hw *HwParams) sampleBitsOfFormats() interval {
	m := hw.maskOf(ParamFormat)
	iv := interval{empty: true}
	for f := Format(0); f <= FormatLast; f++ {
		if !m.test(uint32(f)) {
			continue
		}
		w, err := FormatPhysicalWidth(f)
		if err != nil {
			continue
		}
		if iv.empty {
			iv = interval{min: uint32(w), max: uint32(w), integer: true}
			continue
		}
		if uint32(w) < iv.min {
			iv.min = uint32(w)
		}
		if uint32(w) > iv.max {
			iv.max = uint32(w)
		}
	}
	return iv
}

// restrictFormatsToBits drops formats whose physical width falls outside
// the sample-bits interval.
func (hw *HwParams) restrictFormatsToBits() (bool, error) {
	bits := hw.intervalOf(ParamSampleBits)
	m := hw.maskOf(ParamFormat)
	var keep mask
	for f := Format(0); f <= FormatLast; f++ {
		if !m.test(uint32(f)) {
			continue
		}
		w, err := FormatPhysicalWidth(f)
		if err != nil {
			// opaque formats pass through untouched
			keep.set(uint32(f))
			continue
		}
		if uint32(w) >= bits.lowest() && uint32(w) <= bits.highest() {
			keep.set(uint32(f))
		}
	}
	return m.refine(&keep)
}

const usecPerSec = 1000000

// propagate applies every derived-parameter relation once and reports
// whether anything changed.
func (hw *HwParams) propagate() (bool, error) {
	changed := false
	apply := func(p Param, v interval) error {
		c, err := hw.intervalOf(p).refine(&v)
		changed = changed || c
		return err
	}

	sb := hw.intervalOf(ParamSampleBits)
	fb := hw.intervalOf(ParamFrameBits)
	ch := hw.intervalOf(ParamChannels)
	rate := hw.intervalOf(ParamRate)
	ps := hw.intervalOf(ParamPeriodSize)
	pb := hw.intervalOf(ParamPeriodBytes)
	pt := hw.intervalOf(ParamPeriodTime)
	periods := hw.intervalOf(ParamPeriods)
	bs := hw.intervalOf(ParamBufferSize)
	bb := hw.intervalOf(ParamBufferBytes)
	bt := hw.intervalOf(ParamBufferTime)

	if v := hw.sampleBitsOfFormats(); !v.empty {
		if err := apply(ParamSampleBits, v); err != nil {
			return changed, err
		}
	}
	if c, err := hw.restrictFormatsToBits(); err != nil {
		return changed || c, err
	} else {
		changed = changed || c
	}

	type rule struct {
		target Param
		calc   func() interval
	}
	rules := []rule{
		{ParamFrameBits, func() interval { return intervalMul(sb, ch) }},
		{ParamSampleBits, func() interval { return intervalDiv(fb, ch) }},
		{ParamChannels, func() interval { return intervalDiv(fb, sb) }},

		{ParamPeriodBytes, func() interval { return intervalMulDivK(ps, fb, 8) }},
		{ParamPeriodSize, func() interval { return intervalMulKDiv(pb, 8, fb) }},
		{ParamFrameBits, func() interval { return intervalMulKDiv(pb, 8, ps) }},

		{ParamBufferBytes, func() interval { return intervalMulDivK(bs, fb, 8) }},
		{ParamBufferSize, func() interval { return intervalMulKDiv(bb, 8, fb) }},
		{ParamFrameBits, func() interval { return intervalMulKDiv(bb, 8, bs) }},

		{ParamBufferSize, func() interval { return intervalMul(ps, periods) }},
		{ParamPeriodSize, func() interval { return intervalDiv(bs, periods) }},
		{ParamPeriods, func() interval { return intervalDiv(bs, ps) }},

		{ParamPeriodTime, func() interval { return intervalMulKDiv(ps, usecPerSec, rate) }},
		{ParamPeriodSize, func() interval { return intervalMulDivK(pt, rate, usecPerSec) }},
		{ParamRate, func() interval { return intervalMulKDiv(ps, usecPerSec, pt) }},

		{ParamBufferTime, func() interval { return intervalMulKDiv(bs, usecPerSec, rate) }},
		{ParamBufferSize, func() interval { return intervalMulDivK(bt, rate, usecPerSec) }},
		{ParamRate, func() interval { return intervalMulKDiv(bs, usecPerSec, bt) }},
	}
	for _, r := range rules {
		if err := apply(r.target, r.calc()); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// refineSpace runs the relation rules to a fixed point.
func refineSpace(hw *HwParams) error {
	for {
		changed, err := hw.propagate()
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
}

// HwParamsAny fills the space with the universal set and refines it
// against the back-end's constraints.
func (p *PCM) HwParamsAny(hw *HwParams) error {
	hw.fillAny()
	return p.HwRefine(hw)
}

// HwRefine intersects the space with the back-end's advertised
// constraints and tightens derived parameters to a fixed point.
func (p *PCM) HwRefine(hw *HwParams) error {
	return p.ops.hwRefine(p.opArg, hw)
}

// HwParamsSet constrains a parameter to a single value.
func (p *PCM) HwParamsSet(hw *HwParams, param Param, val uint32) error {
	save := *hw
	var err error
	if m := hw.maskOf(param); m != nil {
		_, err = m.refineSet(val)
	} else if iv := hw.intervalOf(param); iv != nil {
		_, err = iv.refineSet(val)
	} else {
		return errInvalid("unknown parameter")
	}
	if err == nil {
		err = p.HwRefine(hw)
	}
	if err != nil {
		*hw = save
		return err
	}
	return nil
}

// HwParamsTest reports whether constraining a parameter to val leaves the
// space non-empty. The space is not mutated.
func (p *PCM) HwParamsTest(hw *HwParams, param Param, val uint32) bool {
	probe := *hw
	return p.HwParamsSet(&probe, param, val) == nil
}

// HwParamsSetMin raises a parameter's lower bound.
func (p *PCM) HwParamsSetMin(hw *HwParams, param Param, min uint32) error {
	save := *hw
	var err error
	if m := hw.maskOf(param); m != nil {
		_, err = m.refineMin(min)
	} else if iv := hw.intervalOf(param); iv != nil {
		_, err = iv.refineMin(min, false)
	} else {
		return errInvalid("unknown parameter")
	}
	if err == nil {
		err = p.HwRefine(hw)
	}
	if err != nil {
		*hw = save
		return err
	}
	return nil
}

// HwParamsSetMax lowers a parameter's upper bound.
func (p *PCM) HwParamsSetMax(hw *HwParams, param Param, max uint32) error {
	save := *hw
	var err error
	if m := hw.maskOf(param); m != nil {
		_, err = m.refineMax(max)
	} else if iv := hw.intervalOf(param); iv != nil {
		_, err = iv.refineMax(max, false)
	} else {
		return errInvalid("unknown parameter")
	}
	if err == nil {
		err = p.HwRefine(hw)
	}
	if err != nil {
		*hw = save
		return err
	}
	return nil
}

// HwParamsSetMinMax constrains a parameter to [min, max].
func (p *PCM) HwParamsSetMinMax(hw *HwParams, param Param, min, max uint32) error {
	save := *hw
	if err := p.HwParamsSetMin(hw, param, min); err != nil {
		*hw = save
		return err
	}
	if err := p.HwParamsSetMax(hw, param, max); err != nil {
		*hw = save
		return err
	}
	return nil
}

// HwParamsSetFirst constrains a parameter to its smallest admitted value
// and returns it. Rational intervals collapse onto the neighbourhood of
// their lower bound rather than a single integer.
func (p *PCM) HwParamsSetFirst(hw *HwParams, param Param) (uint32, error) {
	save := *hw
	var err error
	if m := hw.maskOf(param); m != nil {
		if m.empty() {
			return 0, errInvalid("empty mask")
		}
		_, err = m.refineSet(m.min())
	} else if iv := hw.intervalOf(param); iv != nil {
		_, err = iv.refineFirst()
	} else {
		return 0, errInvalid("unknown parameter")
	}
	if err == nil {
		err = p.HwRefine(hw)
	}
	if err != nil {
		*hw = save
		return 0, err
	}
	if m := hw.maskOf(param); m != nil {
		return m.min(), nil
	}
	return hw.intervalOf(param).lowest(), nil
}

// HwParamsSetLast constrains a parameter to its largest admitted value
// and returns it.
func (p *PCM) HwParamsSetLast(hw *HwParams, param Param) (uint32, error) {
	save := *hw
	var err error
	if m := hw.maskOf(param); m != nil {
		if m.empty() {
			return 0, errInvalid("empty mask")
		}
		_, err = m.refineSet(m.max())
	} else if iv := hw.intervalOf(param); iv != nil {
		_, err = iv.refineLast()
	} else {
		return 0, errInvalid("unknown parameter")
	}
	if err == nil {
		err = p.HwRefine(hw)
	}
	if err != nil {
		*hw = save
		return 0, err
	}
	if m := hw.maskOf(param); m != nil {
		return m.max(), nil
	}
	return hw.intervalOf(param).highest(), nil
}

// HwParamsSetNear constrains a parameter to the admitted value closest to
// val, breaking ties toward the parameter's rounding bias, and returns
// the chosen value.
func (p *PCM) HwParamsSetNear(hw *HwParams, param Param, val uint32) (uint32, error) {
	below := *hw
	above := *hw
	var belowVal, aboveVal uint32
	belowOK := false
	aboveOK := false

	if err := p.HwParamsSetMax(&below, param, val); err == nil {
		if v, err := p.HwParamsSetLast(&below, param); err == nil {
			belowVal, belowOK = v, true
		}
	}
	if err := p.HwParamsSetMin(&above, param, val); err == nil {
		if v, err := p.HwParamsSetFirst(&above, param); err == nil {
			aboveVal, aboveOK = v, true
		}
	}

	switch {
	case belowOK && aboveOK:
		dBelow := val - belowVal
		dAbove := aboveVal - val
		if dBelow < dAbove || (dBelow == dAbove && !paramBiasHigh[param]) {
			*hw = below
			return belowVal, nil
		}
		*hw = above
		return aboveVal, nil
	case belowOK:
		*hw = below
		return belowVal, nil
	case aboveOK:
		*hw = above
		return aboveVal, nil
	}
	return 0, errInvalid("no admissible value near " + ParamName(param))
}

// HwParamsGet returns a parameter's value. Parameters not yet refined to
// a single value fail with EINVAL.
func (p *PCM) HwParamsGet(hw *HwParams, param Param) (uint32, error) {
	if m := hw.maskOf(param); m != nil {
		if !m.single() {
			return 0, errInvalid(ParamName(param) + " not single")
		}
		return m.min(), nil
	}
	if iv := hw.intervalOf(param); iv != nil {
		if !iv.single() {
			return 0, errInvalid(ParamName(param) + " not single")
		}
		return iv.value(), nil
	}
	return 0, errInvalid("unknown parameter")
}

// HwParamsGetMin returns a parameter's smallest admitted value.
func (p *PCM) HwParamsGetMin(hw *HwParams, param Param) (uint32, error) {
	if m := hw.maskOf(param); m != nil {
		if m.empty() {
			return 0, errInvalid("empty mask")
		}
		return m.min(), nil
	}
	if iv := hw.intervalOf(param); iv != nil {
		if iv.checkEmpty() {
			return 0, errInvalid("empty interval")
		}
		return iv.lowest(), nil
	}
	return 0, errInvalid("unknown parameter")
}

// HwParamsGetMax returns a parameter's largest admitted value.
func (p *PCM) HwParamsGetMax(hw *HwParams, param Param) (uint32, error) {
	if m := hw.maskOf(param); m != nil {
		if m.empty() {
			return 0, errInvalid("empty mask")
		}
		return m.max(), nil
	}
	if iv := hw.intervalOf(param); iv != nil {
		if iv.checkEmpty() {
			return 0, errInvalid("empty interval")
		}
		return iv.highest(), nil
	}
	return 0, errInvalid("unknown parameter")
}

// Typed conveniences over the generic verbs.

// SetAccess constrains the access mode.
func (p *PCM) SetAccess(hw *HwParams, a Access) error {
	return p.HwParamsSet(hw, ParamAccess, uint32(a))
}

// GetAccess returns the access mode of a refined space.
func (p *PCM) GetAccess(hw *HwParams) (Access, error) {
	v, err := p.HwParamsGet(hw, ParamAccess)
	return Access(v), err
}

// SetFormat constrains the sample format.
func (p *PCM) SetFormat(hw *HwParams, f Format) error {
	return p.HwParamsSet(hw, ParamFormat, uint32(f))
}

// GetFormat returns the format of a refined space.
func (p *PCM) GetFormat(hw *HwParams) (Format, error) {
	v, err := p.HwParamsGet(hw, ParamFormat)
	return Format(v), err
}

// SetSubformat constrains the subformat.
func (p *PCM) SetSubformat(hw *HwParams, s Subformat) error {
	return p.HwParamsSet(hw, ParamSubformat, uint32(s))
}

// SetChannels constrains the channel count.
func (p *PCM) SetChannels(hw *HwParams, n uint32) error {
	return p.HwParamsSet(hw, ParamChannels, n)
}

// SetRate constrains the frame rate.
func (p *PCM) SetRate(hw *HwParams, rate uint32) error {
	return p.HwParamsSet(hw, ParamRate, rate)
}

// SetRateNear constrains the rate to the admitted value closest to rate.
func (p *PCM) SetRateNear(hw *HwParams, rate uint32) (uint32, error) {
	return p.HwParamsSetNear(hw, ParamRate, rate)
}

// SetPeriodSize constrains the period size in frames.
func (p *PCM) SetPeriodSize(hw *HwParams, frames uint32) error {
	return p.HwParamsSet(hw, ParamPeriodSize, frames)
}

// SetPeriodSizeNear constrains the period size to the closest admitted
// value.
func (p *PCM) SetPeriodSizeNear(hw *HwParams, frames uint32) (uint32, error) {
	return p.HwParamsSetNear(hw, ParamPeriodSize, frames)
}

// SetBufferSize constrains the buffer size in frames.
func (p *PCM) SetBufferSize(hw *HwParams, frames uint32) error {
	return p.HwParamsSet(hw, ParamBufferSize, frames)
}

// SetBufferSizeNear constrains the buffer size to the closest admitted
// value.
func (p *PCM) SetBufferSizeNear(hw *HwParams, frames uint32) (uint32, error) {
	return p.HwParamsSetNear(hw, ParamBufferSize, frames)
}

// SetPeriods constrains the period count.
func (p *PCM) SetPeriods(hw *HwParams, n uint32) error {
	return p.HwParamsSet(hw, ParamPeriods, n)
}

// hwParamsChoose reduces a refined space to a single point, fixing
// parameters in the canonical priority order.
func (p *PCM) hwParamsChoose(hw *HwParams) error {
	order := []struct {
		param Param
		last  bool
	}{
		{ParamAccess, false},
		{ParamFormat, false},
		{ParamSubformat, false},
		{ParamChannels, false},
		{ParamRate, false},
		{ParamPeriodTime, false},
		{ParamBufferSize, true},
		{ParamTickTime, false},
	}
	for _, o := range order {
		var err error
		if o.last {
			_, err = p.HwParamsSetLast(hw, o.param)
		} else {
			_, err = p.HwParamsSetFirst(hw, o.param)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// HwParamsInstall refines the space, chooses a single configuration,
// commits it to the back-end, latches the resulting geometry into the
// handle and prepares the stream.
func (p *PCM) HwParamsInstall(hw *HwParams) error {
	switch p.state() {
	case StateOpen, StateSetup, StatePrepared:
	default:
		return errBadState("hw_params", p.state())
	}

	if err := p.HwRefine(hw); err != nil {
		return err
	}
	if err := p.hwParamsChoose(hw); err != nil {
		return err
	}
	if err := p.ops.hwParams(p.opArg, hw); err != nil {
		return err
	}
	if err := p.latchSetup(hw); err != nil {
		return err
	}
	p.log().WithFields(p.setupFields()).Debug("hw params installed")
	return p.Prepare()
}

// latchSetup copies a committed single-point space into the handle's
// fixed geometry and installs default software params.
func (p *PCM) latchSetup(hw *HwParams) error {
	get := func(param Param) (uint32, error) {
		if iv := hw.intervalOf(param); iv != nil {
			if iv.checkEmpty() {
				return 0, errInvalid(ParamName(param) + " empty after commit")
			}
			return iv.lowest(), nil
		}
		m := hw.maskOf(param)
		if m == nil || m.empty() {
			return 0, errInvalid(ParamName(param) + " empty after commit")
		}
		return m.min(), nil
	}

	access, err := get(ParamAccess)
	if err != nil {
		return err
	}
	format, err := get(ParamFormat)
	if err != nil {
		return err
	}
	subformat, err := get(ParamSubformat)
	if err != nil {
		return err
	}
	channels, err := get(ParamChannels)
	if err != nil {
		return err
	}
	rate, err := get(ParamRate)
	if err != nil {
		return err
	}
	periodSize, err := get(ParamPeriodSize)
	if err != nil {
		return err
	}
	bufferSize, err := get(ParamBufferSize)
	if err != nil {
		return err
	}
	periodTime, err := get(ParamPeriodTime)
	if err != nil {
		return err
	}
	tickTime, err := get(ParamTickTime)
	if err != nil {
		return err
	}
	sampleBits, err := get(ParamSampleBits)
	if err != nil {
		return err
	}
	frameBits, err := get(ParamFrameBits)
	if err != nil {
		return err
	}

	p.access = Access(access)
	p.format = Format(format)
	p.subformat = Subformat(subformat)
	p.channels = channels
	p.rate = rate
	p.periodSize = periodSize
	p.bufferSize = bufferSize
	p.periodTime = periodTime
	p.tickTime = tickTime
	p.sampleBits = sampleBits
	p.frameBits = frameBits
	p.msbits = hw.msbits
	if p.msbits == 0 {
		if w, err := FormatWidth(p.format); err == nil {
			p.msbits = uint32(w)
		}
	}
	p.rateNum, p.rateDen = hw.rateNum, hw.rateDen
	if p.rateDen == 0 {
		p.rateNum, p.rateDen = rate, 1
	}
	p.fifoSize = hw.fifoSize
	p.info = hw.info

	p.minAlign = 1
	fb := frameBits
	for fb%8 != 0 {
		fb *= 2
		p.minAlign *= 2
	}

	p.boundary = computeBoundary(uint64(bufferSize))
	if bp, ok := p.fastOpArg.(boundaryProvider); ok {
		p.boundary = bp.boundaryFor(uint64(bufferSize))
	}
	p.setup = true
	p.setState(StateSetup)
	p.installDefaultSwParams()
	return nil
}

// computeBoundary returns the largest multiple of bufferSize that fits a
// signed 32-bit frame count. Free-running pointers wrap at this modulus.
func computeBoundary(bufferSize uint64) uint64 {
	if bufferSize == 0 {
		return 0
	}
	const maxInt32 = 1<<31 - 1
	return maxInt32 / bufferSize * bufferSize
}

// HwFree releases the committed configuration and returns the stream to
// the OPEN state. Fails with EBADFD unless the stream is set up and not
// running.
func (p *PCM) HwFree() error {
	if !p.setup {
		return errBadState("hw_free", p.state())
	}
	switch p.state() {
	case StateSetup, StatePrepared:
	default:
		return errBadState("hw_free", p.state())
	}
	if p.mmapped() {
		if err := p.munmap(); err != nil {
			return err
		}
	}
	if err := p.ops.hwFree(p.opArg); err != nil {
		return err
	}
	p.setup = false
	p.setState(StateOpen)
	return nil
}

// HwParamsCurrent fills hw with the single point committed on the handle.
func (p *PCM) HwParamsCurrent(hw *HwParams) error {
	if !p.setup {
		return errBadState("hw_params_current", p.state())
	}
	hw.fillAny()
	fix := func(param Param, val uint32) {
		if m := hw.maskOf(param); m != nil {
			m.none()
			m.set(val)
			return
		}
		iv := hw.intervalOf(param)
		iv.min, iv.max = val, val
		iv.openMin, iv.openMax = false, false
		iv.integer = paramInteger[param]
		if !iv.integer && val > 0 {
			// a rational parameter is latched as the lowest integer of its
			// committed range, so the exact value lies in (val-1, val];
			// keep that span and let refineSpace narrow it
			iv.min = val - 1
		}
	}
	fix(ParamAccess, uint32(p.access))
	fix(ParamFormat, uint32(p.format))
	fix(ParamSubformat, uint32(p.subformat))
	fix(ParamChannels, p.channels)
	fix(ParamRate, p.rate)
	fix(ParamPeriodSize, p.periodSize)
	fix(ParamBufferSize, p.bufferSize)
	fix(ParamPeriodTime, p.periodTime)
	fix(ParamTickTime, p.tickTime)
	fix(ParamSampleBits, p.sampleBits)
	fix(ParamFrameBits, p.frameBits)
	hw.msbits = p.msbits
	hw.rateNum, hw.rateDen = p.rateNum, p.rateDen
	hw.fifoSize = p.fifoSize
	hw.info = p.info
	return refineSpace(hw)
}
