package alsa

// The null back-end discards playback frames and fabricates silent
// capture frames with an instant clock: the hardware pointer chases the
// application pointer, so transfers never block and never xrun.

func nullConstrain(hw *HwParams) error {
	var formats mask
	for f := Format(0); f <= FormatLast; f++ {
		if _, err := FormatPhysicalWidth(f); err == nil {
			formats.set(uint32(f))
		}
	}
	if _, err := hw.maskOf(ParamFormat).refine(&formats); err != nil {
		return err
	}
	if _, err := hw.maskOf(ParamSubformat).refineSet(uint32(SubformatStd)); err != nil {
		return err
	}
	type bound struct {
		p        Param
		min, max uint32
	}
	for _, b := range []bound{
		{ParamChannels, 1, 1024},
		{ParamRate, 4000, 384000},
		{ParamPeriods, 2, 1024},
		{ParamPeriodSize, 1, 1 << 20},
	} {
		iv := hw.intervalOf(b.p)
		if _, err := iv.refineMin(b.min, false); err != nil {
			return err
		}
		if _, err := iv.refineMax(b.max, false); err != nil {
			return err
		}
	}
	return nil
}

func openNull(name string, stream Stream, mode Mode) (*PCM, error) {
	u, err := newUspace()
	if err != nil {
		return nil, err
	}
	p := newPCM(name, "null", stream, mode)
	u.bind(p)
	u.constrain = nullConstrain
	u.devInfo = Info{
		Card:            -1,
		Stream:          stream,
		ID:              "NULL",
		Name:            "Null device",
		SubdevicesCount: 1,
		SubdevicesAvail: 1,
	}
	u.tick = func() {
		switch State(u.st.Load()) {
		case StateRunning, StateDraining:
		default:
			return
		}
		appl := p.applPtr.Load()
		if stream == StreamPlayback {
			p.hwPtr.Store(appl)
		} else {
			p.hwPtr.Store(advancePtr(appl, uint64(p.bufferSize), p.boundary))
		}
	}
	p.log().Debug("null device open")
	return p, nil
}
