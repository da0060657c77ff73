package alsa

import "github.com/sirupsen/logrus"

// SwParams is the software parameter set of a stream: thresholds and
// alignment knobs the engine consults on every transfer. Unlike hardware
// parameters they may be changed while the stream runs.
type SwParams struct {
	TstampMode       Tstamp
	PeriodStep       uint32
	SleepMin         uint32
	AvailMin         uint64
	XferAlign        uint64
	StartThreshold   uint64
	StopThreshold    uint64
	SilenceThreshold uint64
	SilenceSize      uint64

	// StartMode and XrunMode record the abstract policies. They are
	// stored on install as given; SetStartMode and SetXrunMode keep the
	// thresholds that carry the behaviour in step.
	StartMode StartMode
	XrunMode  XrunMode

	// Boundary is filled by SwParamsCurrent and ignored on install.
	Boundary uint64
}

// SetStartMode records a start policy and derives the matching start
// threshold.
func (sw *SwParams) SetStartMode(p *PCM, m StartMode) {
	sw.StartMode = m
	if m == StartExplicit {
		sw.StartThreshold = p.boundary
		return
	}
	sw.StartThreshold = 1
}

// SetXrunMode records an xrun policy and derives the matching stop
// threshold.
func (sw *SwParams) SetXrunMode(p *PCM, m XrunMode) {
	sw.XrunMode = m
	if m == XrunNone {
		sw.StopThreshold = p.boundary
		return
	}
	sw.StopThreshold = uint64(p.bufferSize)
}

// SwParamsCurrent fills sw with the parameters installed on the handle.
func (p *PCM) SwParamsCurrent(sw *SwParams) error {
	if !p.setup {
		return errBadState("sw_params_current", p.state())
	}
	sw.TstampMode = p.tstampMode
	sw.PeriodStep = p.periodStep
	sw.SleepMin = p.sleepMin
	sw.AvailMin = p.availMin
	sw.XferAlign = p.xferAlign
	sw.StartThreshold = p.startThreshold
	sw.StopThreshold = p.stopThreshold
	sw.SilenceThreshold = p.silenceThreshold
	sw.SilenceSize = p.silenceSize
	sw.StartMode = p.startMode
	sw.XrunMode = p.xrunMode
	sw.Boundary = p.boundary
	return nil
}

func (p *PCM) validateSwParams(sw *SwParams) error {
	if sw.AvailMin == 0 {
		return errInvalid("avail_min must be at least one frame")
	}
	if sw.XferAlign == 0 || sw.XferAlign%p.minAlign != 0 {
		return errInvalid("xfer_align not a multiple of the frame alignment")
	}
	if sw.StartThreshold > p.boundary {
		return errInvalid("start_threshold beyond boundary")
	}
	if sw.StopThreshold > p.boundary {
		return errInvalid("stop_threshold beyond boundary")
	}
	if sw.SilenceSize >= p.boundary {
		if sw.SilenceThreshold != 0 {
			return errInvalid("silence_threshold must be zero for whole-buffer silencing")
		}
	} else if sw.SilenceThreshold+sw.SilenceSize > uint64(p.bufferSize) {
		return errInvalid("silence_threshold plus silence_size beyond buffer")
	}
	return nil
}

// SwParamsInstall validates sw and commits it to the handle and the
// back-end. The stream must be set up; the parameters take effect on the
// next transfer.
func (p *PCM) SwParamsInstall(sw *SwParams) error {
	if !p.setup {
		return errBadState("sw_params", p.state())
	}
	if err := p.validateSwParams(sw); err != nil {
		return err
	}
	if err := p.ops.swParams(p.opArg, sw); err != nil {
		return err
	}
	p.tstampMode = sw.TstampMode
	p.periodStep = sw.PeriodStep
	p.sleepMin = sw.SleepMin
	p.availMin = sw.AvailMin
	p.xferAlign = sw.XferAlign
	p.startThreshold = sw.StartThreshold
	p.stopThreshold = sw.StopThreshold
	p.silenceThreshold = sw.SilenceThreshold
	p.silenceSize = sw.SilenceSize
	p.startMode = sw.StartMode
	p.xrunMode = sw.XrunMode
	p.log().WithFields(logFieldsSw(sw)).Debug("sw params installed")
	return nil
}

func logFieldsSw(sw *SwParams) logrus.Fields {
	return logrus.Fields{
		"avail_min":       sw.AvailMin,
		"xfer_align":      sw.XferAlign,
		"start_threshold": sw.StartThreshold,
		"stop_threshold":  sw.StopThreshold,
	}
}

// installDefaultSwParams latches the canonical defaults derived from the
// committed geometry. Called once per hw_params commit.
func (p *PCM) installDefaultSwParams() {
	p.tstampMode = TstampNone
	p.periodStep = 1
	p.sleepMin = 0
	p.availMin = uint64(p.periodSize)
	p.xferAlign = uint64(p.periodSize)
	p.startThreshold = 1
	p.stopThreshold = uint64(p.bufferSize)
	p.silenceThreshold = 0
	p.silenceSize = 0
	p.startMode = StartData
	p.xrunMode = XrunStop
	sw := SwParams{}
	_ = p.SwParamsCurrent(&sw)
	_ = p.ops.swParams(p.opArg, &sw)
}
