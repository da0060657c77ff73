package alsa

import (
	"fmt"
	"io"
	"strconv"
)

func (i *interval) String() string {
	if i.checkEmpty() {
		return "NONE"
	}
	if i.single() {
		return strconv.FormatUint(uint64(i.value()), 10)
	}
	lb, rb := "[", "]"
	if i.openMin {
		lb = "("
	}
	if i.openMax {
		rb = ")"
	}
	return fmt.Sprintf("%s%d %d%s", lb, i.min, i.max, rb)
}

func paramValueName(p Param, v uint32) string {
	switch p {
	case ParamAccess:
		return AccessName(Access(v))
	case ParamFormat:
		return FormatName(Format(v))
	case ParamSubformat:
		return SubformatName(Subformat(v))
	}
	return strconv.FormatUint(uint64(v), 10)
}

// Dump writes the configuration space to w, one parameter per line.
func (hw *HwParams) Dump(w io.Writer) {
	for p := paramFirstMask; p <= paramLastMask; p++ {
		m := hw.maskOf(p)
		fmt.Fprintf(w, "%s: ", ParamName(p))
		switch {
		case m.empty():
			fmt.Fprint(w, "NONE")
		case m.count() == maskBits:
			fmt.Fprint(w, "ALL")
		default:
			sep := ""
			for v := uint32(0); v < maskBits; v++ {
				if m.test(v) {
					fmt.Fprintf(w, "%s%s", sep, paramValueName(p, v))
					sep = " "
				}
			}
		}
		fmt.Fprintln(w)
	}
	for p := paramFirstInterval; p <= paramLastInterval; p++ {
		fmt.Fprintf(w, "%s: %s\n", ParamName(p), hw.intervalOf(p).String())
	}
}

// Dump writes a description of the handle, its back-end and, once set
// up, the committed hardware and software parameters to w.
func (p *PCM) Dump(w io.Writer) {
	fmt.Fprintf(w, "name: %s\n", p.name)
	fmt.Fprintf(w, "stream: %s\n", StreamName(p.stream))
	p.ops.dump(p.opArg, w)
	if !p.setup {
		fmt.Fprintln(w, "setup: not installed")
		return
	}
	fmt.Fprintln(w, "hw setup:")
	p.DumpHwSetup(w)
	fmt.Fprintln(w, "sw setup:")
	p.DumpSwSetup(w)
}

// DumpHwSetup writes the committed hardware parameters to w.
func (p *PCM) DumpHwSetup(w io.Writer) {
	if !p.setup {
		fmt.Fprintln(w, "not set up")
		return
	}
	fmt.Fprintf(w, "  access: %s\n", AccessName(p.access))
	fmt.Fprintf(w, "  format: %s\n", FormatName(p.format))
	fmt.Fprintf(w, "  subformat: %s\n", SubformatName(p.subformat))
	fmt.Fprintf(w, "  channels: %d\n", p.channels)
	fmt.Fprintf(w, "  rate: %d (%d/%d)\n", p.rate, p.rateNum, p.rateDen)
	fmt.Fprintf(w, "  msbits: %d\n", p.msbits)
	fmt.Fprintf(w, "  buffer_size: %d\n", p.bufferSize)
	fmt.Fprintf(w, "  period_size: %d\n", p.periodSize)
	fmt.Fprintf(w, "  period_time: %d\n", p.periodTime)
	fmt.Fprintf(w, "  tick_time: %d\n", p.tickTime)
}

// DumpSwSetup writes the installed software parameters to w.
func (p *PCM) DumpSwSetup(w io.Writer) {
	if !p.setup {
		fmt.Fprintln(w, "not set up")
		return
	}
	fmt.Fprintf(w, "  tstamp_mode: %s\n", TstampName(p.tstampMode))
	fmt.Fprintf(w, "  period_step: %d\n", p.periodStep)
	fmt.Fprintf(w, "  avail_min: %d\n", p.availMin)
	fmt.Fprintf(w, "  xfer_align: %d\n", p.xferAlign)
	fmt.Fprintf(w, "  start_mode: %s\n", StartModeName(p.startMode))
	fmt.Fprintf(w, "  xrun_mode: %s\n", XrunModeName(p.xrunMode))
	fmt.Fprintf(w, "  start_threshold: %d\n", p.startThreshold)
	fmt.Fprintf(w, "  stop_threshold: %d\n", p.stopThreshold)
	fmt.Fprintf(w, "  silence_threshold: %d\n", p.silenceThreshold)
	fmt.Fprintf(w, "  silence_size: %d\n", p.silenceSize)
	fmt.Fprintf(w, "  boundary: %d\n", p.boundary)
}

// Dump writes the snapshot to w.
func (st Status) Dump(w io.Writer) {
	fmt.Fprintf(w, "state: %s\n", StateName(st.State))
	fmt.Fprintf(w, "trigger_time: %s\n", st.TriggerTime.Format("15:04:05.000000"))
	fmt.Fprintf(w, "tstamp: %s\n", st.Tstamp.Format("15:04:05.000000"))
	fmt.Fprintf(w, "appl_ptr: %d\n", st.ApplPtr)
	fmt.Fprintf(w, "hw_ptr: %d\n", st.HwPtr)
	fmt.Fprintf(w, "delay: %d\n", st.Delay)
	fmt.Fprintf(w, "avail: %d\n", st.Avail)
	fmt.Fprintf(w, "avail_max: %d\n", st.AvailMax)
}
