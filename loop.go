package alsa

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// A Loop is a software loopback pair: frames written to its playback
// side become readable on its capture side. The clock is explicit; time
// only passes when Advance is called, which makes the pair a
// deterministic stand-in for real hardware.
type Loop struct {
	id string

	mu   sync.Mutex
	ends [2]*loopEnd // playback, capture
}

type loopEnd struct {
	*uspace
	loop *Loop
	idx  int
}

func (e *loopEnd) close(arg any) error {
	err := e.uspace.close(arg)
	e.loop.mu.Lock()
	e.loop.ends[e.idx] = nil
	e.loop.mu.Unlock()
	return err
}

var (
	loopMu sync.Mutex
	loops  = map[string]*Loop{}
)

// LoopByName returns the loopback pair registered under id, creating it
// on first use. Open the two sides with the name "loop:<id>".
func LoopByName(id string) *Loop {
	loopMu.Lock()
	defer loopMu.Unlock()
	l, ok := loops[id]
	if !ok {
		l = &Loop{id: id}
		loops[id] = l
	}
	return l
}

func openLoop(name, id string, stream Stream, mode Mode) (*PCM, error) {
	l := LoopByName(id)
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := 0
	if stream == StreamCapture {
		idx = 1
	}
	if l.ends[idx] != nil {
		return nil, fmt.Errorf("loop %q %s side in use: %w", id, StreamName(stream), unix.EBUSY)
	}

	u, err := newUspace()
	if err != nil {
		return nil, err
	}
	p := newPCM(name, "loop", stream, mode)
	u.bind(p)
	u.constrain = nullConstrain
	u.devInfo = Info{
		Card:            -1,
		Stream:          stream,
		ID:              "LOOP",
		Name:            "Loopback pair " + id,
		SubdevicesCount: 1,
		SubdevicesAvail: 1,
	}

	e := &loopEnd{uspace: u, loop: l, idx: idx}
	p.ops = e
	p.opArg = e
	p.fastOps = e
	p.fastOpArg = e
	l.ends[idx] = e
	p.log().WithField("loop", id).Debug("loop side open")
	return p, nil
}

// copyLoopFrames moves frames frames from the playback ring at srcPtr to
// the capture ring at dstPtr, splitting runs at either ring's edge.
func copyLoopFrames(dst, src *uspace, dstPtr, srcPtr, frames uint64) {
	dp := dst.p
	sp := src.p
	fb := uint64(sp.frameBits)
	for frames > 0 {
		dOff := dstPtr % uint64(dp.bufferSize)
		sOff := srcPtr % uint64(sp.bufferSize)
		run := frames
		if r := uint64(dp.bufferSize) - dOff; r < run {
			run = r
		}
		if r := uint64(sp.bufferSize) - sOff; r < run {
			run = r
		}
		copy(dst.ring[dOff*fb/8:(dOff+run)*fb/8], src.ring[sOff*fb/8:(sOff+run)*fb/8])
		dstPtr += run
		srcPtr += run
		frames -= run
	}
}

// Advance moves the loopback clock forward by frames frames: queued
// playback frames are consumed and delivered to the capture side.
// Consuming more than is queued underruns the playback side; delivering
// into a full capture buffer overruns the capture side, per each side's
// stop threshold.
func (l *Loop) Advance(frames int) error {
	if frames < 0 {
		return errInvalid("negative frame count")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	pe, ce := l.ends[0], l.ends[1]
	if pe == nil || pe.p == nil || !pe.p.setup {
		return nil
	}
	pp := pe.p
	switch State(pe.st.Load()) {
	case StateRunning, StateDraining:
	default:
		return nil
	}

	queued := uint64(pp.delayFrames())
	n := uint64(frames)
	underrun := false
	if n > queued {
		n = queued
		underrun = State(pe.st.Load()) == StateRunning
	}

	if n > 0 && ce != nil && ce.p != nil && ce.p.setup &&
		State(ce.st.Load()) == StateRunning {
		cp := ce.p
		if cp.frameBits != pp.frameBits {
			return errInvalid("loop sides configured with different frame sizes")
		}
		free := int64(cp.bufferSize) - cp.ptrDiff(cp.hwPtr.Load(), cp.applPtr.Load())
		m := n
		overrun := false
		if free < int64(m) {
			m = uint64(free)
			overrun = true
		}
		if m > 0 {
			copyLoopFrames(ce.uspace, pe.uspace, cp.hwPtr.Load(), pp.hwPtr.Load(), m)
			cp.hwPtr.Store(advancePtr(cp.hwPtr.Load(), m, cp.boundary))
		}
		if overrun {
			ce.xrun()
		}
		ce.updatePoll()
	}

	pp.hwPtr.Store(advancePtr(pp.hwPtr.Load(), n, pp.boundary))
	switch {
	case State(pe.st.Load()) == StateDraining && pp.delayFrames() == 0:
		pe.setState(StateSetup)
	case underrun:
		pe.xrun()
	}
	pe.updatePoll()
	return nil
}
