package alsa

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// uspace is the shared run-time of user-space back-ends: a byte ring
// holding interleaved frames, an owned state cell, and a self-pipe whose
// read end serves as the handle's poll descriptor. Readiness is a byte
// sitting in the pipe; concrete back-ends drive the clock.
type uspace struct {
	p *PCM

	mu       sync.Mutex
	st       atomic.Int32
	ring     []byte
	grp      *linkGroup
	pollR    int
	pollW    int
	signaled bool
	trigTime time.Time

	// constrain narrows a configuration space to what the back-end
	// supports; run before the generic fixed-point pass.
	constrain func(*HwParams) error

	// tick is called from availUpdate so instant-clock back-ends can
	// push their hardware pointer. May be nil.
	tick func()

	devInfo Info
}

func newUspace() (*uspace, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	u := &uspace{pollR: fds[0], pollW: fds[1]}
	u.st.Store(int32(StateOpen))
	return u, nil
}

// bind attaches the runtime to its engine handle and points the handle's
// poll descriptor at the self-pipe.
func (u *uspace) bind(p *PCM) {
	u.p = p
	p.ops = u
	p.fastOps = u
	p.opArg = u
	p.fastOpArg = u
	p.pollFD = u.pollR
	p.pollEvents = unix.POLLIN
}

func (u *uspace) setState(s State) {
	u.st.Store(int32(s))
	u.updatePoll()
}

func (u *uspace) state(any) State {
	return State(u.st.Load())
}

// signal and unsignal keep exactly zero or one byte in the self-pipe.
// Callers hold mu.
func (u *uspace) signal() {
	if !u.signaled {
		_, _ = unix.Write(u.pollW, []byte{1})
		u.signaled = true
	}
}

func (u *uspace) unsignal() {
	if u.signaled {
		var b [8]byte
		_, _ = unix.Read(u.pollR, b[:])
		u.signaled = false
	}
}

// updatePoll recomputes poll readiness from state and availability.
func (u *uspace) updatePoll() {
	u.mu.Lock()
	defer u.mu.Unlock()
	ready := false
	switch State(u.st.Load()) {
	case StateXrun, StateSuspended, StateDisconnected, StateSetup:
		// wake pollers so they observe the state
		ready = true
	case StatePrepared, StateRunning, StateDraining, StatePaused:
		if u.p != nil && u.p.setup {
			ready = u.p.availFrames() >= int64(u.p.availMin)
		}
	}
	if ready {
		u.signal()
	} else {
		u.unsignal()
	}
}

// slow ops

func (u *uspace) close(any) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.pollR >= 0 {
		_ = unix.Close(u.pollR)
		_ = unix.Close(u.pollW)
		u.pollR, u.pollW = -1, -1
	}
	u.ring = nil
	return nil
}

func (u *uspace) info(any) (*Info, error) {
	inf := u.devInfo
	return &inf, nil
}

func (u *uspace) nonblock(any, bool) error { return nil }

func (u *uspace) async(any, bool) error { return nil }

func (u *uspace) hwRefine(_ any, hw *HwParams) error {
	if u.constrain != nil {
		if err := u.constrain(hw); err != nil {
			return err
		}
	}
	return refineSpace(hw)
}

func (u *uspace) hwParams(_ any, hw *HwParams) error {
	get := func(p Param) (uint32, error) {
		iv := hw.intervalOf(p)
		if iv == nil || iv.checkEmpty() {
			return 0, errInvalid(ParamName(p) + " not chosen")
		}
		return iv.lowest(), nil
	}
	bufferSize, err := get(ParamBufferSize)
	if err != nil {
		return err
	}
	frameBits, err := get(ParamFrameBits)
	if err != nil {
		return err
	}
	channels, err := get(ParamChannels)
	if err != nil {
		return err
	}
	sampleBits, err := get(ParamSampleBits)
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.ring = make([]byte, (uint64(bufferSize)*uint64(frameBits)+7)/8)
	u.mu.Unlock()

	areas := make([]Area, channels)
	for c := range areas {
		areas[c] = Area{
			Addr:  u.ring,
			First: c * int(sampleBits),
			Step:  int(frameBits),
		}
	}
	u.p.setMmapAreas(areas, nil)
	u.p.hwPtr.Store(0)
	u.p.applPtr.Store(0)
	return nil
}

func (u *uspace) hwFree(any) error {
	u.mu.Lock()
	u.ring = nil
	u.mu.Unlock()
	return nil
}

func (u *uspace) swParams(any, *SwParams) error {
	u.updatePoll()
	return nil
}

func (u *uspace) dump(_ any, w io.Writer) {
	fmt.Fprintf(w, "type: %s\n", u.p.Type())
}

// fast ops

func (u *uspace) status(any) (Status, error) {
	p := u.p
	return Status{
		State:       State(u.st.Load()),
		TriggerTime: u.trigTime,
		Tstamp:      time.Now(),
		ApplPtr:     p.applPtr.Load(),
		HwPtr:       p.hwPtr.Load(),
		Delay:       p.delayFrames(),
		Avail:       uint64(p.availFrames()),
		AvailMax:    p.availMax,
	}, nil
}

func (u *uspace) delay(any) (int64, error) {
	return u.p.delayFrames(), nil
}

func (u *uspace) prepare(any) error {
	u.p.hwPtr.Store(0)
	u.p.applPtr.Store(0)
	if u.ring != nil && u.p.setup {
		_ = AreasSilence(u.p.runningAreas, 0, int(u.p.channels), int(u.p.bufferSize), u.p.format)
	}
	u.setState(StatePrepared)
	return nil
}

func (u *uspace) reset(any) error {
	u.p.applPtr.Store(u.p.hwPtr.Load())
	if State(u.st.Load()) != StateRunning {
		u.setState(StatePrepared)
	} else {
		u.updatePoll()
	}
	return nil
}

func (u *uspace) start(any) error {
	u.trigTime = time.Now()
	u.setState(StateRunning)
	if u.tick != nil {
		u.tick()
	}
	return nil
}

func (u *uspace) drop(any) error {
	u.setState(StateSetup)
	return nil
}

func (u *uspace) drain(any) error {
	if u.p.stream == StreamCapture {
		u.setState(StateSetup)
		return nil
	}
	if u.p.delayFrames() == 0 {
		u.setState(StateSetup)
		return nil
	}
	u.setState(StateDraining)
	return nil
}

func (u *uspace) pause(_ any, enable bool) error {
	if enable {
		u.setState(StatePaused)
	} else {
		u.setState(StateRunning)
	}
	return nil
}

func (u *uspace) rewind(_ any, frames uint64) (uint64, error) {
	p := u.p
	appl := p.applPtr.Load()
	hw := p.hwPtr.Load()
	var room int64
	if p.stream == StreamPlayback {
		room = p.ptrDiff(appl, hw)
	} else {
		room = int64(p.bufferSize) - p.ptrDiff(hw, appl)
	}
	if room < 0 {
		room = 0
	}
	if frames > uint64(room) {
		frames = uint64(room)
	}
	newAppl := appl + p.boundary - frames
	if newAppl >= p.boundary {
		newAppl -= p.boundary
	}
	p.applPtr.Store(newAppl)
	u.updatePoll()
	return frames, nil
}

func (u *uspace) availUpdate(any) (int64, error) {
	if u.tick != nil {
		u.tick()
	}
	u.updatePoll()
	return u.p.availFrames(), nil
}

// ring copy helpers; offsets and counts are frames.

func (u *uspace) ringCopyIn(buf []byte, frames uint64) {
	p := u.p
	fb := uint64(p.frameBits)
	appl := p.applPtr.Load() % uint64(p.bufferSize)
	var done uint64
	for done < frames {
		run := uint64(p.bufferSize) - appl
		if run > frames-done {
			run = frames - done
		}
		copy(u.ring[appl*fb/8:(appl+run)*fb/8], buf[done*fb/8:(done+run)*fb/8])
		appl = (appl + run) % uint64(p.bufferSize)
		done += run
	}
}

func (u *uspace) ringCopyOut(buf []byte, frames uint64) {
	p := u.p
	fb := uint64(p.frameBits)
	appl := p.applPtr.Load() % uint64(p.bufferSize)
	var done uint64
	for done < frames {
		run := uint64(p.bufferSize) - appl
		if run > frames-done {
			run = frames - done
		}
		copy(buf[done*fb/8:(done+run)*fb/8], u.ring[appl*fb/8:(appl+run)*fb/8])
		appl = (appl + run) % uint64(p.bufferSize)
		done += run
	}
}

func (u *uspace) advanceAppl(frames uint64) {
	p := u.p
	p.applPtr.Store(advancePtr(p.applPtr.Load(), frames, p.boundary))
	if u.tick != nil {
		u.tick()
	}
	u.updatePoll()
}

func (u *uspace) writei(_ any, buf []byte, frames uint64) (uint64, error) {
	u.ringCopyIn(buf, frames)
	u.advanceAppl(frames)
	return frames, nil
}

func (u *uspace) readi(_ any, buf []byte, frames uint64) (uint64, error) {
	u.ringCopyOut(buf, frames)
	u.advanceAppl(frames)
	return frames, nil
}

func (u *uspace) xfern(bufs [][]byte, frames uint64, read bool) (uint64, error) {
	p := u.p
	src, err := p.AreasFromBufs(bufs)
	if err != nil {
		return 0, err
	}
	appl := p.applPtr.Load() % uint64(p.bufferSize)
	var done uint64
	for done < frames {
		run := uint64(p.bufferSize) - appl
		if run > frames-done {
			run = frames - done
		}
		if read {
			err = AreasCopy(src, int(done), p.runningAreas, int(appl),
				int(p.channels), int(run), p.format)
		} else {
			err = AreasCopy(p.runningAreas, int(appl), src, int(done),
				int(p.channels), int(run), p.format)
		}
		if err != nil {
			return done, err
		}
		appl = (appl + run) % uint64(p.bufferSize)
		done += run
	}
	u.advanceAppl(frames)
	return frames, nil
}

func (u *uspace) writen(_ any, bufs [][]byte, frames uint64) (uint64, error) {
	return u.xfern(bufs, frames, false)
}

func (u *uspace) readn(_ any, bufs [][]byte, frames uint64) (uint64, error) {
	return u.xfern(bufs, frames, true)
}

func (u *uspace) mmapCommit(_ any, _ uint64, frames uint64) (uint64, error) {
	u.advanceAppl(frames)
	return frames, nil
}

func (u *uspace) munmap(any) error { return nil }

func (u *uspace) linkDescriptor(any) int { return -1 }

func (u *uspace) linkGroup() *linkGroup     { return u.grp }
func (u *uspace) setLinkGroup(g *linkGroup) { u.grp = g }

// xrun moves the stream into XRUN and notifies waiters. No-op when the
// stop threshold disables xrun detection.
func (u *uspace) xrun() {
	if u.p.stopThreshold >= u.p.boundary {
		return
	}
	u.setState(StateXrun)
	u.p.log().Warn("xrun")
}
