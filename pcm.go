package alsa

import (
	"errors"
	"fmt"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	alog "github.com/sidevesh/alsa-lib/log"
)

// PCM is an open stream handle. A handle is single-threaded cooperative:
// it is not safe for simultaneous use from multiple goroutines, though
// distinct handles may be used concurrently.
type PCM struct {
	id     string
	name   string
	typ    string
	stream Stream
	mode   Mode

	ops       slowOps
	fastOps   fastOps
	opArg     any
	fastOpArg any

	logger *logrus.Entry

	// geometry, fixed between HwParamsInstall and HwFree
	setup            bool
	access           Access
	format           Format
	subformat        Subformat
	channels         uint32
	rate             uint32
	rateNum, rateDen uint32
	msbits           uint32
	sampleBits       uint32
	frameBits        uint32
	periodSize       uint32
	periodTime       uint32
	bufferSize       uint32
	tickTime         uint32
	fifoSize         uint64
	info             uint32
	minAlign         uint64

	// software params, latched by SwParamsInstall
	tstampMode       Tstamp
	periodStep       uint32
	sleepMin         uint32
	availMin         uint64
	xferAlign        uint64
	startThreshold   uint64
	stopThreshold    uint64
	silenceThreshold uint64
	silenceSize      uint64
	startMode        StartMode
	xrunMode         XrunMode
	boundary         uint64

	// free-running frame counters, wrapped at boundary
	hwPtr   atomic.Uint64
	applPtr atomic.Uint64

	availMax    uint64
	silencedPtr uint64

	runningAreas []Area
	stoppedAreas []Area

	pollFD     int
	pollEvents int16

	group *linkGroup

	asyncHandlers []*AsyncHandler

	closed bool
}

// newPCM builds the engine half of a handle; back-ends fill in the op
// tables and poll descriptor before returning it from their open funcs.
func newPCM(name, typ string, stream Stream, mode Mode) *PCM {
	p := &PCM{
		id:     xid.New().String(),
		name:   name,
		typ:    typ,
		stream: stream,
		mode:   mode,
		pollFD: -1,
	}
	p.pollEvents = unix.POLLOUT
	if stream == StreamCapture {
		p.pollEvents = unix.POLLIN
	}
	p.logger = alog.GetLogger().WithFields(logrus.Fields{
		"pcm":    p.id,
		"name":   name,
		"stream": StreamName(stream),
	})
	return p
}

func (p *PCM) log() *logrus.Entry { return p.logger }

func (p *PCM) setupFields() logrus.Fields {
	return logrus.Fields{
		"access":      AccessName(p.access),
		"format":      FormatName(p.format),
		"channels":    p.channels,
		"rate":        p.rate,
		"period_size": p.periodSize,
		"buffer_size": p.bufferSize,
	}
}

// ID returns the unique identifier assigned to the handle at open.
func (p *PCM) ID() string { return p.id }

// Name returns the name the handle was opened with.
func (p *PCM) Name() string { return p.name }

// Type returns the back-end type tag.
func (p *PCM) Type() string { return p.typ }

// Stream returns the direction of the stream.
func (p *PCM) Stream() Stream { return p.stream }

// State returns the current stream state.
func (p *PCM) State() State { return p.state() }

func (p *PCM) state() State {
	return p.fastOps.state(p.fastOpArg)
}

func (p *PCM) setState(s State) {
	if o, ok := p.fastOpArg.(stateOwner); ok {
		o.setState(s)
	}
}

// Access returns the negotiated access mode. Valid once set up.
func (p *PCM) Access() Access { return p.access }

// Format returns the negotiated sample format. Valid once set up.
func (p *PCM) Format() Format { return p.format }

// Channels returns the negotiated channel count. Valid once set up.
func (p *PCM) Channels() uint32 { return p.channels }

// Rate returns the negotiated frame rate. Valid once set up.
func (p *PCM) Rate() uint32 { return p.rate }

// PeriodSize returns the negotiated period size in frames.
func (p *PCM) PeriodSize() uint32 { return p.periodSize }

// BufferSize returns the negotiated buffer size in frames.
func (p *PCM) BufferSize() uint32 { return p.bufferSize }

// Boundary returns the modulus at which free-running pointers wrap.
func (p *PCM) Boundary() uint64 { return p.boundary }

// PollDescriptor returns the handle's poll descriptor and the events the
// caller should poll for.
func (p *PCM) PollDescriptor() (fd int, events int16) {
	return p.pollFD, p.pollEvents
}

// PeriodTime returns the duration of one period.
func (p *PCM) PeriodTime() time.Duration {
	if p.rate == 0 {
		return 0
	}
	return time.Duration(1e9 * float64(p.periodSize) / float64(p.rate))
}

// FramesToBytes converts a frame count to bytes for the negotiated
// geometry.
func (p *PCM) FramesToBytes(frames int) (int, error) {
	if !p.setup {
		return 0, errInvalid("frames_to_bytes before setup")
	}
	return frames * int(p.frameBits) / 8, nil
}

// BytesToFrames converts a byte count to frames for the negotiated
// geometry.
func (p *PCM) BytesToFrames(bytes int) (int, error) {
	if !p.setup {
		return 0, errInvalid("bytes_to_frames before setup")
	}
	return bytes * 8 / int(p.frameBits), nil
}

// SamplesToBytes converts a sample count to bytes for the negotiated
// format.
func (p *PCM) SamplesToBytes(samples int) (int, error) {
	if !p.setup {
		return 0, errInvalid("samples_to_bytes before setup")
	}
	return samples * int(p.sampleBits) / 8, nil
}

// BytesToSamples converts a byte count to samples for the negotiated
// format.
func (p *PCM) BytesToSamples(bytes int) (int, error) {
	if !p.setup {
		return 0, errInvalid("bytes_to_samples before setup")
	}
	return bytes * 8 / int(p.sampleBits), nil
}

// Info returns the device description behind the handle.
func (p *PCM) Info() (*Info, error) {
	return p.ops.info(p.opArg)
}

// Nonblock switches the handle between blocking and non-blocking
// transfer mode.
func (p *PCM) Nonblock(enable bool) error {
	if err := p.ops.nonblock(p.opArg, enable); err != nil {
		return err
	}
	if enable {
		p.mode |= ModeNonblock
	} else {
		p.mode &^= ModeNonblock
	}
	return nil
}

// modular pointer arithmetic; both operands are < boundary.

func (p *PCM) playbackAvail(hw, appl uint64) int64 {
	avail := int64(hw) + int64(p.bufferSize) - int64(appl)
	if avail < 0 {
		avail += int64(p.boundary)
	} else if uint64(avail) >= p.boundary {
		avail -= int64(p.boundary)
	}
	return avail
}

func (p *PCM) captureAvail(hw, appl uint64) int64 {
	avail := int64(hw) - int64(appl)
	if avail < 0 {
		avail += int64(p.boundary)
	}
	return avail
}

func (p *PCM) availFrames() int64 {
	hw := p.hwPtr.Load()
	appl := p.applPtr.Load()
	if p.stream == StreamPlayback {
		return p.playbackAvail(hw, appl)
	}
	return p.captureAvail(hw, appl)
}

func (p *PCM) hwAvail() int64 {
	return int64(p.bufferSize) - p.availFrames()
}

// delayFrames is the frame distance currently queued toward (playback)
// or buffered from (capture) the hardware.
func (p *PCM) delayFrames() int64 {
	hw := p.hwPtr.Load()
	appl := p.applPtr.Load()
	var d int64
	if p.stream == StreamPlayback {
		d = int64(appl) - int64(hw)
	} else {
		d = int64(hw) - int64(appl)
	}
	if d < 0 {
		d += int64(p.boundary)
	}
	return d
}

// AvailUpdate asks the back-end to republish its hardware pointer,
// processes pending playback silencing, and returns the number of frames
// the application may transfer next.
func (p *PCM) AvailUpdate() (int, error) {
	avail, err := p.fastOps.availUpdate(p.fastOpArg)
	if err != nil {
		return 0, err
	}
	if uint64(avail) > p.availMax {
		p.availMax = uint64(avail)
	}
	p.playbackSilence()
	return int(avail), nil
}

// Delay returns the frame distance between the application and hardware
// pointers.
func (p *PCM) Delay() (int, error) {
	d, err := p.fastOps.delay(p.fastOpArg)
	return int(d), err
}

// Status returns a consistent snapshot of the stream's run-time state.
func (p *PCM) Status() (Status, error) {
	return p.fastOps.status(p.fastOpArg)
}

// Prepare readies the stream for I/O, recovering from SETUP or XRUN.
// Linked handles prepare together.
func (p *PCM) Prepare() error {
	switch p.state() {
	case StateSetup, StatePrepared, StateXrun:
	default:
		return errBadState("prepare", p.state())
	}
	return p.groupEach(func(m *PCM) error {
		if err := m.fastOps.prepare(m.fastOpArg); err != nil {
			return err
		}
		m.availMax = 0
		m.silencedPtr = m.applPtr.Load()
		return nil
	})
}

// Start triggers the stream from PREPARED to RUNNING. Linked handles
// start together.
func (p *PCM) Start() error {
	if p.state() != StatePrepared {
		return errBadState("start", p.state())
	}
	return p.groupEach(func(m *PCM) error {
		return m.fastOps.start(m.fastOpArg)
	})
}

// Drop stops the stream immediately, discarding queued frames. Linked
// handles stop together.
func (p *PCM) Drop() error {
	switch p.state() {
	case StatePrepared, StateRunning, StateDraining, StatePaused, StateXrun:
	default:
		return errBadState("drop", p.state())
	}
	return p.groupEach(func(m *PCM) error {
		return m.fastOps.drop(m.fastOpArg)
	})
}

// Drain stops the stream after queued frames have played. Playback
// blocks until the hardware pointer reaches the application pointer or
// an xrun occurs; capture behaves like Drop once buffered frames are
// read. In non-blocking mode Drain returns immediately with the stream
// in DRAINING.
func (p *PCM) Drain() error {
	switch p.state() {
	case StatePrepared, StateRunning, StateDraining:
	default:
		return errBadState("drain", p.state())
	}
	if err := p.fastOps.drain(p.fastOpArg); err != nil {
		// a non-blocking drain leaves the stream DRAINING and reports
		// EAGAIN
		if p.mode&ModeNonblock == 0 || !errors.Is(err, unix.EAGAIN) {
			return err
		}
	}
	if p.mode&ModeNonblock != 0 {
		return nil
	}
	for p.state() == StateDraining {
		ready, err := p.Wait(-1)
		if err != nil {
			if errors.Is(err, syscall.EPIPE) {
				return nil
			}
			return err
		}
		if !ready {
			continue
		}
	}
	return nil
}

// Pause pauses (enable true) or resumes (enable false) the stream.
func (p *PCM) Pause(enable bool) error {
	s := p.state()
	if enable {
		if s != StateRunning && s != StateDraining {
			return errBadState("pause", s)
		}
	} else {
		if s != StatePaused {
			return errBadState("pause release", s)
		}
	}
	return p.fastOps.pause(p.fastOpArg, enable)
}

// resumer is implemented by back-ends that can leave SUSPENDED without a
// full prepare.
type resumer interface {
	resume() error
}

// Resume leaves the SUSPENDED state where the back-end supports it, and
// fails with ENOSYS otherwise.
func (p *PCM) Resume() error {
	if r, ok := p.fastOpArg.(resumer); ok {
		return r.resume()
	}
	return fmt.Errorf("resume: %w", unix.ENOSYS)
}

// Reset aligns the application pointer with the hardware pointer,
// discarding the queue accounting without stopping a running stream.
// From non-running states it returns the stream to PREPARED.
func (p *PCM) Reset() error {
	switch p.state() {
	case StatePrepared, StateRunning, StateDraining, StatePaused, StateXrun:
	default:
		return errBadState("reset", p.state())
	}
	if err := p.fastOps.reset(p.fastOpArg); err != nil {
		return err
	}
	p.silencedPtr = p.applPtr.Load()
	return nil
}

// Rewind moves the application pointer back by up to frames frames,
// clipped to what hardware has not yet consumed, and returns the frames
// actually rewound.
func (p *PCM) Rewind(frames int) (int, error) {
	switch p.state() {
	case StatePrepared, StateRunning, StateDraining, StatePaused:
	default:
		return 0, errBadState("rewind", p.state())
	}
	if frames < 0 {
		return 0, errInvalid("negative rewind")
	}
	n, err := p.fastOps.rewind(p.fastOpArg, uint64(frames))
	if err != nil {
		return 0, err
	}
	if appl := p.applPtr.Load(); p.silencedPtr > appl {
		p.silencedPtr = appl
	}
	return int(n), nil
}

// Wait blocks until the handle's poll descriptor signals readiness or
// timeoutMs elapses (-1 waits forever). It retries interrupted polls and
// reports readiness.
func (p *PCM) Wait(timeoutMs int) (bool, error) {
	if p.pollFD < 0 {
		return false, errInvalid("no poll descriptor")
	}
	pfd := []unix.PollFd{{
		Fd:     int32(p.pollFD),
		Events: p.pollEvents | unix.POLLERR | unix.POLLNVAL,
	}}

	var n int
	var err error
	for {
		n, err = unix.Poll(pfd, timeoutMs)
		if !errors.Is(err, syscall.EINTR) {
			break
		}
	}
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if pfd[0].Revents&(unix.POLLERR|unix.POLLNVAL|unix.POLLHUP) != 0 {
		switch p.state() {
		case StateXrun:
			return false, fmt.Errorf("stream xrun: %w", syscall.EPIPE)
		case StateSuspended:
			return false, fmt.Errorf("stream suspended: %w", unix.ESTRPIPE)
		case StateDisconnected:
			return false, fmt.Errorf("device disconnected: %w", unix.ENODEV)
		default:
			return false, fmt.Errorf("poll error: %w", unix.EIO)
		}
	}
	return true, nil
}

// Close shuts the handle down: draining playback in blocking mode or
// dropping otherwise, releasing the committed configuration, detaching
// async handlers and closing the back-end. The handle is unusable
// afterwards even when an error is returned.
func (p *PCM) Close() error {
	if p.closed {
		return nil
	}
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if p.setup {
		switch p.state() {
		case StateRunning, StateDraining, StatePaused:
			if p.stream == StreamPlayback && p.mode&ModeNonblock == 0 {
				keep(p.Drain())
			} else {
				keep(p.Drop())
			}
		}
		keep(p.HwFree())
	}
	for len(p.asyncHandlers) > 0 {
		keep(p.asyncHandlers[0].Close())
	}
	if p.group != nil {
		keep(p.Unlink())
	}
	keep(p.ops.close(p.opArg))
	p.closed = true
	p.log().Debug("closed")
	return firstErr
}
