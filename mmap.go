package alsa

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// mmapped reports whether the ring areas are currently mapped into the
// handle.
func (p *PCM) mmapped() bool {
	return len(p.runningAreas) > 0
}

// setMmapAreas is called by back-ends once their ring is mapped.
// stopped may be nil when the back-end has no separate stopped buffer.
func (p *PCM) setMmapAreas(running, stopped []Area) {
	p.runningAreas = running
	p.stoppedAreas = stopped
}

func (p *PCM) munmap() error {
	if !p.mmapped() {
		return nil
	}
	if err := p.fastOps.munmap(p.fastOpArg); err != nil {
		return err
	}
	p.runningAreas = nil
	p.stoppedAreas = nil
	return nil
}

// MmapAreas returns the channel areas of the mapped ring, or nil when
// the handle has no mapping.
func (p *PCM) MmapAreas() []Area {
	return p.runningAreas
}

// MmapBegin opens a transfer window into the mapped ring. It returns the
// ring's channel areas, the frame offset of the window inside the ring
// and the usable frame count, clamped to the contiguous stretch up to
// the ring's end: min(frames, avail, buffer_size - offset).
func (p *PCM) MmapBegin(frames int) (areas []Area, offset int, actual int, err error) {
	if !p.mmapped() {
		return nil, 0, 0, errBadState("mmap_begin", p.state())
	}
	if frames < 0 {
		return nil, 0, 0, errInvalid("negative frame count")
	}
	switch s := p.state(); s {
	case StateXrun:
		return nil, 0, 0, fmt.Errorf("stream xrun: %w", syscall.EPIPE)
	case StateSuspended:
		return nil, 0, 0, fmt.Errorf("stream suspended: %w", unix.ESTRPIPE)
	case StateDisconnected:
		return nil, 0, 0, fmt.Errorf("device disconnected: %w", unix.ENODEV)
	}

	appl := p.applPtr.Load()
	avail := p.availFrames()
	if avail < 0 {
		avail = 0
	}
	off := appl % uint64(p.bufferSize)
	cont := uint64(p.bufferSize) - off
	n := uint64(frames)
	if n > uint64(avail) {
		n = uint64(avail)
	}
	if n > cont {
		n = cont
	}
	return p.runningAreas, int(off), int(n), nil
}

// MmapCommit completes a window opened by MmapBegin. offset must be the
// offset MmapBegin returned and frames must not exceed the then-current
// availability. It advances the application pointer and, for playback in
// PREPARED, auto-starts once the start threshold is met. Returns the
// frames actually committed.
func (p *PCM) MmapCommit(offset int, frames int) (int, error) {
	if !p.mmapped() {
		return 0, errBadState("mmap_commit", p.state())
	}
	if frames < 0 {
		return 0, errInvalid("negative frame count")
	}
	appl := p.applPtr.Load()
	if uint64(offset) != appl%uint64(p.bufferSize) {
		return 0, errInvalid("commit offset does not match the open window")
	}
	if avail := p.availFrames(); int64(frames) > avail {
		return 0, fmt.Errorf("commit beyond available frames: %w", syscall.EPIPE)
	}
	n, err := p.fastOps.mmapCommit(p.fastOpArg, uint64(offset), uint64(frames))
	if err != nil {
		return int(n), err
	}
	if p.stream == StreamPlayback && p.state() == StatePrepared &&
		uint64(p.hwAvail()) >= p.startThreshold {
		if err := p.Start(); err != nil && !errors.Is(err, unix.EBADFD) {
			return int(n), err
		}
	}
	return int(n), nil
}

// ptrDiff returns a - b on the free-running circle, in [0, boundary).
func (p *PCM) ptrDiff(a, b uint64) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		d += int64(p.boundary)
	}
	return d
}

// advancePtr moves a free-running pointer cell forward by frames,
// wrapping at the boundary, and returns the new value.
func advancePtr(ptr uint64, frames, boundary uint64) uint64 {
	ptr += frames
	if ptr >= boundary {
		ptr -= boundary
	}
	return ptr
}

// playbackSilence pre-fills not-yet-written frames ahead of the
// application pointer with the format's silence pattern, so a late
// application underruns into silence rather than stale samples. The
// silenced high-water mark avoids rewriting the same frames.
func (p *PCM) playbackSilence() {
	if p.stream != StreamPlayback || !p.setup || !p.mmapped() {
		return
	}
	appl := p.applPtr.Load()
	avail := p.playbackAvail(p.hwPtr.Load(), appl)
	if avail <= 0 {
		return
	}

	var want uint64
	switch {
	case p.silenceSize >= p.boundary:
		want = uint64(avail)
	case p.silenceThreshold > 0:
		if uint64(int64(p.bufferSize)-avail) > p.silenceThreshold {
			return
		}
		want = p.silenceSize
		if want > uint64(avail) {
			want = uint64(avail)
		}
	default:
		return
	}

	sil := p.ptrDiff(p.silencedPtr, appl)
	if sil < 0 || sil > int64(p.bufferSize) {
		// rewound or stale mark; restart from the application pointer
		sil = 0
		p.silencedPtr = appl
	}
	if uint64(sil) >= want {
		return
	}

	off := (appl + uint64(sil)) % uint64(p.bufferSize)
	n := want - uint64(sil)
	for n > 0 {
		run := uint64(p.bufferSize) - off
		if run > n {
			run = n
		}
		if err := AreasSilence(p.runningAreas, int(off), int(p.channels), int(run), p.format); err != nil {
			p.log().WithError(err).Warn("silence fill failed")
			return
		}
		off = (off + run) % uint64(p.bufferSize)
		n -= run
	}
	p.silencedPtr = advancePtr(appl, want, p.boundary)
}
