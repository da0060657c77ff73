package alsa

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sliceBytes reinterprets a slice of a supported numeric type as its raw
// bytes. The caller must keep the original slice alive while the result
// is in use.
func sliceBytes(data any) ([]byte, error) {
	if data == nil {
		return nil, errInvalid("nil buffer")
	}
	if b, ok := data.([]byte); ok {
		return b, nil
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, errInvalid(fmt.Sprintf("expected a slice, got %T", data))
	}
	switch rv.Type().Elem().Kind() {
	case reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32,
		reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return nil, errInvalid("unsupported slice element type " + rv.Type().Elem().Kind().String())
	}
	n := rv.Len() * int(rv.Type().Elem().Size())
	if n == 0 {
		return nil, nil
	}
	ptr := (*byte)(unsafe.Pointer(rv.Index(0).Addr().Pointer()))
	return unsafe.Slice(ptr, n), nil
}

// sliceBytesVec reinterprets a slice of per-channel slices as raw byte
// buffers, one per channel.
func sliceBytesVec(data any) ([][]byte, error) {
	if data == nil {
		return nil, errInvalid("nil buffer vector")
	}
	if bs, ok := data.([][]byte); ok {
		return bs, nil
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, errInvalid(fmt.Sprintf("expected a slice of slices, got %T", data))
	}
	bufs := make([][]byte, rv.Len())
	for i := range bufs {
		b, err := sliceBytes(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		bufs[i] = b
	}
	return bufs, nil
}

// xferState validates the stream state for a transfer per direction.
func (p *PCM) xferState(capture bool) error {
	switch s := p.state(); s {
	case StatePrepared, StateRunning:
		return nil
	case StateDraining:
		if capture {
			return nil
		}
		return errBadState("transfer", s)
	case StateXrun:
		return fmt.Errorf("stream xrun: %w", syscall.EPIPE)
	case StateSuspended:
		return fmt.Errorf("stream suspended: %w", unix.ESTRPIPE)
	case StateDisconnected:
		return fmt.Errorf("device disconnected: %w", unix.ENODEV)
	default:
		return errBadState("transfer", s)
	}
}

// xferLoop moves size frames through op, waiting and auto-starting as
// the thresholds dictate. op receives the frame offset already done and
// the count to move now. Partial progress wins over a late error: a
// positive count is returned with a nil error and the failure surfaces
// on the next call.
func (p *PCM) xferLoop(op func(done, n uint64) (uint64, error), size uint64, capture bool) (uint64, error) {
	if p.xferAlign > 1 && size >= p.xferAlign {
		size = size / p.xferAlign * p.xferAlign
	}
	var xfer uint64
	var lastErr error

	for size > 0 {
		if err := p.xferState(capture); err != nil {
			lastErr = err
			break
		}

		avail, err := p.fastOps.availUpdate(p.fastOpArg)
		if err != nil {
			lastErr = err
			break
		}
		if avail < 0 {
			lastErr = fmt.Errorf("stream xrun: %w", syscall.EPIPE)
			break
		}
		p.playbackSilence()

		a := uint64(avail)
		if p.xferAlign > 1 {
			a = a / p.xferAlign * p.xferAlign
		}
		if a == 0 {
			if capture && p.state() == StatePrepared && size >= p.startThreshold {
				if err := p.Start(); err != nil {
					lastErr = err
					break
				}
				continue
			}
			if p.mode&ModeNonblock != 0 {
				lastErr = fmt.Errorf("no frames available: %w", unix.EAGAIN)
				break
			}
			if _, err := p.Wait(-1); err != nil {
				lastErr = err
				break
			}
			continue
		}

		n := size
		if n > a {
			n = a
		}
		done, err := op(xfer, n)
		xfer += done
		size -= done
		if err != nil {
			lastErr = err
			break
		}
		if done == 0 {
			lastErr = errInvalid("transfer made no progress")
			break
		}

		if !capture && p.state() == StatePrepared &&
			uint64(p.hwAvail()) >= p.startThreshold {
			if err := p.Start(); err != nil && !errors.Is(err, unix.EBADFD) {
				lastErr = err
				break
			}
		}
	}

	if xfer > 0 {
		return xfer, nil
	}
	return 0, lastErr
}

func (p *PCM) checkInterleavedXfer(capture bool, buf []byte, frames int) error {
	if !p.setup {
		return errBadState("transfer", p.state())
	}
	if capture != (p.stream == StreamCapture) {
		return errInvalid("transfer against stream direction")
	}
	switch p.access {
	case AccessRWInterleaved, AccessMmapInterleaved:
	default:
		return errInvalid("interleaved transfer needs interleaved access")
	}
	if frames < 0 {
		return errInvalid("negative frame count")
	}
	if need := uint64(frames) * uint64(p.frameBits) / 8; uint64(len(buf)) < need {
		return errInvalid("buffer shorter than frame count")
	}
	return nil
}

func (p *PCM) checkNoninterleavedXfer(capture bool, bufs [][]byte, frames int) error {
	if !p.setup {
		return errBadState("transfer", p.state())
	}
	if capture != (p.stream == StreamCapture) {
		return errInvalid("transfer against stream direction")
	}
	switch p.access {
	case AccessRWNoninterleaved, AccessMmapNoninterleaved:
	default:
		return errInvalid("non-interleaved transfer needs non-interleaved access")
	}
	if frames < 0 {
		return errInvalid("negative frame count")
	}
	if uint32(len(bufs)) != p.channels {
		return errInvalid("buffer count does not match channels")
	}
	need := uint64(frames) * uint64(p.sampleBits) / 8
	for _, b := range bufs {
		if uint64(len(b)) < need {
			return errInvalid("channel buffer shorter than frame count")
		}
	}
	return nil
}

// Writei writes frames interleaved frames to a playback stream. data
// must be a slice of a supported numeric type holding at least frames
// full frames. It returns the frames actually written; in non-blocking
// mode the count may be short with the EAGAIN surfaced on the next call.
func (p *PCM) Writei(data any, frames int) (int, error) {
	buf, err := sliceBytes(data)
	if err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(data)
	if err := p.checkInterleavedXfer(false, buf, frames); err != nil {
		return 0, err
	}
	fb := uint64(p.frameBits)
	n, err := p.xferLoop(func(done, n uint64) (uint64, error) {
		lo := done * fb / 8
		hi := (done + n) * fb / 8
		return p.fastOps.writei(p.fastOpArg, buf[lo:hi], n)
	}, uint64(frames), false)
	return int(n), err
}

// Writen writes frames non-interleaved frames to a playback stream.
// data must be a slice of per-channel slices, one per channel.
func (p *PCM) Writen(data any, frames int) (int, error) {
	bufs, err := sliceBytesVec(data)
	if err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(data)
	if err := p.checkNoninterleavedXfer(false, bufs, frames); err != nil {
		return 0, err
	}
	sb := uint64(p.sampleBits)
	window := make([][]byte, len(bufs))
	n, err := p.xferLoop(func(done, n uint64) (uint64, error) {
		lo := done * sb / 8
		hi := (done + n) * sb / 8
		for c, b := range bufs {
			window[c] = b[lo:hi]
		}
		return p.fastOps.writen(p.fastOpArg, window, n)
	}, uint64(frames), false)
	return int(n), err
}

// Readi reads frames interleaved frames from a capture stream into
// data, which must be a slice of a supported numeric type with room for
// frames full frames.
func (p *PCM) Readi(data any, frames int) (int, error) {
	buf, err := sliceBytes(data)
	if err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(data)
	if err := p.checkInterleavedXfer(true, buf, frames); err != nil {
		return 0, err
	}
	fb := uint64(p.frameBits)
	n, err := p.xferLoop(func(done, n uint64) (uint64, error) {
		lo := done * fb / 8
		hi := (done + n) * fb / 8
		return p.fastOps.readi(p.fastOpArg, buf[lo:hi], n)
	}, uint64(frames), true)
	return int(n), err
}

// Readn reads frames non-interleaved frames from a capture stream into
// per-channel slices.
func (p *PCM) Readn(data any, frames int) (int, error) {
	bufs, err := sliceBytesVec(data)
	if err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(data)
	if err := p.checkNoninterleavedXfer(true, bufs, frames); err != nil {
		return 0, err
	}
	sb := uint64(p.sampleBits)
	window := make([][]byte, len(bufs))
	n, err := p.xferLoop(func(done, n uint64) (uint64, error) {
		lo := done * sb / 8
		hi := (done + n) * sb / 8
		for c, b := range bufs {
			window[c] = b[lo:hi]
		}
		return p.fastOps.readn(p.fastOpArg, window, n)
	}, uint64(frames), true)
	return int(n), err
}
