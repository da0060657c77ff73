package alsa

// Async notification runs a handler goroutine against the handle's poll
// descriptor: each time the stream reaches avail_min readiness the
// callback fires, approximating per-period interrupt callbacks. The
// callback must drain (or fill) the ring before returning, otherwise it
// is invoked again immediately.

// asyncPollMs bounds how long a handler goroutine sleeps between
// shutdown checks.
const asyncPollMs = 100

// AsyncHandler is one registered period callback. Close detaches it and
// stops its goroutine.
type AsyncHandler struct {
	pcm  *PCM
	fn   func(*AsyncHandler)
	stop chan struct{}
	done chan struct{}
}

// PCM returns the handle the handler is attached to.
func (h *AsyncHandler) PCM() *PCM { return h.pcm }

// AsyncAddHandler attaches fn to the handle. The callback runs on a
// dedicated goroutine whenever the stream signals readiness, sharing the
// handle with the registering goroutine; the usual single-threaded
// handle discipline applies.
func (p *PCM) AsyncAddHandler(fn func(*AsyncHandler)) (*AsyncHandler, error) {
	if fn == nil {
		return nil, errInvalid("nil async callback")
	}
	if p.pollFD < 0 {
		return nil, errInvalid("no poll descriptor")
	}
	if len(p.asyncHandlers) == 0 {
		if err := p.ops.async(p.opArg, true); err != nil {
			return nil, err
		}
	}
	h := &AsyncHandler{
		pcm:  p,
		fn:   fn,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	p.asyncHandlers = append(p.asyncHandlers, h)
	go h.run()
	p.log().Debug("async handler attached")
	return h, nil
}

func (h *AsyncHandler) run() {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			return
		default:
		}
		ready, err := h.pcm.Wait(asyncPollMs)
		if err != nil {
			// xrun or suspend; let the callback observe and recover
			select {
			case <-h.stop:
				return
			default:
			}
			h.fn(h)
			continue
		}
		if ready {
			h.fn(h)
		}
	}
}

// Close detaches the handler and waits for its goroutine to finish.
func (h *AsyncHandler) Close() error {
	p := h.pcm
	found := false
	for i, x := range p.asyncHandlers {
		if x == h {
			p.asyncHandlers = append(p.asyncHandlers[:i], p.asyncHandlers[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return errInvalid("handler already closed")
	}
	close(h.stop)
	<-h.done
	if len(p.asyncHandlers) == 0 {
		if err := p.ops.async(p.opArg, false); err != nil {
			return err
		}
	}
	p.log().Debug("async handler detached")
	return nil
}
