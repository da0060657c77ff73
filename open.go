package alsa

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// OpenFunc builds a handle for one name scheme. The full name is passed
// through, scheme prefix included.
type OpenFunc func(name string, stream Stream, mode Mode) (*PCM, error)

var (
	openMu    sync.RWMutex
	openFuncs = map[string]OpenFunc{}
)

// RegisterOpenFunc installs fn for names of the form "scheme:rest",
// replacing any previous registration. Registered schemes take priority
// over the built-in ones.
func RegisterOpenFunc(scheme string, fn OpenFunc) {
	openMu.Lock()
	defer openMu.Unlock()
	if fn == nil {
		delete(openFuncs, scheme)
		return
	}
	openFuncs[scheme] = fn
}

// Open resolves a device name to a back-end and opens a stream on it.
// Built-in names:
//
//	null              frame sink/source with an instant clock
//	hw:C,D or hw:C,D,S  kernel device on card C, device D, subdevice S
//	loop:ID           one side of the loopback pair ID
//
// Unknown schemes fail with ENOENT.
func Open(name string, stream Stream, mode Mode) (*PCM, error) {
	if stream != StreamPlayback && stream != StreamCapture {
		return nil, errInvalid("unknown stream direction")
	}
	if mode&^(ModeNonblock|ModeAsync) != 0 {
		return nil, errInvalid("unknown open mode")
	}

	scheme, rest, _ := strings.Cut(name, ":")

	openMu.RLock()
	fn := openFuncs[scheme]
	openMu.RUnlock()
	if fn != nil {
		return fn(name, stream, mode)
	}

	switch scheme {
	case "null":
		return openNull(name, stream, mode)
	case "hw":
		card, device, subdevice, err := parseHwName(rest)
		if err != nil {
			return nil, err
		}
		return openHw(name, card, device, subdevice, stream, mode)
	case "loop":
		if rest == "" {
			return nil, errInvalid("loop name needs an identifier")
		}
		return openLoop(name, rest, stream, mode)
	}
	return nil, fmt.Errorf("unknown device %q: %w", name, unix.ENOENT)
}

// parseHwName splits the "C,D[,S]" tail of a hw name. The subdevice
// defaults to -1, meaning any.
func parseHwName(rest string) (card, device, subdevice int, err error) {
	subdevice = -1
	parts := strings.Split(rest, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, errInvalid("hw name needs card,device[,subdevice]")
	}
	card, err = strconv.Atoi(parts[0])
	if err != nil || card < 0 {
		return 0, 0, 0, errInvalid("bad card number")
	}
	device, err = strconv.Atoi(parts[1])
	if err != nil || device < 0 {
		return 0, 0, 0, errInvalid("bad device number")
	}
	if len(parts) == 3 {
		subdevice, err = strconv.Atoi(parts[2])
		if err != nil || subdevice < 0 {
			return 0, 0, 0, errInvalid("bad subdevice number")
		}
	}
	return card, device, subdevice, nil
}
