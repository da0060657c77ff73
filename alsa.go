// Package alsa implements a user-space PCM streaming engine: hardware
// parameter negotiation over a configuration space, software parameters,
// the stream state machine, and a ring-buffer transfer engine with
// read/write and memory-mapped access, dispatched over pluggable
// back-ends (kernel hw device, null sink/source, loopback pair).
package alsa

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Stream is the direction of a PCM stream.
type Stream int

const (
	StreamPlayback Stream = iota
	StreamCapture
)

// StreamName returns the name of a stream direction.
func StreamName(s Stream) string {
	switch s {
	case StreamPlayback:
		return "PLAYBACK"
	case StreamCapture:
		return "CAPTURE"
	}
	return "UNKNOWN"
}

// Mode holds the open-mode flags of a handle.
type Mode int

const (
	// ModeNonblock makes transfer operations fail with EAGAIN instead of
	// waiting for room.
	ModeNonblock Mode = 0x1
	// ModeAsync arms period-expiry notification for async handlers.
	ModeAsync Mode = 0x2
)

// State is the run-time state of a PCM stream.
type State int

const (
	StateOpen State = iota
	StateSetup
	StatePrepared
	StateRunning
	StateXrun
	StateDraining
	StatePaused
	StateSuspended
	StateDisconnected
)

var stateNames = []string{
	"OPEN",
	"SETUP",
	"PREPARED",
	"RUNNING",
	"XRUN",
	"DRAINING",
	"PAUSED",
	"SUSPENDED",
	"DISCONNECTED",
}

// StateName returns the name of a stream state.
func StateName(s State) string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Access is the memory-access model negotiated for a stream.
type Access int

const (
	AccessMmapInterleaved Access = iota
	AccessMmapNoninterleaved
	AccessMmapComplex
	AccessRWInterleaved
	AccessRWNoninterleaved
)

// AccessLast is the highest valid access value.
const AccessLast = AccessRWNoninterleaved

var accessNames = []string{
	"MMAP_INTERLEAVED",
	"MMAP_NONINTERLEAVED",
	"MMAP_COMPLEX",
	"RW_INTERLEAVED",
	"RW_NONINTERLEAVED",
}

// AccessName returns the name of an access mode.
func AccessName(a Access) string {
	if a < 0 || int(a) >= len(accessNames) {
		return "UNKNOWN"
	}
	return accessNames[a]
}

// Format is the sample encoding of a stream. Values are stable and match
// the kernel PCM interface.
type Format int

const (
	FormatS8 Format = iota
	FormatU8
	FormatS16LE
	FormatS16BE
	FormatU16LE
	FormatU16BE
	FormatS24LE
	FormatS24BE
	FormatU24LE
	FormatU24BE
	FormatS32LE
	FormatS32BE
	FormatU32LE
	FormatU32BE
	FormatFloatLE
	FormatFloatBE
	FormatFloat64LE
	FormatFloat64BE
	FormatIEC958SubframeLE
	FormatIEC958SubframeBE
	FormatMuLaw
	FormatALaw
	FormatImaADPCM
	FormatMPEG
	FormatGSM

	FormatSpecial Format = 31
)

// FormatLast is the highest valid format value.
const FormatLast = FormatSpecial

// Subformat is the sample sub-encoding of a stream.
type Subformat int

const (
	SubformatStd Subformat = iota
)

// SubformatLast is the highest valid subformat value.
const SubformatLast = SubformatStd

// SubformatName returns the name of a subformat.
func SubformatName(s Subformat) string {
	if s == SubformatStd {
		return "STD"
	}
	return "UNKNOWN"
}

// Tstamp is the timestamp mode of a stream.
type Tstamp int

const (
	TstampNone Tstamp = iota
	TstampMmap
)

// TstampName returns the name of a timestamp mode.
func TstampName(t Tstamp) string {
	switch t {
	case TstampNone:
		return "NONE"
	case TstampMmap:
		return "MMAP"
	}
	return "UNKNOWN"
}

// StartMode is the abstract start policy. It is stored alongside the
// start threshold it maps onto: StartData arms auto-start on the first
// queued frame, StartExplicit requires an explicit Start call.
type StartMode int

const (
	StartData StartMode = iota
	StartExplicit
)

// StartModeName returns the name of a start mode.
func StartModeName(m StartMode) string {
	switch m {
	case StartData:
		return "DATA"
	case StartExplicit:
		return "EXPLICIT"
	}
	return "UNKNOWN"
}

// XrunMode is the abstract xrun policy. It is stored alongside the stop
// threshold it maps onto: XrunStop stops the stream when the ring fills
// (capture) or empties (playback), XrunNone lets pointers free-run.
type XrunMode int

const (
	XrunNone XrunMode = iota
	XrunStop
)

// XrunModeName returns the name of an xrun mode.
func XrunModeName(m XrunMode) string {
	switch m {
	case XrunNone:
		return "NONE"
	case XrunStop:
		return "STOP"
	}
	return "UNKNOWN"
}

func errInvalid(what string) error {
	return fmt.Errorf("%s: %w", what, unix.EINVAL)
}

func errBadState(op string, s State) error {
	return fmt.Errorf("%s in state %s: %w", op, StateName(s), unix.EBADFD)
}
