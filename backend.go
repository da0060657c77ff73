package alsa

import (
	"io"
	"time"
)

// Status is a consistent snapshot of a stream's run-time side.
type Status struct {
	State       State
	TriggerTime time.Time
	Tstamp      time.Time
	ApplPtr     uint64
	HwPtr       uint64
	Delay       int64
	Avail       uint64
	AvailMax    uint64
}

// Info describes the device behind a handle.
type Info struct {
	Card            int
	Device          uint32
	Subdevice       uint32
	Stream          Stream
	ID              string
	Name            string
	Subname         string
	SubdevicesCount uint32
	SubdevicesAvail uint32
}

// slowOps is the rarely-called half of a back-end: setup, teardown and
// configuration. Implementations may allocate and block.
//
// Every op receives the handle's opaque op argument so a plugin back-end
// can forward to a slave handle without per-call lookup.
type slowOps interface {
	close(arg any) error
	info(arg any) (*Info, error)
	nonblock(arg any, enable bool) error
	async(arg any, enable bool) error
	hwRefine(arg any, hw *HwParams) error
	hwParams(arg any, hw *HwParams) error
	hwFree(arg any) error
	swParams(arg any, sw *SwParams) error
	dump(arg any, w io.Writer)
}

// fastOps is the hot-path half of a back-end. Implementations must not
// block except where the engine explicitly waits, and availUpdate must be
// idempotent.
type fastOps interface {
	status(arg any) (Status, error)
	state(arg any) State
	delay(arg any) (int64, error)
	prepare(arg any) error
	reset(arg any) error
	start(arg any) error
	drop(arg any) error
	drain(arg any) error
	pause(arg any, enable bool) error
	rewind(arg any, frames uint64) (uint64, error)
	availUpdate(arg any) (int64, error)
	writei(arg any, buf []byte, frames uint64) (uint64, error)
	writen(arg any, bufs [][]byte, frames uint64) (uint64, error)
	readi(arg any, buf []byte, frames uint64) (uint64, error)
	readn(arg any, bufs [][]byte, frames uint64) (uint64, error)
	mmapCommit(arg any, offset uint64, frames uint64) (uint64, error)
	munmap(arg any) error
	// linkDescriptor surfaces the kernel descriptor used to join linked
	// groups, or -1 when the back-end has none.
	linkDescriptor(arg any) int
}

// groupLinkable is implemented by user-space back-ends that can join
// engine-level link groups instead of kernel ones.
type groupLinkable interface {
	linkGroup() *linkGroup
	setLinkGroup(*linkGroup)
}

// boundaryProvider lets a back-end dictate the modulus at which
// free-running pointers wrap for a committed buffer size.
type boundaryProvider interface {
	boundaryFor(bufferSize uint64) uint64
}

// stateOwner is implemented by user-space back-ends whose state cell the
// engine moves directly on setup transitions. Kernel back-ends track
// state in the mapped status page and ignore these moves.
type stateOwner interface {
	setState(State)
}
