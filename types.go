package alsa

// Kernel PCM interface structures shared by both word sizes. Layouts
// must match include/uapi/sound/asound.h exactly; word-size dependent
// structs live in types_32bit.go and types_64bit.go.

// sndMask is the wire form of a parameter mask.
type sndMask struct {
	Bits [8]uint32
}

// sndInterval is the wire form of a parameter interval.
type sndInterval struct {
	MinVal uint32
	MaxVal uint32
	Flags  uint32
}

// sndInterval flag bits.
const (
	intervalOpenMin = 0x1
	intervalOpenMax = 0x2
	intervalInteger = 0x4
	intervalEmpty   = 0x8
)

// sndPcmInfo describes a PCM device node.
type sndPcmInfo struct {
	Device          uint32
	Subdevice       uint32
	Stream          int32
	Card            int32
	Id              [64]byte
	Name            [80]byte
	Subname         [32]byte
	DevClass        int32
	DevSubclass     int32
	SubdevicesCount uint32
	SubdevicesAvail uint32
	Sync            [16]byte
	Reserved        [64]byte
}

// sndPcmHwParams carries a configuration space across the ioctl
// boundary. Rmask selects the parameters the kernel should refine;
// Cmask reports the ones it changed.
type sndPcmHwParams struct {
	Flags     uint32
	Masks     [3]sndMask
	Mres      [5]sndMask
	Intervals [12]sndInterval
	Ires      [9]sndInterval
	Rmask     uint32
	Cmask     uint32
	Info      uint32
	Msbits    uint32
	RateNum   uint32
	RateDen   uint32
	FifoSize  SndPcmUframesT
	Reserved  [64]byte
}

// sndXferi is the argument of an interleaved frame transfer.
type sndXferi struct {
	Result clong
	Buf    uintptr
	Frames SndPcmUframesT
}

// sndXfern is the argument of a non-interleaved frame transfer; Bufs
// points at an array of per-channel buffer pointers.
type sndXfern struct {
	Result clong
	Bufs   uintptr
	Frames SndPcmUframesT
}

// sndPcmMmapControl is the application-owned half of the mapped
// pointer pages.
type sndPcmMmapControl struct {
	ApplPtr  SndPcmUframesT
	AvailMin SndPcmUframesT
}

// Flag bits of sndPcmSyncPtr. Without syncPtrAppl the kernel takes the
// application pointer from the caller; with it the direction reverses.
const (
	syncPtrHwsync   = 0x1
	syncPtrAppl     = 0x2
	syncPtrAvailMin = 0x4
)

// mmap offsets selecting the ring, status and control mappings.
const (
	mmapOffsetData    int64 = 0x00000000
	mmapOffsetStatus  int64 = 0x80000000
	mmapOffsetControl int64 = 0x81000000
)
