//go:build linux && (386 || arm)

package alsa

// SndPcmUframesT is an unsigned frame count, an unsigned long in the
// kernel headers: 32 bits wide on these architectures.
type SndPcmUframesT = uint32

// SndPcmSframesT is a signed frame count, a long in the kernel headers.
type SndPcmSframesT = int32

// clong mirrors the C long type.
type clong = int32

// clongMax is the largest value a C long holds on this word size.
const clongMax = 1<<31 - 1

// kernelTimespec matches the legacy 32-bit timespec the kernel writes
// into the mapped status page.
type kernelTimespec struct {
	Sec  int32
	Nsec int32
}

// sndPcmMmapStatus is the kernel-owned half of the mapped pointer
// pages. Everything is naturally 4-aligned on this word size.
type sndPcmMmapStatus struct {
	State          int32
	Pad1           int32
	HwPtr          SndPcmUframesT
	Tstamp         kernelTimespec
	SuspendedState int32
	AudioTstamp    kernelTimespec
}

// sndPcmSyncPtr is the SYNC_PTR ioctl argument. Both unions are padded
// to the kernel's fixed 64 bytes.
type sndPcmSyncPtr struct {
	Flags uint32
	S     struct {
		sndPcmMmapStatus
		_ [32]byte
	}
	C struct {
		sndPcmMmapControl
		_ [56]byte
	}
}

// sndPcmSwParams is the SW_PARAMS ioctl argument.
type sndPcmSwParams struct {
	TstampMode       int32
	PeriodStep       uint32
	SleepMin         uint32
	AvailMin         SndPcmUframesT
	XferAlign        SndPcmUframesT
	StartThreshold   SndPcmUframesT
	StopThreshold    SndPcmUframesT
	SilenceThreshold SndPcmUframesT
	SilenceSize      SndPcmUframesT
	Boundary         SndPcmUframesT
	Reserved         [64]byte
}
