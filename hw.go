package alsa

import (
	"fmt"
	"io"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// hwDev drives a kernel PCM device node. The kernel owns the stream
// state and the hardware pointer; both are read from the mapped status
// page, with a SYNC_PTR ioctl fallback for drivers that refuse the
// status and control mappings.
type hwDev struct {
	p  *PCM
	fd int

	card      int
	device    int
	subdevice int
	devInfo   Info

	statusMap  []byte
	controlMap []byte
	mmapStatus *sndPcmMmapStatus
	control    *sndPcmMmapControl
	syncPtr    *sndPcmSyncPtr

	ringMap  []byte
	trigTime time.Time
}

func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func openHw(name string, card, device, subdevice int, stream Stream, mode Mode) (*PCM, error) {
	suffix := "p"
	if stream == StreamCapture {
		suffix = "c"
	}
	path := fmt.Sprintf("/dev/snd/pcmC%dD%d%s", card, device, suffix)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	d := &hwDev{fd: fd, card: card, device: device, subdevice: subdevice}
	p := newPCM(name, "hw", stream, mode)
	d.p = p
	p.ops = d
	p.fastOps = d
	p.opArg = d
	p.fastOpArg = d
	p.pollFD = fd

	var inf sndPcmInfo
	if err := ioctl(uintptr(fd), SNDRV_PCM_IOCTL_INFO, uintptr(unsafe.Pointer(&inf))); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("pcm info: %w", err)
	}
	if subdevice >= 0 && uint32(subdevice) != inf.Subdevice {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("subdevice %d not free: %w", subdevice, unix.EBUSY)
	}
	d.devInfo = Info{
		Card:            int(inf.Card),
		Device:          inf.Device,
		Subdevice:       inf.Subdevice,
		Stream:          stream,
		ID:              cstr(inf.Id[:]),
		Name:            cstr(inf.Name[:]),
		Subname:         cstr(inf.Subname[:]),
		SubdevicesCount: inf.SubdevicesCount,
		SubdevicesAvail: inf.SubdevicesAvail,
	}

	if mode&ModeNonblock == 0 {
		if err := d.setNonblock(false); err != nil {
			_ = unix.Close(fd)
			return nil, err
		}
	}
	d.mapPointerPages()
	p.log().WithField("path", path).Debug("hw device open")
	return p, nil
}

// mapPointerPages maps the shared status and control pages. Drivers
// that refuse either mapping fall back to SYNC_PTR, where both halves
// live in the ioctl argument instead.
func (d *hwDev) mapPointerPages() {
	pageSize := unix.Getpagesize()
	s, err := unix.Mmap(d.fd, mmapOffsetStatus, pageSize, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		c, err2 := unix.Mmap(d.fd, mmapOffsetControl, pageSize,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err2 == nil {
			d.statusMap = s
			d.controlMap = c
			d.mmapStatus = (*sndPcmMmapStatus)(unsafe.Pointer(&s[0]))
			d.control = (*sndPcmMmapControl)(unsafe.Pointer(&c[0]))
			return
		}
		_ = unix.Munmap(s)
	}
	d.syncPtr = new(sndPcmSyncPtr)
	d.mmapStatus = &d.syncPtr.S.sndPcmMmapStatus
	d.control = &d.syncPtr.C.sndPcmMmapControl
	d.p.log().Debug("pointer pages unavailable, using sync_ptr")
}

// pushAppl publishes the engine's application pointer to the kernel and
// refreshes the hardware pointer on the way back.
func (d *hwDev) pushAppl() error {
	d.control.ApplPtr = SndPcmUframesT(d.p.applPtr.Load())
	d.control.AvailMin = SndPcmUframesT(d.p.availMin)
	if d.syncPtr != nil {
		d.syncPtr.Flags = 0
		if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_SYNC_PTR,
			uintptr(unsafe.Pointer(d.syncPtr))); err != nil {
			return fmt.Errorf("sync_ptr: %w", err)
		}
	}
	d.p.hwPtr.Store(uint64(d.mmapStatus.HwPtr))
	return nil
}

// pull refreshes the engine's pointer cells from the kernel, forcing a
// hardware pointer update first when hwsync is set.
func (d *hwDev) pull(hwsync bool) error {
	if d.syncPtr != nil {
		d.syncPtr.Flags = syncPtrAppl | syncPtrAvailMin
		if hwsync {
			d.syncPtr.Flags |= syncPtrHwsync
		}
		if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_SYNC_PTR,
			uintptr(unsafe.Pointer(d.syncPtr))); err != nil {
			return fmt.Errorf("sync_ptr: %w", err)
		}
	} else if hwsync {
		if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_HWSYNC, 0); err != nil {
			return fmt.Errorf("hwsync: %w", err)
		}
	}
	d.p.hwPtr.Store(uint64(d.mmapStatus.HwPtr))
	d.p.applPtr.Store(uint64(d.control.ApplPtr))
	return nil
}

func (d *hwDev) setNonblock(enable bool) error {
	fl, err := unix.FcntlInt(uintptr(d.fd), unix.F_GETFL, 0)
	if err != nil {
		return fmt.Errorf("fcntl getfl: %w", err)
	}
	if enable {
		fl |= unix.O_NONBLOCK
	} else {
		fl &^= unix.O_NONBLOCK
	}
	if _, err := unix.FcntlInt(uintptr(d.fd), unix.F_SETFL, fl); err != nil {
		return fmt.Errorf("fcntl setfl: %w", err)
	}
	return nil
}

// configuration space marshaling

func (hw *HwParams) toKernel(k *sndPcmHwParams) {
	*k = sndPcmHwParams{}
	for i := range hw.masks {
		k.Masks[i].Bits = hw.masks[i].bits
	}
	for i := range k.Mres {
		for w := range k.Mres[i].Bits {
			k.Mres[i].Bits[w] = ^uint32(0)
		}
	}
	for i := range hw.intervals {
		k.Intervals[i] = hw.intervals[i].toKernel()
	}
	for i := range k.Ires {
		k.Ires[i] = sndInterval{MinVal: 0, MaxVal: ^uint32(0)}
	}
	k.Rmask = ^uint32(0)
	k.Info = ^uint32(0)
}

func (hw *HwParams) fromKernel(k *sndPcmHwParams) {
	for i := range hw.masks {
		hw.masks[i].bits = k.Masks[i].Bits
	}
	for i := range hw.intervals {
		hw.intervals[i].fromKernel(&k.Intervals[i])
	}
	hw.info = k.Info
	hw.msbits = k.Msbits
	hw.rateNum, hw.rateDen = k.RateNum, k.RateDen
	hw.fifoSize = uint64(k.FifoSize)
}

func (i *interval) toKernel() sndInterval {
	k := sndInterval{MinVal: i.min, MaxVal: i.max}
	if i.openMin {
		k.Flags |= intervalOpenMin
	}
	if i.openMax {
		k.Flags |= intervalOpenMax
	}
	if i.integer {
		k.Flags |= intervalInteger
	}
	if i.empty {
		k.Flags |= intervalEmpty
	}
	return k
}

func (i *interval) fromKernel(k *sndInterval) {
	i.min, i.max = k.MinVal, k.MaxVal
	i.openMin = k.Flags&intervalOpenMin != 0
	i.openMax = k.Flags&intervalOpenMax != 0
	i.integer = k.Flags&intervalInteger != 0
	i.empty = k.Flags&intervalEmpty != 0
}

// slow ops

func (d *hwDev) close(any) error {
	if d.statusMap != nil {
		_ = unix.Munmap(d.statusMap)
		_ = unix.Munmap(d.controlMap)
		d.statusMap, d.controlMap = nil, nil
	}
	if d.ringMap != nil {
		_ = unix.Munmap(d.ringMap)
		d.ringMap = nil
	}
	if d.fd >= 0 {
		err := unix.Close(d.fd)
		d.fd = -1
		if err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	return nil
}

func (d *hwDev) info(any) (*Info, error) {
	inf := d.devInfo
	return &inf, nil
}

func (d *hwDev) nonblock(_ any, enable bool) error {
	return d.setNonblock(enable)
}

func (d *hwDev) async(any, bool) error { return nil }

func (d *hwDev) hwRefine(_ any, hw *HwParams) error {
	var k sndPcmHwParams
	hw.toKernel(&k)
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_HW_REFINE, uintptr(unsafe.Pointer(&k))); err != nil {
		return fmt.Errorf("hw_refine: %w", err)
	}
	hw.fromKernel(&k)
	return refineSpace(hw)
}

func (d *hwDev) hwParams(_ any, hw *HwParams) error {
	var k sndPcmHwParams
	hw.toKernel(&k)
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_HW_PARAMS, uintptr(unsafe.Pointer(&k))); err != nil {
		return fmt.Errorf("hw_params: %w", err)
	}
	hw.fromKernel(&k)

	d.p.hwPtr.Store(0)
	d.p.applPtr.Store(0)

	access := Access(hw.maskOf(ParamAccess).min())
	if access != AccessMmapInterleaved && access != AccessMmapNoninterleaved {
		return nil
	}
	return d.mapRing(hw, access)
}

// mapRing maps the DMA ring and publishes its channel areas.
func (d *hwDev) mapRing(hw *HwParams, access Access) error {
	get := func(p Param) uint32 { return hw.intervalOf(p).lowest() }
	bufferSize := uint64(get(ParamBufferSize))
	frameBits := uint64(get(ParamFrameBits))
	channels := get(ParamChannels)
	sampleBits := get(ParamSampleBits)

	size := int((bufferSize*frameBits + 7) / 8)
	b, err := unix.Mmap(d.fd, mmapOffsetData, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap ring: %w", err)
	}
	d.ringMap = b

	areas := make([]Area, channels)
	if access == AccessMmapInterleaved {
		for c := range areas {
			areas[c] = Area{
				Addr:  b,
				First: c * int(sampleBits),
				Step:  int(frameBits),
			}
		}
	} else {
		chanBytes := int(bufferSize * uint64(sampleBits) / 8)
		for c := range areas {
			areas[c] = Area{
				Addr: b[c*chanBytes : (c+1)*chanBytes],
				Step: int(sampleBits),
			}
		}
	}
	d.p.setMmapAreas(areas, nil)
	return nil
}

func (d *hwDev) hwFree(any) error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_HW_FREE, 0); err != nil {
		return fmt.Errorf("hw_free: %w", err)
	}
	return nil
}

func (d *hwDev) swParams(_ any, sw *SwParams) error {
	k := sndPcmSwParams{
		TstampMode:       int32(sw.TstampMode),
		PeriodStep:       sw.PeriodStep,
		SleepMin:         sw.SleepMin,
		AvailMin:         SndPcmUframesT(sw.AvailMin),
		XferAlign:        SndPcmUframesT(sw.XferAlign),
		StartThreshold:   SndPcmUframesT(sw.StartThreshold),
		StopThreshold:    SndPcmUframesT(sw.StopThreshold),
		SilenceThreshold: SndPcmUframesT(sw.SilenceThreshold),
		SilenceSize:      SndPcmUframesT(sw.SilenceSize),
		Boundary:         SndPcmUframesT(d.p.boundary),
	}
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_SW_PARAMS, uintptr(unsafe.Pointer(&k))); err != nil {
		return fmt.Errorf("sw_params: %w", err)
	}
	return nil
}

func (d *hwDev) dump(_ any, w io.Writer) {
	fmt.Fprintf(w, "type: %s\n", d.p.Type())
	fmt.Fprintf(w, "card: %d\ndevice: %d\nsubdevice: %d\n",
		d.devInfo.Card, d.devInfo.Device, d.devInfo.Subdevice)
	fmt.Fprintf(w, "id: %s\nname: %s\n", d.devInfo.ID, d.devInfo.Name)
}

// fast ops

func (d *hwDev) state(any) State {
	if d.syncPtr != nil {
		d.syncPtr.Flags = syncPtrAppl | syncPtrAvailMin
		_ = ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_SYNC_PTR,
			uintptr(unsafe.Pointer(d.syncPtr)))
	}
	return State(d.mmapStatus.State)
}

func (d *hwDev) status(any) (Status, error) {
	if err := d.pull(true); err != nil {
		return Status{}, err
	}
	p := d.p
	ts := d.mmapStatus.Tstamp
	return Status{
		State:       State(d.mmapStatus.State),
		TriggerTime: d.trigTime,
		Tstamp:      time.Unix(int64(ts.Sec), int64(ts.Nsec)),
		ApplPtr:     p.applPtr.Load(),
		HwPtr:       p.hwPtr.Load(),
		Delay:       p.delayFrames(),
		Avail:       uint64(p.availFrames()),
		AvailMax:    p.availMax,
	}, nil
}

func (d *hwDev) delay(any) (int64, error) {
	var fr SndPcmSframesT
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_DELAY, uintptr(unsafe.Pointer(&fr))); err != nil {
		return 0, fmt.Errorf("delay: %w", err)
	}
	return int64(fr), nil
}

func (d *hwDev) prepare(any) error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_PREPARE, 0); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	return d.pull(false)
}

func (d *hwDev) reset(any) error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_RESET, 0); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return d.pull(false)
}

func (d *hwDev) start(any) error {
	if err := d.pushAppl(); err != nil {
		return err
	}
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_START, 0); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	d.trigTime = time.Now()
	return nil
}

func (d *hwDev) drop(any) error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_DROP, 0); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	return nil
}

func (d *hwDev) drain(any) error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_DRAIN, 0); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}

func (d *hwDev) pause(_ any, enable bool) error {
	var v uintptr
	if enable {
		v = 1
	}
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_PAUSE, v); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

// resume leaves SUSPENDED without a full prepare where the driver
// supports power-management resume.
func (d *hwDev) resume() error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_RESUME, 0); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	return nil
}

func (d *hwDev) rewind(_ any, frames uint64) (uint64, error) {
	fr := SndPcmUframesT(frames)
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_REWIND, uintptr(unsafe.Pointer(&fr))); err != nil {
		return 0, fmt.Errorf("rewind: %w", err)
	}
	if err := d.pull(false); err != nil {
		return 0, err
	}
	return uint64(fr), nil
}

func (d *hwDev) availUpdate(any) (int64, error) {
	if err := d.pull(false); err != nil {
		return 0, err
	}
	return d.p.availFrames(), nil
}

func (d *hwDev) writei(_ any, buf []byte, frames uint64) (uint64, error) {
	x := sndXferi{Buf: uintptr(unsafe.Pointer(&buf[0])), Frames: SndPcmUframesT(frames)}
	err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_WRITEI_FRAMES, uintptr(unsafe.Pointer(&x)))
	runtime.KeepAlive(buf)
	if err != nil {
		return 0, fmt.Errorf("writei: %w", err)
	}
	return uint64(x.Result), d.pull(false)
}

func (d *hwDev) readi(_ any, buf []byte, frames uint64) (uint64, error) {
	x := sndXferi{Buf: uintptr(unsafe.Pointer(&buf[0])), Frames: SndPcmUframesT(frames)}
	err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_READI_FRAMES, uintptr(unsafe.Pointer(&x)))
	runtime.KeepAlive(buf)
	if err != nil {
		return 0, fmt.Errorf("readi: %w", err)
	}
	return uint64(x.Result), d.pull(false)
}

func (d *hwDev) xfern(bufs [][]byte, frames uint64, req uintptr, op string) (uint64, error) {
	ptrs := make([]uintptr, len(bufs))
	for i := range bufs {
		ptrs[i] = uintptr(unsafe.Pointer(&bufs[i][0]))
	}
	x := sndXfern{Bufs: uintptr(unsafe.Pointer(&ptrs[0])), Frames: SndPcmUframesT(frames)}
	err := ioctl(uintptr(d.fd), req, uintptr(unsafe.Pointer(&x)))
	runtime.KeepAlive(bufs)
	runtime.KeepAlive(ptrs)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return uint64(x.Result), d.pull(false)
}

func (d *hwDev) writen(_ any, bufs [][]byte, frames uint64) (uint64, error) {
	return d.xfern(bufs, frames, SNDRV_PCM_IOCTL_WRITEN_FRAMES, "writen")
}

func (d *hwDev) readn(_ any, bufs [][]byte, frames uint64) (uint64, error) {
	return d.xfern(bufs, frames, SNDRV_PCM_IOCTL_READN_FRAMES, "readn")
}

func (d *hwDev) mmapCommit(_ any, _ uint64, frames uint64) (uint64, error) {
	p := d.p
	p.applPtr.Store(advancePtr(p.applPtr.Load(), frames, p.boundary))
	if err := d.pushAppl(); err != nil {
		return 0, err
	}
	return frames, nil
}

func (d *hwDev) munmap(any) error {
	if d.ringMap == nil {
		return nil
	}
	if err := unix.Munmap(d.ringMap); err != nil {
		return fmt.Errorf("munmap ring: %w", err)
	}
	d.ringMap = nil
	return nil
}

func (d *hwDev) linkDescriptor(any) int { return d.fd }

func (d *hwDev) link(fd int) error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_LINK, uintptr(fd)); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	return nil
}

func (d *hwDev) unlink() error {
	if err := ioctl(uintptr(d.fd), SNDRV_PCM_IOCTL_UNLINK, 0); err != nil {
		return fmt.Errorf("unlink: %w", err)
	}
	return nil
}

// boundaryFor mirrors the kernel's wrap modulus: the buffer size doubled
// while the next doubling still fits a C long.
func (d *hwDev) boundaryFor(bufferSize uint64) uint64 {
	if bufferSize == 0 {
		return 0
	}
	b := bufferSize
	for b*2 <= clongMax-bufferSize {
		b *= 2
	}
	return b
}
