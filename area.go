package alsa

// Area describes where one channel's samples live in memory. Sample n of
// the channel occupies the format's physical width in bits starting at bit
// First + n*Step of Addr.
type Area struct {
	Addr  []byte
	First int
	Step  int
}

// byteOff returns the byte offset of sample number offset in the area.
func (a *Area) byteOff(offset int) int {
	return (a.First + a.Step*offset) / 8
}

func sameBuf(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}

// AreasFromBuf builds the channel areas of an interleaved buffer: channel c
// starts c samples in and strides by a whole frame.
func (p *PCM) AreasFromBuf(buf []byte) []Area {
	areas := make([]Area, p.channels)
	for c := range areas {
		areas[c] = Area{
			Addr:  buf,
			First: c * int(p.sampleBits),
			Step:  int(p.frameBits),
		}
	}
	return areas
}

// AreasFromBufs builds the channel areas of a non-interleaved buffer set,
// one buffer per channel, each strided by one sample.
func (p *PCM) AreasFromBufs(bufs [][]byte) ([]Area, error) {
	if len(bufs) != int(p.channels) {
		return nil, errInvalid("buffer count does not match channels")
	}
	areas := make([]Area, p.channels)
	for c := range areas {
		areas[c] = Area{
			Addr:  bufs[c],
			First: 0,
			Step:  int(p.sampleBits),
		}
	}
	return areas, nil
}

// AreaSilence writes the silence pattern of format f into samples samples
// of a single area starting at sample dstOffset. A nil destination buffer
// is a no-op.
func AreaSilence(dst *Area, dstOffset, samples int, f Format) error {
	if dst.Addr == nil || samples == 0 {
		return nil
	}
	width, err := FormatPhysicalWidth(f)
	if err != nil {
		return err
	}
	pat := formatSilence(f)

	if width == 4 {
		return nibbleFill(dst, dstOffset, samples, pat[0])
	}
	if dst.First%8 != 0 || dst.Step%8 != 0 {
		return errInvalid("area not byte aligned")
	}

	wb := width / 8
	d := dst.byteOff(dstOffset)
	if dst.Step == width {
		end := d + samples*wb
		for i := d; i < end; i++ {
			dst.Addr[i] = pat[(i-d)%wb]
		}
		return nil
	}
	step := dst.Step / 8
	for n := 0; n < samples; n++ {
		copy(dst.Addr[d:d+wb], pat[:wb])
		d += step
	}
	return nil
}

// AreaCopy copies samples samples of format f from src to dst. A nil
// source buffer silences the destination instead; a nil destination buffer
// is a no-op.
func AreaCopy(dst *Area, dstOffset int, src *Area, srcOffset, samples int, f Format) error {
	if src.Addr == nil {
		return AreaSilence(dst, dstOffset, samples, f)
	}
	if dst.Addr == nil || samples == 0 {
		return nil
	}
	if sameBuf(dst.Addr, src.Addr) && dst.First == src.First &&
		dst.Step == src.Step && dstOffset == srcOffset {
		return nil
	}
	width, err := FormatPhysicalWidth(f)
	if err != nil {
		return err
	}

	if width == 4 {
		return nibbleCopy(dst, dstOffset, src, srcOffset, samples)
	}
	if dst.First%8 != 0 || dst.Step%8 != 0 || src.First%8 != 0 || src.Step%8 != 0 {
		return errInvalid("area not byte aligned")
	}

	wb := width / 8
	d := dst.byteOff(dstOffset)
	s := src.byteOff(srcOffset)
	if dst.Step == width && src.Step == width {
		copy(dst.Addr[d:d+samples*wb], src.Addr[s:s+samples*wb])
		return nil
	}
	dstep := dst.Step / 8
	sstep := src.Step / 8
	for n := 0; n < samples; n++ {
		copy(dst.Addr[d:d+wb], src.Addr[s:s+wb])
		d += dstep
		s += sstep
	}
	return nil
}

// nibbleFill is the 4-bit silence path. It keeps a bit cursor per sample;
// destinations that do not start on a nibble edge are rejected.
func nibbleFill(dst *Area, dstOffset, samples int, pat byte) error {
	bitOff := dst.First + dst.Step*dstOffset
	if bitOff%4 != 0 || dst.Step%4 != 0 {
		return errInvalid("4-bit destination not nibble aligned")
	}
	d := bitOff / 8
	dbit := bitOff % 8
	for n := 0; n < samples; n++ {
		if dbit != 0 {
			dst.Addr[d] = (dst.Addr[d] & 0x0f) | (pat & 0xf0)
		} else {
			dst.Addr[d] = (dst.Addr[d] & 0xf0) | (pat & 0x0f)
		}
		dbit += dst.Step
		d += dbit / 8
		dbit %= 8
	}
	return nil
}

// nibbleCopy is the 4-bit copy path with separate source and destination
// bit cursors.
func nibbleCopy(dst *Area, dstOffset int, src *Area, srcOffset, samples int) error {
	dOff := dst.First + dst.Step*dstOffset
	sOff := src.First + src.Step*srcOffset
	if dOff%4 != 0 || dst.Step%4 != 0 {
		return errInvalid("4-bit destination not nibble aligned")
	}
	if sOff%4 != 0 || src.Step%4 != 0 {
		return errInvalid("4-bit source not nibble aligned")
	}
	d, dbit := dOff/8, dOff%8
	s, sbit := sOff/8, sOff%8
	for n := 0; n < samples; n++ {
		var v byte
		if sbit != 0 {
			v = src.Addr[s] >> 4
		} else {
			v = src.Addr[s] & 0x0f
		}
		if dbit != 0 {
			dst.Addr[d] = (dst.Addr[d] & 0x0f) | (v << 4)
		} else {
			dst.Addr[d] = (dst.Addr[d] & 0xf0) | v
		}
		dbit += dst.Step
		d += dbit / 8
		dbit %= 8
		sbit += src.Step
		s += sbit / 8
		sbit %= 8
	}
	return nil
}

// AreasSilence silences frames frames across channels channel areas.
// Contiguous channels sharing one buffer with step equal to the combined
// width collapse into a single wide run.
func AreasSilence(dst []Area, dstOffset, channels, frames int, f Format) error {
	width, err := FormatPhysicalWidth(f)
	if err != nil {
		return err
	}
	i := 0
	for channels > 0 {
		begin := i
		chns := 1
		for chns < channels &&
			sameBuf(dst[begin+chns].Addr, dst[begin].Addr) &&
			dst[begin+chns].First == dst[begin+chns-1].First+width &&
			dst[begin+chns].Step == dst[begin].Step {
			chns++
		}
		if chns > 1 && chns*width == dst[begin].Step {
			run := Area{Addr: dst[begin].Addr, First: dst[begin].First, Step: width}
			if err := AreaSilence(&run, dstOffset*chns, frames*chns, f); err != nil {
				return err
			}
			i += chns
			channels -= chns
		} else {
			if err := AreaSilence(&dst[begin], dstOffset, frames, f); err != nil {
				return err
			}
			i = begin + 1
			channels--
		}
	}
	return nil
}

// AreasCopy copies frames frames across channels channel areas, collapsing
// matching contiguous source and destination runs into single wide copies.
func AreasCopy(dst []Area, dstOffset int, src []Area, srcOffset, channels, frames int, f Format) error {
	width, err := FormatPhysicalWidth(f)
	if err != nil {
		return err
	}
	i := 0
	for channels > 0 {
		begin := i
		step := src[begin].Step
		chns := 1
		for dst[begin].Step == step && chns < channels &&
			sameBuf(src[begin+chns].Addr, src[begin].Addr) &&
			sameBuf(dst[begin+chns].Addr, dst[begin].Addr) &&
			src[begin+chns].Step == step &&
			dst[begin+chns].Step == step &&
			src[begin+chns].First == src[begin+chns-1].First+width &&
			dst[begin+chns].First == dst[begin+chns-1].First+width {
			chns++
		}
		if chns > 1 && chns*width == step && dst[begin].Step == step {
			s := Area{Addr: src[begin].Addr, First: src[begin].First, Step: width}
			d := Area{Addr: dst[begin].Addr, First: dst[begin].First, Step: width}
			if err := AreaCopy(&d, dstOffset*chns, &s, srcOffset*chns, frames*chns, f); err != nil {
				return err
			}
			i += chns
			channels -= chns
		} else {
			if err := AreaCopy(&dst[begin], dstOffset, &src[begin], srcOffset, frames, f); err != nil {
				return err
			}
			i = begin + 1
			channels--
		}
	}
	return nil
}
