package alsa

import "fmt"

var formatNames = map[Format]string{
	FormatS8:               "S8",
	FormatU8:               "U8",
	FormatS16LE:            "S16_LE",
	FormatS16BE:            "S16_BE",
	FormatU16LE:            "U16_LE",
	FormatU16BE:            "U16_BE",
	FormatS24LE:            "S24_LE",
	FormatS24BE:            "S24_BE",
	FormatU24LE:            "U24_LE",
	FormatU24BE:            "U24_BE",
	FormatS32LE:            "S32_LE",
	FormatS32BE:            "S32_BE",
	FormatU32LE:            "U32_LE",
	FormatU32BE:            "U32_BE",
	FormatFloatLE:          "FLOAT_LE",
	FormatFloatBE:          "FLOAT_BE",
	FormatFloat64LE:        "FLOAT64_LE",
	FormatFloat64BE:        "FLOAT64_BE",
	FormatIEC958SubframeLE: "IEC958_SUBFRAME_LE",
	FormatIEC958SubframeBE: "IEC958_SUBFRAME_BE",
	FormatMuLaw:            "MU_LAW",
	FormatALaw:             "A_LAW",
	FormatImaADPCM:         "IMA_ADPCM",
	FormatMPEG:             "MPEG",
	FormatGSM:              "GSM",
	FormatSpecial:          "SPECIAL",
}

var formatDescriptions = map[Format]string{
	FormatS8:               "Signed 8 bit",
	FormatU8:               "Unsigned 8 bit",
	FormatS16LE:            "Signed 16 bit Little Endian",
	FormatS16BE:            "Signed 16 bit Big Endian",
	FormatU16LE:            "Unsigned 16 bit Little Endian",
	FormatU16BE:            "Unsigned 16 bit Big Endian",
	FormatS24LE:            "Signed 24 bit Little Endian",
	FormatS24BE:            "Signed 24 bit Big Endian",
	FormatU24LE:            "Unsigned 24 bit Little Endian",
	FormatU24BE:            "Unsigned 24 bit Big Endian",
	FormatS32LE:            "Signed 32 bit Little Endian",
	FormatS32BE:            "Signed 32 bit Big Endian",
	FormatU32LE:            "Unsigned 32 bit Little Endian",
	FormatU32BE:            "Unsigned 32 bit Big Endian",
	FormatFloatLE:          "Float 32 bit Little Endian",
	FormatFloatBE:          "Float 32 bit Big Endian",
	FormatFloat64LE:        "Float 64 bit Little Endian",
	FormatFloat64BE:        "Float 64 bit Big Endian",
	FormatIEC958SubframeLE: "IEC-958 Little Endian",
	FormatIEC958SubframeBE: "IEC-958 Big Endian",
	FormatMuLaw:            "Mu-Law",
	FormatALaw:             "A-Law",
	FormatImaADPCM:         "Ima-ADPCM",
	FormatMPEG:             "MPEG",
	FormatGSM:              "GSM",
	FormatSpecial:          "Special",
}

// FormatName returns the canonical name of a format, for example "S16_LE".
func FormatName(f Format) string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return "UNKNOWN"
}

// FormatDescription returns a human-readable description of a format.
func FormatDescription(f Format) string {
	if d, ok := formatDescriptions[f]; ok {
		return d
	}
	return "Unknown"
}

// FormatValue resolves a canonical format name back to its Format value.
func FormatValue(name string) (Format, error) {
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, errInvalid(fmt.Sprintf("format name %q", name))
}

// FormatWidth returns the number of significant bits per sample, or an
// EINVAL error for formats without a defined width.
func FormatWidth(f Format) (int, error) {
	switch f {
	case FormatS8, FormatU8:
		return 8, nil
	case FormatS16LE, FormatS16BE, FormatU16LE, FormatU16BE:
		return 16, nil
	case FormatS24LE, FormatS24BE, FormatU24LE, FormatU24BE:
		return 24, nil
	case FormatS32LE, FormatS32BE, FormatU32LE, FormatU32BE,
		FormatFloatLE, FormatFloatBE, FormatIEC958SubframeLE, FormatIEC958SubframeBE:
		return 32, nil
	case FormatFloat64LE, FormatFloat64BE:
		return 64, nil
	case FormatMuLaw, FormatALaw:
		return 8, nil
	case FormatImaADPCM:
		return 4, nil
	}
	return 0, errInvalid("format width for " + FormatName(f))
}

// FormatPhysicalWidth returns the number of bits a sample occupies in
// memory, or an EINVAL error for opaque formats.
func FormatPhysicalWidth(f Format) (int, error) {
	switch f {
	case FormatS8, FormatU8, FormatMuLaw, FormatALaw:
		return 8, nil
	case FormatS16LE, FormatS16BE, FormatU16LE, FormatU16BE:
		return 16, nil
	case FormatS24LE, FormatS24BE, FormatU24LE, FormatU24BE,
		FormatS32LE, FormatS32BE, FormatU32LE, FormatU32BE,
		FormatFloatLE, FormatFloatBE, FormatIEC958SubframeLE, FormatIEC958SubframeBE:
		return 32, nil
	case FormatFloat64LE, FormatFloat64BE:
		return 64, nil
	case FormatImaADPCM:
		return 4, nil
	}
	return 0, errInvalid("format physical width for " + FormatName(f))
}

// FormatLinear reports whether a format is linear PCM.
func FormatLinear(f Format) bool {
	switch f {
	case FormatS8, FormatU8,
		FormatS16LE, FormatS16BE, FormatU16LE, FormatU16BE,
		FormatS24LE, FormatS24BE, FormatU24LE, FormatU24BE,
		FormatS32LE, FormatS32BE, FormatU32LE, FormatU32BE:
		return true
	}
	return false
}

// FormatSigned reports whether a linear format carries signed samples.
// Non-linear formats return an EINVAL error.
func FormatSigned(f Format) (bool, error) {
	switch f {
	case FormatS8, FormatS16LE, FormatS16BE, FormatS24LE, FormatS24BE,
		FormatS32LE, FormatS32BE:
		return true, nil
	case FormatU8, FormatU16LE, FormatU16BE, FormatU24LE, FormatU24BE,
		FormatU32LE, FormatU32BE:
		return false, nil
	}
	return false, errInvalid("format signedness for " + FormatName(f))
}

// FormatLittleEndian reports whether a format stores samples little
// endian. Endian-less formats return an EINVAL error.
func FormatLittleEndian(f Format) (bool, error) {
	switch f {
	case FormatS16LE, FormatU16LE, FormatS24LE, FormatU24LE,
		FormatS32LE, FormatU32LE, FormatFloatLE, FormatFloat64LE,
		FormatIEC958SubframeLE:
		return true, nil
	case FormatS16BE, FormatU16BE, FormatS24BE, FormatU24BE,
		FormatS32BE, FormatU32BE, FormatFloatBE, FormatFloat64BE,
		FormatIEC958SubframeBE:
		return false, nil
	}
	return false, errInvalid("format endianness for " + FormatName(f))
}

// formatSilence returns the 8-byte repeating silence pattern of a format.
// The pattern repeats at the format's physical width, so any physical-width
// aligned slice of it is one silent sample.
func formatSilence(f Format) [8]byte {
	switch f {
	case FormatU8:
		return [8]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
	case FormatU16LE:
		return [8]byte{0x00, 0x80, 0x00, 0x80, 0x00, 0x80, 0x00, 0x80}
	case FormatU16BE:
		return [8]byte{0x80, 0x00, 0x80, 0x00, 0x80, 0x00, 0x80, 0x00}
	case FormatU24LE:
		return [8]byte{0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x80, 0x00}
	case FormatU24BE:
		return [8]byte{0x00, 0x80, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00}
	case FormatU32LE:
		return [8]byte{0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x80}
	case FormatU32BE:
		return [8]byte{0x80, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00}
	case FormatMuLaw:
		return [8]byte{0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f}
	case FormatALaw:
		return [8]byte{0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55}
	}
	return [8]byte{}
}
