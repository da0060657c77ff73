package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-audio/audio"

	alsa "github.com/sidevesh/alsa-lib"
)

func main() {
	var (
		deviceName  string
		card        int
		device      int
		periodSize  int
		periodCount int
		channels    int
		rate        int
		formatStr   string
		mmap        bool
	)

	flag.StringVar(&deviceName, "pcm", "", "The PCM name to play on (overrides -card/-device)")
	flag.IntVar(&card, "card", 0, "The card to receive the audio")
	flag.IntVar(&device, "device", 0, "The device to receive the audio")
	flag.IntVar(&periodSize, "period-size", 1024, "The size of a period in frames")
	flag.IntVar(&periodCount, "period-count", 4, "The number of periods")
	flag.IntVar(&channels, "channels", 0, "The amount of channels per frame (0 = use the file's channels)")
	flag.IntVar(&rate, "rate", 0, "The amount of frames per second (0 = use the file's rate)")
	flag.StringVar(&formatStr, "format", "", "The sample format (s8, s16, s24, s32, float, float64)")
	flag.BoolVar(&mmap, "mmap", false, "Use memory-mapped (MMAP) I/O")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <wav-or-mp3-file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		for _, name := range []string{"pcm", "card", "device", "period-size", "period-count", "channels", "rate", "format", "mmap"} {
			f := flag.Lookup(name)
			if f != nil {
				fmt.Fprintf(os.Stderr, "  --%s\n    \t%v (default %q)\n", f.Name, f.Usage, f.DefValue)
			}
		}
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	path := flag.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	var decoder AudioDecoder
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		decoder, err = newMp3Decoder(file)
	default:
		decoder, err = newWavDecoder(file)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening decoder: %v\n", err)
		os.Exit(1)
	}

	if channels <= 0 {
		channels = int(decoder.NumChans())
	}
	if rate <= 0 {
		rate = int(decoder.SampleRate())
	}

	format, err := determineFormat(formatStr, decoder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error determining format: %v\n", err)
		os.Exit(1)
	}

	if deviceName == "" {
		deviceName = fmt.Sprintf("hw:%d,%d", card, device)
	}

	fmt.Printf("Playing audio file: %s\n", path)
	fmt.Printf("PCM device: %s\n", deviceName)
	fmt.Printf("Configuration: %d channels, %d Hz, %s\n", channels, rate, alsa.FormatName(format))
	fmt.Printf("Period size: %d, Period count: %d\n", periodSize, periodCount)
	fmt.Printf("Mode: %s\n", map[bool]string{false: "Standard I/O", true: "MMAP"}[mmap])

	pcm, err := alsa.Open(deviceName, alsa.StreamPlayback, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PCM device: %v\n", err)
		os.Exit(1)
	}
	defer pcm.Close()

	access := alsa.AccessRWInterleaved
	if mmap {
		access = alsa.AccessMmapInterleaved
	}

	var hw alsa.HwParams
	if err := pcm.HwParamsAny(&hw); err != nil {
		fmt.Fprintf(os.Stderr, "Error querying hardware parameters: %v\n", err)
		os.Exit(1)
	}
	if err := pcm.SetAccess(&hw, access); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting access: %v\n", err)
		os.Exit(1)
	}
	if err := pcm.SetFormat(&hw, format); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting format: %v\n", err)
		os.Exit(1)
	}
	if err := pcm.SetChannels(&hw, uint32(channels)); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting channels: %v\n", err)
		os.Exit(1)
	}
	gotRate, err := pcm.SetRateNear(&hw, uint32(rate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting rate: %v\n", err)
		os.Exit(1)
	}
	if gotRate != uint32(rate) {
		fmt.Printf("Rate adjusted to %d Hz\n", gotRate)
	}
	gotPeriod, err := pcm.SetPeriodSizeNear(&hw, uint32(periodSize))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting period size: %v\n", err)
		os.Exit(1)
	}
	if _, err := pcm.SetBufferSizeNear(&hw, gotPeriod*uint32(periodCount)); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting buffer size: %v\n", err)
		os.Exit(1)
	}
	if err := pcm.HwParamsInstall(&hw); err != nil {
		fmt.Fprintf(os.Stderr, "Error installing hardware parameters: %v\n", err)
		os.Exit(1)
	}
	if err := pcm.Prepare(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing stream: %v\n", err)
		os.Exit(1)
	}

	totalDuration, err := decoder.Duration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting audio duration: %v\n", err)
		os.Exit(1)
	}
	totalFrames := int(totalDuration.Seconds() * float64(decoder.SampleRate()))
	framesWritten := 0

	fmt.Println("Starting playback...")
	startTime := time.Now()

	chunkFrames := int(pcm.PeriodSize())
	pcmBuffer := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(decoder.NumChans()),
			SampleRate:  int(decoder.SampleRate()),
		},
		Data: make([]int, chunkFrames*int(decoder.NumChans())),
	}

	for {
		// n is the number of SAMPLES read from the decoder.
		n, err := decoder.PCMBuffer(pcmBuffer)
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(os.Stderr, "Error reading PCM buffer: %v\n", err)
			os.Exit(1)
		}
		if n == 0 {
			break
		}

		samples := pcmBuffer.Data[:n]
		framesInChunk := n / channels

		chunk, err := encodeSamples(samples, format, int(decoder.BitDepth()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error converting samples: %v\n", err)
			os.Exit(1)
		}

		var writeErr error
		if mmap {
			var wrote int
			wrote, writeErr = mmapWrite(pcm, chunk, framesInChunk, format)
			framesWritten += wrote
		} else {
			var wrote int
			wrote, writeErr = pcm.Writei(chunk, framesInChunk)
			framesWritten += wrote
		}

		if writeErr != nil {
			fmt.Fprintf(os.Stderr, "Error writing to PCM device: %v\n", writeErr)
			if errors.Is(writeErr, syscall.EPIPE) {
				fmt.Fprintln(os.Stderr, "Got EPIPE (underrun); recovering with Prepare.")
				if err := pcm.Prepare(); err == nil {
					continue
				}
			}
			break
		}
	}

	pcm.Drain()

	fmt.Printf("Playback finished in %v. (%d/%d frames played)\n", time.Since(startTime), framesWritten, totalFrames)
}

// mmapWrite pushes one interleaved chunk through the mapped ring,
// window by window.
func mmapWrite(pcm *alsa.PCM, chunk []byte, frames int, format alsa.Format) (int, error) {
	src := pcm.AreasFromBuf(chunk)
	written := 0
	for written < frames {
		areas, offset, actual, err := pcm.MmapBegin(frames - written)
		if err != nil {
			return written, err
		}
		if actual == 0 {
			if _, err := pcm.Wait(-1); err != nil {
				return written, err
			}
			continue
		}
		err = alsa.AreasCopy(areas, offset, src, written, int(pcm.Channels()), actual, format)
		if err != nil {
			return written, err
		}
		committed, err := pcm.MmapCommit(offset, actual)
		written += committed
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// encodeSamples packs the decoder's generic []int samples into the wire
// layout of the requested format, scaling from the source bit depth.
func encodeSamples(samples []int, f alsa.Format, srcBits int) ([]byte, error) {
	width, err := alsa.FormatPhysicalWidth(f)
	if err != nil {
		return nil, err
	}
	step := width / 8
	out := make([]byte, len(samples)*step)

	// Normalize integer samples to the float range [-1.0, 1.0].
	toFloat := func(s int) float64 {
		return float64(s) / float64(int(1)<<(srcBits-1))
	}

	for i, s := range samples {
		off := i * step
		switch f {
		case alsa.FormatS8:
			out[off] = byte(int8(s >> (srcBits - 8)))
		case alsa.FormatS16LE:
			v := s
			if srcBits > 16 {
				v >>= srcBits - 16
			} else if srcBits < 16 {
				v <<= 16 - srcBits
			}
			if v > math.MaxInt16 {
				v = math.MaxInt16
			} else if v < math.MinInt16 {
				v = math.MinInt16
			}
			binary.LittleEndian.PutUint16(out[off:], uint16(int16(v)))
		case alsa.FormatS24LE, alsa.FormatS32LE:
			dstBits := 32
			if f == alsa.FormatS24LE {
				dstBits = 24
			}
			v := int64(s)
			if srcBits > dstBits {
				v >>= srcBits - dstBits
			} else if srcBits < dstBits {
				v <<= dstBits - srcBits
			}
			binary.LittleEndian.PutUint32(out[off:], uint32(int32(v)))
		case alsa.FormatFloatLE:
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(float32(toFloat(s))))
		case alsa.FormatFloat64LE:
			binary.LittleEndian.PutUint64(out[off:], math.Float64bits(toFloat(s)))
		default:
			return nil, fmt.Errorf("format %s not handled in conversion", alsa.FormatName(f))
		}
	}
	return out, nil
}

// determineFormat selects the PCM format from the flag or the decoder.
func determineFormat(formatStr string, decoder AudioDecoder) (alsa.Format, error) {
	if formatStr != "" {
		switch formatStr {
		case "s8":
			return alsa.FormatS8, nil
		case "s16":
			return alsa.FormatS16LE, nil
		case "s24":
			return alsa.FormatS24LE, nil
		case "s32":
			return alsa.FormatS32LE, nil
		case "float":
			return alsa.FormatFloatLE, nil
		case "float64":
			return alsa.FormatFloat64LE, nil
		default:
			return 0, fmt.Errorf("unsupported format string: %s", formatStr)
		}
	}

	if decoder.IsFloat() {
		switch decoder.BitDepth() {
		case 32:
			return alsa.FormatFloatLE, nil
		case 64:
			return alsa.FormatFloat64LE, nil
		default:
			return 0, fmt.Errorf("unsupported float bit depth: %d", decoder.BitDepth())
		}
	}

	switch decoder.BitDepth() {
	case 8:
		return alsa.FormatS8, nil
	case 16:
		return alsa.FormatS16LE, nil
	case 24:
		return alsa.FormatS24LE, nil
	case 32:
		return alsa.FormatS32LE, nil
	default:
		return 0, fmt.Errorf("unsupported integer bit depth: %d", decoder.BitDepth())
	}
}
