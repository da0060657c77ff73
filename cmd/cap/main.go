package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

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
		duration    int
		mmap        bool
	)

	flag.StringVar(&deviceName, "pcm", "", "The PCM name to capture from (overrides -card/-device)")
	flag.IntVar(&card, "card", 0, "The card to capture from")
	flag.IntVar(&device, "device", 0, "The device to capture from")
	flag.IntVar(&periodSize, "period-size", 1024, "The size of a period in frames")
	flag.IntVar(&periodCount, "period-count", 4, "The number of periods")
	flag.IntVar(&channels, "channels", 2, "The number of channels")
	flag.IntVar(&rate, "rate", 48000, "The sample rate in Hz")
	flag.StringVar(&formatStr, "format", "s16", "The sample format (s16, s24, s32)")
	flag.IntVar(&duration, "duration", 5, "The duration of the capture in seconds")
	flag.BoolVar(&mmap, "mmap", false, "Use memory-mapped (MMAP) I/O")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <output-wav-file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		for _, name := range []string{"pcm", "card", "device", "period-size", "period-count", "channels", "rate", "format", "duration", "mmap"} {
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

	outputPath := flag.Arg(0)

	format, bitDepth, err := determineFormat(formatStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error determining format: %v\n", err)
		os.Exit(1)
	}

	if deviceName == "" {
		deviceName = fmt.Sprintf("hw:%d,%d", card, device)
	}

	fmt.Printf("Capturing from PCM device: %s\n", deviceName)
	fmt.Printf("Configuration: %d channels, %d Hz, %s\n", channels, rate, alsa.FormatName(format))
	fmt.Printf("Period size: %d, Period count: %d\n", periodSize, periodCount)
	fmt.Printf("Capture duration: %d seconds\n", duration)
	fmt.Printf("Mode: %s\n", map[bool]string{false: "Standard I/O", true: "MMAP"}[mmap])

	pcm, err := alsa.Open(deviceName, alsa.StreamCapture, 0)
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
	if _, err := pcm.SetRateNear(&hw, uint32(rate)); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting rate: %v\n", err)
		os.Exit(1)
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

	wavFile, err := os.Create(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating WAV file: %v\n", err)
		os.Exit(1)
	}
	defer wavFile.Close()

	encoder := wav.NewEncoder(wavFile,
		int(pcm.Rate()),
		bitDepth,
		channels,
		1, // audio format 1 is PCM
	)
	defer encoder.Close()

	totalFramesToCapture := duration * int(pcm.Rate())
	framesCaptured := 0

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println("Starting capture... Press Ctrl+C to stop early.")

	chunkFrames := int(pcm.PeriodSize())
	chunkBytes, err := pcm.FramesToBytes(chunkFrames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sizing capture buffer: %v\n", err)
		os.Exit(1)
	}
	buffer := make([]byte, chunkBytes)

	// A capture stream produces nothing until started; the first Readi
	// auto-starts, MMAP needs an explicit kick.
	if mmap {
		if err := pcm.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting stream: %v\n", err)
			os.Exit(1)
		}
	}

	keepRunning := true
	for keepRunning && framesCaptured < totalFramesToCapture {
		select {
		case <-sigChan:
			fmt.Println("\nCapture interrupted by user.")
			keepRunning = false
		default:
			var read int
			var readErr error
			if mmap {
				read, readErr = mmapRead(pcm, buffer, chunkFrames, format)
			} else {
				read, readErr = pcm.Readi(buffer, chunkFrames)
			}

			if readErr != nil {
				fmt.Fprintf(os.Stderr, "Error reading from PCM device: %v\n", readErr)
				if errors.Is(readErr, syscall.EPIPE) {
					fmt.Fprintln(os.Stderr, "Got EPIPE (overrun); recovering with Prepare.")
					if err := pcm.Prepare(); err == nil {
						if !mmap || pcm.Start() == nil {
							continue
						}
					}
				}
				keepRunning = false
				continue
			}

			if read > 0 {
				readBytes, err := pcm.FramesToBytes(read)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error converting frames: %v\n", err)
					break
				}

				intBuffer, err := bytesToIntBuffer(buffer[:readBytes], format, channels)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error converting buffer: %v\n", err)
					break
				}

				if err := encoder.Write(intBuffer); err != nil {
					fmt.Fprintf(os.Stderr, "Error writing to WAV file: %v\n", err)
					break
				}

				framesCaptured += read
			}
		}
	}

	if mmap {
		pcm.Drop()
	}

	durationCaptured := time.Duration(float64(framesCaptured)/float64(pcm.Rate())) * time.Second
	fmt.Printf("Capture finished. Wrote %d frames (%.2f seconds) to %s\n", framesCaptured, durationCaptured.Seconds(), outputPath)
}

// mmapRead pulls up to frames frames out of the mapped ring into the
// interleaved buffer.
func mmapRead(pcm *alsa.PCM, buffer []byte, frames int, format alsa.Format) (int, error) {
	dst := pcm.AreasFromBuf(buffer)
	read := 0
	for read < frames {
		areas, offset, actual, err := pcm.MmapBegin(frames - read)
		if err != nil {
			return read, err
		}
		if actual == 0 {
			if read > 0 {
				return read, nil
			}
			if _, err := pcm.Wait(-1); err != nil {
				return read, err
			}
			continue
		}
		err = alsa.AreasCopy(dst, read, areas, offset, int(pcm.Channels()), actual, format)
		if err != nil {
			return read, err
		}
		committed, err := pcm.MmapCommit(offset, actual)
		read += committed
		if err != nil {
			return read, err
		}
	}
	return read, nil
}

// determineFormat maps a string identifier to a PCM format and WAV bit
// depth.
func determineFormat(formatStr string) (alsa.Format, int, error) {
	switch formatStr {
	case "s16":
		return alsa.FormatS16LE, 16, nil
	case "s24":
		// S24_LE carries 24 bits of data in a 32-bit slot; the wav
		// encoder wants the data width.
		return alsa.FormatS24LE, 24, nil
	case "s32":
		return alsa.FormatS32LE, 32, nil
	default:
		return 0, 0, fmt.Errorf("unsupported format: '%s'. Supported formats are s16, s24, s32", formatStr)
	}
}

// bytesToIntBuffer converts one chunk of raw interleaved samples into
// the audio.IntBuffer the go-audio/wav encoder consumes.
func bytesToIntBuffer(data []byte, format alsa.Format, channels int) (*audio.IntBuffer, error) {
	width, err := alsa.FormatPhysicalWidth(format)
	if err != nil {
		return nil, err
	}
	bytesPerSample := width / 8
	numSamples := len(data) / bytesPerSample
	intData := make([]int, numSamples)

	offset := 0
	for i := 0; i < numSamples; i++ {
		switch format {
		case alsa.FormatS16LE:
			intData[i] = int(int16(binary.LittleEndian.Uint16(data[offset:])))
		case alsa.FormatS24LE:
			// 24 bits of data in the low three bytes; sign-extend.
			val := uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16
			if val&0x800000 != 0 {
				val |= 0xFF000000
			}
			intData[i] = int(int32(val))
		case alsa.FormatS32LE:
			intData[i] = int(int32(binary.LittleEndian.Uint32(data[offset:])))
		default:
			return nil, fmt.Errorf("unhandled format in conversion: %s", alsa.FormatName(format))
		}
		offset += bytesPerSample
	}

	bitDepth := 0
	switch format {
	case alsa.FormatS16LE:
		bitDepth = 16
	case alsa.FormatS24LE:
		bitDepth = 24
	case alsa.FormatS32LE:
		bitDepth = 32
	}

	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
		},
		Data:           intData,
		SourceBitDepth: bitDepth,
	}, nil
}
