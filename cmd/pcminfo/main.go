package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	alsa "github.com/sidevesh/alsa-lib"
)

func main() {
	var (
		deviceName string
		card       int
		device     int
		stream     string
	)

	flag.StringVar(&deviceName, "pcm", "", "The PCM name to inspect (overrides -card/-device).")
	flag.IntVar(&card, "card", 0, "The sound card number.")
	flag.IntVar(&device, "device", 0, "The device number.")
	flag.StringVar(&stream, "stream", "playback", "The stream direction ('playback' or 'capture').")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Displays information about a PCM device and its configuration space.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	var dir alsa.Stream
	switch strings.ToLower(stream) {
	case "playback":
		dir = alsa.StreamPlayback
	case "capture":
		dir = alsa.StreamCapture
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid stream direction '%s'. Must be 'playback' or 'capture'.\n", stream)
		os.Exit(1)
	}

	if deviceName == "" {
		deviceName = fmt.Sprintf("hw:%d,%d", card, device)
	}

	pcm, err := alsa.Open(deviceName, dir, alsa.ModeNonblock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PCM device: %v\n", err)
		os.Exit(1)
	}
	defer pcm.Close()

	info, err := pcm.Info()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting device info: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("PCM %s, stream %s:\n", deviceName, stream)
	fmt.Printf("  card: %d\n", info.Card)
	fmt.Printf("  device: %d\n", info.Device)
	fmt.Printf("  subdevice: %d\n", info.Subdevice)
	fmt.Printf("  id: %s\n", info.ID)
	fmt.Printf("  name: %s\n", info.Name)
	fmt.Printf("  subname: %s\n", info.Subname)
	fmt.Printf("  subdevices: %d/%d\n", info.SubdevicesAvail, info.SubdevicesCount)

	var hw alsa.HwParams
	if err := pcm.HwParamsAny(&hw); err != nil {
		fmt.Fprintf(os.Stderr, "Error querying the configuration space: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nConfiguration space:")
	hw.Dump(os.Stdout)
}
