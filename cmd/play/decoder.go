package main

import (
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// AudioDecoder lets the playback loop treat WAV and MP3 sources
// uniformly.
type AudioDecoder interface {
	// PCMBuffer fills buf with decoded samples and returns how many
	// samples (not frames) were read.
	PCMBuffer(buf *audio.IntBuffer) (n int, err error)
	Duration() (time.Duration, error)
	NumChans() uint16
	SampleRate() uint32
	BitDepth() uint16
	IsFloat() bool
}

type wavDecoderWrapper struct {
	*wav.Decoder
}

func newWavDecoder(r io.ReadSeeker) (AudioDecoder, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	return &wavDecoderWrapper{Decoder: decoder}, nil
}

func (w *wavDecoderWrapper) SampleRate() uint32 { return w.Decoder.SampleRate }
func (w *wavDecoderWrapper) NumChans() uint16   { return w.Decoder.NumChans }
func (w *wavDecoderWrapper) BitDepth() uint16   { return uint16(w.Decoder.BitDepth) }
func (w *wavDecoderWrapper) IsFloat() bool      { return w.Decoder.WavAudioFormat == 3 } // 3 == IEEE float

// mp3DecoderWrapper adapts go-mp3, which always decodes to 16-bit
// stereo.
type mp3DecoderWrapper struct {
	decoder    *mp3.Decoder
	sampleRate uint32
	length     int64 // total decoded size in bytes
}

func newMp3Decoder(r io.Reader) (AudioDecoder, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &mp3DecoderWrapper{
		decoder:    decoder,
		sampleRate: uint32(decoder.SampleRate()),
		length:     decoder.Length(),
	}, nil
}

func (m *mp3DecoderWrapper) PCMBuffer(buf *audio.IntBuffer) (n int, err error) {
	byteBuf := make([]byte, len(buf.Data)*2)
	bytesRead, err := m.decoder.Read(byteBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	samplesRead := bytesRead / 2
	for i := 0; i < samplesRead; i++ {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(byteBuf[i*2:])))
	}
	return samplesRead, err
}

func (m *mp3DecoderWrapper) Duration() (time.Duration, error) {
	bytesPerFrame := int64(m.NumChans()) * 2
	totalFrames := m.length / bytesPerFrame
	seconds := float64(totalFrames) / float64(m.sampleRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

func (m *mp3DecoderWrapper) SampleRate() uint32 { return m.sampleRate }
func (m *mp3DecoderWrapper) NumChans() uint16   { return 2 }
func (m *mp3DecoderWrapper) BitDepth() uint16   { return 16 }
func (m *mp3DecoderWrapper) IsFloat() bool      { return false }
