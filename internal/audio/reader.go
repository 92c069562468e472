// Package audio loads audio files into float sample buffers and writes debug
// WAV dumps. WAV files are decoded directly; other containers are transcoded
// to PCM WAV with ffmpeg first.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/youpy/go-wav"
)

const (
	formatPCM   = 1
	maxChannels = 2
	readChunk   = 4096
)

// ErrUnsupportedFormat is returned for WAV encodings the decoder cannot read
// directly (non-PCM data, odd bit depths, more than two channels).
var ErrUnsupportedFormat = errors.New("unsupported WAV format")

// Metadata describes a decoded audio file.
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
	SampleFmt  string
	Transcoded bool // true when the input went through ffmpeg first
}

// Signal holds decoded samples in [-1, 1], one slice per channel.
type Signal struct {
	Channels   [][]float64
	SampleRate int
}

// Len returns the number of samples per channel.
func (s *Signal) Len() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Len()) / float64(s.SampleRate)
}

// Channel returns the samples of channel i.
func (s *Signal) Channel(i int) ([]float64, error) {
	if i < 0 || i >= len(s.Channels) {
		return nil, fmt.Errorf("channel %d out of range (signal has %d)", i, len(s.Channels))
	}
	return s.Channels[i], nil
}

// Mix averages all channels into a new mono slice.
func (s *Signal) Mix() []float64 {
	n := s.Len()
	mono := make([]float64, n)
	if len(s.Channels) == 0 {
		return mono
	}
	for _, ch := range s.Channels {
		for i, v := range ch {
			mono[i] += v
		}
	}
	scale := 1 / float64(len(s.Channels))
	for i := range mono {
		mono[i] *= scale
	}
	return mono
}

// Load reads an audio file. Anything that is not a PCM WAV the decoder
// understands is transcoded to 16-bit WAV with ffmpeg and decoded from there;
// the transcode keeps up to two channels.
func Load(filename string) (*Signal, *Metadata, error) {
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		signal, meta, err := loadWAV(filename)
		if err == nil || !errors.Is(err, ErrUnsupportedFormat) {
			return signal, meta, err
		}
	}

	wavPath, err := ConvertToWAV(filename)
	if err != nil {
		return nil, nil, err
	}
	defer os.Remove(wavPath)

	signal, meta, err := loadWAV(wavPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode transcoded %s: %w", filename, err)
	}
	meta.Transcoded = true
	return signal, meta, nil
}

func loadWAV(filename string) (*Signal, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	signal, meta, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filename, err)
	}
	return signal, meta, nil
}

// WAVSource is what the WAV decoder needs to walk RIFF chunks.
type WAVSource interface {
	io.Reader
	io.ReaderAt
}

// Decode reads a PCM WAV stream into a Signal.
func Decode(r WAVSource) (*Signal, *Metadata, error) {
	reader := wav.NewReader(r)

	format, err := reader.Format()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read WAV header: %w", err)
	}
	if format.AudioFormat != formatPCM {
		return nil, nil, fmt.Errorf("%w: audio format %d", ErrUnsupportedFormat, format.AudioFormat)
	}
	channels := int(format.NumChannels)
	if channels < 1 || channels > maxChannels {
		return nil, nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	bits := int(format.BitsPerSample)
	scale, offset, err := sampleScale(bits)
	if err != nil {
		return nil, nil, err
	}

	signal := &Signal{
		Channels:   make([][]float64, channels),
		SampleRate: int(format.SampleRate),
	}

	for {
		samples, err := reader.ReadSamples(readChunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read samples: %w", err)
		}
		for _, s := range samples {
			for ch := 0; ch < channels; ch++ {
				v := float64(reader.IntValue(s, uint(ch))) - offset
				signal.Channels[ch] = append(signal.Channels[ch], v*scale)
			}
		}
	}

	meta := &Metadata{
		Duration:   signal.Duration(),
		SampleRate: signal.SampleRate,
		Channels:   channels,
		BitDepth:   bits,
		SampleFmt:  fmt.Sprintf("s%d", bits),
	}
	if bits == 8 {
		meta.SampleFmt = "u8"
	}
	return signal, meta, nil
}

// sampleScale maps integer PCM values to [-1, 1]. 8-bit WAV is unsigned.
func sampleScale(bits int) (scale, offset float64, err error) {
	switch bits {
	case 8:
		return 1.0 / 128, 128, nil
	case 16, 24, 32:
		return 1.0 / float64(int64(1)<<(bits-1)), 0, nil
	default:
		return 0, 0, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, bits)
	}
}
