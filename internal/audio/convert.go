package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func init() {
	ffmpeg.LogCompiledCommand = false
}

// ConvertToWAV transcodes any ffmpeg-readable input to a temporary 16-bit PCM
// WAV at the source sample rate. Mono and stereo sources keep their channels
// so channel selection still works; wider layouts are downmixed to stereo.
// The caller removes the returned file.
func ConvertToWAV(inputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("input file does not exist: %w", err)
	}

	tmp, err := os.CreateTemp("", "speechenergy-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary WAV: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	args := ffmpeg.KwArgs{
		"loglevel": "error",
		"c:a":      "pcm_s16le",
	}
	if probeChannels(inputPath) > maxChannels {
		args["ac"] = strconv.Itoa(maxChannels)
	}

	err = ffmpeg.Input(inputPath).
		Output(tmpPath, args).
		OverWriteOutput().
		Run()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to convert %s to WAV: %w", inputPath, err)
	}

	return tmpPath, nil
}

// probeChannels returns the channel count of the first audio stream, or 0
// when ffprobe is unavailable or finds no audio.
func probeChannels(inputPath string) int {
	out, err := ffmpeg.Probe(inputPath, ffmpeg.KwArgs{"select_streams": "a:0"})
	if err != nil {
		return 0
	}

	var probe struct {
		Streams []struct {
			Channels int `json:"channels"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(out), &probe); err != nil || len(probe.Streams) == 0 {
		return 0
	}
	return probe.Streams[0].Channels
}
