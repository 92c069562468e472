package ui

import (
	"time"

	"github.com/linuxmatters/speechenergy/internal/processor"
)

// ProgressMsg represents a progress update from the processor for one file
type ProgressMsg struct {
	FileIndex    int
	Pass         int     // processor.PassLoad .. processor.PassDetect
	PassName     string  // "Loading", "Analyzing", "Filtering" or "Detecting"
	Progress     float64 // 0.0 to 1.0
	Level        float64 // Peak amplitude of the latest output, linear
	Measurements *processor.Measurements
}

// FileStartMsg indicates a file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex  int
	Method     processor.Method
	Words      int
	Peaks      int
	Valleys    int
	Duration   float64 // seconds of audio
	NoiseFloor float64 // dBFS
	Elapsed    time.Duration
	ReportPath string
	Error      error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time
