// Package ui provides the Bubbletea terminal user interface for speechenergy
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/speechenergy/internal/logger"
	"github.com/linuxmatters/speechenergy/internal/processor"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusLoading
	StatusAnalyzing
	StatusFiltering
	StatusDetecting
	StatusComplete
	StatusError
)

// Active reports whether the file is being worked on.
func (s FileStatus) Active() bool {
	return s >= StatusLoading && s <= StatusDetecting
}

// FileProgress tracks progress for a single audio file
type FileProgress struct {
	InputPath string
	Status    FileStatus

	// Phase tracking
	CurrentPass int
	PassName    string

	// Progress tracking (percentage-based)
	Progress    float64 // 0.0 to 1.0 within the current pass
	StartTime   time.Time
	ElapsedTime time.Duration

	// Analysis results
	Measurements *processor.Measurements

	// Levels seen on the processed curve, linear
	CurrentLevel float64
	PeakLevel    float64

	// Completion results
	Method     processor.Method
	Words      int
	Peaks      int
	Valleys    int
	Duration   float64
	NoiseFloor float64
	ReportPath string

	// Error tracking
	Error error
}

// Model is the Bubbletea model for the batch counting UI
type Model struct {
	// File queue
	Files          []FileProgress
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	// Global state
	StartTime time.Time
	Done      bool

	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:      files,
		TotalFiles: len(inputFiles),
		StartTime:  time.Now(),
	}
}

// Init starts the spinner. Workers deliver progress with tea.Program.Send.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	log := logger.With("ui")

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		for i := range m.Files {
			if m.Files[i].Status.Active() {
				m.Files[i].ElapsedTime = time.Since(m.Files[i].StartTime)
			}
		}
		return m, tickCmd()

	case ProgressMsg:
		if m.valid(msg.FileIndex) {
			m.Files[msg.FileIndex] = updateFileProgress(m.Files[msg.FileIndex], msg)
		}
		return m, nil

	case FileStartMsg:
		log.Debug().Int("index", msg.FileIndex).Str("file", msg.FileName).Msg("file started")
		if m.valid(msg.FileIndex) {
			m.Files[msg.FileIndex].Status = StatusLoading
			m.Files[msg.FileIndex].StartTime = time.Now()
		}
		return m, nil

	case FileCompleteMsg:
		log.Debug().Int("index", msg.FileIndex).Int("words", msg.Words).Err(msg.Error).Msg("file complete")
		if m.valid(msg.FileIndex) {
			m.Files[msg.FileIndex] = completeFile(m.Files[msg.FileIndex], msg)
			if msg.Error != nil {
				m.FailedFiles++
			} else {
				m.CompletedFiles++
			}
		}
		return m, nil

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) valid(index int) bool {
	return index >= 0 && index < len(m.Files)
}

// ActiveFiles returns the number of files currently being processed.
func (m Model) ActiveFiles() int {
	n := 0
	for _, f := range m.Files {
		if f.Status.Active() {
			n++
		}
	}
	return n
}

// TotalWords sums the word counts of every completed file.
func (m Model) TotalWords() int {
	total := 0
	for _, f := range m.Files {
		if f.Status == StatusComplete {
			total += f.Words
		}
	}
	return total
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// updateFileProgress updates a FileProgress based on a ProgressMsg
func updateFileProgress(fp FileProgress, msg ProgressMsg) FileProgress {
	fp.Progress = msg.Progress
	fp.CurrentPass = msg.Pass
	fp.PassName = msg.PassName
	fp.ElapsedTime = time.Since(fp.StartTime)

	if msg.Measurements != nil {
		fp.Measurements = msg.Measurements
	}

	if msg.Level != 0 {
		fp.CurrentLevel = msg.Level
		fp.PeakLevel = max(fp.PeakLevel, msg.Level)
	}

	switch msg.Pass {
	case processor.PassLoad:
		fp.Status = StatusLoading
	case processor.PassAnalyze:
		fp.Status = StatusAnalyzing
	case processor.PassFilter:
		fp.Status = StatusFiltering
	case processor.PassDetect:
		fp.Status = StatusDetecting
	}

	return fp
}

// completeFile records the outcome of a finished file
func completeFile(fp FileProgress, msg FileCompleteMsg) FileProgress {
	fp.Error = msg.Error
	fp.ElapsedTime = msg.Elapsed
	if msg.Error != nil {
		fp.Status = StatusError
		return fp
	}

	fp.Status = StatusComplete
	fp.Progress = 1
	fp.Method = msg.Method
	fp.Words = msg.Words
	fp.Peaks = msg.Peaks
	fp.Valleys = msg.Valleys
	fp.Duration = msg.Duration
	fp.NoiseFloor = msg.NoiseFloor
	fp.ReportPath = msg.ReportPath
	return fp
}
