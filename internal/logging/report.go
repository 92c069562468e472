package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/speechenergy/internal/detection"
	"github.com/linuxmatters/speechenergy/internal/processor"
)

// ReportSuffix is appended to the input basename to name the report file.
const ReportSuffix = "-wordcount.log"

// ReportData contains all the information needed to generate a word count report
type ReportData struct {
	InputPath  string
	StartTime  time.Time
	EndTime    time.Time
	Result     *processor.Result
	Transcript string // speech method only
	Extrema    detection.ExtremaConfig
}

// ReportPath returns where the report for inputPath is written.
// Example: /path/to/talk.flac → /path/to/talk-wordcount.log
func ReportPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	filename := filepath.Base(inputPath)
	return filepath.Join(dir, strings.TrimSuffix(filename, filepath.Ext(filename))+ReportSuffix)
}

// GenerateReport writes the report next to the input file and returns its path.
func GenerateReport(data ReportData) (string, error) {
	logPath := ReportPath(data.InputPath)

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, data); err != nil {
		return "", err
	}
	return logPath, f.Close()
}

// WriteReport renders the report to w.
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - pass timings
// 3. Signal Analysis - levels and gate threshold
// 4. Pre-filter Chain - stages in order with parameters
// 5. Detection - extrema parameters and peak/valley tables
// 6. Result - word count and speech rate
func WriteReport(w io.Writer, data ReportData) error {
	rw := &reportWriter{w: w}

	writeReportHeader(rw, data)
	writeProcessingSummary(rw, data)

	if r := data.Result; r != nil {
		writeSignalAnalysis(rw, r.Measurements, r.Config)
		if r.Method == processor.MethodPeaks {
			writeFilterChain(rw, r.Config, r.Stages)
			writeDetection(rw, data.Extrema, r)
		}
	}
	if data.Transcript != "" {
		writeSection(rw, "Transcript")
		rw.println(data.Transcript)
		rw.println("")
	}
	writeResult(rw, data)

	return rw.err
}

// reportWriter keeps the first write error so section writers stay linear.
type reportWriter struct {
	w   io.Writer
	err error
}

func (rw *reportWriter) printf(format string, args ...any) {
	if rw.err == nil {
		_, rw.err = fmt.Fprintf(rw.w, format, args...)
	}
}

func (rw *reportWriter) println(s string) {
	rw.printf("%s\n", s)
}

// writeSection writes a section header with title and dashed underline.
func writeSection(rw *reportWriter, title string) {
	rw.println(title)
	rw.println(strings.Repeat("-", len(title)))
}

func writeReportHeader(rw *reportWriter, data ReportData) {
	rw.println("Speech Energy Word Count Report")
	rw.println("===============================")
	rw.printf("File: %s\n", filepath.Base(data.InputPath))
	rw.printf("Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))

	if r := data.Result; r != nil && r.Metadata != nil {
		m := r.Metadata
		rw.printf("Duration: %s\n", formatDuration(time.Duration(m.Duration*float64(time.Second))))
		rw.printf("Format: %d Hz, %s, %s", m.SampleRate, channelName(m.Channels), m.SampleFmt)
		if m.Transcoded {
			rw.printf(" (transcoded)")
		}
		rw.println("")
	}
	rw.println("")
}

func writeProcessingSummary(rw *reportWriter, data ReportData) {
	writeSection(rw, "Processing Summary")

	if r := data.Result; r != nil {
		rw.printf("Method: %s\n", r.Method)
		for i, pt := range r.Timings {
			label := fmt.Sprintf("Pass %d (%s):", i+1, pt.Name)
			rw.printf("%-24s%s\n", label, formatDuration(pt.Duration))
		}
	}

	total := data.EndTime.Sub(data.StartTime)
	rw.printf("%-24s%s", "Total:", formatDuration(total))
	if r := data.Result; r != nil && r.Metadata != nil && r.Metadata.Duration > 0 && total > 0 {
		audio := time.Duration(r.Metadata.Duration * float64(time.Second))
		rw.printf(" (%.0fx real-time)", float64(audio)/float64(total))
	}
	rw.println("")
	rw.println("")
}

func writeSignalAnalysis(rw *reportWriter, m *processor.Measurements, cfg *processor.FilterChainConfig) {
	if m == nil {
		return
	}
	writeSection(rw, "Signal Analysis")

	table := NewMetricTable("Value")
	table.AddRow("Peak Level", []string{formatMetricDB(m.PeakLevel, 1)}, "dBFS", "")
	table.AddRow("RMS Level", []string{formatMetricDB(m.RMSLevel, 1)}, "dBFS", "")
	table.AddRow("Noise Floor", []string{formatMetricDB(m.NoiseFloor, 1)}, "dBFS", interpretNoiseFloor(m.NoiseFloor))
	table.AddRow("Noise Windows", []string{fmt.Sprintf("%d", m.NoiseWindows)}, "", "250ms each")

	if cfg != nil && cfg.GateEnabled {
		thresholdDB := processor.LinearToDb(cfg.GateThreshold)
		interp := "fixed"
		if cfg.GateAdaptive {
			interp = formatMetricSigned(thresholdDB-m.NoiseFloor, 1) + " dB above noise floor"
		}
		table.AddRow("Gate Threshold", []string{formatMetricDB(thresholdDB, 1)}, "dBFS", interp)
	}

	rw.printf("%s", table.String())
	rw.println("")
}

// interpretNoiseFloor describes recording quality from the quietest window.
func interpretNoiseFloor(db float64) string {
	switch {
	case isDigitalSilence(db):
		return "digital silence"
	case db < -60:
		return "very clean"
	case db < -50:
		return "typical"
	case db < -40:
		return "noisy"
	default:
		return "very noisy, counts may be unreliable"
	}
}

func writeFilterChain(rw *reportWriter, cfg *processor.FilterChainConfig, applied []processor.FilterID) {
	if cfg == nil {
		return
	}
	writeSection(rw, "Pre-filter Chain (in processing order)")

	ran := make(map[processor.FilterID]bool, len(applied))
	for _, id := range applied {
		ran[id] = true
	}

	for i, id := range cfg.FilterOrder {
		prefix := fmt.Sprintf("%2d. ", i+1)
		if !ran[id] {
			rw.printf("%s%s: disabled\n", prefix, id)
			continue
		}
		rw.printf("%s%s: %s\n", prefix, id, describeFilter(id, cfg))
	}
	rw.println("")
}

// describeFilter summarises the parameters of one stage.
func describeFilter(id processor.FilterID, cfg *processor.FilterChainConfig) string {
	switch id {
	case processor.FilterHumNotch:
		return fmt.Sprintf("%.0f Hz, %d harmonics, Q %.1f", cfg.HumFrequency, cfg.HumHarmonics, cfg.HumQ)
	case processor.FilterFFTLowPass:
		return fmt.Sprintf("cutoff %s", formatMetricWithUnit(cfg.LowPassFreq, 0, "Hz"))
	case processor.FilterMovingAverage:
		return fmt.Sprintf("window %d samples", cfg.MovingAverageWindow)
	case processor.FilterGate:
		mode := "fixed"
		if cfg.GateAdaptive {
			mode = "adaptive"
		}
		return fmt.Sprintf("attack %.0f ms, release %.0f ms, threshold %s dBFS (%s)",
			cfg.GateAttack, cfg.GateRelease, formatMetricDB(processor.LinearToDb(cfg.GateThreshold), 1), mode)
	case processor.FilterEnvelope:
		return fmt.Sprintf("attack %.0f ms, release %.0f ms", cfg.EnvelopeAttack, cfg.EnvelopeRelease)
	case processor.FilterSmooth:
		return fmt.Sprintf("window %.0f ms, %d passes", cfg.SmoothWindow, cfg.SmoothPasses)
	default:
		return "(unknown filter)"
	}
}

func writeDetection(rw *reportWriter, cfg detection.ExtremaConfig, r *processor.Result) {
	writeSection(rw, "Detection")
	rw.printf("Interval size: %d samples\n", cfg.IntervalSize)
	rw.printf("Growth angle:  %s°\n", formatMetricSigned(cfg.GrowthAngle, 1))
	rw.printf("Abate angle:   %s°\n", formatMetricSigned(cfg.AbateAngle, 1))
	rw.printf("Smoothness:    %d intervals\n", cfg.Smoothness)
	rw.println("")

	rate := 0
	if r.Config != nil {
		rate = r.Config.SampleRate
	}

	rw.printf("Peaks (%d)\n", len(r.Peaks))
	rw.printf("%s", rangeTable(r.Peaks, rate).String())
	rw.println("")

	rw.printf("Valleys (%d)\n", len(r.Valleys))
	rw.printf("%s", rangeTable(r.Valleys, rate).String())
	rw.println("")
}

// rangeTable lists index ranges with their start time and length.
func rangeTable(ranges []detection.Range, sampleRate int) *MetricTable {
	table := NewMetricTable("Start", "End", "At", "Length")
	for i, rg := range ranges {
		at, length := math.NaN(), math.NaN()
		if sampleRate > 0 {
			at = float64(rg.Start) / float64(sampleRate)
			length = float64(rg.End-rg.Start) * 1000 / float64(sampleRate)
		}
		table.AddRow(fmt.Sprintf("#%d", i+1), []string{
			fmt.Sprintf("%d", rg.Start),
			fmt.Sprintf("%d", rg.End),
			formatMetricWithUnit(at, 2, "s"),
			formatMetricWithUnit(length, 0, "ms"),
		}, "", "")
	}
	return table
}

func writeResult(rw *reportWriter, data ReportData) {
	writeSection(rw, "Result")
	r := data.Result
	if r == nil {
		rw.println("No result")
		return
	}

	rw.printf("Words: %d\n", r.Words)
	if r.Metadata != nil && r.Metadata.Duration > 0 {
		wpm := float64(r.Words) / (r.Metadata.Duration / 60)
		rw.printf("Rate:  %.0f words/min (%s)\n", wpm, interpretSpeechRate(wpm))
	}
}

// interpretSpeechRate classifies words per minute.
func interpretSpeechRate(wpm float64) string {
	switch {
	case wpm < 110:
		return "slow"
	case wpm < 160:
		return "conversational"
	case wpm < 200:
		return "brisk"
	default:
		return "very fast"
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}
