package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/speechenergy/internal/processor"
)

var (
	primaryColor = lipgloss.Color("#A40000")
	activeColor  = lipgloss.Color("#FFA500")
	doneColor    = lipgloss.Color("#00AA00")
	mutedColor   = lipgloss.Color("#888888")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	// Header
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	// File queue
	b.WriteString(renderFileQueue(m))
	b.WriteString("\n")

	// Overall progress
	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Render("Speechenergy 🎙 - Spoken Word Counter")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("Counting words in %d file(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(file, spinnerFrames[m.spinnerIndex]))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(file FileProgress, spinner string) string {
	fileName := filepath.Base(file.InputPath)

	switch {
	case file.Status == StatusComplete:
		icon := lipgloss.NewStyle().Foreground(doneColor).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, renderFileSummary(file))

	case file.Status.Active():
		icon := lipgloss.NewStyle().Foreground(activeColor).Render(spinner)
		return fmt.Sprintf(" %s %s\n%s", icon, fileName, renderFileDetails(file))

	case file.Status == StatusError:
		icon := lipgloss.NewStyle().Foreground(primaryColor).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// renderFileSummary renders the one-line result of a completed file
func renderFileSummary(file FileProgress) string {
	summary := fmt.Sprintf("Words: %d", file.Words)
	if file.Method == processor.MethodPeaks {
		summary += fmt.Sprintf(" | Peaks: %d | Valleys: %d", file.Peaks, file.Valleys)
	}
	summary += fmt.Sprintf(" | Audio: %s | Took: %s", formatElapsed(secondsToDuration(file.Duration)), formatElapsed(file.ElapsedTime))
	return summary
}

// renderFileDetails renders detailed progress for an active file
func renderFileDetails(file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(activeColor).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	passName := file.PassName
	if passName == "" {
		passName = "Starting"
	}
	content.WriteString(fmt.Sprintf("Pass %d/%d: %s\n", max(file.CurrentPass, 1), processor.PassDetect, passName))

	content.WriteString(renderProgressBar(file.Progress, 40))
	content.WriteString(fmt.Sprintf(" [%s]", formatElapsed(file.ElapsedTime)))

	if m := file.Measurements; m != nil {
		content.WriteString(fmt.Sprintf("\nNoise floor: %.1f dBFS | Gate: %.1f dBFS",
			m.NoiseFloor, processor.LinearToDb(m.SuggestedGateThreshold)))
	}

	if file.CurrentLevel != 0 {
		content.WriteString(fmt.Sprintf("\nLevel: %.1f dBFS | Peak: %.1f dBFS",
			processor.LinearToDb(file.CurrentLevel), processor.LinearToDb(file.PeakLevel)))
	}

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(primaryColor)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))

	return fmt.Sprintf("%s %3d%%", bar, int(progress*100))
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60)

	content := fmt.Sprintf("%d of %d complete | %d active | %d failed | %s",
		m.CompletedFiles, m.TotalFiles, m.ActiveFiles(), m.FailedFiles,
		formatElapsed(time.Since(m.StartTime)))

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(doneColor).
		Render("✨ Counting Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		switch file.Status {
		case StatusComplete:
			b.WriteString(renderCompletedFile(file))
			b.WriteString("\n")
		case StatusError:
			b.WriteString(renderFileEntry(file, ""))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total: %d words in %d file(s)", m.TotalWords(), m.CompletedFiles))
	if m.FailedFiles > 0 {
		b.WriteString(fmt.Sprintf(", %d failed", m.FailedFiles))
	}
	b.WriteString("\n")

	return b.String()
}

// renderCompletedFile renders a summary for a completed file
func renderCompletedFile(file FileProgress) string {
	fileName := filepath.Base(file.InputPath)
	icon := lipgloss.NewStyle().Foreground(doneColor).Render("✓")

	out := fmt.Sprintf(" %s %s\n   %s", icon, fileName, renderFileSummary(file))
	if file.ReportPath != "" {
		out += "\n   Report: " + filepath.Base(file.ReportPath)
	}
	return out
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
