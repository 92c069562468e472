package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#A40000") // Speechenergy red
	accentColor  = lipgloss.Color("#FFA500") // Orange
	successColor = lipgloss.Color("#00AA00") // Green
	mutedColor   = lipgloss.Color("#888888") // Gray
	textColor    = lipgloss.Color("#FFFFFF") // White
)

// Styles
var (
	// Title style - bold red with microphone emoji
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// Error message style
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	// Word count in plain output
	CountStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Speechenergy 🎙"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a non-fatal problem
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("Warning:"), message)
}

// FileLine is one row of plain (non-TUI) output.
type FileLine struct {
	Path       string
	Words      int
	Detail     string // e.g. "7 peaks, 6 valleys"
	ReportPath string
	Err        error
}

// PrintFileLine writes one line per counted file.
func PrintFileLine(w io.Writer, line FileLine) {
	name := filepath.Base(line.Path)
	if line.Err != nil {
		fmt.Fprintf(w, "%s %s: %v\n", ErrorStyle.Render("✗"), name, line.Err)
		return
	}

	fmt.Fprintf(w, "%s %s: %s words", CountStyle.Render("✓"), name, ValueStyle.Render(fmt.Sprint(line.Words)))
	if line.Detail != "" {
		fmt.Fprintf(w, " %s", KeyStyle.Render("("+line.Detail+")"))
	}
	if line.ReportPath != "" {
		fmt.Fprintf(w, " %s %s", KeyStyle.Render("report:"), filepath.Base(line.ReportPath))
	}
	fmt.Fprintln(w)
}

// PrintTotal writes the batch total after the per-file lines.
func PrintTotal(w io.Writer, words, files, failed int) {
	fmt.Fprintf(w, "%s %s words in %d file(s)", KeyStyle.Render("Total:"), ValueStyle.Render(fmt.Sprint(words)), files)
	if failed > 0 {
		fmt.Fprintf(w, ", %s", ErrorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintln(w)
}
