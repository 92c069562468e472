package logger

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetOutputAndLevel(t *testing.T) {
	defer SetOutput(os.Stderr)
	defer SetLevel("info")

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("warn")

	l := With("cli")
	l.Info().Msg("hidden message")
	l.Warn().Msgf("visible %d", 42)
	l.Error().Err(errors.New("boom")).Msg("failure")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "visible 42") {
		t.Errorf("warn message missing from output: %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("error field missing from output: %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	defer SetOutput(os.Stderr)
	defer SetLevel("info")

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("debug")

	l := With("processor")
	l.Debug().Int("words", 3).Msg("counted")

	out := buf.String()
	if !strings.Contains(out, "processor") || !strings.Contains(out, "counted") {
		t.Errorf("component logger output = %q", out)
	}
}

func TestSetOutputSilences(t *testing.T) {
	defer SetOutput(os.Stderr)
	defer SetLevel("info")

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("debug")
	SetOutput(io.Discard)

	l := With("batch")
	l.Error().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("output after switching to io.Discard = %q", buf.String())
	}
}

func TestSetOutputFile(t *testing.T) {
	defer CloseLogFile()

	path := filepath.Join(t.TempDir(), "logs", "speechenergy.log")
	if err := SetOutputFile(path); err != nil {
		t.Fatalf("SetOutputFile failed: %v", err)
	}
	l := With("cli")
	l.Warn().Msg("written to file")
	CloseLogFile()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}
