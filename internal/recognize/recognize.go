// Package recognize counts words from a speech-to-text transcript.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoAPIKey is returned when a provider is created without credentials.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrRecognition wraps failures reported by the provider.
	ErrRecognition = errors.New("speech recognition failed")
)

// DefaultTimeout bounds a single recognition call.
const DefaultTimeout = 2 * time.Minute

// Recognizer turns an audio file into text.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Result is the transcript of one file and its word count.
type Result struct {
	Text  string
	Words int
}

// CountTextWords returns the number of whitespace-separated words in text.
func CountTextWords(text string) int {
	return len(strings.Fields(text))
}

// Count transcribes path and counts the words. A timeout of zero uses
// DefaultTimeout.
func Count(ctx context.Context, r Recognizer, path string, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := r.Recognize(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrRecognition) {
			err = fmt.Errorf("%w: %w", ErrRecognition, err)
		}
		return nil, err
	}

	return &Result{Text: text, Words: CountTextWords(text)}, nil
}
