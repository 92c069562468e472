package recognize

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

type fakeRecognizer struct {
	text string
	err  error
	wait bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func TestCountTextWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"hello", 1},
		{"hello world", 2},
		{"  one\ttwo\nthree  ", 3},
		{"don't stop-believing", 2},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := CountTextWords(tt.text); got != tt.want {
				t.Errorf("CountTextWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res, err := Count(ctx, &fakeRecognizer{text: "the quick brown fox"}, "a.wav", 0)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if res.Words != 4 || res.Text != "the quick brown fox" {
			t.Errorf("Count = %+v", res)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		_, err := Count(ctx, &fakeRecognizer{err: errors.New("quota exceeded")}, "a.wav", 0)
		if !errors.Is(err, ErrRecognition) {
			t.Errorf("err = %v, want ErrRecognition", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := Count(ctx, &fakeRecognizer{wait: true}, "a.wav", 10*time.Millisecond)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want DeadlineExceeded", err)
		}
		if !errors.Is(err, ErrRecognition) {
			t.Errorf("err = %v, want ErrRecognition", err)
		}
	})
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}

	r, err := NewOpenAI("sk-test", "", "en")
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	if r.model != DefaultModel {
		t.Errorf("model = %q, want %q", r.model, DefaultModel)
	}
}

func TestOpenAIRecognize(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("one small step for man\n"))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	r := NewOpenAIWithConfig(cfg, "", "")

	res, err := Count(context.Background(), r, audioPath, time.Second*5)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if res.Words != 5 {
		t.Errorf("Words = %d, want 5 (text %q)", res.Words, res.Text)
	}
	if !strings.HasSuffix(gotPath, "/audio/transcriptions") {
		t.Errorf("request path = %q", gotPath)
	}
}

func TestOpenAIRecognizeError(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	r := NewOpenAIWithConfig(cfg, "", "")

	if _, err := r.Recognize(context.Background(), audioPath); !errors.Is(err, ErrRecognition) {
		t.Errorf("err = %v, want ErrRecognition", err)
	}
}
