package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/linuxmatters/speechenergy/internal/detection"
)

func TestCountSamples(t *testing.T) {
	for _, words := range []int{1, 3, 5} {
		samples := generateSpeech(TestSpeechOptions{Words: words})

		result, err := CountSamples(context.Background(), samples, 8000, DefaultOptions(), nil)
		if err != nil {
			t.Fatalf("%d words: CountSamples failed: %v", words, err)
		}
		if result.Words != words {
			t.Errorf("%d words: counted %d (peaks %v)", words, result.Words, result.Peaks)
		}
		if len(result.Valleys) != words-1 {
			t.Errorf("%d words: got %d valleys, want %d", words, len(result.Valleys), words-1)
		}
	}
}

func TestCountSamplesOnCarrier(t *testing.T) {
	tests := []struct {
		name string
		opts TestSpeechOptions
	}{
		{"3 words on 200 Hz", TestSpeechOptions{Words: 3, ToneFreq: 200}},
		{"5 words on 200 Hz", TestSpeechOptions{Words: 5, ToneFreq: 200}},
		{"4 words on 150 Hz at 16 kHz", TestSpeechOptions{SampleRate: 16000, Words: 4, ToneFreq: 150}},
		{"3 words on 200 Hz with noise", TestSpeechOptions{Words: 3, ToneFreq: 200, NoiseLevel: -50}},
		{"4 bare words with noise", TestSpeechOptions{Words: 4, NoiseLevel: -50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := tt.opts.SampleRate
			if rate == 0 {
				rate = 8000
			}
			samples := generateSpeech(tt.opts)

			result, err := CountSamples(context.Background(), samples, rate, DefaultOptions(), nil)
			if err != nil {
				t.Fatalf("CountSamples failed: %v", err)
			}
			if result.Words != tt.opts.Words {
				t.Errorf("counted %d words, want %d (peaks %v)", result.Words, tt.opts.Words, result.Peaks)
			}
			if len(result.Valleys) != tt.opts.Words-1 {
				t.Errorf("got %d valleys, want %d", len(result.Valleys), tt.opts.Words-1)
			}
		})
	}
}

func TestCountSamplesStagesAndConfig(t *testing.T) {
	opts := DefaultOptions()
	samples := generateSpeech(TestSpeechOptions{Words: 2})

	result, err := CountSamples(context.Background(), samples, 8000, opts, nil)
	if err != nil {
		t.Fatalf("CountSamples failed: %v", err)
	}

	want := []FilterID{FilterMovingAverage, FilterGate, FilterEnvelope, FilterSmooth}
	if !reflect.DeepEqual(result.Stages, want) {
		t.Errorf("Stages = %v, want %v", result.Stages, want)
	}
	if result.Measurements == nil || result.Config.Measurements != result.Measurements {
		t.Error("adapted config should reference the measurements")
	}
	if result.Config.SampleRate != 8000 {
		t.Errorf("Config.SampleRate = %d, want 8000", result.Config.SampleRate)
	}

	// The caller's config is never adapted in place
	if opts.Filters.Measurements != nil || opts.Filters.SampleRate != 0 {
		t.Error("CountSamples modified the caller's filter config")
	}
	if result.Config.GateThreshold != result.Measurements.SuggestedGateThreshold {
		t.Errorf("adaptive gate threshold = %v, want %v",
			result.Config.GateThreshold, result.Measurements.SuggestedGateThreshold)
	}
}

func TestCountSamplesThresholdMethod(t *testing.T) {
	tests := []struct {
		name string
		gate float64
	}{
		{"fixed gate", 0.1},
		{"analysed gate", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Method = MethodThreshold
			opts.ThresholdGate = tt.gate

			samples := generateSpeech(TestSpeechOptions{Words: 4})
			orig := append([]float64(nil), samples...)

			result, err := CountSamples(context.Background(), samples, 8000, opts, nil)
			if err != nil {
				t.Fatalf("CountSamples failed: %v", err)
			}
			if result.Words != 4 {
				t.Errorf("Words = %d, want 4", result.Words)
			}
			if result.Stages != nil {
				t.Errorf("threshold method ran filter stages %v", result.Stages)
			}
			if !reflect.DeepEqual(samples, orig) {
				t.Error("threshold method modified the input samples")
			}
		})
	}
}

func TestCountSamplesEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("silence", func(t *testing.T) {
		result, err := CountSamples(ctx, make([]float64, 8000), 8000, DefaultOptions(), nil)
		if err != nil {
			t.Fatalf("CountSamples failed: %v", err)
		}
		if result.Words != 0 {
			t.Errorf("Words = %d, want 0", result.Words)
		}
	})

	t.Run("too short", func(t *testing.T) {
		result, err := CountSamples(ctx, []float64{0.1, 0.5, 0.1}, 8000, DefaultOptions(), nil)
		if err != nil {
			t.Fatalf("CountSamples failed: %v", err)
		}
		if result.Words != 0 || result.Peaks != nil {
			t.Errorf("short input: Words = %d, Peaks = %v", result.Words, result.Peaks)
		}
	})

	t.Run("empty", func(t *testing.T) {
		result, err := CountSamples(ctx, nil, 8000, DefaultOptions(), nil)
		if err != nil {
			t.Fatalf("CountSamples failed: %v", err)
		}
		if result.Words != 0 {
			t.Errorf("Words = %d, want 0", result.Words)
		}
	})
}

func TestCountSamplesInvalid(t *testing.T) {
	ctx := context.Background()
	samples := generateSpeech(TestSpeechOptions{Words: 1})

	tests := []struct {
		name   string
		rate   int
		modify func(*Options)
	}{
		{"zero sample rate", 0, func(*Options) {}},
		{"unknown method", 8000, func(o *Options) { o.Method = "guess" }},
		{"bad interval", 8000, func(o *Options) { o.Extrema.IntervalSize = 0 }},
		{"bad smoothness", 8000, func(o *Options) { o.Extrema.Smoothness = 0 }},
		{"unknown filter", 8000, func(o *Options) { o.Filters.FilterOrder = []FilterID{"chorus"} }},
		{"bad threshold window", 8000, func(o *Options) { o.Method = MethodThreshold; o.ThresholdWindow = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if _, err := CountSamples(ctx, samples, tt.rate, opts, nil); !errors.Is(err, detection.ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestCountSamplesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples := generateSpeech(TestSpeechOptions{Words: 1})
	if _, err := CountSamples(ctx, samples, 8000, DefaultOptions(), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCountSamplesProgress(t *testing.T) {
	var passes []int
	var last float64
	progress := func(pass int, passName string, p, level float64, m *Measurements) {
		if len(passes) == 0 || passes[len(passes)-1] != pass {
			passes = append(passes, pass)
		}
		last = p
	}

	samples := generateSpeech(TestSpeechOptions{Words: 2})
	if _, err := CountSamples(context.Background(), samples, 8000, DefaultOptions(), progress); err != nil {
		t.Fatalf("CountSamples failed: %v", err)
	}

	want := []int{PassAnalyze, PassFilter, PassDetect}
	if !reflect.DeepEqual(passes, want) {
		t.Errorf("passes = %v, want %v", passes, want)
	}
	if last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
}

func TestCountSamplesConcurrent(t *testing.T) {
	opts := DefaultOptions()
	samples := generateSpeech(TestSpeechOptions{Words: 3})

	want, err := CountSamples(context.Background(), samples, 8000, opts, nil)
	if err != nil {
		t.Fatalf("CountSamples failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := CountSamples(context.Background(), samples, 8000, opts, nil)
			if err != nil {
				results[i] = -1
				return
			}
			results[i] = r.Words
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != want.Words {
			t.Errorf("run %d counted %d, want %d", i, got, want.Words)
		}
	}
}

func TestCountFile(t *testing.T) {
	samples := generateSpeech(TestSpeechOptions{Words: 3})
	path := writeTestWAV(t, "three-words.wav", samples, 8000)

	var sawLoad bool
	result, err := CountFile(context.Background(), path, DefaultOptions(), func(pass int, _ string, _, _ float64, _ *Measurements) {
		if pass == PassLoad {
			sawLoad = true
		}
	})
	if err != nil {
		t.Fatalf("CountFile failed: %v", err)
	}

	if result.Words != 3 {
		t.Errorf("Words = %d, want 3", result.Words)
	}
	if result.InputPath != path {
		t.Errorf("InputPath = %q, want %q", result.InputPath, path)
	}
	if result.Metadata == nil || result.Metadata.SampleRate != 8000 {
		t.Errorf("Metadata = %+v", result.Metadata)
	}
	if !sawLoad {
		t.Error("progress callback never saw the load pass")
	}

	var names []string
	for _, pt := range result.Timings {
		names = append(names, pt.Name)
	}
	if want := []string{"Loading", "Analyzing", "Filtering", "Detecting"}; !reflect.DeepEqual(names, want) {
		t.Errorf("timings = %v, want %v", names, want)
	}
}

func TestCountFileDump(t *testing.T) {
	samples := generateSpeech(TestSpeechOptions{Words: 2})
	path := writeTestWAV(t, "talk.wav", samples, 8000)

	opts := DefaultOptions()
	opts.Dump = true

	result, err := CountFile(context.Background(), path, opts, nil)
	if err != nil {
		t.Fatalf("CountFile failed: %v", err)
	}

	dir := filepath.Dir(path)
	for _, id := range []FilterID{FilterMovingAverage, FilterGate, FilterEnvelope, FilterSmooth} {
		dump := filepath.Join(dir, "talk-"+string(id)+".wav")
		if _, err := os.Stat(dump); err != nil {
			t.Errorf("dump for %s missing: %v", id, err)
		}
	}
	if len(result.Dumps) != 4 {
		t.Errorf("Dumps = %v, want 4 files", result.Dumps)
	}
}

func TestCountFileErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := CountFile(ctx, filepath.Join(t.TempDir(), "missing.wav"), DefaultOptions(), nil); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeTestWAV(t, "mono.wav", generateSpeech(TestSpeechOptions{Words: 1}), 8000)
	opts := DefaultOptions()
	opts.Channel = 1
	if _, err := CountFile(ctx, path, opts, nil); err == nil {
		t.Error("expected error for channel out of range")
	}

	opts.Channel = ChannelMix
	if _, err := CountFile(ctx, path, opts, nil); err != nil {
		t.Errorf("mixing a mono file failed: %v", err)
	}
}

func TestDumpBase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/path/to/talk.flac", "talk"},
		{"talk.wav", "talk"},
		{"/path/to/archive.tar.gz", "archive.tar"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := dumpBase(tt.in); got != tt.want {
			t.Errorf("dumpBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
