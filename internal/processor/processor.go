package processor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/speechenergy/internal/audio"
	"github.com/linuxmatters/speechenergy/internal/detection"
	"github.com/linuxmatters/speechenergy/internal/logger"
)

// Method selects how words are counted
type Method string

// Counting methods
const (
	MethodPeaks     Method = "peaks"     // pre-filter chain + extrema finder
	MethodThreshold Method = "threshold" // block-level silence/sound onsets
)

// ChannelMix averages all channels instead of picking one.
const ChannelMix = -1

// Pass numbers reported to the progress callback
const (
	PassLoad    = 1
	PassAnalyze = 2
	PassFilter  = 3
	PassDetect  = 4
)

// ProgressFunc receives progress updates. level is the peak amplitude of the
// most recent output and measurements is set once analysis has run.
type ProgressFunc func(pass int, passName string, progress, level float64, measurements *Measurements)

// Options configures one counting run
type Options struct {
	Method  Method
	Filters *FilterChainConfig
	Extrema detection.ExtremaConfig

	// Threshold method; a gate of 0 uses the analysed gate threshold
	ThresholdGate   float64
	ThresholdWindow int

	// Channel to count, ChannelMix to average all channels
	Channel int

	// Write each pre-filter stage as WAV next to the input (or into DumpDir)
	Dump    bool
	DumpDir string
}

// DefaultOptions counts peaks on the first channel with the default chain.
func DefaultOptions() Options {
	return Options{
		Method:          MethodPeaks,
		Filters:         DefaultFilterConfig(),
		Extrema:         detection.DefaultExtremaConfig(),
		ThresholdWindow: 10,
		Channel:         0,
	}
}

// PassTiming records how long one pass took
type PassTiming struct {
	Name     string
	Duration time.Duration
}

// Result contains the outcome of counting words in one signal
type Result struct {
	InputPath    string
	Metadata     *audio.Metadata
	Measurements *Measurements
	Config       *FilterChainConfig // adapted parameters actually used
	Method       Method
	Stages       []FilterID
	Peaks        []detection.Range
	Valleys      []detection.Range
	Words        int
	Dumps        []string
	Timings      []PassTiming
}

// CountFile loads inputPath and counts the words in it.
// If progress is not nil, it is called at every pass boundary.
func CountFile(ctx context.Context, inputPath string, opts Options, progress ProgressFunc) (*Result, error) {
	log := logger.With("processor")
	report := progressOrNop(progress)

	report(PassLoad, "Loading", 0, 0, nil)
	start := time.Now()

	signal, metadata, err := audio.Load(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}

	var samples []float64
	if opts.Channel == ChannelMix {
		samples = signal.Mix()
	} else {
		samples, err = signal.Channel(opts.Channel)
		if err != nil {
			return nil, err
		}
	}
	loadTime := time.Since(start)
	report(PassLoad, "Loading", 1, 0, nil)

	log.Debug().
		Str("file", inputPath).
		Int("samples", len(samples)).
		Int("sample_rate", signal.SampleRate).
		Bool("transcoded", metadata.Transcoded).
		Msg("audio loaded")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Dump && opts.DumpDir == "" {
		opts.DumpDir = filepath.Dir(inputPath)
	}

	result, err := countSamples(ctx, samples, signal.SampleRate, opts, dumpBase(inputPath), report)
	if err != nil {
		return nil, err
	}

	result.InputPath = inputPath
	result.Metadata = metadata
	result.Timings = append([]PassTiming{{Name: "Loading", Duration: loadTime}}, result.Timings...)
	return result, nil
}

// CountSamples counts the words in a mono signal. Dump options are ignored.
func CountSamples(ctx context.Context, samples []float64, sampleRate int, opts Options, progress ProgressFunc) (*Result, error) {
	opts.Dump = false
	return countSamples(ctx, samples, sampleRate, opts, "", progressOrNop(progress))
}

func countSamples(ctx context.Context, samples []float64, sampleRate int, opts Options, base string, report ProgressFunc) (*Result, error) {
	log := logger.With("processor")

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", detection.ErrInvalidConfiguration, sampleRate)
	}
	if opts.Method == "" {
		opts.Method = MethodPeaks
	}

	// Each run adapts its own copy so concurrent files never share config
	var filters FilterChainConfig
	if opts.Filters != nil {
		filters = *opts.Filters
	} else {
		filters = *DefaultFilterConfig()
	}
	filters.FilterOrder = append([]FilterID(nil), filters.FilterOrder...)
	filters.SampleRate = sampleRate

	result := &Result{
		Method: opts.Method,
		Config: &filters,
	}

	// Pass: analysis
	report(PassAnalyze, "Analyzing", 0, 0, nil)
	start := time.Now()
	measurements := AnalyzeSamples(samples, sampleRate)
	AdaptConfig(&filters, measurements)
	result.Measurements = measurements
	result.Timings = append(result.Timings, PassTiming{Name: "Analyzing", Duration: time.Since(start)})
	report(PassAnalyze, "Analyzing", 1, DbToLinear(measurements.PeakLevel), measurements)

	log.Debug().
		Float64("peak_db", measurements.PeakLevel).
		Float64("rms_db", measurements.RMSLevel).
		Float64("noise_floor_db", measurements.NoiseFloor).
		Float64("gate_threshold", filters.GateThreshold).
		Msg("analysis complete")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch opts.Method {
	case MethodPeaks:
		if err := countPeaks(ctx, samples, opts, &filters, base, result, report); err != nil {
			return nil, err
		}
	case MethodThreshold:
		if err := countThreshold(samples, opts, measurements, result, report); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown method %q", detection.ErrInvalidConfiguration, opts.Method)
	}

	log.Debug().Str("method", string(opts.Method)).Int("words", result.Words).Msg("count complete")
	return result, nil
}

func countPeaks(ctx context.Context, samples []float64, opts Options, filters *FilterChainConfig, base string, result *Result, report ProgressFunc) error {
	if err := opts.Extrema.Validate(); err != nil {
		return err
	}

	chain, err := filters.BuildChain()
	if err != nil {
		return err
	}

	// Pass: pre-filter chain
	start := time.Now()
	curve := samples
	for i, stage := range chain {
		if err := ctx.Err(); err != nil {
			return err
		}
		report(PassFilter, "Filtering", float64(i)/float64(len(chain)), peakOf(curve), result.Measurements)

		curve = stage.Apply(curve)
		result.Stages = append(result.Stages, stage.ID)

		if opts.Dump {
			path, err := writeDump(opts.DumpDir, base, stage.ID, curve, filters.SampleRate)
			if err != nil {
				return err
			}
			result.Dumps = append(result.Dumps, path)
		}
	}
	result.Timings = append(result.Timings, PassTiming{Name: "Filtering", Duration: time.Since(start)})
	report(PassFilter, "Filtering", 1, peakOf(curve), result.Measurements)

	// Pass: detection
	report(PassDetect, "Detecting", 0, 0, result.Measurements)
	start = time.Now()
	normalized := detection.Normalized(curve)
	result.Peaks, result.Valleys = detection.FindExtrema(normalized, opts.Extrema)
	result.Words = len(result.Peaks)
	result.Timings = append(result.Timings, PassTiming{Name: "Detecting", Duration: time.Since(start)})
	report(PassDetect, "Detecting", 1, 0, result.Measurements)

	return nil
}

func countThreshold(samples []float64, opts Options, m *Measurements, result *Result, report ProgressFunc) error {
	gate := opts.ThresholdGate
	if gate == 0 {
		gate = m.SuggestedGateThreshold
	}
	window := opts.ThresholdWindow
	if window == 0 {
		window = DefaultOptions().ThresholdWindow
	}

	counter, err := detection.NewThresholdCounter(gate, window)
	if err != nil {
		return err
	}

	report(PassDetect, "Detecting", 0, 0, m)
	start := time.Now()
	buf := append([]float64(nil), samples...)
	counter.Process(buf)
	result.Words = counter.Count()
	result.Timings = append(result.Timings, PassTiming{Name: "Detecting", Duration: time.Since(start)})
	report(PassDetect, "Detecting", 1, 0, m)

	return nil
}

// ErrNoDumpDir is returned when dumps are requested without a destination.
var ErrNoDumpDir = errors.New("no dump directory")

// writeDump writes a stage output as <base>-<stage>.wav.
func writeDump(dir, base string, id FilterID, samples []float64, sampleRate int) (string, error) {
	if dir == "" {
		return "", ErrNoDumpDir
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.wav", base, id))
	if err := audio.WriteWAV(path, samples, sampleRate); err != nil {
		return "", fmt.Errorf("failed to dump %s stage: %w", id, err)
	}
	return path, nil
}

// dumpBase strips the directory and extension from an input path.
// Example: /path/to/talk.flac → talk
func dumpBase(inputPath string) string {
	filename := filepath.Base(inputPath)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func peakOf(samples []float64) float64 {
	var peak float64
	for _, v := range samples {
		if v > peak {
			peak = v
		} else if -v > peak {
			peak = -v
		}
	}
	return peak
}

func progressOrNop(progress ProgressFunc) ProgressFunc {
	if progress != nil {
		return progress
	}
	return func(int, string, float64, float64, *Measurements) {}
}
