// Package config loads speechenergy settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/speechenergy/internal/detection"
	"github.com/linuxmatters/speechenergy/internal/mains"
	"github.com/linuxmatters/speechenergy/internal/processor"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// MethodSpeech counts the words of a speech-to-text transcript.
const MethodSpeech = "speech"

// Config is the top-level configuration file layout.
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Concurrency int               `yaml:"concurrency"`
	Detection   DetectionConfig   `yaml:"detection"`
	Preprocess  PreprocessConfig  `yaml:"preprocess"`
	Recognition RecognitionConfig `yaml:"recognition"`
}

// DetectionConfig selects the counting method and its parameters.
type DetectionConfig struct {
	Method          string  `yaml:"method"`  // peaks, threshold or speech
	Channel         string  `yaml:"channel"` // left, right, mix or a channel index
	IntervalSize    int     `yaml:"interval_size"`
	GrowthAngle     float64 `yaml:"growth_angle"`
	AbateAngle      float64 `yaml:"abate_angle"`
	Smoothness      int     `yaml:"smoothness"`
	ThresholdGate   float64 `yaml:"threshold_gate"` // linear, 0 = analysed
	ThresholdWindow int     `yaml:"threshold_window"`
}

// PreprocessConfig describes the pre-filter chain. Filters lists the enabled
// stages in order.
type PreprocessConfig struct {
	Filters             []string       `yaml:"filters"`
	MovingAverageWindow int            `yaml:"moving_average_window"`
	Gate                GateConfig     `yaml:"gate"`
	Envelope            EnvelopeConfig `yaml:"envelope"`
	Smooth              SmoothConfig   `yaml:"smooth"`
	HumNotch            HumNotchConfig `yaml:"hum_notch"`
	LowPass             LowPassConfig  `yaml:"low_pass"`
}

// GateConfig holds gate timing and threshold.
type GateConfig struct {
	Attack      float64 `yaml:"attack_ms"`
	Release     float64 `yaml:"release_ms"`
	ThresholdDB float64 `yaml:"threshold_db"`
	Adaptive    bool    `yaml:"adaptive"`
}

// EnvelopeConfig holds envelope timing.
type EnvelopeConfig struct {
	Attack  float64 `yaml:"attack_ms"`
	Release float64 `yaml:"release_ms"`
}

// SmoothConfig sets the moving average run over the envelope.
type SmoothConfig struct {
	Window float64 `yaml:"window_ms"`
	Passes int     `yaml:"passes"`
}

// HumNotchConfig places notches at the mains frequency.
type HumNotchConfig struct {
	Mains     string  `yaml:"mains"` // auto, off, 50 or 60
	Harmonics int     `yaml:"harmonics"`
	Q         float64 `yaml:"q"`
}

// LowPassConfig sets the FFT low-pass cutoff.
type LowPassConfig struct {
	Cutoff float64 `yaml:"cutoff_hz"`
}

// RecognitionConfig configures the speech-to-text method.
type RecognitionConfig struct {
	Model    string        `yaml:"model"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the standard operating point.
func Default() *Config {
	filters := processor.DefaultFilterConfig()
	extrema := detection.DefaultExtremaConfig()

	return &Config{
		LogLevel:    "info",
		Concurrency: 4,
		Detection: DetectionConfig{
			Method:          string(processor.MethodPeaks),
			Channel:         "left",
			IntervalSize:    extrema.IntervalSize,
			GrowthAngle:     extrema.GrowthAngle,
			AbateAngle:      extrema.AbateAngle,
			Smoothness:      extrema.Smoothness,
			ThresholdWindow: processor.DefaultOptions().ThresholdWindow,
		},
		Preprocess: PreprocessConfig{
			Filters: []string{
				string(processor.FilterMovingAverage),
				string(processor.FilterGate),
				string(processor.FilterEnvelope),
				string(processor.FilterSmooth),
			},
			MovingAverageWindow: filters.MovingAverageWindow,
			Gate: GateConfig{
				Attack:      filters.GateAttack,
				Release:     filters.GateRelease,
				ThresholdDB: processor.LinearToDb(filters.GateThreshold),
				Adaptive:    filters.GateAdaptive,
			},
			Envelope: EnvelopeConfig{
				Attack:  filters.EnvelopeAttack,
				Release: filters.EnvelopeRelease,
			},
			Smooth: SmoothConfig{
				Window: filters.SmoothWindow,
				Passes: filters.SmoothPasses,
			},
			HumNotch: HumNotchConfig{
				Mains:     mains.SettingAuto,
				Harmonics: filters.HumHarmonics,
				Q:         filters.HumQ,
			},
			LowPass: LowPassConfig{Cutoff: filters.LowPassFreq},
		},
		Recognition: RecognitionConfig{
			Model:   "whisper-1",
			Timeout: 2 * time.Minute,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults. Keys not present keep
// their default value; unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads environment variables from .env files. Missing files are not
// an error; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %q: %w", f, err)
		}
	}
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		invalid("log_level %q; valid values: debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.Concurrency < 1 {
		invalid("concurrency %d must be at least 1", cfg.Concurrency)
	}

	switch cfg.Detection.Method {
	case string(processor.MethodPeaks), string(processor.MethodThreshold), MethodSpeech:
	default:
		invalid("detection.method %q; valid values: peaks, threshold, speech", cfg.Detection.Method)
	}
	if _, err := parseChannel(cfg.Detection.Channel); err != nil {
		invalid("detection.channel: %v", err)
	}
	if err := cfg.Extrema().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: detection: %w", ErrInvalid, err))
	}
	if cfg.Detection.ThresholdGate < 0 {
		invalid("detection.threshold_gate %v must not be negative", cfg.Detection.ThresholdGate)
	}
	if cfg.Detection.ThresholdWindow < 1 {
		invalid("detection.threshold_window %d must be at least 1", cfg.Detection.ThresholdWindow)
	}

	if _, err := mains.Resolve(cfg.Preprocess.HumNotch.Mains); err != nil {
		invalid("preprocess.hum_notch: %v", err)
	}
	if cfg.Recognition.Timeout <= 0 {
		invalid("recognition.timeout %s must be positive", cfg.Recognition.Timeout)
	}

	// Build the chain with a nominal rate to surface stage errors early
	if fc, err := cfg.FilterChain(); err != nil {
		errs = append(errs, fmt.Errorf("%w: preprocess: %w", ErrInvalid, err))
	} else {
		fc.SampleRate = 44100
		if _, err := fc.BuildChain(); err != nil {
			errs = append(errs, fmt.Errorf("%w: preprocess: %w", ErrInvalid, err))
		}
	}

	return errors.Join(errs...)
}

// Extrema returns the peak/valley finder parameters.
func (c *Config) Extrema() detection.ExtremaConfig {
	return detection.ExtremaConfig{
		IntervalSize: c.Detection.IntervalSize,
		GrowthAngle:  c.Detection.GrowthAngle,
		AbateAngle:   c.Detection.AbateAngle,
		Smoothness:   c.Detection.Smoothness,
	}
}

// FilterChain maps the preprocess section onto a filter chain config. The
// sample rate is left for the processor to fill in per file.
func (c *Config) FilterChain() (*processor.FilterChainConfig, error) {
	p := c.Preprocess
	fc := processor.DefaultFilterConfig()

	fc.FilterOrder = make([]processor.FilterID, 0, len(p.Filters))
	fc.HumNotchEnabled = false
	fc.LowPassEnabled = false
	fc.MovingAverageEnabled = false
	fc.GateEnabled = false
	fc.EnvelopeEnabled = false
	fc.SmoothEnabled = false

	for _, name := range p.Filters {
		id := processor.FilterID(strings.ToLower(strings.TrimSpace(name)))
		switch id {
		case processor.FilterHumNotch:
			fc.HumNotchEnabled = true
		case processor.FilterFFTLowPass:
			fc.LowPassEnabled = true
		case processor.FilterMovingAverage:
			fc.MovingAverageEnabled = true
		case processor.FilterGate:
			fc.GateEnabled = true
		case processor.FilterEnvelope:
			fc.EnvelopeEnabled = true
		case processor.FilterSmooth:
			fc.SmoothEnabled = true
		default:
			return nil, fmt.Errorf("%w: unknown filter %q", detection.ErrInvalidConfiguration, name)
		}
		fc.FilterOrder = append(fc.FilterOrder, id)
	}

	fc.MovingAverageWindow = p.MovingAverageWindow
	fc.GateAttack = p.Gate.Attack
	fc.GateRelease = p.Gate.Release
	fc.GateThreshold = processor.DbToLinear(p.Gate.ThresholdDB)
	fc.GateAdaptive = p.Gate.Adaptive
	fc.EnvelopeAttack = p.Envelope.Attack
	fc.EnvelopeRelease = p.Envelope.Release
	fc.SmoothWindow = p.Smooth.Window
	fc.SmoothPasses = p.Smooth.Passes
	fc.HumHarmonics = p.HumNotch.Harmonics
	fc.HumQ = p.HumNotch.Q
	fc.LowPassFreq = p.LowPass.Cutoff

	if fc.HumNotchEnabled {
		hz, err := mains.Resolve(p.HumNotch.Mains)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", detection.ErrInvalidConfiguration, err)
		}
		fc.HumFrequency = hz
	}

	return fc, nil
}

// Options returns the processor options for the peaks and threshold methods.
func (c *Config) Options() (processor.Options, error) {
	fc, err := c.FilterChain()
	if err != nil {
		return processor.Options{}, err
	}
	channel, err := parseChannel(c.Detection.Channel)
	if err != nil {
		return processor.Options{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	method := processor.Method(c.Detection.Method)
	if c.Detection.Method == MethodSpeech {
		method = processor.MethodPeaks
	}

	return processor.Options{
		Method:          method,
		Filters:         fc,
		Extrema:         c.Extrema(),
		ThresholdGate:   c.Detection.ThresholdGate,
		ThresholdWindow: c.Detection.ThresholdWindow,
		Channel:         channel,
	}, nil
}

// parseChannel accepts left, right, mix or a zero-based index.
func parseChannel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return 0, nil
	case "right":
		return 1, nil
	case "mix":
		return processor.ChannelMix, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid channel %q: want left, right, mix or an index", s)
	}
	return n, nil
}
