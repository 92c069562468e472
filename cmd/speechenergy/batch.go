package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/speechenergy/internal/cli"
	"github.com/linuxmatters/speechenergy/internal/config"
	"github.com/linuxmatters/speechenergy/internal/logger"
	"github.com/linuxmatters/speechenergy/internal/logging"
	"github.com/linuxmatters/speechenergy/internal/processor"
	"github.com/linuxmatters/speechenergy/internal/recognize"
	"github.com/linuxmatters/speechenergy/internal/ui"
)

// fileResult is the outcome of counting one input file.
type fileResult struct {
	Index      int
	Path       string
	Result     *processor.Result
	Transcript string
	ReportPath string
	Elapsed    time.Duration
	Err        error
}

// Words returns the word count, or 0 for a failed file.
func (r fileResult) Words() int {
	if r.Result == nil {
		return 0
	}
	return r.Result.Words
}

func (r fileResult) line() cli.FileLine {
	line := cli.FileLine{Path: r.Path, ReportPath: r.ReportPath, Err: r.Err}
	if r.Result == nil {
		return line
	}
	line.Words = r.Result.Words
	if r.Result.Method == processor.MethodPeaks {
		line.Detail = fmt.Sprintf("%d peaks, %d valleys", len(r.Result.Peaks), len(r.Result.Valleys))
	} else {
		line.Detail = string(r.Result.Method)
	}
	return line
}

// countFunc counts one file, reporting progress through progress.
type countFunc func(ctx context.Context, path string, progress processor.ProgressFunc) fileResult

// runBatch counts files with at most limit in flight and returns the results
// in input order. send, when not nil, receives UI messages for every file.
func runBatch(ctx context.Context, files []string, limit int, count countFunc, send func(tea.Msg)) []fileResult {
	if send == nil {
		send = func(tea.Msg) {}
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, limit))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = fileResult{Index: i, Path: path, Err: err}
				send(ui.FileCompleteMsg{FileIndex: i, Error: err})
				return nil
			}

			send(ui.FileStartMsg{FileIndex: i, FileName: filepath.Base(path)})

			progress := func(pass int, passName string, p, level float64, m *processor.Measurements) {
				send(ui.ProgressMsg{
					FileIndex:    i,
					Pass:         pass,
					PassName:     passName,
					Progress:     p,
					Level:        level,
					Measurements: m,
				})
			}

			r := count(gctx, path, progress)
			r.Index, r.Path = i, path
			results[i] = r
			send(completeMsg(r))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func completeMsg(r fileResult) ui.FileCompleteMsg {
	msg := ui.FileCompleteMsg{
		FileIndex:  r.Index,
		Elapsed:    r.Elapsed,
		ReportPath: r.ReportPath,
		Error:      r.Err,
	}
	if res := r.Result; res != nil {
		msg.Method = res.Method
		msg.Words = res.Words
		msg.Peaks = len(res.Peaks)
		msg.Valleys = len(res.Valleys)
		if res.Metadata != nil {
			msg.Duration = res.Metadata.Duration
		}
		if res.Measurements != nil {
			msg.NoiseFloor = res.Measurements.NoiseFloor
		}
	}
	return msg
}

// counter holds everything needed to count one file with the configured method.
type counter struct {
	cfg        *config.Config
	opts       processor.Options
	recognizer recognize.Recognizer
	logs       bool
}

func newCounter(cfg *config.Config, logs, dump bool) (*counter, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts.Dump = dump

	c := &counter{cfg: cfg, opts: opts, logs: logs}
	if cfg.Detection.Method == config.MethodSpeech {
		r, err := recognize.NewOpenAI(os.Getenv("OPENAI_API_KEY"), cfg.Recognition.Model, cfg.Recognition.Language)
		if err != nil {
			return nil, fmt.Errorf("speech method: %w", err)
		}
		c.recognizer = r
	}
	return c, nil
}

func (c *counter) count(ctx context.Context, path string, progress processor.ProgressFunc) fileResult {
	log := logger.With("main")
	start := time.Now()
	out := fileResult{Path: path}

	if c.recognizer != nil {
		progress(processor.PassDetect, "Transcribing", 0, 0, nil)
		rec, err := recognize.Count(ctx, c.recognizer, path, c.cfg.Recognition.Timeout)
		if err != nil {
			out.Err = err
			out.Elapsed = time.Since(start)
			return out
		}
		out.Transcript = rec.Text
		out.Result = &processor.Result{
			InputPath: path,
			Method:    processor.Method(config.MethodSpeech),
			Words:     rec.Words,
			Timings:   []processor.PassTiming{{Name: "Transcribing", Duration: time.Since(start)}},
		}
		progress(processor.PassDetect, "Transcribing", 1, 0, nil)
	} else {
		res, err := processor.CountFile(ctx, path, c.opts, progress)
		if err != nil {
			out.Err = err
			out.Elapsed = time.Since(start)
			return out
		}
		out.Result = res
	}
	out.Elapsed = time.Since(start)

	if c.logs {
		reportPath, err := logging.GenerateReport(logging.ReportData{
			InputPath:  path,
			StartTime:  start,
			EndTime:    time.Now(),
			Result:     out.Result,
			Transcript: out.Transcript,
			Extrema:    c.opts.Extrema,
		})
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("failed to write report")
		} else {
			out.ReportPath = reportPath
		}
	}

	log.Info().Str("file", path).Int("words", out.Result.Words).Dur("elapsed", out.Elapsed).Msg("counted")
	return out
}
