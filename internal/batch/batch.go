// Package batch runs encode jobs over a list of files, strictly
// sequentially, with per-file error capture and cooperative cancellation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vidtool/internal/encoder"
	"vidtool/internal/model"
	"vidtool/internal/output"
	"vidtool/internal/probe"
	"vidtool/internal/progress"
	"vidtool/internal/util"
)

// maxErrorDetails caps how many per-file failures the summary spells out.
const maxErrorDetails = 5

// Runner executes one batch. Each run owns its own generator and options;
// nothing here is shared across concurrent batches.
type Runner struct {
	FFmpeg    string
	Probe     probe.Func
	Generator *output.Generator
	Options   model.EncodingOptions

	Reporter progress.Reporter
	Cancel   *util.CancelToken
	Logger   zerolog.Logger

	// Exec overrides subprocess execution, for tests.
	Exec util.Runner

	// DryRun resolves paths and reports results without launching ffmpeg.
	DryRun bool

	// Verbose echoes each ffmpeg command line and its output to stderr.
	Verbose bool
}

// Summary aggregates the outcome of one batch run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled bool
	Errors    []string // "file: reason", in processing order
}

// String renders the user-facing completion report. Failure details are
// capped at the first few with a truncation notice.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed, %d skipped", s.Succeeded, s.Failed, s.Skipped)
	if s.Cancelled {
		b.WriteString(" (cancelled)")
	}
	if len(s.Errors) > 0 {
		b.WriteString("\nErrors:")
		for i, e := range s.Errors {
			if i == maxErrorDetails {
				fmt.Fprintf(&b, "\n  ... and %d more errors", len(s.Errors)-maxErrorDetails)
				break
			}
			fmt.Fprintf(&b, "\n  %s", e)
		}
	}
	return b.String()
}

// Run processes files in order. Setup problems (no files, no ffmpeg) abort
// before any file is touched; per-file failures are recorded and the batch
// continues. Cancellation is checked before each new file and between
// subprocess output lines.
func (r *Runner) Run(ctx context.Context, files []string) (Summary, error) {
	if len(files) == 0 {
		return Summary{}, errors.New("no files to process")
	}
	if r.FFmpeg == "" {
		return Summary{}, errors.New("ffmpeg binary not configured")
	}
	if r.Probe == nil {
		return Summary{}, errors.New("probe function not configured")
	}

	gen := r.Generator
	if gen == nil {
		gen = output.New()
	}
	reporter := r.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	var sum Summary
	for _, file := range files {
		if r.Cancel.Cancelled() {
			sum.Cancelled = true
			break
		}
		r.processFile(ctx, file, gen, reporter, &sum)
	}
	return sum, nil
}

func (r *Runner) processFile(ctx context.Context, file string, gen *output.Generator, reporter progress.Reporter, sum *Summary) {
	jobID := uuid.NewString()
	name := filepath.Base(file)
	log := r.Logger.With().Str("file", name).Logger()

	fail := func(err error) {
		log.Error().Err(err).Msg("file failed")
		sum.Failed++
		sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", name, err))
		reporter.Result(progress.Result{JobID: jobID, InputPath: file, Err: err})
	}

	reporter.Update(progress.Update{
		JobID: jobID, Input: file, Stage: progress.StageProbing, Percent: -1,
		Message: "Probing " + name,
	})

	info, err := r.Probe(ctx, file)
	if err != nil {
		fail(err)
		return
	}

	outPath, err := gen.Generate(file, info, &r.Options)
	if err != nil {
		fail(err)
		return
	}

	if _, statErr := os.Stat(outPath); statErr == nil {
		switch gen.Policy() {
		case output.PolicySkip:
			log.Info().Str("output", outPath).Msg("output exists, skipping")
			sum.Skipped++
			reporter.Result(progress.Result{
				JobID: jobID, InputPath: file, OutputPath: outPath, Skipped: true,
			})
			return
		case output.PolicyOverwrite:
			log.Info().Str("output", outPath).Msg("output exists, overwriting")
		}
		// increment was already resolved by the generator
	}

	if r.DryRun {
		log.Info().Str("output", outPath).Msg("dry run")
		sum.Succeeded++
		reporter.Result(progress.Result{JobID: jobID, InputPath: file, OutputPath: outPath})
		return
	}

	// the main input is already probed; reuse it for the duration sum
	cachedProbe := func(ctx context.Context, path string) (*probe.Info, error) {
		if path == file {
			return info, nil
		}
		return r.Probe(ctx, path)
	}
	job, err := encoder.BuildJob(ctx, r.FFmpeg, file, r.Options, cachedProbe, func(msg string) {
		log.Warn().Msg(msg)
	})
	if err != nil {
		fail(err)
		return
	}
	if r.Exec != nil {
		job.SetRunner(r.Exec)
	}
	job.SetVerbose(r.Verbose)
	job.SetOutput(outPath)
	// trust only the video's own duration for progress accounting
	job.SetTotalDurationMS(info.DurationMS())

	reporter.Update(progress.Update{
		JobID: jobID, Input: file, Stage: progress.StageEncoding, Percent: 0,
		Message: fmt.Sprintf("%s -> %s", name, filepath.Base(outPath)),
	})

	runErr := job.Run(ctx, encoder.RunOptions{
		Cancel: r.Cancel,
		OnLine: func(line string) {
			reporter.Log(progress.Log{JobID: jobID, Stream: progress.StreamStdout, Line: line})
		},
		OnProgress: func(p encoder.ProgressInfo) {
			u := progress.Update{
				JobID: jobID, Input: file, Stage: progress.StageEncoding,
				Percent: p.Percent,
				Message: fmt.Sprintf("Encoding %s", name),
			}
			if p.ETASeconds > 0 {
				eta := time.Duration(p.ETASeconds * float64(time.Second))
				u.ETA = &eta
			}
			if p.Frame > 0 {
				f := p.Frame
				u.Frame = &f
			}
			if p.FPS > 0 {
				fps := p.FPS
				u.FPS = &fps
			}
			if p.TotalSize > 0 {
				b := p.TotalSize
				u.Bytes = &b
			}
			if p.Speed != "" {
				s := p.Speed
				u.Speed = &s
			}
			reporter.Update(u)
		},
	})
	if runErr != nil {
		if errors.Is(runErr, util.ErrCancelled) {
			log.Info().Msg("encode cancelled")
			sum.Cancelled = true
			reporter.Result(progress.Result{JobID: jobID, InputPath: file, Err: runErr})
			return
		}
		fail(runErr)
		return
	}

	var bytes int64
	if fi, err := os.Stat(outPath); err == nil {
		bytes = fi.Size()
	}
	log.Info().Str("output", outPath).Int64("bytes", bytes).Msg("encode complete")
	sum.Succeeded++
	reporter.Result(progress.Result{
		JobID: jobID, InputPath: file, OutputPath: outPath, Bytes: bytes,
	})
}
