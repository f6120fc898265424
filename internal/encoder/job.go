package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vidtool/internal/probe"
	"vidtool/internal/util"
)

// Job assembles one ffmpeg invocation: one or more inputs, a resolved
// output path, and an accumulated argument list. Configure it with the
// builder methods, then call Run exactly once.
type Job struct {
	ffmpeg  string
	probeFn probe.Func
	runner  util.Runner

	inputs []string
	infos  []*probe.Info
	output string
	args   []string

	totalDurationMS float64
	verbose         bool
}

// NewJob returns an empty Job that will invoke the given ffmpeg binary.
func NewJob(ffmpegPath string) *Job {
	return &Job{
		ffmpeg: ffmpegPath,
		runner: util.NewDefaultRunner(),
	}
}

// SetProbe overrides how input metadata is obtained. Defaults to no
// probing, in which case AddInput fails.
func (j *Job) SetProbe(fn probe.Func) { j.probeFn = fn }

// SetRunner overrides subprocess execution, for tests.
func (j *Job) SetRunner(r util.Runner) { j.runner = r }

// SetVerbose echoes the ffmpeg command line and its output to stderr.
func (j *Job) SetVerbose(v bool) { j.verbose = v }

// AddInput validates and probes an input file, accumulating its duration
// into the job's total.
func (j *Job) AddInput(ctx context.Context, path string) error {
	ok, err := util.IsRegularFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	if j.probeFn == nil {
		return errors.New("job has no probe function configured")
	}
	info, err := j.probeFn(ctx, path)
	if err != nil {
		return err
	}

	j.inputs = append(j.inputs, path)
	j.infos = append(j.infos, info)
	j.totalDurationMS += info.DurationMS()
	return nil
}

// Inputs returns the accepted input paths in order.
func (j *Job) Inputs() []string { return j.inputs }

// Info returns the probed metadata for the input at idx, or nil.
func (j *Job) Info(idx int) *probe.Info {
	if idx < 0 || idx >= len(j.infos) {
		return nil
	}
	return j.infos[idx]
}

// SetOutput sets the resolved output path.
func (j *Job) SetOutput(path string) { j.output = path }

// Output returns the configured output path.
func (j *Job) Output() string { return j.output }

// OutputFromInput derives the output path from the first input by appending
// a suffix to its stem and swapping the extension.
func (j *Job) OutputFromInput(suffix, extension string) error {
	if len(j.inputs) == 0 {
		return errors.New("job has no inputs")
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	in := j.inputs[0]
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	j.output = filepath.Join(filepath.Dir(in), stem+suffix+extension)
	return nil
}

// TotalDurationMS returns the summed probed duration of all inputs.
func (j *Job) TotalDurationMS() float64 { return j.totalDurationMS }

// SetTotalDurationMS overrides the computed total, for callers that know
// better (e.g. a trimmed encode).
func (j *Job) SetTotalDurationMS(ms float64) { j.totalDurationMS = ms }

// MapAllStreams maps every stream of the given input into the output.
func (j *Job) MapAllStreams(inputIndex string) {
	j.args = append(j.args, "-map", inputIndex)
}

// ExcludeVideo drops all video streams.
func (j *Job) ExcludeVideo() { j.args = append(j.args, "-vn") }

// ExcludeAudio drops all audio streams.
func (j *Job) ExcludeAudio() { j.args = append(j.args, "-an") }

// ExcludeSubtitles drops all subtitle streams.
func (j *Job) ExcludeSubtitles() { j.args = append(j.args, "-sn") }

// ExcludeData drops all data streams.
func (j *Job) ExcludeData() { j.args = append(j.args, "-dn") }

// SetVideoCodec selects the video encoder.
func (j *Job) SetVideoCodec(codec string) {
	j.args = append(j.args, "-vcodec", codec)
}

// SetAudioCodec selects the audio encoder.
func (j *Job) SetAudioCodec(codec string) {
	j.args = append(j.args, "-acodec", codec)
}

// SetSubtitleCodec selects the subtitle encoder.
func (j *Job) SetSubtitleCodec(codec string) {
	j.args = append(j.args, "-scodec", codec)
}

// SetCRF sets the constant rate factor.
func (j *Job) SetCRF(crf int) {
	j.args = append(j.args, "-crf", strconv.Itoa(crf))
}

// FixResolution rounds output dimensions down to even values, which some
// encoders require.
func (j *Job) FixResolution() {
	j.args = append(j.args, "-vf", "scale=trunc(oh*a/2)*2:trunc(ow/a/2)*2")
}

// FixErrors tells ffmpeg to ignore decode errors in the source.
func (j *Job) FixErrors() {
	j.args = append(j.args, "-err_detect", "ignore_err")
}

// CopySubtitles maps all streams from the first input and passes subtitle
// streams through unchanged.
func (j *Job) CopySubtitles() {
	j.MapAllStreams("0")
	j.SetSubtitleCodec("copy")
}

// CustomFlags appends raw ffmpeg arguments, splitting on whitespace.
func (j *Job) CustomFlags(flags ...string) {
	j.args = append(j.args, strings.Fields(strings.Join(flags, " "))...)
}

// Command returns the full argument list (excluding the binary itself).
// When withProgress is set the key=value progress protocol is requested on
// stdout and normal logging is quieted to errors only.
func (j *Job) Command(withProgress bool) []string {
	cmd := []string{"-hide_banner"}
	if withProgress {
		cmd = append(cmd, "-stats", "-loglevel", "error", "-progress", "-")
	}
	for _, in := range j.inputs {
		cmd = append(cmd, "-i", in)
	}
	cmd = append(cmd, j.args...)
	cmd = append(cmd, j.output)
	return cmd
}

// RunOptions carries the per-run observers.
type RunOptions struct {
	// OnLine receives every raw output line.
	OnLine func(string)

	// OnProgress receives a snapshot at each progress boundary. Setting it
	// enables ffmpeg's progress protocol.
	OnProgress func(ProgressInfo)

	// Cancel is polled between lines.
	Cancel *util.CancelToken
}

// Run launches ffmpeg and blocks until it finishes, streaming output
// through the configured observers. A zero-byte output left behind by any
// failure path is removed.
func (j *Job) Run(ctx context.Context, opts RunOptions) error {
	if len(j.inputs) == 0 {
		return errors.New("job requires at least one input")
	}
	if j.output == "" {
		return errors.New("job requires an output path")
	}

	if err := util.CheckDirWritable(filepath.Dir(j.output)); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	// clear a zero-byte stub from a previous failed attempt
	if _, err := util.RemoveIfEmpty(j.output); err != nil {
		return err
	}

	pinfo := &ProgressInfo{}
	line := func(s string) {
		if opts.OnLine != nil {
			opts.OnLine(s)
		}
		if pinfo.UpdateFromLine(s) && opts.OnProgress != nil {
			pinfo.CalculateProgress(j.totalDurationMS)
			opts.OnProgress(*pinfo)
		}
	}

	_, runErr := j.runner.Run(ctx, util.CmdSpec{
		Path:    j.ffmpeg,
		Args:    j.Command(opts.OnProgress != nil),
		Verbose: j.verbose,
		Line:    line,
		Cancel:  opts.Cancel,
	})
	if runErr != nil {
		_, _ = util.RemoveIfEmpty(j.output)
		if errors.Is(runErr, util.ErrCancelled) {
			return runErr
		}
		return fmt.Errorf("ffmpeg failed: %w", runErr)
	}

	fi, err := os.Stat(j.output)
	if err != nil || fi.Size() == 0 {
		_, _ = util.RemoveIfEmpty(j.output)
		return fmt.Errorf("%w: %s", ErrOutputNotProduced, j.output)
	}
	return nil
}
