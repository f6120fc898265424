package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"vidtool/internal/probe"
	"vidtool/internal/util"
)

func fakeProbe(durationSec string) probe.Func {
	return func(ctx context.Context, path string) (*probe.Info, error) {
		return &probe.Info{
			Streams: []probe.Stream{{CodecType: "video", Width: 1280, Height: 720}},
			Format:  probe.Format{Duration: durationSec, Size: "1000000"},
		}, nil
	}
}

// fakeRunner replays canned lines through spec.Line without spawning
// anything. onRun fires after the lines, standing in for ffmpeg writing
// its output file.
type fakeRunner struct {
	lines []string
	err   error
	onRun func(spec util.CmdSpec)

	gotSpec util.CmdSpec
}

func (f *fakeRunner) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.gotSpec = spec
	for _, l := range f.lines {
		if spec.Cancel.Cancelled() {
			return util.CmdResult{Code: -1}, util.ErrCancelled
		}
		if spec.Line != nil {
			spec.Line(l)
		}
	}
	if f.onRun != nil {
		f.onRun(spec)
	}
	if f.err != nil {
		return util.CmdResult{Code: 1}, f.err
	}
	return util.CmdResult{Code: 0}, nil
}

func tempVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAddInputValidation(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("60.0"))

	if err := j.AddInput(ctx, filepath.Join(dir, "missing.mkv")); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("missing file: got %v, want ErrInputNotFound", err)
	}
	if err := j.AddInput(ctx, dir); !errors.Is(err, ErrNotAFile) {
		t.Errorf("directory: got %v, want ErrNotAFile", err)
	}

	in := tempVideo(t, dir, "a.mkv")
	if err := j.AddInput(ctx, in); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if got := j.TotalDurationMS(); got != 60000 {
		t.Errorf("TotalDurationMS = %v, want 60000", got)
	}

	in2 := tempVideo(t, dir, "b.mkv")
	if err := j.AddInput(ctx, in2); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if got := j.TotalDurationMS(); got != 120000 {
		t.Errorf("durations should accumulate: got %v, want 120000", got)
	}
}

func TestCommandShape(t *testing.T) {
	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mkv")

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("10"))
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	j.SetOutput(filepath.Join(dir, "out.mkv"))
	j.SetVideoCodec("libx265")
	j.SetCRF(28)

	got := j.Command(false)
	want := []string{"-hide_banner", "-i", in, "-vcodec", "libx265", "-crf", "28", filepath.Join(dir, "out.mkv")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Command(false) = %v, want %v", got, want)
	}

	got = j.Command(true)
	want = []string{"-hide_banner", "-stats", "-loglevel", "error", "-progress", "-",
		"-i", in, "-vcodec", "libx265", "-crf", "28", filepath.Join(dir, "out.mkv")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Command(true) = %v, want %v", got, want)
	}
}

func TestBuilderFlags(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Job)
		want  []string
	}{
		{"exclude video", (*Job).ExcludeVideo, []string{"-vn"}},
		{"exclude audio", (*Job).ExcludeAudio, []string{"-an"}},
		{"exclude subtitles", (*Job).ExcludeSubtitles, []string{"-sn"}},
		{"exclude data", (*Job).ExcludeData, []string{"-dn"}},
		{"fix resolution", (*Job).FixResolution, []string{"-vf", "scale=trunc(oh*a/2)*2:trunc(ow/a/2)*2"}},
		{"fix errors", (*Job).FixErrors, []string{"-err_detect", "ignore_err"}},
		{"copy subtitles", (*Job).CopySubtitles, []string{"-map", "0", "-scodec", "copy"}},
		{"audio codec", func(j *Job) { j.SetAudioCodec("aac") }, []string{"-acodec", "aac"}},
		{"custom flags", func(j *Job) { j.CustomFlags("-preset slow", "-tune animation") },
			[]string{"-preset", "slow", "-tune", "animation"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			j := NewJob("ffmpeg")
			tc.build(j)
			if !reflect.DeepEqual(j.args, tc.want) {
				t.Errorf("args = %v, want %v", j.args, tc.want)
			}
		})
	}
}

func TestOutputFromInput(t *testing.T) {
	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mp4")

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("10"))
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if err := j.OutputFromInput("_encoded", "mkv"); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "movie_encoded.mkv"); j.Output() != want {
		t.Errorf("Output = %q, want %q", j.Output(), want)
	}
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mkv")
	out := filepath.Join(dir, "movie_encoded.mkv")

	runner := &fakeRunner{
		lines: []string{
			"frame=100", "fps=50", "out_time_ms=30000000", "progress=continue",
			"frame=200", "fps=50", "out_time_ms=60000000", "progress=end",
		},
		onRun: func(util.CmdSpec) {
			if err := os.WriteFile(out, []byte("encoded"), 0o644); err != nil {
				t.Fatal(err)
			}
		},
	}

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("60"))
	j.SetRunner(runner)
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	j.SetOutput(out)

	var snapshots []ProgressInfo
	err := j.Run(context.Background(), RunOptions{
		OnProgress: func(p ProgressInfo) { snapshots = append(snapshots, p) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	if snapshots[0].Percent != 50 {
		t.Errorf("first snapshot percent = %v, want 50", snapshots[0].Percent)
	}
	if snapshots[1].Percent != 100 || !snapshots[1].Done() {
		t.Errorf("final snapshot percent=%v done=%v", snapshots[1].Percent, snapshots[1].Done())
	}

	// progress protocol requested because a callback was registered
	if runner.gotSpec.Args[1] != "-stats" {
		t.Errorf("expected progress flags in command, got %v", runner.gotSpec.Args)
	}
}

func TestRunNoProgressCallbackOmitsProtocol(t *testing.T) {
	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mkv")
	out := filepath.Join(dir, "out.mkv")

	runner := &fakeRunner{onRun: func(util.CmdSpec) {
		_ = os.WriteFile(out, []byte("x"), 0o644)
	}}

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("60"))
	j.SetRunner(runner)
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	j.SetOutput(out)

	if err := j.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, a := range runner.gotSpec.Args {
		if a == "-progress" {
			t.Error("progress protocol should not be requested without a callback")
		}
	}
}

func TestRunEmptyOutputCleanup(t *testing.T) {
	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mkv")
	out := filepath.Join(dir, "out.mkv")

	// exits 0 but leaves a zero-byte file behind
	runner := &fakeRunner{onRun: func(util.CmdSpec) {
		_ = os.WriteFile(out, nil, 0o644)
	}}

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("60"))
	j.SetRunner(runner)
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	j.SetOutput(out)

	err := j.Run(context.Background(), RunOptions{})
	if !errors.Is(err, ErrOutputNotProduced) {
		t.Fatalf("got %v, want ErrOutputNotProduced", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("zero-byte output should have been removed")
	}
}

func TestRunFailureCleansEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mkv")
	out := filepath.Join(dir, "out.mkv")

	runner := &fakeRunner{
		err: errors.New("exit status 1"),
		onRun: func(util.CmdSpec) {
			_ = os.WriteFile(out, nil, 0o644)
		},
	}

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("60"))
	j.SetRunner(runner)
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	j.SetOutput(out)

	if err := j.Run(context.Background(), RunOptions{}); err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("zero-byte output should have been removed on failure")
	}
}

func TestRunCancelledDistinguished(t *testing.T) {
	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mkv")

	cancel := &util.CancelToken{}
	cancel.Cancel()
	runner := &fakeRunner{lines: []string{"frame=1"}}

	j := NewJob("ffmpeg")
	j.SetProbe(fakeProbe("60"))
	j.SetRunner(runner)
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	j.SetOutput(filepath.Join(dir, "out.mkv"))

	err := j.Run(context.Background(), RunOptions{Cancel: cancel})
	if !errors.Is(err, util.ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}

func TestRunRequiresInputAndOutput(t *testing.T) {
	j := NewJob("ffmpeg")
	if err := j.Run(context.Background(), RunOptions{}); err == nil {
		t.Error("expected error with no inputs")
	}

	dir := t.TempDir()
	in := tempVideo(t, dir, "movie.mkv")
	j = NewJob("ffmpeg")
	j.SetProbe(fakeProbe("60"))
	if err := j.AddInput(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if err := j.Run(context.Background(), RunOptions{}); err == nil {
		t.Error("expected error with no output")
	}
}
