package ui

import (
	"path/filepath"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"

	"vidtool/internal/progress"
)

const logsKeep = 200

// jobState tracks the on-screen state of one input file. Percent is
// negative until the first progress snapshot arrives.
type jobState struct {
	Input   string
	Output  string
	Stage   progress.Stage
	Percent float64
	ETA     *time.Duration
	FPS     *float64
	Speed   *string
	Message string
	Err     error
	Skipped bool
	Logs    []string
	Bar     bprogress.Model
}

func newJobState(input string) *jobState {
	bar := bprogress.New(bprogress.WithDefaultGradient())
	bar.Width = 40
	return &jobState{
		Input:   input,
		Stage:   progress.StageProbing,
		Percent: -1,
		Bar:     bar,
	}
}

func (j *jobState) Name() string {
	return filepath.Base(j.Input)
}

func (j *jobState) apply(u progress.Update) {
	j.Stage = u.Stage
	if u.Percent >= 0 {
		j.Percent = u.Percent
	}
	if u.ETA != nil {
		j.ETA = u.ETA
	}
	if u.FPS != nil {
		j.FPS = u.FPS
	}
	if u.Speed != nil {
		j.Speed = u.Speed
	}
	if u.Message != "" {
		j.Message = u.Message
	}
}

func (j *jobState) appendLog(line string) {
	j.Logs = append(j.Logs, line)
	if len(j.Logs) > logsKeep {
		j.Logs = j.Logs[len(j.Logs)-logsKeep:]
	}
}
