package progress

import "time"

// Stage identifies a high-level step in a batch run.
type Stage string

const (
	StageDeps      Stage = "deps"
	StageProbing   Stage = "probing"
	StagePlanning  Stage = "planning"
	StageEncoding  Stage = "encoding"
	StageCompleted Stage = "completed"
	StageSkipped   Stage = "skipped"
	StageError     Stage = "error"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job.
// Percent is 0..100 when known; set to a negative value (e.g., -1) to mean unknown.
type Update struct {
	JobID   string
	Input   string
	Stage   Stage
	Percent float64 // 0..100, or <0 if unknown

	ETA     *time.Duration // optional
	Frame   *int           // optional current frame count
	FPS     *float64       // optional encode frame rate
	Bytes   *int64         // optional cumulative output bytes
	Speed   *string        // optional, e.g., "2.3x"
	Message string         // short human-friendly status line
}

// Log is a structured log line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it completes, is skipped, or fails.
type Result struct {
	JobID      string
	InputPath  string
	OutputPath string
	Bytes      int64
	Skipped    bool
	Err        error // nil on success or skip
}

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop is a Reporter that discards everything.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}
