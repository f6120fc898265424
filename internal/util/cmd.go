package util

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// ErrCancelled is returned by Run when the CmdSpec's cancel token was set
// mid-stream. It is distinguishable from a plain non-zero exit.
var ErrCancelled = errors.New("cancelled")

// tailLimit bounds how many combined-output lines are retained for error
// reporting.
const tailLimit = 200

// CancelToken is a one-shot cooperative cancellation flag, safe to share
// between the UI and a worker goroutine. A nil token never reports cancelled.
type CancelToken struct {
	flag atomic.Bool
}

// Cancel requests cancellation. Safe to call more than once.
func (t *CancelToken) Cancel() {
	if t != nil {
		t.flag.Store(true)
	}
}

// Cancelled reports whether cancellation has been requested.
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.flag.Load()
}

// CmdSpec describes a subprocess to run.
type CmdSpec struct {
	Path    string   // Binary path
	Args    []string // Arguments
	Env     []string // Optional environment variables (KEY=VALUE). If nil, inherit.
	Dir     string   // Working directory; empty = inherit.
	Verbose bool     // Echo the command line and its output to stderr

	// Line is called for each line of combined stdout+stderr output.
	Line func(string)

	// Cancel is polled before each line is processed. When set mid-stream
	// the process is terminated and Run returns ErrCancelled.
	Cancel *CancelToken

	// GracePeriod is how long a terminated process gets before it is
	// forcefully killed. Zero means a 3 second default.
	GracePeriod time.Duration
}

// CmdResult contains the retained output tail and exit status.
type CmdResult struct {
	Lines []string // last lines of combined output
	Code  int
}

// Runner abstracts subprocess execution so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, spec CmdSpec) (CmdResult, error)
}

type execRunner struct{}

// NewDefaultRunner returns a Runner backed by Run.
func NewDefaultRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	return Run(ctx, spec)
}

// Run executes the command, streaming combined stdout+stderr line by line to
// spec.Line. Stderr is redirected into the stdout pipe so a single reader
// observes output in production order. The cancel token is checked once per
// received line; on cancellation the process is sent SIGTERM, then SIGKILL
// after the grace period, and Run returns ErrCancelled once the stream
// drains. The process is reaped on every exit path.
func Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	if spec.Path == "" {
		return CmdResult{Code: -1}, errors.New("empty command path")
	}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if spec.Env != nil {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return CmdResult{Code: -1}, err
	}
	// Single combined stream: both descriptors share the same write end.
	cmd.Stderr = cmd.Stdout

	if spec.Verbose {
		fmt.Fprintf(os.Stderr, "+ %s\n", shellQuote(spec.Path, spec.Args))
	}

	if err := cmd.Start(); err != nil {
		return CmdResult{Code: -1}, err
	}

	grace := spec.GracePeriod
	if grace <= 0 {
		grace = 3 * time.Second
	}

	var tail []string
	cancelled := false

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if !cancelled && spec.Cancel.Cancelled() {
			cancelled = true
			terminate(cmd, grace)
			// Keep draining the pipe so Wait can reap the process.
			continue
		}
		if cancelled {
			continue
		}
		line := sc.Text()
		tail = append(tail, line)
		if len(tail) > tailLimit {
			tail = tail[1:]
		}
		if spec.Line != nil {
			spec.Line(line)
		}
		if spec.Verbose {
			fmt.Fprintln(os.Stderr, line)
		}
	}

	waitErr := cmd.Wait()
	res := CmdResult{Lines: tail, Code: exitCode(waitErr)}
	// The token may have been set after the last output line, with the
	// process killed through the context before another checkpoint ran.
	if cancelled || spec.Cancel.Cancelled() {
		return res, ErrCancelled
	}
	if waitErr != nil {
		return res, fmt.Errorf("command failed (exit %d): %w", res.Code, waitErr)
	}
	return res, nil
}

// terminate asks the process to exit and schedules a kill if it lingers.
func terminate(cmd *exec.Cmd, grace time.Duration) {
	p := cmd.Process
	if p == nil {
		return
	}
	_ = p.Signal(syscall.SIGTERM)
	go func() {
		time.Sleep(grace)
		// No-op if the process already exited.
		_ = p.Kill()
	}()
}

func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// shellQuote returns a printable shell-like command string for logging.
func shellQuote(path string, args []string) string {
	b := &strings.Builder{}
	b.WriteString(quote(path))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(quote(a))
	}
	return b.String()
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n\"'\\$`(){}[]*&;|<>?!") {
		return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
	}
	return s
}
