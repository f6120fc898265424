package cmd

import (
	"fmt"
	"io"
	"sync"

	"vidtool/internal/progress"
	"vidtool/internal/util/format"
)

// textReporter prints batch progress as plain lines, suitable for pipes
// and logs. Encoding progress is throttled to whole-percent steps.
type textReporter struct {
	out     io.Writer
	verbose bool

	mu       sync.Mutex
	lastPct  map[string]int
	lastStep map[string]progress.Stage
}

func (r *textReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastPct == nil {
		r.lastPct = make(map[string]int)
		r.lastStep = make(map[string]progress.Stage)
	}

	name := shortName(u.Input)
	if r.lastStep[u.JobID] != u.Stage {
		r.lastStep[u.JobID] = u.Stage
		switch u.Stage {
		case progress.StageProbing:
			fmt.Fprintf(r.out, "%s: probing\n", name)
		case progress.StageEncoding:
			fmt.Fprintf(r.out, "%s: encoding\n", name)
		}
	}

	if u.Stage != progress.StageEncoding || u.Percent < 0 {
		return
	}
	pct := int(u.Percent)
	if pct/10 == r.lastPct[u.JobID]/10 && pct != 100 {
		return
	}
	r.lastPct[u.JobID] = pct

	line := fmt.Sprintf("%s: %3d%%", name, pct)
	if u.Speed != nil && *u.Speed != "" {
		line += " " + *u.Speed
	}
	if u.ETA != nil {
		line += " eta " + format.ETA(u.ETA.Seconds())
	}
	fmt.Fprintln(r.out, line)
}

func (r *textReporter) Log(l progress.Log) {
	if r.verbose {
		fmt.Fprintf(r.out, "  %s\n", l.Line)
	}
}

func (r *textReporter) Result(res progress.Result) {
	name := shortName(res.InputPath)
	switch {
	case res.Err != nil:
		fmt.Fprintf(r.out, "%s: failed: %v\n", name, res.Err)
	case res.Skipped:
		fmt.Fprintf(r.out, "%s: skipped, output exists\n", name)
	default:
		fmt.Fprintf(r.out, "%s: done -> %s\n", name, res.OutputPath)
	}
}
