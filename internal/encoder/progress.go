package encoder

import (
	"strconv"
	"strings"
)

// ProgressInfo accumulates state from ffmpeg's -progress key=value output.
// One instance lives per encode invocation; UpdateFromLine mutates it in
// place as lines arrive, and CalculateProgress derives percent and ETA
// once a snapshot boundary is reached.
type ProgressInfo struct {
	Frame     int
	FPS       float64
	Bitrate   string
	TotalSize int64
	OutTimeMS int64
	Progress  string // "continue" or "end"
	Speed     string // e.g. "2.3x"

	// Derived by CalculateProgress; zero until a positive total duration
	// has been applied.
	Percent    float64
	ETASeconds float64
}

// UpdateFromLine parses one key=value line. Unknown keys are ignored so the
// parser stays forward-compatible with new ffmpeg versions, as are lines
// without '='. It reports whether the line was a snapshot boundary
// (progress=continue or progress=end), meaning a complete snapshot is ready
// for the caller.
func (p *ProgressInfo) UpdateFromLine(line string) (boundary bool) {
	kv := strings.SplitN(line, "=", 2)
	if len(kv) != 2 {
		return false
	}
	key := strings.TrimSpace(kv[0])
	val := strings.TrimSpace(kv[1])

	switch key {
	case "frame":
		p.Frame, _ = strconv.Atoi(val)
	case "fps":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			f = 0
		}
		p.FPS = f
	case "bitrate":
		p.Bitrate = val
	case "total_size":
		p.TotalSize, _ = strconv.ParseInt(val, 10, 64)
	case "out_time_ms", "out_time_us":
		// ffmpeg reports microseconds under both names
		us, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			p.OutTimeMS = us / 1000
		}
	case "progress":
		p.Progress = val
		return true
	case "speed":
		p.Speed = val
	}
	return false
}

// CalculateProgress derives Percent and ETASeconds from the accumulated
// state and the job's known total duration in milliseconds. With a
// non-positive duration or no elapsed output time both derive to zero.
func (p *ProgressInfo) CalculateProgress(totalDurationMS float64) {
	if totalDurationMS <= 0 || p.OutTimeMS <= 0 {
		p.Percent = 0
		p.ETASeconds = 0
		return
	}

	p.Percent = float64(p.OutTimeMS) / totalDurationMS * 100
	if p.Percent > 100 {
		p.Percent = 100
	}

	p.ETASeconds = 0
	if p.FPS > 0 && p.Percent > 0 {
		elapsedSec := float64(p.OutTimeMS) / 1000
		remainingSec := (totalDurationMS - float64(p.OutTimeMS)) / 1000
		observedRate := float64(p.Frame) / elapsedSec
		eta := remainingSec * observedRate / p.FPS
		if eta > 0 {
			p.ETASeconds = eta
		}
	}
}

// Done reports whether the final snapshot has been seen.
func (p *ProgressInfo) Done() bool { return p.Progress == "end" }
