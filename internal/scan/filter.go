package scan

import (
	"context"
	"path/filepath"
	"strings"

	"vidtool/internal/probe"
)

// Filter narrows a scanned file list. Zero values mean "no constraint".
// Name-based criteria apply to the lowercased base name; metadata criteria
// require a probe and silently drop files that cannot be analyzed.
type Filter struct {
	MinSizeMB float64
	MaxSizeMB float64

	MinDurationSec float64
	MaxDurationSec float64

	MinWidth  int
	MaxWidth  int
	MinHeight int
	MaxHeight int

	VideoCodecs []string
	AudioCodecs []string

	IncludePatterns []string // shell globs, any must match
	ExcludePatterns []string // shell globs, none may match
}

// NeedsProbe reports whether any criterion requires media metadata.
func (f *Filter) NeedsProbe() bool {
	return f.MinSizeMB > 0 || f.MaxSizeMB > 0 ||
		f.MinDurationSec > 0 || f.MaxDurationSec > 0 ||
		f.MinWidth > 0 || f.MaxWidth > 0 || f.MinHeight > 0 || f.MaxHeight > 0 ||
		len(f.VideoCodecs) > 0 || len(f.AudioCodecs) > 0
}

// MatchesName applies only the pattern criteria.
func (f *Filter) MatchesName(path string) bool {
	name := strings.ToLower(filepath.Base(path))

	if len(f.IncludePatterns) > 0 {
		ok := false
		for _, p := range f.IncludePatterns {
			if m, _ := filepath.Match(strings.ToLower(p), name); m {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, p := range f.ExcludePatterns {
		if m, _ := filepath.Match(strings.ToLower(p), name); m {
			return false
		}
	}
	return true
}

// MatchesInfo applies the metadata criteria against a probed file.
func (f *Filter) MatchesInfo(info *probe.Info) bool {
	sizeMB := float64(info.SizeBytes()) / (1024 * 1024)
	if f.MinSizeMB > 0 && sizeMB < f.MinSizeMB {
		return false
	}
	if f.MaxSizeMB > 0 && sizeMB > f.MaxSizeMB {
		return false
	}

	dur := info.DurationSeconds()
	if f.MinDurationSec > 0 && dur < f.MinDurationSec {
		return false
	}
	if f.MaxDurationSec > 0 && dur > f.MaxDurationSec {
		return false
	}

	w, h := info.MaxDimensions()
	if f.MinWidth > 0 && w < f.MinWidth {
		return false
	}
	if f.MaxWidth > 0 && w > f.MaxWidth {
		return false
	}
	if f.MinHeight > 0 && h < f.MinHeight {
		return false
	}
	if f.MaxHeight > 0 && h > f.MaxHeight {
		return false
	}

	if len(f.VideoCodecs) > 0 && !codecMatch(f.VideoCodecs, info.VideoStreams()) {
		return false
	}
	if len(f.AudioCodecs) > 0 && !codecMatch(f.AudioCodecs, info.AudioStreams()) {
		return false
	}
	return true
}

func codecMatch(wanted []string, streams []probe.Stream) bool {
	for _, w := range wanted {
		for _, s := range streams {
			if strings.EqualFold(w, s.CodecName) {
				return true
			}
		}
	}
	return false
}

// Apply filters files, probing lazily only when a metadata criterion is
// configured. Files that fail to probe are dropped.
func (f *Filter) Apply(ctx context.Context, files []string, probeFn probe.Func) []string {
	var out []string
	needProbe := f.NeedsProbe()
	for _, path := range files {
		if !f.MatchesName(path) {
			continue
		}
		if needProbe {
			if probeFn == nil {
				continue
			}
			info, err := probeFn(ctx, path)
			if err != nil {
				continue
			}
			if !f.MatchesInfo(info) {
				continue
			}
		}
		out = append(out, path)
	}
	return out
}
