// Package probe wraps ffprobe JSON output into typed media metadata.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"vidtool/internal/util/format"
)

// ErrMetadataExtraction marks probe failures: the tool could not run or its
// output did not parse.
var ErrMetadataExtraction = errors.New("metadata extraction failed")

// Func obtains metadata for one file. The batch runner takes this shape so
// tests can substitute canned results.
type Func func(ctx context.Context, path string) (*Info, error)

// Stream describes a single stream in the media container.
type Stream struct {
	Index              int    `json:"index"`
	CodecName          string `json:"codec_name"`
	CodecLongName      string `json:"codec_long_name"`
	CodecType          string `json:"codec_type"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	CodedWidth         int    `json:"coded_width"`
	CodedHeight        int    `json:"coded_height"`
	DisplayAspectRatio string `json:"display_aspect_ratio"`
	Channels           int    `json:"channels"`
	BitRate            string `json:"bit_rate"`
}

// Format captures container-level metadata.
type Format struct {
	Filename       string `json:"filename"`
	NBStreams      int    `json:"nb_streams"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// Info is the parsed result of probing one file. Immutable after
// construction.
type Info struct {
	Path    string
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`

	raw []byte
}

// Inspect runs ffprobe against path and parses its JSON output.
func Inspect(ctx context.Context, binary, path string) (*Info, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMetadataExtraction)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", ErrMetadataExtraction, path, err)
	}
	info, perr := Parse(out)
	if perr != nil {
		return nil, perr
	}
	info.Path = path
	return info, nil
}

// Parse decodes raw ffprobe JSON.
func Parse(data []byte) (*Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataExtraction, err)
	}
	info.raw = append([]byte(nil), data...)
	return &info, nil
}

// RawJSON returns the raw ffprobe payload.
func (i *Info) RawJSON() []byte {
	return append([]byte(nil), i.raw...)
}

func (i *Info) streamsOfType(kind string) []Stream {
	var out []Stream
	for _, s := range i.Streams {
		if strings.EqualFold(s.CodecType, kind) {
			out = append(out, s)
		}
	}
	return out
}

// VideoStreams returns the video streams in container order.
func (i *Info) VideoStreams() []Stream { return i.streamsOfType("video") }

// AudioStreams returns the audio streams in container order.
func (i *Info) AudioStreams() []Stream { return i.streamsOfType("audio") }

// SubtitleStreams returns the subtitle streams in container order.
func (i *Info) SubtitleStreams() []Stream { return i.streamsOfType("subtitle") }

// DataStreams returns the data streams in container order.
func (i *Info) DataStreams() []Stream { return i.streamsOfType("data") }

// MaxDimensions returns the largest width and height across all video
// streams, falling back to coded dimensions when presentation ones are
// absent.
func (i *Info) MaxDimensions() (width, height int) {
	for _, s := range i.VideoStreams() {
		w, h := s.Width, s.Height
		if w == 0 {
			w = s.CodedWidth
		}
		if h == 0 {
			h = s.CodedHeight
		}
		if w > width {
			width = w
		}
		if h > height {
			height = h
		}
	}
	return width, height
}

// DurationSeconds returns the container duration in seconds, or 0 when
// unavailable.
func (i *Info) DurationSeconds() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(i.Format.Duration), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// DurationMS returns the container duration in milliseconds.
func (i *Info) DurationMS() float64 {
	return i.DurationSeconds() * 1000
}

// SizeBytes returns the container size in bytes, or 0 when unavailable.
func (i *Info) SizeBytes() int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(i.Format.Size), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// SizeMB returns the container size in whole megabytes.
func (i *Info) SizeMB() int64 {
	return i.SizeBytes() / (1024 * 1024)
}

// BitRate returns the container bitrate in bits per second, or 0 when
// unavailable.
func (i *Info) BitRate() int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(i.Format.BitRate), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Runtime returns the duration as an H:MM:SS string.
func (i *Info) Runtime() string {
	return format.Runtime(i.DurationSeconds())
}

// InfoBlock renders a human-readable summary of the container and its
// streams, one stream per line grouped by kind.
func (i *Info) InfoBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s - %s, Runtime = %s\n",
		i.Format.Filename, i.Format.FormatName, i.Format.FormatLongName, i.Runtime())

	width, height := i.MaxDimensions()
	if width%2 == 1 || height%2 == 1 {
		fmt.Fprintf(&b, "Warning: Resolution (%dx%d) is not divisible by 2.\n", width, height)
	}

	if video := i.VideoStreams(); len(video) > 0 {
		fmt.Fprintf(&b, "%d Video %s: %dx%d\n", len(video), plural("stream", len(video)), width, height)
		for _, s := range video {
			fmt.Fprintf(&b, "#%d %s: %s", s.Index, s.CodecType, s.CodecLongName)
			if s.Height > 0 {
				fmt.Fprintf(&b, " - %d x %d", s.Width, s.Height)
			}
			if s.CodedHeight > 0 {
				fmt.Fprintf(&b, " - %d x %d", s.CodedWidth, s.CodedHeight)
			}
			if s.DisplayAspectRatio != "" {
				fmt.Fprintf(&b, " - DAR: %s", s.DisplayAspectRatio)
			}
			fmt.Fprintf(&b, " - bitrate: %s\n", orNA(s.BitRate))
		}
	}

	if audio := i.AudioStreams(); len(audio) > 0 {
		fmt.Fprintf(&b, "%d Audio %s:\n", len(audio), plural("stream", len(audio)))
		for _, s := range audio {
			fmt.Fprintf(&b, "#%d %s: %s", s.Index, s.CodecType, s.CodecLongName)
			if s.Channels > 0 {
				fmt.Fprintf(&b, " - channels: %d", s.Channels)
			}
			fmt.Fprintf(&b, " - bitrate: %s\n", orNA(s.BitRate))
		}
	}

	for _, group := range []struct {
		kind    string
		streams []Stream
	}{
		{"Subtitle", i.SubtitleStreams()},
		{"Data", i.DataStreams()},
	} {
		if len(group.streams) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%d %s %s:\n", len(group.streams), group.kind, plural("stream", len(group.streams)))
		for _, s := range group.streams {
			fmt.Fprintf(&b, "#%d %s: %s\n", s.Index, s.CodecType, s.CodecLongName)
		}
	}

	return b.String()
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
