package encoder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"vidtool/internal/model"
	"vidtool/internal/probe"
)

// BuildJob constructs a Job for one input file with the resolved encoding
// options applied. warn receives non-fatal notices (currently a missing
// sibling .srt file); it may be nil.
func BuildJob(ctx context.Context, ffmpegPath, input string, opts model.EncodingOptions, probeFn probe.Func, warn func(string)) (*Job, error) {
	j := NewJob(ffmpegPath)
	j.SetProbe(probeFn)
	if err := j.AddInput(ctx, input); err != nil {
		return nil, err
	}
	if err := ApplyOptions(ctx, j, input, opts, warn); err != nil {
		return nil, err
	}
	return j, nil
}

// ApplyOptions translates each enabled option into its ffmpeg flags, in the
// same order the flags are expected on the command line.
func ApplyOptions(ctx context.Context, j *Job, input string, opts model.EncodingOptions, warn func(string)) error {
	if opts.EncodeVideo {
		j.SetVideoCodec(opts.VideoCodec)
	}
	if opts.EncodeAudio {
		j.SetAudioCodec(opts.AudioCodec)
	}

	switch opts.Subtitles {
	case model.SubtitlesNone:
		j.ExcludeSubtitles()
	case model.SubtitlesAll:
		j.CopySubtitles()
	case model.SubtitlesSRT:
		srt := strings.TrimSuffix(input, filepath.Ext(input)) + ".srt"
		if err := j.AddInput(ctx, srt); err != nil {
			// missing sidecar subtitles are not fatal
			if warn != nil {
				warn(fmt.Sprintf("srt file %s not usable, skipping: %v", srt, err))
			}
		}
	}

	if opts.NoData {
		j.ExcludeData()
	}
	if opts.FixResolution {
		j.FixResolution()
	}
	if opts.FixErrors {
		j.FixErrors()
	}
	if opts.UseCRF {
		j.SetCRF(opts.CRFValue)
	}
	return nil
}
