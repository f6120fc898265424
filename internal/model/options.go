package model

import (
	"fmt"
	"strings"
)

// SubtitleMode controls how subtitle streams are carried into the output.
type SubtitleMode string

const (
	SubtitlesNone  SubtitleMode = "None"  // strip all subtitle streams
	SubtitlesFirst SubtitleMode = "First" // ffmpeg default stream selection
	SubtitlesAll   SubtitleMode = "All"   // map every stream, copy subtitle codec
	SubtitlesSRT   SubtitleMode = "srt"   // attach a sibling .srt file when present
)

// VideoExtensions are the container extensions the tool recognizes.
var VideoExtensions = []string{
	".mkv", ".mp4", ".avi", ".mpg", ".mov", ".webm", ".wmv", ".m4v", ".ogv", ".divx", ".ts",
}

// VideoCodecs are the encoder names offered for video.
var VideoCodecs = []string{"libx265", "libx264", "libaom-av1", "libsvtav1", "libvpx-vp9", "copy"}

// AudioCodecs are the encoder names offered for audio.
var AudioCodecs = []string{"aac", "ac3", "libopus", "libmp3lame", "flac", "copy"}

// EncodingOptions is the resolved option set for one batch run. Fields carry
// the persisted-config key names; validation happens once at the boundary
// where user input is collected, never defensively in the core.
type EncodingOptions struct {
	OutputSuffix    string       `mapstructure:"output_suffix" json:"output_suffix"`
	OutputExtension string       `mapstructure:"output_extension" json:"output_extension"`
	AppendRes       bool         `mapstructure:"append_res" json:"append_res"`
	EncodeVideo     bool         `mapstructure:"encode_video" json:"encode_video"`
	VideoCodec      string       `mapstructure:"video_codec" json:"video_codec"`
	EncodeAudio     bool         `mapstructure:"encode_audio" json:"encode_audio"`
	AudioCodec      string       `mapstructure:"audio_codec" json:"audio_codec"`
	Subtitles       SubtitleMode `mapstructure:"subtitles" json:"subtitles"`
	NoData          bool         `mapstructure:"no_data" json:"no_data"`
	FixResolution   bool         `mapstructure:"fix_resolution" json:"fix_resolution"`
	FixErrors       bool         `mapstructure:"fix_err" json:"fix_err"`
	UseCRF          bool         `mapstructure:"use_crf" json:"use_crf"`
	CRFValue        int          `mapstructure:"crf_value" json:"crf_value"`
}

// DefaultEncodingOptions returns the option set used when nothing is
// configured.
func DefaultEncodingOptions() EncodingOptions {
	return EncodingOptions{
		OutputSuffix:    "_encoded",
		OutputExtension: ".mkv",
		EncodeVideo:     true,
		VideoCodec:      "libx265",
		EncodeAudio:     true,
		AudioCodec:      "aac",
		Subtitles:       SubtitlesFirst,
		CRFValue:        28,
	}
}

// Normalize fills zero values with defaults and canonicalizes the extension
// to carry a leading dot.
func (o *EncodingOptions) Normalize() {
	def := DefaultEncodingOptions()
	if o.OutputExtension == "" {
		o.OutputExtension = def.OutputExtension
	}
	if !strings.HasPrefix(o.OutputExtension, ".") {
		o.OutputExtension = "." + o.OutputExtension
	}
	if o.VideoCodec == "" {
		o.VideoCodec = def.VideoCodec
	}
	if o.AudioCodec == "" {
		o.AudioCodec = def.AudioCodec
	}
	if o.Subtitles == "" {
		o.Subtitles = def.Subtitles
	}
	if o.CRFValue == 0 {
		o.CRFValue = def.CRFValue
	}
}

// Validate checks field ranges after Normalize.
func (o EncodingOptions) Validate() error {
	switch o.Subtitles {
	case SubtitlesNone, SubtitlesFirst, SubtitlesAll, SubtitlesSRT:
	default:
		return fmt.Errorf("invalid subtitles mode: %q (valid: None|First|All|srt)", o.Subtitles)
	}
	if o.UseCRF && (o.CRFValue < 4 || o.CRFValue > 63) {
		return fmt.Errorf("crf value %d out of range 4-63", o.CRFValue)
	}
	return nil
}
