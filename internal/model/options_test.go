package model

import "testing"

func TestNormalize(t *testing.T) {
	var o EncodingOptions
	o.Normalize()
	if o.OutputExtension != ".mkv" {
		t.Errorf("extension = %q, want .mkv", o.OutputExtension)
	}
	if o.VideoCodec != "libx265" || o.AudioCodec != "aac" {
		t.Errorf("codec defaults not applied: %q/%q", o.VideoCodec, o.AudioCodec)
	}
	if o.Subtitles != SubtitlesFirst {
		t.Errorf("subtitles = %q, want First", o.Subtitles)
	}
	if o.CRFValue != 28 {
		t.Errorf("crf = %d, want 28", o.CRFValue)
	}

	o = EncodingOptions{OutputExtension: "mp4"}
	o.Normalize()
	if o.OutputExtension != ".mp4" {
		t.Errorf("extension = %q, want leading dot added", o.OutputExtension)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    EncodingOptions
		wantErr bool
	}{
		{"defaults", DefaultEncodingOptions(), false},
		{"bad subtitles", EncodingOptions{Subtitles: "Some"}, true},
		{"crf low", EncodingOptions{Subtitles: SubtitlesFirst, UseCRF: true, CRFValue: 3}, true},
		{"crf high", EncodingOptions{Subtitles: SubtitlesFirst, UseCRF: true, CRFValue: 64}, true},
		{"crf edge", EncodingOptions{Subtitles: SubtitlesFirst, UseCRF: true, CRFValue: 4}, false},
		{"crf ignored when disabled", EncodingOptions{Subtitles: SubtitlesFirst, CRFValue: 999}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
