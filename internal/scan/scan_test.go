package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"vidtool/internal/probe"
)

func makeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := []string{
		"a.mkv",
		"b.MP4",
		"notes.txt",
		filepath.Join("sub", "c.avi"),
		filepath.Join("sub", "deep", "d.webm"),
		filepath.Join("sub", "skip.srt"),
	}
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestVideosRecursive(t *testing.T) {
	dir := makeTree(t)

	var notified []string
	got, err := Videos(dir, Options{
		Recursive: true,
		Found:     func(p string) { notified = append(notified, p) },
	})
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.mkv"),
		filepath.Join(dir, "b.MP4"),
		filepath.Join(dir, "sub", "c.avi"),
		filepath.Join(dir, "sub", "deep", "d.webm"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if len(notified) != len(want) {
		t.Errorf("Found callback fired %d times, want %d", len(notified), len(want))
	}
}

func TestVideosFlat(t *testing.T) {
	dir := makeTree(t)

	got, err := Videos(dir, Options{Recursive: false})
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.mkv"),
		filepath.Join(dir, "b.MP4"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestVideosCustomExtensions(t *testing.T) {
	dir := makeTree(t)

	got, err := Videos(dir, Options{Recursive: true, Extensions: []string{"avi", ".webm"}})
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	want := []string{
		filepath.Join(dir, "sub", "c.avi"),
		filepath.Join(dir, "sub", "deep", "d.webm"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestVideosMissingRoot(t *testing.T) {
	if _, err := Videos(filepath.Join(t.TempDir(), "nope"), Options{}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestFilterName(t *testing.T) {
	f := &Filter{
		IncludePatterns: []string{"*season*"},
		ExcludePatterns: []string{"*sample*"},
	}
	tests := []struct {
		path string
		want bool
	}{
		{"Show.Season01.E01.mkv", true},
		{"show.season02.sample.mkv", false},
		{"movie.mkv", false},
	}
	for _, tc := range tests {
		if got := f.MatchesName(tc.path); got != tc.want {
			t.Errorf("MatchesName(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func infoWith(w, h int, durationSec, sizeBytes, vcodec string) *probe.Info {
	return &probe.Info{
		Streams: []probe.Stream{
			{CodecType: "video", CodecName: vcodec, Width: w, Height: h},
			{CodecType: "audio", CodecName: "aac", Channels: 2},
		},
		Format: probe.Format{Duration: durationSec, Size: sizeBytes},
	}
}

func TestFilterInfo(t *testing.T) {
	hd := infoWith(1920, 1080, "3600", "2147483648", "h264") // 2 GiB, 1h

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"no constraints", Filter{}, true},
		{"min size pass", Filter{MinSizeMB: 1000}, true},
		{"min size fail", Filter{MinSizeMB: 5000}, false},
		{"max size fail", Filter{MaxSizeMB: 1000}, false},
		{"duration range pass", Filter{MinDurationSec: 60, MaxDurationSec: 7200}, true},
		{"duration fail", Filter{MaxDurationSec: 60}, false},
		{"resolution pass", Filter{MinWidth: 1280, MinHeight: 720}, true},
		{"resolution fail", Filter{MinWidth: 3840}, false},
		{"video codec pass", Filter{VideoCodecs: []string{"H264"}}, true},
		{"video codec fail", Filter{VideoCodecs: []string{"hevc"}}, false},
		{"audio codec pass", Filter{AudioCodecs: []string{"aac"}}, true},
		{"audio codec fail", Filter{AudioCodecs: []string{"flac"}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.MatchesInfo(hd); got != tc.want {
				t.Errorf("MatchesInfo = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterApply(t *testing.T) {
	infos := map[string]*probe.Info{
		"small.mkv": infoWith(640, 480, "60", "1048576", "h264"),
		"big.mkv":   infoWith(1920, 1080, "3600", "2147483648", "hevc"),
	}
	probeFn := func(ctx context.Context, path string) (*probe.Info, error) {
		if info, ok := infos[path]; ok {
			return info, nil
		}
		return nil, errors.New("unreadable")
	}

	f := &Filter{MinWidth: 1280}
	got := f.Apply(context.Background(), []string{"small.mkv", "big.mkv", "broken.mkv"}, probeFn)
	if want := []string{"big.mkv"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}

	// name-only filters never probe
	nameOnly := &Filter{ExcludePatterns: []string{"small*"}}
	got = nameOnly.Apply(context.Background(), []string{"small.mkv", "big.mkv"}, nil)
	if want := []string{"big.mkv"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}
