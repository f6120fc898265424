package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"vidtool/internal/model"
	"vidtool/internal/output"
)

func newFlagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	bindEncodeFlags(cmd)
	return cmd
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAssembleEncodeInputsExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mkv"))
	writeFile(t, filepath.Join(dir, "sub", "b.mp4"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	extra := filepath.Join(dir, "standalone.avi")
	writeFile(t, extra)

	cmd := newFlagCmd()
	files, root, err := assembleEncodeInputs(cmd, []string{dir, extra})
	if err != nil {
		t.Fatal(err)
	}
	if root != dir {
		t.Errorf("source root = %q, want %q", root, dir)
	}
	want := []string{
		filepath.Join(dir, "a.mkv"),
		extra,
		filepath.Join(dir, "sub", "b.mp4"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestAssembleEncodeInputsFlat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mkv"))
	writeFile(t, filepath.Join(dir, "sub", "b.mp4"))

	cmd := newFlagCmd()
	if err := cmd.Flags().Set("flat", "true"); err != nil {
		t.Fatal(err)
	}
	files, _, err := assembleEncodeInputs(cmd, []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "a.mkv" {
		t.Errorf("files = %v, want only a.mkv", files)
	}
}

func TestAssembleEncodeInputsPatternFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.mkv"))
	writeFile(t, filepath.Join(dir, "drop.mkv"))

	cmd := newFlagCmd()
	if err := cmd.Flags().Set("exclude", "drop*"); err != nil {
		t.Fatal(err)
	}
	files, _, err := assembleEncodeInputs(cmd, []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "keep.mkv" {
		t.Errorf("files = %v, want only keep.mkv", files)
	}
}

func TestAssembleEncodeInputsMissingPath(t *testing.T) {
	cmd := newFlagCmd()
	if _, _, err := assembleEncodeInputs(cmd, []string{"/no/such/path"}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestAssembleOptionsFlagOverrides(t *testing.T) {
	cmd := newFlagCmd()
	for flag, value := range map[string]string{
		"video-codec": "libx264",
		"crf":         "20",
		"subtitles":   "All",
		"no-data":     "true",
	} {
		if err := cmd.Flags().Set(flag, value); err != nil {
			t.Fatal(err)
		}
	}

	opts, err := assembleOptions(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if opts.VideoCodec != "libx264" {
		t.Errorf("VideoCodec = %q", opts.VideoCodec)
	}
	if !opts.UseCRF || opts.CRFValue != 20 {
		t.Errorf("crf not applied: UseCRF=%v CRFValue=%d", opts.UseCRF, opts.CRFValue)
	}
	if opts.Subtitles != model.SubtitlesAll {
		t.Errorf("Subtitles = %q", opts.Subtitles)
	}
	if !opts.NoData {
		t.Error("NoData not applied")
	}
}

func TestAssembleOptionsRejectsBadValues(t *testing.T) {
	cmd := newFlagCmd()
	if err := cmd.Flags().Set("subtitles", "Maybe"); err != nil {
		t.Fatal(err)
	}
	if _, err := assembleOptions(cmd); err == nil {
		t.Fatal("expected error for invalid subtitle mode")
	}

	cmd = newFlagCmd()
	if err := cmd.Flags().Set("crf", "99"); err != nil {
		t.Fatal(err)
	}
	if _, err := assembleOptions(cmd); err == nil {
		t.Fatal("expected error for out-of-range crf")
	}
}

func TestBuildGeneratorPolicyAndPresets(t *testing.T) {
	opts := model.DefaultEncodingOptions()

	cmd := newFlagCmd()
	if err := cmd.Flags().Set("policy", "increment"); err != nil {
		t.Fatal(err)
	}
	gen, err := buildGenerator(cmd, opts, "")
	if err != nil {
		t.Fatal(err)
	}
	if gen.Policy() != output.PolicyIncrement {
		t.Errorf("policy = %v, want increment", gen.Policy())
	}

	cmd = newFlagCmd()
	if err := cmd.Flags().Set("policy", "clobber"); err != nil {
		t.Fatal(err)
	}
	if _, err := buildGenerator(cmd, opts, ""); err == nil {
		t.Fatal("expected error for unknown policy")
	}

	cmd = newFlagCmd()
	if err := cmd.Flags().Set("output-preset", "no-such-preset"); err != nil {
		t.Fatal(err)
	}
	if _, err := buildGenerator(cmd, opts, ""); err == nil {
		t.Fatal("expected error for unknown output preset")
	}
}
