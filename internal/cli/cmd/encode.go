package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vidtool/internal/batch"
	"vidtool/internal/config"
	"vidtool/internal/dirs"
	"vidtool/internal/logging"
	"vidtool/internal/model"
	"vidtool/internal/output"
	"vidtool/internal/preset"
	"vidtool/internal/probe"
	"vidtool/internal/scan"
	"vidtool/internal/ui"
	"vidtool/internal/util"
	"vidtool/internal/util/deps"
)

// runMode tweaks how an encode invocation behaves without duplicating
// the flag surface across subcommands.
type runMode struct {
	ForceTUI   bool
	DryRunOnly bool
}

func bindEncodeFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringP("output-dir", "o", "", "directory for encoded files (default: next to the source)")
	f.String("suffix", "", "filename suffix for outputs")
	f.String("extension", "", "container extension for outputs, e.g. .mkv")
	f.Bool("append-res", false, "append the source resolution to output names")
	f.Bool("name-codec", false, "append the video codec to output names")
	f.Bool("name-quality", false, "append the CRF value to output names")
	f.Bool("name-date", false, "append today's date to output names")

	f.Bool("encode-video", true, "re-encode the video stream")
	f.String("video-codec", "", "video codec, e.g. libx265")
	f.Bool("encode-audio", true, "re-encode the audio stream")
	f.String("audio-codec", "", "audio codec, e.g. aac")
	f.String("subtitles", "", "subtitle handling: None, First, All, or srt")
	f.Bool("no-data", false, "drop data streams")
	f.Bool("fix-resolution", false, "round odd dimensions down to even")
	f.Bool("fix-errors", false, "ignore decoder errors in damaged sources")
	f.Int("crf", 0, "constant rate factor, 4-63; implies CRF mode")

	f.String("preset", "", "apply a named encoding preset before other flags")
	f.String("output-preset", "", "output naming preset: "+strings.Join(output.PresetNames, ", "))
	f.String("policy", "", "when the output exists: skip, overwrite, or increment")
	f.String("subdir-pattern", "", "subdirectory pattern below the output dir")
	f.String("filename-pattern", "", "output filename pattern, e.g. {stem}{suffix}{extension}")

	f.Bool("flat", false, "do not descend into subdirectories")
	f.StringSlice("include", nil, "only process files matching these glob patterns")
	f.StringSlice("exclude", nil, "skip files matching these glob patterns")
	f.Bool("no-ui", false, "plain text progress instead of the interactive view")
	f.Bool("save-defaults", false, "persist the effective options to the config file")
}

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [files or directories]",
		Short: "Re-encode videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return encodeExecute(cmd, args, runMode{})
		},
	}
	bindEncodeFlags(cmd)
	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [files or directories]",
		Short: "Show what an encode run would do without running ffmpeg",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return encodeExecute(cmd, args, runMode{DryRunOnly: true})
		},
	}
	bindEncodeFlags(cmd)
	return cmd
}

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [files or directories]",
		Short: "Encode with the interactive view, even when piped",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return encodeExecute(cmd, args, runMode{ForceTUI: true})
		},
	}
	bindEncodeFlags(cmd)
	return cmd
}

// assembleEncodeInputs expands file and directory arguments into a flat
// ordered list of video files. The first directory argument becomes the
// source root for directory-structure mirroring.
func assembleEncodeInputs(cmd *cobra.Command, args []string) (files []string, sourceRoot string, err error) {
	flat, _ := cmd.Flags().GetBool("flat")
	includes, _ := cmd.Flags().GetStringSlice("include")
	excludes, _ := cmd.Flags().GetStringSlice("exclude")

	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", arg, err)
		}
		if !fi.IsDir() {
			add(arg)
			continue
		}
		if sourceRoot == "" {
			sourceRoot = arg
		}
		found, err := scan.Videos(arg, scan.Options{Recursive: !flat})
		if err != nil {
			return nil, "", err
		}
		for _, f := range found {
			add(f)
		}
	}

	if len(includes) > 0 || len(excludes) > 0 {
		filter := scan.Filter{IncludePatterns: includes, ExcludePatterns: excludes}
		kept := files[:0]
		for _, f := range files {
			if filter.MatchesName(f) {
				kept = append(kept, f)
			}
		}
		files = kept
	}
	sort.Strings(files)
	return files, sourceRoot, nil
}

// assembleOptions layers configuration, an optional named preset, and
// explicit flags, in that order of increasing precedence.
func assembleOptions(cmd *cobra.Command) (model.EncodingOptions, error) {
	opts, err := config.Options()
	if err != nil {
		return opts, err
	}

	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		path, err := dirs.PresetFile()
		if err != nil {
			return opts, err
		}
		mgr, err := preset.NewManager(path)
		if err != nil {
			return opts, err
		}
		p, err := mgr.Get(name)
		if err != nil {
			return opts, err
		}
		opts = p.EncodingOptions
	}

	applyFlagOverrides(cmd.Flags(), &opts)

	opts.Normalize()
	return opts, opts.Validate()
}

// applyFlagOverrides copies only the flags the user actually set, so
// config and preset values survive unless explicitly overridden.
func applyFlagOverrides(f *pflag.FlagSet, opts *model.EncodingOptions) {
	setString := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}

	setString("suffix", &opts.OutputSuffix)
	setString("extension", &opts.OutputExtension)
	setBool("append-res", &opts.AppendRes)
	setBool("encode-video", &opts.EncodeVideo)
	setString("video-codec", &opts.VideoCodec)
	setBool("encode-audio", &opts.EncodeAudio)
	setString("audio-codec", &opts.AudioCodec)
	if f.Changed("subtitles") {
		s, _ := f.GetString("subtitles")
		opts.Subtitles = model.SubtitleMode(s)
	}
	setBool("no-data", &opts.NoData)
	setBool("fix-resolution", &opts.FixResolution)
	setBool("fix-errors", &opts.FixErrors)
	if f.Changed("crf") {
		opts.UseCRF = true
		opts.CRFValue, _ = f.GetInt("crf")
	}
}

// buildGenerator translates naming flags into a configured generator,
// starting from an output preset when one is named.
func buildGenerator(cmd *cobra.Command, opts model.EncodingOptions, sourceRoot string) (*output.Generator, error) {
	f := cmd.Flags()

	var gen *output.Generator
	if name, _ := f.GetString("output-preset"); name != "" {
		g, err := output.Preset(name)
		if err != nil {
			return nil, err
		}
		gen = g
	} else {
		gen = output.New()
		includeRes, _ := f.GetBool("append-res")
		includeCodec, _ := f.GetBool("name-codec")
		includeQuality, _ := f.GetBool("name-quality")
		includeDate, _ := f.GetBool("name-date")
		gen.SetNamingOptions(opts.OutputSuffix, opts.OutputExtension,
			includeRes || opts.AppendRes, includeCodec, includeQuality, includeDate)
	}

	if dir, _ := f.GetString("output-dir"); dir != "" {
		gen.SetOutputDirectory(dir)
	}
	if sourceRoot != "" {
		gen.SetSourceRoot(sourceRoot)
	}
	if pattern, _ := f.GetString("subdir-pattern"); pattern != "" {
		gen.SetSubdirectoryPattern(pattern)
	}
	if pattern, _ := f.GetString("filename-pattern"); pattern != "" {
		gen.SetFilenamePattern(pattern)
	}

	policy := viper.GetString("overwrite_policy")
	if f.Changed("policy") {
		policy, _ = f.GetString("policy")
	}
	if policy != "" {
		if err := gen.SetOverwritePolicy(policy); err != nil {
			return nil, err
		}
	}
	return gen, nil
}

func encodeExecute(cmd *cobra.Command, args []string, mode runMode) error {
	ctx := cmd.Context()

	files, sourceRoot, err := assembleEncodeInputs(cmd, args)
	if err != nil {
		return exitErr(ExitCLIError, err)
	}
	if len(files) == 0 {
		return exitErr(ExitCLIError, fmt.Errorf("no video files found in %s", strings.Join(args, ", ")))
	}

	opts, err := assembleOptions(cmd)
	if err != nil {
		return exitErr(ExitCLIError, err)
	}
	gen, err := buildGenerator(cmd, opts, sourceRoot)
	if err != nil {
		return exitErr(ExitCLIError, err)
	}

	if save, _ := cmd.Flags().GetBool("save-defaults"); save {
		if err := config.SaveOptions(opts); err != nil {
			return exitErr(ExitCLIError, fmt.Errorf("saving defaults: %w", err))
		}
	}

	ffmpeg, err := deps.FindFFmpeg(viper.GetString("ffmpeg_binary"))
	if err != nil {
		return exitErr(ExitMissingDep, err)
	}
	ffprobe, err := deps.FindFFprobe(viper.GetString("ffprobe_binary"))
	if err != nil {
		return exitErr(ExitMissingDep, err)
	}
	probeFn := func(ctx context.Context, path string) (*probe.Info, error) {
		return probe.Inspect(ctx, ffprobe, path)
	}

	verbose := viper.GetBool("verbose")
	logger := logging.Setup(verbose, viper.GetString("log_file"))

	noUI, _ := cmd.Flags().GetBool("no-ui")
	useTUI := mode.ForceTUI || (!noUI && !mode.DryRunOnly && isTerminal())

	if useTUI {
		sum, err := ui.Run(ctx, ui.Params{
			Files:     files,
			Options:   opts,
			Generator: gen,
			FFmpeg:    ffmpeg,
			Probe:     probeFn,
			Logger:    logger,
			DryRun:    mode.DryRunOnly,
			Verbose:   verbose,
		})
		if err != nil {
			return exitErr(ExitEncodeError, err)
		}
		fmt.Println(sum.String())
		if sum.Failed > 0 {
			return exitErr(ExitEncodeError, fmt.Errorf("%d of %d files failed", sum.Failed, len(files)))
		}
		return nil
	}

	cancel := &util.CancelToken{}
	go func() {
		<-ctx.Done()
		cancel.Cancel()
	}()

	runner := batch.Runner{
		FFmpeg:    ffmpeg,
		Probe:     probeFn,
		Generator: gen,
		Options:   opts,
		Reporter:  &textReporter{out: os.Stderr, verbose: verbose},
		Cancel:    cancel,
		Logger:    logger,
		DryRun:    mode.DryRunOnly,
		Verbose:   verbose,
	}
	sum, err := runner.Run(ctx, files)
	if err != nil {
		return exitErr(ExitCLIError, err)
	}
	fmt.Println(sum.String())
	if sum.Failed > 0 {
		return exitErr(ExitEncodeError, fmt.Errorf("%d of %d files failed", sum.Failed, len(files)))
	}
	return nil
}

// shortName keeps reporter lines readable for deep paths.
func shortName(path string) string {
	return filepath.Base(path)
}
