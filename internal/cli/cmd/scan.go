package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidtool/internal/probe"
	"vidtool/internal/scan"
	"vidtool/internal/util/deps"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "List video files under a directory, with optional filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			flat, _ := f.GetBool("flat")
			exts, _ := f.GetStringSlice("ext")

			filter := scan.Filter{}
			filter.MinSizeMB, _ = f.GetFloat64("min-size")
			filter.MaxSizeMB, _ = f.GetFloat64("max-size")
			filter.MinDurationSec, _ = f.GetFloat64("min-duration")
			filter.MaxDurationSec, _ = f.GetFloat64("max-duration")
			filter.MinWidth, _ = f.GetInt("min-width")
			filter.MaxWidth, _ = f.GetInt("max-width")
			filter.MinHeight, _ = f.GetInt("min-height")
			filter.MaxHeight, _ = f.GetInt("max-height")
			filter.VideoCodecs, _ = f.GetStringSlice("video-codec")
			filter.AudioCodecs, _ = f.GetStringSlice("audio-codec")
			filter.IncludePatterns, _ = f.GetStringSlice("include")
			filter.ExcludePatterns, _ = f.GetStringSlice("exclude")

			files, err := scan.Videos(args[0], scan.Options{Recursive: !flat, Extensions: exts})
			if err != nil {
				return exitErr(ExitCLIError, err)
			}

			if filter.NeedsProbe() {
				ffprobe, err := deps.FindFFprobe(viper.GetString("ffprobe_binary"))
				if err != nil {
					return exitErr(ExitMissingDep, err)
				}
				probeFn := func(ctx context.Context, path string) (*probe.Info, error) {
					return probe.Inspect(ctx, ffprobe, path)
				}
				files = filter.Apply(cmd.Context(), files, probeFn)
			} else {
				kept := files[:0]
				for _, file := range files {
					if filter.MatchesName(file) {
						kept = append(kept, file)
					}
				}
				files = kept
			}

			for _, file := range files {
				fmt.Println(file)
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no matching files")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Bool("flat", false, "do not descend into subdirectories")
	f.StringSlice("ext", nil, "extensions to match (default: common video types)")
	f.Float64("min-size", 0, "minimum file size in MB")
	f.Float64("max-size", 0, "maximum file size in MB")
	f.Float64("min-duration", 0, "minimum duration in seconds")
	f.Float64("max-duration", 0, "maximum duration in seconds")
	f.Int("min-width", 0, "minimum video width")
	f.Int("max-width", 0, "maximum video width")
	f.Int("min-height", 0, "minimum video height")
	f.Int("max-height", 0, "maximum video height")
	f.StringSlice("video-codec", nil, "only files with one of these video codecs")
	f.StringSlice("audio-codec", nil, "only files with one of these audio codecs")
	f.StringSlice("include", nil, "only files matching these glob patterns")
	f.StringSlice("exclude", nil, "skip files matching these glob patterns")
	return cmd
}
