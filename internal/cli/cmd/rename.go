package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidtool/internal/probe"
	"vidtool/internal/scan"
	"vidtool/internal/util/deps"
)

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <files or directories>...",
		Short: "Rename videos to include their resolution, e.g. movie-1920x1080.mkv",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			flat, _ := cmd.Flags().GetBool("flat")

			ffprobe, err := deps.FindFFprobe(viper.GetString("ffprobe_binary"))
			if err != nil {
				return exitErr(ExitMissingDep, err)
			}

			var files []string
			for _, arg := range args {
				fi, err := os.Stat(arg)
				if err != nil {
					return exitErr(ExitCLIError, fmt.Errorf("%s: %w", arg, err))
				}
				if !fi.IsDir() {
					files = append(files, arg)
					continue
				}
				found, err := scan.Videos(arg, scan.Options{Recursive: !flat})
				if err != nil {
					return exitErr(ExitCLIError, err)
				}
				files = append(files, found...)
			}

			var failed int
			for _, file := range files {
				if err := renameWithResolution(cmd.Context(), ffprobe, file, dryRun, cmd.OutOrStdout()); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", shortName(file), err)
				}
			}
			if failed > 0 {
				return exitErr(ExitProbeError, fmt.Errorf("%d of %d files could not be renamed", failed, len(files)))
			}
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "show the renames without applying them")
	cmd.Flags().Bool("flat", false, "do not descend into subdirectories")
	return cmd
}

// renameWithResolution appends "-WxH" before the extension. Files already
// carrying the marker and renames that would clobber an existing file are
// left alone.
func renameWithResolution(ctx context.Context, ffprobe, path string, dryRun bool, out io.Writer) error {
	info, err := probe.Inspect(ctx, ffprobe, path)
	if err != nil {
		return err
	}
	w, h := info.MaxDimensions()
	if w == 0 || h == 0 {
		return fmt.Errorf("no video stream with known dimensions")
	}

	marker := fmt.Sprintf("-%dx%d", w, h)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	if strings.HasSuffix(stem, marker) {
		fmt.Fprintf(out, "%s: already tagged\n", shortName(path))
		return nil
	}

	target := filepath.Join(filepath.Dir(path), stem+marker+ext)
	if _, err := os.Stat(target); err == nil {
		fmt.Fprintf(out, "%s: target exists, skipping\n", shortName(path))
		return nil
	}

	if dryRun {
		fmt.Fprintf(out, "%s -> %s\n", shortName(path), filepath.Base(target))
		return nil
	}
	if err := os.Rename(path, target); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s -> %s\n", shortName(path), filepath.Base(target))
	return nil
}
