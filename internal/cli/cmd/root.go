package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vidtool/internal/config"
)

// Exit codes returned to the shell via ExitError.
const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitMissingDep  = 2
	ExitProbeError  = 3
	ExitEncodeError = 4
)

// ExitError carries an exit code alongside the error; main unwraps it
// to pick the process status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func exitErr(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vidtool [files or directories]",
		Short: "Batch video encoding with ffmpeg",
		Long: `vidtool re-encodes video files in bulk with ffmpeg.

Point it at files or directories and it probes each video, builds an
output path that never clobbers existing files, and runs the encodes
one at a time with live progress.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return encodeExecute(cmd, args, runMode{})
		},
	}

	cmd.PersistentFlags().String("ffmpeg", "", "path to the ffmpeg binary")
	cmd.PersistentFlags().String("ffprobe", "", "path to the ffprobe binary")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().String("log-file", "", "append structured logs to this file")

	bindEncodeFlags(cmd)

	cmd.AddCommand(
		newEncodeCmd(),
		newPlanCmd(),
		newTUICmd(),
		newInfoCmd(),
		newScanCmd(),
		newRenameCmd(),
		newPresetCmd(),
		newDoctorCmd(),
		newCompletionCmd(),
	)
	return cmd
}

// Execute is the CLI entry point. Configuration and logging are wired
// before command dispatch so every subcommand sees the same environment.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	if err := config.Init(root); err != nil {
		return exitErr(ExitCLIError, err)
	}
	return root.ExecuteContext(ctx)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
