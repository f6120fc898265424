package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidtool/internal/probe"
	"vidtool/internal/util/deps"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>...",
		Short: "Show stream and format details for video files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			ffprobe, err := deps.FindFFprobe(viper.GetString("ffprobe_binary"))
			if err != nil {
				return exitErr(ExitMissingDep, err)
			}

			for i, path := range args {
				info, err := probe.Inspect(cmd.Context(), ffprobe, path)
				if err != nil {
					return exitErr(ExitProbeError, fmt.Errorf("%s: %w", path, err))
				}
				if asJSON {
					os.Stdout.Write(info.RawJSON())
					fmt.Println()
					continue
				}
				if i > 0 {
					fmt.Println()
				}
				fmt.Println(info.InfoBlock())
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the raw ffprobe JSON")
	return cmd
}
