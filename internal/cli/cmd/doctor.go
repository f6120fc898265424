package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidtool/internal/dirs"
	"vidtool/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external dependencies and configuration paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := true

			report := func(name, custom string, find func(string) (string, error), required bool) {
				path, err := find(custom)
				switch {
				case err == nil:
					fmt.Printf("  %-10s %s\n", name, path)
				case required:
					ok = false
					fmt.Printf("  %-10s MISSING (%v)\n", name, err)
				default:
					fmt.Printf("  %-10s not found (optional)\n", name)
				}
			}

			fmt.Println("binaries:")
			report("ffmpeg", viper.GetString("ffmpeg_binary"), deps.FindFFmpeg, true)
			report("ffprobe", viper.GetString("ffprobe_binary"), deps.FindFFprobe, true)
			report("ffplay", "", deps.FindFFplay, false)

			fmt.Println("paths:")
			if dir, err := dirs.ConfigDir(); err == nil {
				fmt.Printf("  %-10s %s\n", "config", dir)
			}
			if dir, err := dirs.StateDir(); err == nil {
				fmt.Printf("  %-10s %s\n", "state", dir)
			}
			if path, err := dirs.PresetFile(); err == nil {
				fmt.Printf("  %-10s %s\n", "presets", path)
			}
			if used := viper.ConfigFileUsed(); used != "" {
				fmt.Printf("  %-10s %s\n", "configfile", used)
			}

			if !ok {
				return exitErr(ExitMissingDep, fmt.Errorf("required binaries are missing"))
			}
			return nil
		},
	}
}
