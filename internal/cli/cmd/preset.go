package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidtool/internal/dirs"
	"vidtool/internal/preset"
)

func openPresetManager() (*preset.Manager, error) {
	path, err := dirs.PresetFile()
	if err != nil {
		return nil, err
	}
	return preset.NewManager(path)
}

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage encoding presets",
	}
	cmd.AddCommand(
		newPresetListCmd(),
		newPresetShowCmd(),
		newPresetSaveCmd(),
		newPresetDeleteCmd(),
		newPresetRenameCmd(),
		newPresetExportCmd(),
		newPresetImportCmd(),
	)
	return cmd
}

func newPresetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openPresetManager()
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			for _, name := range mgr.Names() {
				p, err := mgr.Get(name)
				if err != nil {
					continue
				}
				if p.Description != "" {
					fmt.Printf("%-28s %s\n", name, p.Description)
				} else {
					fmt.Println(name)
				}
			}
			return nil
		},
	}
}

func newPresetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a preset's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openPresetManager()
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			p, err := mgr.Get(args[0])
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			fmt.Printf("%s\n", args[0])
			if p.Description != "" {
				fmt.Printf("  %s\n", p.Description)
			}
			fmt.Printf("  suffix:        %s\n", p.OutputSuffix)
			fmt.Printf("  extension:     %s\n", p.OutputExtension)
			fmt.Printf("  video:         %s\n", codecLine(p.EncodeVideo, p.VideoCodec))
			fmt.Printf("  audio:         %s\n", codecLine(p.EncodeAudio, p.AudioCodec))
			fmt.Printf("  subtitles:     %s\n", p.Subtitles)
			if p.UseCRF {
				fmt.Printf("  crf:           %d\n", p.CRFValue)
			}
			if p.AppendRes {
				fmt.Println("  append-res:    yes")
			}
			if p.NoData {
				fmt.Println("  no-data:       yes")
			}
			if p.FixResolution {
				fmt.Println("  fix-resolution: yes")
			}
			if p.FixErrors {
				fmt.Println("  fix-errors:    yes")
			}
			return nil
		},
	}
}

func codecLine(encode bool, codec string) string {
	if !encode {
		return "copy"
	}
	return codec
}

func newPresetSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the given encoding flags as a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := assembleOptions(cmd)
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			desc, _ := cmd.Flags().GetString("description")

			mgr, err := openPresetManager()
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			if err := mgr.Save(args[0], preset.Preset{Description: desc, EncodingOptions: opts}); err != nil {
				return exitErr(ExitCLIError, err)
			}
			fmt.Printf("saved preset %q\n", args[0])
			return nil
		},
	}
	bindEncodeFlags(cmd)
	cmd.Flags().String("description", "", "one-line description for the preset")
	return cmd
}

func newPresetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openPresetManager()
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			if err := mgr.Delete(args[0]); err != nil {
				return exitErr(ExitCLIError, err)
			}
			fmt.Printf("deleted preset %q\n", args[0])
			return nil
		},
	}
}

func newPresetRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a preset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openPresetManager()
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			if err := mgr.Rename(args[0], args[1]); err != nil {
				return exitErr(ExitCLIError, err)
			}
			fmt.Printf("renamed preset %q to %q\n", args[0], args[1])
			return nil
		},
	}
}

func newPresetExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Export a preset to a shareable JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openPresetManager()
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			if err := mgr.Export(args[0], args[1]); err != nil {
				return exitErr(ExitCLIError, err)
			}
			fmt.Printf("exported %q to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newPresetImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a preset from an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openPresetManager()
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			name, err := mgr.Import(args[0])
			if err != nil {
				return exitErr(ExitCLIError, err)
			}
			fmt.Printf("imported preset %q\n", name)
			return nil
		},
	}
}
