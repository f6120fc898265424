package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidtool/internal/dirs"
	"vidtool/internal/model"
)

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: VIDTOOL_*
	viper.SetEnvPrefix("VIDTOOL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Bind root persistent flags to Viper keys
	_ = viper.BindPFlag("ffmpeg_binary", root.PersistentFlags().Lookup("ffmpeg"))
	_ = viper.BindPFlag("ffprobe_binary", root.PersistentFlags().Lookup("ffprobe"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_file", root.PersistentFlags().Lookup("log-file"))

	setDefaults()

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}

func setDefaults() {
	def := model.DefaultEncodingOptions()
	viper.SetDefault("output_suffix", def.OutputSuffix)
	viper.SetDefault("output_extension", def.OutputExtension)
	viper.SetDefault("encode_video", def.EncodeVideo)
	viper.SetDefault("video_codec", def.VideoCodec)
	viper.SetDefault("encode_audio", def.EncodeAudio)
	viper.SetDefault("audio_codec", def.AudioCodec)
	viper.SetDefault("subtitles", string(def.Subtitles))
	viper.SetDefault("crf_value", def.CRFValue)
	viper.SetDefault("overwrite_policy", "skip")
	viper.SetDefault("recursive", true)
}

// Options decodes the resolved configuration into an EncodingOptions,
// normalized and validated.
func Options() (model.EncodingOptions, error) {
	var opts model.EncodingOptions
	if err := viper.Unmarshal(&opts); err != nil {
		return opts, err
	}
	opts.Normalize()
	return opts, opts.Validate()
}

// SaveOptions persists an option set as the new configured defaults.
func SaveOptions(opts model.EncodingOptions) error {
	viper.Set("output_suffix", opts.OutputSuffix)
	viper.Set("output_extension", opts.OutputExtension)
	viper.Set("append_res", opts.AppendRes)
	viper.Set("encode_video", opts.EncodeVideo)
	viper.Set("video_codec", opts.VideoCodec)
	viper.Set("encode_audio", opts.EncodeAudio)
	viper.Set("audio_codec", opts.AudioCodec)
	viper.Set("subtitles", string(opts.Subtitles))
	viper.Set("no_data", opts.NoData)
	viper.Set("fix_resolution", opts.FixResolution)
	viper.Set("fix_err", opts.FixErrors)
	viper.Set("use_crf", opts.UseCRF)
	viper.Set("crf_value", opts.CRFValue)
	return Save()
}

// Save writes the current settings to the config file, creating it when
// missing.
func Save() error {
	if err := viper.WriteConfig(); err == nil {
		return nil
	}
	cfgDir, err := dirs.ConfigDir()
	if err != nil {
		return err
	}
	if err := dirs.Ensure(cfgDir); err != nil {
		return err
	}
	return viper.SafeWriteConfig()
}
