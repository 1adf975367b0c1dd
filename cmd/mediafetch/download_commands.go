package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

type subtitleFlags struct {
	format   string
	language string
}

func (f *subtitleFlags) register(cmd *cobra.Command) {
	formats := make([]string, len(models.KnownSubtitleFormats))
	for i, format := range models.KnownSubtitleFormats {
		formats[i] = string(format)
	}
	languages := make([]string, len(models.KnownSubtitleLanguages))
	for i, lang := range models.KnownSubtitleLanguages {
		languages[i] = string(lang)
	}

	cmd.Flags().StringVar(&f.format, "sub-format", "", "Subtitle format: "+strings.Join(formats, ", ")+" (default vtt)")
	cmd.Flags().StringVar(&f.language, "sub-lang", "", "Subtitle language tag, e.g. "+strings.Join(languages, ", ")+" (default best)")
}

// options returns nil when neither flag was given so the defaults apply.
func (f *subtitleFlags) options() (*models.SubtitleOptions, error) {
	if f.format == "" && f.language == "" {
		return nil, nil
	}
	opts := &models.SubtitleOptions{Language: models.SubtitleLanguage(strings.TrimSpace(f.language))}
	if f.format != "" {
		format, ok := models.ParseSubtitleFormat(f.format)
		if !ok {
			return nil, fmt.Errorf("unknown subtitle format %q", f.format)
		}
		opts.Format = format
	}
	return opts, nil
}

func outputDirOrDefault(flag string, cfg *config.Config) string {
	if dir := strings.TrimSpace(flag); dir != "" {
		return dir
	}
	return cfg.Downloads.OutputDir
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var keepSubtitle bool
	var jsonOutput bool
	var subs subtitleFlags

	cmd := &cobra.Command{
		Use:   "video <url>",
		Short: "Download a video, optionally keeping its subtitle track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := subs.options()
			if err != nil {
				return err
			}

			runner, closeRunner, err := ctx.newRunner(cfg)
			if err != nil {
				return err
			}
			defer closeRunner()

			result, err := runner.DownloadVideo(cmd.Context(), models.VideoDownloadRequest{
				URL:             strings.TrimSpace(args[0]),
				OutputDir:       outputDirOrDefault(outputDir, cfg),
				KeepSubtitle:    keepSubtitle,
				SubtitleOptions: opts,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
				{"Video", result.VideoFile},
				{"Subtitle", valueOrDash(result.SubtitleFile)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory receiving the files (default from configuration)")
	cmd.Flags().BoolVarP(&keepSubtitle, "subtitle", "s", false, "Also keep the subtitle track")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	subs.register(cmd)

	return cmd
}

func newSubtitleCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var jsonOutput bool
	var subs subtitleFlags

	cmd := &cobra.Command{
		Use:   "subtitle <url>",
		Short: "Download only the subtitle track of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := subs.options()
			if err != nil {
				return err
			}

			runner, closeRunner, err := ctx.newRunner(cfg)
			if err != nil {
				return err
			}
			defer closeRunner()

			result, err := runner.DownloadSubtitle(cmd.Context(), models.SubtitleDownloadRequest{
				URL:             strings.TrimSpace(args[0]),
				OutputDir:       outputDirOrDefault(outputDir, cfg),
				SubtitleOptions: opts,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
				{"Available", strconv.FormatBool(result.SubtitleAvailable)},
				{"Subtitle", valueOrDash(result.SubtitleFile)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory receiving the subtitle (default from configuration)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	subs.register(cmd)

	return cmd
}
