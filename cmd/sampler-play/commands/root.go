// Package commands implements the sampler-play command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vsariola/sampler/report"
)

var (
	logLevel     string
	logFormat    string
	templatesDir string

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "sampler-play",
	Short: "Play sample-based instruments",
	Long: `sampler-play loads instruments described in .yml or .json files and
plays them: offline from a standard MIDI file, or live from a MIDI input.

Examples:
  sampler-play describe piano.yml
  sampler-play render piano.yml song.mid --wav
  sampler-play live piano.yml --input "Keystation"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(cmd.ErrOrStderr())
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&templatesDir, "templates", "", "directory with bank.txt and render.txt overriding the built-in report templates")
}

func initLogger(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch logFormat {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid --log-format %q, want text or json", logFormat)
	}
	logger = slog.New(h)
	slog.SetDefault(logger)
	return nil
}

func reporter() (*report.Reporter, error) {
	if templatesDir != "" {
		return report.NewFromTemplates(templatesDir)
	}
	return report.New()
}
