// Package cli holds the root command of gosln and the process-wide state
// shared by its sub-commands: console, settings, logger and tracing.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/observability"
)

var rootCmd = &cobra.Command{
	Use:   "gosln",
	Short: "Visual Studio solution compiler",
	Long: `gosln generates and maintains Visual Studio solution (.sln) files from
declarative .subsln configuration files.

Complete documentation is available at https://github.com/willibrandon/gosln`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Console is the global console for CLI commands
var Console *output.Console

var (
	v        = NewViper()
	settings = DefaultSettings()
	logger   = observability.NewNullLogger()
	tracing  *observability.Tracing
)

// Execute runs the root command and releases the telemetry it set up.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	teardown(ctx)
	return err
}

func init() {
	Console = output.DefaultConsole()

	flags := rootCmd.PersistentFlags()
	flags.String("settings", "", "Settings file to use (default ./gosln.yaml when present)")
	flags.StringP("verbosity", "v", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	flags.String("color", output.ColorAuto, "Colorize output (auto, always, never)")
	flags.Bool("metrics", false, "Print Prometheus metrics to stderr on exit")
	flags.String("tracing", observability.ExporterNone, "Tracing exporter (none, stdout, otlp)")
	flags.Bool("respect-gitignore", true, "Skip files ignored by .gitignore when matching globs")
	flags.String("line-endings", LineEndingsAuto, "Line endings of written solutions (auto, crlf, lf)")

	bindFlag(v, "verbosity", "verbosity")
	bindFlag(v, "color", "color")
	bindFlag(v, "metrics", "metrics")
	bindFlag(v, "tracing.exporter", "tracing")
	bindFlag(v, "respect_gitignore", "respect-gitignore")
	bindFlag(v, "line_endings", "line-endings")
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// setup loads the settings and configures console, logger and tracing
// before any sub-command runs.
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("settings")
	loaded, err := LoadSettings(v, path, ".")
	if err != nil {
		return err
	}
	settings = loaded

	verbosity, err := output.ParseVerbosity(settings.Verbosity)
	if err != nil {
		return err
	}
	Console.SetVerbosity(verbosity)

	colors, err := ColorsEnabled(settings.Color, Console.Out())
	if err != nil {
		return err
	}
	Console.SetColors(colors)

	// Console output covers normal verbosity; structured logs add detail.
	if verbosity >= output.VerbosityDetailed {
		level, err := observability.ParseLogLevel(settings.Verbosity)
		if err != nil {
			return err
		}
		logger = observability.NewLogger(Console.ErrOut(), level)
	}

	if settings.Tracing.Exporter != "" && settings.Tracing.Exporter != observability.ExporterNone {
		cfg := observability.DefaultTracerConfig()
		cfg.ServiceVersion = GetVersion()
		cfg.ExporterType = settings.Tracing.Exporter
		cfg.OTLPEndpoint = settings.Tracing.Endpoint
		cfg.SamplingRate = settings.Tracing.SamplingRate
		tracing, err = observability.SetupTracing(cmd.Context(), cfg)
		if err != nil {
			return err
		}
	}
	return nil
}

// ColorsEnabled resolves the color mode for the console writing to out.
func ColorsEnabled(mode string, out io.Writer) (bool, error) {
	f, _ := out.(*os.File)
	return output.ColorsEnabled(mode, f)
}

func teardown(ctx context.Context) {
	if settings.Metrics {
		if err := observability.DumpMetrics(os.Stderr); err != nil {
			logger.Warn("Failed to dump metrics: {Error}", err)
		}
	}
	if err := tracing.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Failed to shut down tracing: {Error}", err)
	}
	tracing = nil
}

// CurrentSettings returns the settings of the running command.
func CurrentSettings() *Settings {
	return settings
}

// Logger returns the logger of the running command. It discards everything
// below detailed verbosity.
func Logger() observability.Logger {
	return logger
}

// SetupVersion configures version information
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
