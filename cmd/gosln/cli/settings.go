package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/willibrandon/gosln/builder"
	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/observability"
)

// Line ending policies for written solution files.
const (
	LineEndingsAuto = "auto"
	LineEndingsCRLF = "crlf"
	LineEndingsLF   = "lf"
)

// SettingsFileName is the base name of the optional settings file looked up
// in the working directory.
const SettingsFileName = "gosln"

// EnvPrefix prefixes the environment variables overriding settings.
const EnvPrefix = "GOSLN"

// Settings holds the tool settings. They are layered from defaults, an
// optional gosln.yaml, GOSLN_* environment variables and command-line flags,
// in increasing priority.
type Settings struct {
	Verbosity        string          `mapstructure:"verbosity"`
	Color            string          `mapstructure:"color"`
	LineEndings      string          `mapstructure:"line_endings"`
	RespectGitignore bool            `mapstructure:"respect_gitignore"`
	Concurrency      int             `mapstructure:"concurrency"`
	Metrics          bool            `mapstructure:"metrics"`
	Tracing          TracingSettings `mapstructure:"tracing"`
}

// TracingSettings selects the OpenTelemetry exporter.
type TracingSettings struct {
	Exporter     string  `mapstructure:"exporter"`
	Endpoint     string  `mapstructure:"endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// NewViper returns a viper instance with the setting defaults and the
// environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	tracing := observability.DefaultTracerConfig()

	v.SetDefault("verbosity", "normal")
	v.SetDefault("color", output.ColorAuto)
	v.SetDefault("line_endings", LineEndingsAuto)
	v.SetDefault("respect_gitignore", true)
	v.SetDefault("concurrency", builder.DefaultConcurrency)
	v.SetDefault("metrics", false)
	v.SetDefault("tracing.exporter", tracing.ExporterType)
	v.SetDefault("tracing.endpoint", tracing.OTLPEndpoint)
	v.SetDefault("tracing.sampling_rate", tracing.SamplingRate)
}

// LoadSettings reads the settings file into v and decodes the layered
// settings. An explicit path must exist; otherwise gosln.yaml is looked up in
// dir and may be absent.
func LoadSettings(v *viper.Viper, path, dir string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(SettingsFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = v.Unmarshal(&s)
	return &s
}

// Validate checks the enumerated settings.
func (s *Settings) Validate() error {
	if _, err := observability.ParseLogLevel(s.Verbosity); err != nil {
		return err
	}
	if _, err := output.ColorsEnabled(s.Color, nil); err != nil {
		return err
	}
	switch strings.ToLower(s.LineEndings) {
	case LineEndingsAuto, LineEndingsCRLF, LineEndingsLF:
	default:
		return fmt.Errorf("unknown line ending policy %q (want auto, crlf or lf)", s.LineEndings)
	}
	switch s.Tracing.Exporter {
	case observability.ExporterNone, observability.ExporterStdout, observability.ExporterOTLP, "":
	default:
		return fmt.Errorf("unknown tracing exporter %q", s.Tracing.Exporter)
	}
	return nil
}

// Newline returns the line terminator for a solution file whose current
// content is existing (nil for a new file). The auto policy keeps LF files
// as LF and writes CRLF otherwise.
func (s *Settings) Newline(existing []byte) string {
	switch strings.ToLower(s.LineEndings) {
	case LineEndingsLF:
		return "\n"
	case LineEndingsCRLF:
		return "\r\n"
	}
	if bytes.IndexByte(existing, '\n') >= 0 && !bytes.Contains(existing, []byte("\r\n")) {
		return "\n"
	}
	return "\r\n"
}
