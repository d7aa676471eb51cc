package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/gosln/builder"
	"github.com/willibrandon/gosln/cmd/gosln/version"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "normal", s.Verbosity)
	assert.Equal(t, LineEndingsAuto, s.LineEndings)
	assert.Equal(t, "auto", s.Color)
	assert.True(t, s.RespectGitignore)
	assert.Equal(t, builder.DefaultConcurrency, s.Concurrency)
	assert.Equal(t, "none", s.Tracing.Exporter)
	assert.NoError(t, s.Validate())
}

func TestLoadSettings_Layers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gosln.yaml"), []byte(`
verbosity: detailed
line_endings: lf
tracing:
  exporter: stdout
`), 0o644))
	t.Setenv("GOSLN_LINE_ENDINGS", "crlf")
	t.Setenv("GOSLN_CONCURRENCY", "4")

	s, err := LoadSettings(NewViper(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "detailed", s.Verbosity)
	assert.Equal(t, LineEndingsCRLF, s.LineEndings, "environment overrides the file")
	assert.Equal(t, 4, s.Concurrency)
	assert.Equal(t, "stdout", s.Tracing.Exporter)
}

func TestLoadSettings_MissingFile(t *testing.T) {
	s, err := LoadSettings(NewViper(), "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "normal", s.Verbosity)

	_, err = LoadSettings(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("GOSLN_LINE_ENDINGS", "cr")
	_, err := LoadSettings(NewViper(), "", t.TempDir())
	assert.ErrorContains(t, err, "line ending")
}

func TestLoadSettings_InvalidColor(t *testing.T) {
	t.Setenv("GOSLN_COLOR", "sometimes")
	_, err := LoadSettings(NewViper(), "", t.TempDir())
	assert.ErrorContains(t, err, "color mode")
}

func TestColorsEnabled(t *testing.T) {
	var buf strings.Builder
	got, err := ColorsEnabled("always", &buf)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = ColorsEnabled("auto", &buf)
	require.NoError(t, err)
	assert.False(t, got, "a buffer is not a terminal")
}

func TestSettings_Newline(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		existing string
		want     string
	}{
		{"auto new file", LineEndingsAuto, "", "\r\n"},
		{"auto lf file", LineEndingsAuto, "a\nb\n", "\n"},
		{"auto crlf file", LineEndingsAuto, "a\r\nb\r\n", "\r\n"},
		{"forced lf", LineEndingsLF, "a\r\n", "\n"},
		{"forced crlf", LineEndingsCRLF, "a\n", "\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{LineEndings: tt.policy}
			assert.Equal(t, tt.want, s.Newline([]byte(tt.existing)))
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, version.Version, GetVersion())
	assert.Contains(t, GetFullVersion(), "gosln version")
}
