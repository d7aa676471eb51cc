package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/willibrandon/gosln/fsys"
)

// ConfigurationExtension is the file extension of configuration files.
const ConfigurationExtension = "." + DefaultSubSolutionExtension

// ErrNoConfiguration is returned by Locate when target holds no
// configuration file.
var ErrNoConfiguration = errors.New("no configuration file found")

// AmbiguousError is returned by Locate when a directory holds more than one
// configuration file.
type AmbiguousError struct {
	Dir        string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("found multiple %s files in %s; specify one of: %s",
		ConfigurationExtension, e.Dir, strings.Join(e.Candidates, ", "))
}

// IsConfigurationFile reports whether path has the configuration extension.
func IsConfigurationFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ConfigurationExtension)
}

// Locate resolves target to the absolute path of a configuration file.
// A file target must carry the configuration extension. A directory target
// must hold exactly one configuration file directly inside it.
func Locate(files fsys.FileSystem, target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	info, err := files.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("configuration file not found: %s: %w", target, err)
	}

	if !info.IsDir() {
		if !IsConfigurationFile(abs) {
			return "", fmt.Errorf("%s does not have the %s extension: %w", target, ConfigurationExtension, ErrNoConfiguration)
		}
		return abs, nil
	}

	var candidates []string
	err = files.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == abs {
			return nil
		}
		if d.IsDir() {
			return fs.SkipDir
		}
		if IsConfigurationFile(path) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search %s: %w", target, err)
	}
	slices.Sort(candidates)

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%s: %w", target, ErrNoConfiguration)
	case 1:
		return candidates[0], nil
	}
	return "", &AmbiguousError{Dir: target, Candidates: candidates}
}
