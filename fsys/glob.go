package fsys

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/denormal/go-gitignore"

	"github.com/willibrandon/gosln/glob"
	"github.com/willibrandon/gosln/solution"
)

// DefaultSkippedDirs are never entered while enumerating a glob.
var DefaultSkippedDirs = []string{"bin", "obj", ".git", ".vs", "node_modules"}

// GlobOptions tunes Glob.
type GlobOptions struct {
	// RespectGitignore skips paths ignored by the .gitignore of the base directory
	RespectGitignore bool

	// SkippedDirs are directory names never entered; nil means DefaultSkippedDirs
	SkippedDirs []string
}

// Glob enumerates the files under baseDir matching pattern. The pattern and
// the returned paths are relative to baseDir, with forward slashes, sorted.
// A base directory that does not exist yields no match.
func Glob(fsys FileSystem, baseDir, pattern string, opts GlobOptions) ([]string, error) {
	pattern = solution.NormalizePath(pattern)
	matcher := glob.Compile(pattern, fsys.CaseSensitive())

	root := filepath.Join(baseDir, filepath.FromSlash(glob.StaticPrefix(pattern)))
	if !fsys.Exists(root) {
		return nil, nil
	}

	ignore, err := loadGitignore(fsys, baseDir, opts.RespectGitignore)
	if err != nil {
		return nil, err
	}

	skipped := opts.SkippedDirs
	if skipped == nil {
		skipped = DefaultSkippedDirs
	}

	var matches []string
	err = fsys.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrPermission) {
				return nil
			}
			return walkErr
		}

		rel := solution.RelativePath(baseDir, path)
		if entry.IsDir() {
			if path != root && containsFold(skipped, entry.Name()) {
				return filepath.SkipDir
			}
			if path != root && ignored(ignore, rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if ignored(ignore, rel, false) {
			return nil
		}
		if matcher.Match(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s in %s: %w", pattern, baseDir, err)
	}

	sort.Strings(matches)
	return matches, nil
}

func loadGitignore(fsys FileSystem, baseDir string, enabled bool) (gitignore.GitIgnore, error) {
	if !enabled {
		return nil, nil
	}
	ignorePath := filepath.Join(baseDir, ".gitignore")
	if !fsys.Exists(ignorePath) {
		return nil, nil
	}

	data, err := fsys.ReadFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}
	return gitignore.New(bytes.NewReader(data), baseDir, nil), nil
}

func ignored(ignore gitignore.GitIgnore, rel string, isDir bool) bool {
	if ignore == nil || strings.HasPrefix(rel, "../") {
		return false
	}
	match := ignore.Relative(rel, isDir)
	return match != nil && match.Ignore()
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
