package solution

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts Windows-style paths to forward slash format
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}

	// Check if this is a UNC path (starts with \\ or //)
	isUNC := strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")

	normalized := strings.ReplaceAll(path, "\\", "/")
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	normalized = strings.TrimPrefix(normalized, "./")

	if isUNC {
		normalized = "/" + normalized
	}
	return normalized
}

// ToSolutionPath converts a model path to the backslash form stored in .sln files.
func ToSolutionPath(path string) string {
	return strings.ReplaceAll(path, "/", "\\")
}

// RelativePath returns target relative to baseDir in normalized form.
// Paths on different volumes are returned absolute.
func RelativePath(baseDir, target string) string {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return NormalizePath(filepath.ToSlash(target))
	}
	return NormalizePath(filepath.ToSlash(rel))
}

// AbsolutePath resolves a model path relative to baseDir.
func AbsolutePath(baseDir, path string) string {
	system := filepath.FromSlash(NormalizePath(path))
	if filepath.IsAbs(system) {
		return filepath.Clean(system)
	}
	return filepath.Join(baseDir, system)
}

// ReRoot rewrites a path relative to oldDir into a path relative to newDir.
func ReRoot(path, oldDir, newDir string) string {
	return RelativePath(newDir, AbsolutePath(oldDir, path))
}

// DirSegments returns the directory segments of a model path.
func DirSegments(path string) []string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(NormalizePath(path))))
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return strings.FieldsFunc(dir, func(r rune) bool { return r == '/' })
}

// FileNameWithoutExtension returns the base name of path without extension.
func FileNameWithoutExtension(path string) string {
	base := filepath.Base(filepath.FromSlash(NormalizePath(path)))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PathKey returns the registry key of path: normalized, and lower-cased
// unless paths are case-sensitive.
func PathKey(path string, caseSensitive bool) string {
	normalized := NormalizePath(path)
	if caseSensitive {
		return normalized
	}
	return strings.ToLower(normalized)
}
