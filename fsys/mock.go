package fsys

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileSystem provides an in-memory filesystem for testing. It is safe for
// concurrent use.
type MockFileSystem struct {
	mu            sync.RWMutex
	files         map[string]*MockFile
	caseSensitive bool
}

// MockFile represents a file in the mock filesystem
type MockFile struct {
	Content []byte
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// mockDirEntry implements fs.DirEntry
type mockDirEntry struct {
	info fs.FileInfo
}

func (m *mockDirEntry) Name() string               { return m.info.Name() }
func (m *mockDirEntry) IsDir() bool                { return m.info.IsDir() }
func (m *mockDirEntry) Type() fs.FileMode          { return m.info.Mode().Type() }
func (m *mockDirEntry) Info() (fs.FileInfo, error) { return m.info, nil }

// NewMockFileSystem creates an empty, case-sensitive MockFileSystem
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:         make(map[string]*MockFile),
		caseSensitive: true,
	}
}

// SetCaseSensitive changes the reported case sensitivity
func (mfs *MockFileSystem) SetCaseSensitive(caseSensitive bool) {
	mfs.caseSensitive = caseSensitive
}

// AddFile adds a file and its parent directories
func (mfs *MockFileSystem) AddFile(path string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.addFile(path, content, 0644)
}

// AddDir adds a directory and its parents
func (mfs *MockFileSystem) AddDir(path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.addDir(filepath.Clean(path), 0755)
}

func (mfs *MockFileSystem) addFile(path string, content []byte, perm fs.FileMode) {
	cleanPath := filepath.Clean(path)
	mfs.files[cleanPath] = &MockFile{
		Content: content,
		Mode:    perm,
		ModTime: time.Now(),
	}
	mfs.addDir(filepath.Dir(cleanPath), 0755)
}

func (mfs *MockFileSystem) addDir(dir string, perm fs.FileMode) {
	for {
		if _, exists := mfs.files[dir]; !exists {
			mfs.files[dir] = &MockFile{
				Mode:    perm | fs.ModeDir,
				ModTime: time.Now(),
				IsDir:   true,
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir || dir == "." {
			return
		}
		dir = parent
	}
}

func (mfs *MockFileSystem) ReadFile(path string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if file.IsDir {
		return nil, &fs.PathError{Op: "read", Path: path, Err: errors.New("is a directory")}
	}
	return file.Content, nil
}

func (mfs *MockFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if parent, exists := mfs.files[filepath.Dir(cleanPath)]; !exists || !parent.IsDir {
		return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	mfs.files[cleanPath] = &MockFile{
		Content: append([]byte(nil), data...),
		Mode:    perm,
		ModTime: time.Now(),
	}
	return nil
}

func (mfs *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.addDir(filepath.Clean(path), perm)
	return nil
}

func (mfs *MockFileSystem) Stat(path string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return infoOf(filepath.Clean(path), file), nil
}

func (mfs *MockFileSystem) Exists(path string) bool {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	_, exists := mfs.files[filepath.Clean(path)]
	return exists
}

// WalkDir visits root and every path below it in lexical order, honouring
// filepath.SkipDir.
func (mfs *MockFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	cleanRoot := filepath.Clean(root)

	mfs.mu.RLock()
	if _, exists := mfs.files[cleanRoot]; !exists {
		mfs.mu.RUnlock()
		return fn(root, nil, &fs.PathError{Op: "lstat", Path: root, Err: fs.ErrNotExist})
	}
	var paths []string
	snapshot := make(map[string]*MockFile)
	for p, f := range mfs.files {
		if p == cleanRoot || strings.HasPrefix(p, strings.TrimSuffix(cleanRoot, string(filepath.Separator))+string(filepath.Separator)) {
			paths = append(paths, p)
			snapshot[p] = f
		}
	}
	mfs.mu.RUnlock()

	sort.Strings(paths)

	var skipped []string
	for _, p := range paths {
		if underAny(p, skipped) {
			continue
		}
		file := snapshot[p]
		if err := fn(p, &mockDirEntry{info: infoOf(p, file)}, nil); err != nil {
			if errors.Is(err, filepath.SkipDir) && file.IsDir {
				skipped = append(skipped, p)
				continue
			}
			if errors.Is(err, filepath.SkipAll) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (mfs *MockFileSystem) CaseSensitive() bool {
	return mfs.caseSensitive
}

// Paths returns every file path, sorted (for debugging and assertions)
func (mfs *MockFileSystem) Paths() []string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	var paths []string
	for p, f := range mfs.files {
		if !f.IsDir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func infoOf(path string, file *MockFile) *mockFileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Mode,
		modTime: file.ModTime,
		isDir:   file.IsDir,
	}
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
