package fsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() *MockFileSystem {
	mfs := NewMockFileSystem()
	for _, p := range []string{
		"/repo/README.md",
		"/repo/src/App/App.csproj",
		"/repo/src/App/Program.cs",
		"/repo/src/App/bin/Debug/App.csproj",
		"/repo/src/Core/Core.csproj",
		"/repo/src/Core/obj/project.assets.json",
		"/repo/tests/App.Tests/App.Tests.csproj",
		"/repo/generated/Gen.csproj",
		"/other/Lib/Lib.csproj",
	} {
		mfs.AddFile(p, []byte("x"))
	}
	mfs.AddFile("/repo/.gitignore", []byte("generated/\n*.md\n"))
	return mfs
}

func TestGlob(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opts    GlobOptions
		want    []string
	}{
		{
			name:    "recursive extension",
			pattern: "**/*.csproj",
			want: []string{
				"generated/Gen.csproj",
				"src/App/App.csproj",
				"src/Core/Core.csproj",
				"tests/App.Tests/App.Tests.csproj",
			},
		},
		{
			name:    "gitignore respected",
			pattern: "**/*.csproj",
			opts:    GlobOptions{RespectGitignore: true},
			want: []string{
				"src/App/App.csproj",
				"src/Core/Core.csproj",
				"tests/App.Tests/App.Tests.csproj",
			},
		},
		{
			name:    "static prefix",
			pattern: "src/**/*proj",
			want:    []string{"src/App/App.csproj", "src/Core/Core.csproj"},
		},
		{
			name:    "single level",
			pattern: `src\App\*.cs`,
			want:    []string{"src/App/Program.cs"},
		},
		{
			name:    "ignored file",
			pattern: "*.md",
			opts:    GlobOptions{RespectGitignore: true},
			want:    nil,
		},
		{
			name:    "parent directory",
			pattern: "../other/**/*.csproj",
			want:    []string{"../other/Lib/Lib.csproj"},
		},
		{
			name:    "missing base",
			pattern: "missing/**/*.csproj",
			want:    nil,
		},
		{
			name:    "custom skipped dirs",
			pattern: "src/App/**/*.csproj",
			opts:    GlobOptions{SkippedDirs: []string{}},
			want:    []string{"src/App/App.csproj", "src/App/bin/Debug/App.csproj"},
		},
	}

	mfs := newRepo()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Glob(mfs, "/repo", tt.pattern, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlob_CaseInsensitive(t *testing.T) {
	mfs := newRepo()
	mfs.SetCaseSensitive(false)

	got, err := Glob(mfs, "/repo", "SRC/**/*.CSPROJ", GlobOptions{})
	require.NoError(t, err)
	assert.Empty(t, got, "the walk root is resolved on the filesystem")

	got, err = Glob(mfs, "/repo", "src/**/*.CSPROJ", GlobOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/App/App.csproj", "src/Core/Core.csproj"}, got)
}

func TestGlob_OSFileSystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "A", "obj"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "A", "A.csproj"), []byte("<Project />"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "A", "obj", "A.csproj"), []byte("<Project />"), 0644))

	got, err := Glob(NewOSFileSystem(), dir, "**/*.csproj", GlobOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/A/A.csproj"}, got)
}

func TestMockFileSystem(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddDir("/repo")

	require.NoError(t, mfs.WriteFile("/repo/a.sln", []byte("data"), 0644))
	data, err := mfs.ReadFile("/repo/a.sln")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	assert.Error(t, mfs.WriteFile("/missing/a.sln", nil, 0644))
	require.NoError(t, mfs.MkdirAll("/missing", 0755))
	assert.NoError(t, mfs.WriteFile("/missing/a.sln", nil, 0644))

	info, err := mfs.Stat("/repo")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = mfs.ReadFile("/repo")
	assert.Error(t, err)
	_, err = mfs.ReadFile("/nope")
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Equal(t, []string{"/missing/a.sln", "/repo/a.sln"}, mfs.Paths())
}
