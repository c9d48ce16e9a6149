package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local serves content from a directory on disk. Refs are ignored: the
// working tree is whatever is checked out. Used in development.
type Local struct {
	root    string
	devTags []string
}

// NewLocal creates a Local source rooted at dir. devTags is the version
// list reported by ListTags so version-scoped routes work without a
// remote repository.
func NewLocal(dir string, devTags []string) *Local {
	if len(devTags) == 0 {
		devTags = []string{"v0.0.0"}
	}
	return &Local{root: dir, devTags: devTags}
}

func (l *Local) ReadFile(_ context.Context, _, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (l *Local) ListDir(_ context.Context, _, path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(filepath.Join(l.root, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, e := range dirEntries {
		entries = append(entries, Entry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return entries, nil
}

func (l *Local) ListTags(context.Context) ([]string, error) {
	return l.devTags, nil
}

func (l *Local) DefaultBranch() string { return "main" }

// Root returns the directory this source reads from, for watchers.
func (l *Local) Root() string { return l.root }
