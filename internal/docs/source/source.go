// Package source abstracts where documentation content is read from: a
// local directory during development, the GitHub contents API, or a
// local git mirror of the docs repository. The implementation is chosen
// once at startup and injected; callers never branch on environment.
package source

import (
	"context"
	"errors"
)

// ErrNotExist reports that a file or directory is absent at the
// requested ref. Callers use it to drive the doc fallback chain.
var ErrNotExist = errors.New("content does not exist")

// Entry is one name in a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Source reads documentation content pinned to a ref (a tag name or
// branch name; the Local source ignores refs).
type Source interface {
	// ReadFile returns the raw bytes of the file at path.
	ReadFile(ctx context.Context, ref, path string) ([]byte, error)
	// ListDir lists the immediate entries of the directory at path.
	ListDir(ctx context.Context, ref, path string) ([]Entry, error)
	// ListTags returns all release tags of the content repository.
	ListTags(ctx context.Context) ([]string, error)
	// DefaultBranch is the ref served for the latest version head.
	DefaultBranch() string
}
