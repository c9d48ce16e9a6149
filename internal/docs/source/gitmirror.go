package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitMirror serves content from a bare local clone of the docs
// repository. Reads resolve refs through git plumbing, so tag-pinned
// lookups never touch the network; Refresh fetches new refs.
type GitMirror struct {
	mu     sync.RWMutex
	repo   *git.Repository
	url    string
	auth   *githttp.BasicAuth
	branch string
}

// GitMirrorOptions configures a git mirror source.
type GitMirrorOptions struct {
	URL           string
	Dir           string // mirror location on disk
	Token         string // optional, for private repositories
	DefaultBranch string // defaults to main
}

// NewGitMirror opens the mirror at opts.Dir, cloning it first when it
// does not exist yet.
func NewGitMirror(ctx context.Context, opts GitMirrorOptions) (*GitMirror, error) {
	if opts.URL == "" || opts.Dir == "" {
		return nil, fmt.Errorf("git mirror source requires url and dir")
	}
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "main"
	}

	var auth *githttp.BasicAuth
	if opts.Token != "" {
		auth = &githttp.BasicAuth{Username: "token", Password: opts.Token}
	}

	repo, err := git.PlainOpen(opts.Dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		slog.Info("Cloning docs mirror", "url", opts.URL, "dir", opts.Dir)
		repo, err = git.PlainCloneContext(ctx, opts.Dir, true, &git.CloneOptions{
			URL:    opts.URL,
			Auth:   auth,
			Mirror: true,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open docs mirror: %w", err)
	}

	return &GitMirror{repo: repo, url: opts.URL, auth: auth, branch: opts.DefaultBranch}, nil
}

// Refresh fetches new refs from the origin. Already-up-to-date is not
// an error.
func (m *GitMirror) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.repo.FetchContext(ctx, &git.FetchOptions{
		Auth:  m.auth,
		Force: true,
		Tags:  git.AllTags,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to refresh docs mirror: %w", err)
	}
	return nil
}

func (m *GitMirror) ReadFile(_ context.Context, ref, path string) ([]byte, error) {
	tree, err := m.treeAt(ref)
	if err != nil {
		return nil, err
	}

	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read %s at %s: %w", path, ref, err)
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s at %s: %w", path, ref, err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

func (m *GitMirror) ListDir(_ context.Context, ref, path string) ([]Entry, error) {
	tree, err := m.treeAt(ref)
	if err != nil {
		return nil, err
	}

	if path != "" && path != "." {
		tree, err = tree.Tree(path)
		if err != nil {
			if errors.Is(err, object.ErrDirectoryNotFound) {
				return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
			}
			return nil, fmt.Errorf("failed to list %s at %s: %w", path, ref, err)
		}
	}

	entries := make([]Entry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, Entry{Name: e.Name, IsDir: e.Mode == filemode.Dir})
	}
	return entries, nil
}

func (m *GitMirror) ListTags(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	iter, err := m.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

func (m *GitMirror) DefaultBranch() string { return m.branch }

func (m *GitMirror) treeAt(ref string) (*object.Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hash, err := m.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ref %s: %w", ref, err)
	}
	commit, err := m.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit for %s: %w", ref, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for %s: %w", ref, err)
	}
	return tree, nil
}
