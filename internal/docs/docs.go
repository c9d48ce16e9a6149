// Package docs resolves, renders, and caches versioned documentation
// pages.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/remixweb/site/internal/cache"
	"github.com/remixweb/site/internal/docs/menu"
	"github.com/remixweb/site/internal/docs/source"
	"github.com/remixweb/site/internal/docs/version"
	"github.com/remixweb/site/internal/frontmatter"
	"github.com/remixweb/site/internal/markdown"
)

// ErrNotFoundDocMissing reports that the 404 document itself could not
// be found. This is the one unrecoverable content condition: without it
// there is nothing left to serve for a bad slug.
var ErrNotFoundDocMissing = errors.New("the 404 doc was not found")

// ErrUnknownVersion reports a request for a version head that does not
// exist in the resolved head list.
var ErrUnknownVersion = errors.New("unknown version")

// Doc is one rendered documentation page.
type Doc struct {
	HTML  string                 `json:"html"`
	Title string                 `json:"title"`
	Attrs frontmatter.Attributes `json:"attributes"`
}

// Options configures a docs service.
type Options struct {
	RootPath  string        // content root inside the repository, e.g. "docs"
	CacheTTL  time.Duration // per-entry max age for all three caches
	CacheSize int           // max entries in the doc cache
}

// Service owns the documentation pipeline: version heads, menu trees,
// and rendered documents, each behind its own TTL cache.
type Service struct {
	src      source.Source
	renderer *markdown.Renderer
	rootPath string
	stats    cache.Stats

	heads *cache.TTL[[]version.Head]
	menus *cache.TTL[*menu.Dir]
	docs  *cache.TTL[*Doc]
}

// renderObserver is the optional render-timing surface of a stats sink.
type renderObserver interface {
	ObserveDocRender(d time.Duration)
}

const headsCacheKey = "heads"

// NewService builds a docs service around the given content source.
func NewService(src source.Source, renderer *markdown.Renderer, stats cache.Stats, opts Options) *Service {
	if opts.RootPath == "" {
		opts.RootPath = "docs"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}

	return &Service{
		src:      src,
		renderer: renderer,
		rootPath: opts.RootPath,
		stats:    stats,
		heads:    cache.New[[]version.Head]("docs_heads", 1, opts.CacheTTL, stats),
		menus:    cache.New[*menu.Dir]("docs_menu", 16, opts.CacheTTL, stats),
		docs:     cache.New[*Doc]("docs_doc", opts.CacheSize, opts.CacheTTL, stats),
	}
}

// Heads returns the resolved version heads, newest line first.
func (s *Service) Heads(ctx context.Context) ([]version.Head, error) {
	return s.heads.GetOrCompute(ctx, headsCacheKey, func(ctx context.Context) ([]version.Head, error) {
		tags, err := s.src.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags: %w", err)
		}
		return version.ResolveHeads(tags), nil
	})
}

// Menu returns the navigation tree for a version head label.
func (s *Service) Menu(ctx context.Context, headLabel string) (*menu.Dir, error) {
	head, err := s.lookupHead(ctx, headLabel)
	if err != nil {
		return nil, err
	}
	return s.menus.GetOrCompute(ctx, head.Head, func(ctx context.Context) (*menu.Dir, error) {
		return menu.Build(ctx, s.src, s.refFor(head), s.rootPath, s.rootPath)
	})
}

// Page returns the menu and the rendered document for a slug in one
// call, fetching both concurrently.
func (s *Service) Page(ctx context.Context, headLabel, slug string) (*menu.Dir, *Doc, error) {
	var (
		m   *menu.Dir
		doc *Doc
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		m, err = s.Menu(groupCtx, headLabel)
		return err
	})
	group.Go(func() (err error) {
		doc, err = s.GetDoc(groupCtx, headLabel, slug)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return m, doc, nil
}

// GetDoc resolves a slug to a rendered document. Resolution tries
// `{slug}.md`, then `{slug}/index.md`, then the 404 document; if even
// that is missing it fails with ErrNotFoundDocMissing.
func (s *Service) GetDoc(ctx context.Context, headLabel, slug string) (*Doc, error) {
	head, err := s.lookupHead(ctx, headLabel)
	if err != nil {
		return nil, err
	}

	key := slug + "|" + head.Head
	return s.docs.GetOrCompute(ctx, key, func(ctx context.Context) (*Doc, error) {
		ref := s.refFor(head)
		for _, candidate := range []string{slug + ".md", slug + "/index.md", "404.md"} {
			raw, err := s.src.ReadFile(ctx, ref, s.rootPath+"/"+candidate)
			if errors.Is(err, source.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return s.render(raw)
		}
		return nil, ErrNotFoundDocMissing
	})
}

// FlushCaches drops all cached heads, menus, and documents. Wired to
// the content watcher in development.
func (s *Service) FlushCaches() {
	s.heads.Purge()
	s.menus.Purge()
	s.docs.Purge()
	slog.Debug("Docs caches flushed")
}

// Warm resolves heads and rebuilds the menu for every head so steady
// traffic rarely sees a cold miss. Errors are returned but leave any
// previously cached entries intact.
func (s *Service) Warm(ctx context.Context) error {
	heads, err := s.Heads(ctx)
	if err != nil {
		return err
	}
	for _, head := range heads {
		if _, err := s.Menu(ctx, head.Head); err != nil {
			return fmt.Errorf("failed to warm menu for %s: %w", head.Head, err)
		}
	}
	return nil
}

func (s *Service) lookupHead(ctx context.Context, label string) (version.Head, error) {
	heads, err := s.Heads(ctx)
	if err != nil {
		return version.Head{}, err
	}
	head, ok := version.Find(heads, label)
	if !ok {
		return version.Head{}, fmt.Errorf("%w: %s", ErrUnknownVersion, label)
	}
	return head, nil
}

// refFor pins to the release tag, except the latest head which reads
// the default branch so doc fixes land without a release.
func (s *Service) refFor(head version.Head) string {
	if head.IsLatest {
		return s.src.DefaultBranch()
	}
	return head.Tag
}

func (s *Service) render(raw []byte) (*Doc, error) {
	attrs, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document frontmatter: %w", err)
	}

	start := time.Now()
	html, err := s.renderer.Render(body)
	if err != nil {
		return nil, err
	}
	if observer, ok := s.stats.(renderObserver); ok {
		observer.ObserveDocRender(time.Since(start))
	}

	title := attrs.Title
	if title == "" {
		title = markdown.ExtractTitle(html)
	}
	return &Doc{HTML: html, Title: title, Attrs: attrs}, nil
}
