// Package menu builds the navigation tree for one documentation
// version by recursively walking the content source.
package menu

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/remixweb/site/internal/docs/source"
	"github.com/remixweb/site/internal/frontmatter"
)

const notFoundDoc = "404.md"

// File is a single document entry in the menu.
type File struct {
	Name  string                 `json:"name"`
	Path  string                 `json:"path"`
	Title string                 `json:"title"`
	Attrs frontmatter.Attributes `json:"attributes"`
}

// Dir is a documentation section. Sections whose Files list is empty
// after filtering do not appear in their parent's Dirs.
type Dir struct {
	Name     string                 `json:"name"`
	Path     string                 `json:"path"`
	Title    string                 `json:"title"`
	HasIndex bool                   `json:"hasIndex"`
	Attrs    frontmatter.Attributes `json:"attributes"`
	Files    []File                 `json:"files"`
	Dirs     []*Dir                 `json:"dirs,omitempty"`
}

// Build walks the content tree under rootPath at the given ref and
// returns the assembled menu. Subdirectories are walked concurrently;
// the first failure aborts the whole build.
func Build(ctx context.Context, src source.Source, ref, rootPath, rootName string) (*Dir, error) {
	dir := &Dir{Name: rootName, Path: rootPath, Title: rootName}

	entries, err := src.ListDir(ctx, ref, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", rootPath, err)
	}

	var subdirs []source.Entry
	for _, entry := range entries {
		switch {
		case entry.IsDir:
			subdirs = append(subdirs, entry)
		case strings.HasSuffix(entry.Name, ".md") && entry.Name != notFoundDoc:
			file, err := buildFile(ctx, src, ref, rootPath, entry.Name)
			if err != nil {
				return nil, err
			}
			if entry.Name == "index.md" {
				dir.HasIndex = true
				dir.Attrs = file.Attrs
				if file.Attrs.Title != "" {
					dir.Title = file.Attrs.Title
				}
			}
			dir.Files = append(dir.Files, file)
		}
	}

	// Fan out into subdirectories; fail the aggregate on any error.
	children := make([]*Dir, len(subdirs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, sub := range subdirs {
		group.Go(func() error {
			child, err := Build(groupCtx, src, ref, path.Join(rootPath, sub.Name), sub.Name)
			if err != nil {
				return err
			}
			children[i] = child
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Empty sections are invisible in the menu.
	for _, child := range children {
		if len(child.Files) > 0 {
			dir.Dirs = append(dir.Dirs, child)
		}
	}

	sortFiles(dir.Files)
	sortDirs(dir.Dirs)
	return dir, nil
}

func buildFile(ctx context.Context, src source.Source, ref, dirPath, name string) (File, error) {
	filePath := path.Join(dirPath, name)
	raw, err := src.ReadFile(ctx, ref, filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	attrs, _, err := frontmatter.Parse(raw)
	if err != nil {
		return File{}, fmt.Errorf("failed to parse frontmatter of %s: %w", filePath, err)
	}

	title := attrs.Title
	if title == "" {
		title = strings.TrimSuffix(name, ".md")
	}
	return File{Name: name, Path: filePath, Title: title, Attrs: attrs}, nil
}
