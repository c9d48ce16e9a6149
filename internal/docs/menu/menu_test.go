package menu

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/remixweb/site/internal/docs/source"
	"github.com/remixweb/site/internal/frontmatter"
)

// writeTree materializes a fixture content tree under a temp dir and
// returns a Local source over it.
func writeTree(t *testing.T, files map[string]string) *source.Local {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return source.NewLocal(root, nil)
}

func TestBuild_PrunesSectionsWithoutDocuments(t *testing.T) {
	src := writeTree(t, map[string]string{
		"docs/intro.md":            "---\ntitle: Intro\n---\nhello\n",
		"docs/guides/routing.md":   "---\ntitle: Routing\n---\nroutes\n",
		"docs/assets/logo.svg":     "<svg/>",
		"docs/drafts/notes.txt":    "not markdown",
		"docs/empty/.gitkeep":      "",
		"docs/nested/deep/page.md": "---\ntitle: Deep\n---\ndeep\n",
	})

	dir, err := Build(context.Background(), src, "main", "docs", "docs")
	require.NoError(t, err)

	names := make([]string, 0, len(dir.Dirs))
	for _, child := range dir.Dirs {
		names = append(names, child.Name)
	}
	require.NotContains(t, names, "assets")
	require.NotContains(t, names, "drafts")
	require.NotContains(t, names, "empty")
	require.Contains(t, names, "guides")

	// nested itself has no markdown files, only a child section that
	// does, so it is pruned along with its subtree.
	require.NotContains(t, names, "nested")
}

func TestBuild_IndexSetsSectionTitleAndAttributes(t *testing.T) {
	src := writeTree(t, map[string]string{
		"docs/guides/index.md": "---\ntitle: All Guides\norder: 1\n---\noverview\n",
		"docs/guides/first.md": "---\ntitle: First\n---\nfirst\n",
	})

	dir, err := Build(context.Background(), src, "main", "docs", "docs")
	require.NoError(t, err)
	require.Len(t, dir.Dirs, 1)

	guides := dir.Dirs[0]
	require.True(t, guides.HasIndex)
	require.Equal(t, "All Guides", guides.Title)
	require.NotNil(t, guides.Attrs.Order)
	require.Equal(t, 1, *guides.Attrs.Order)
	require.Len(t, guides.Files, 2)
}

func TestBuild_ExcludesNotFoundDocument(t *testing.T) {
	src := writeTree(t, map[string]string{
		"docs/404.md":   "---\ntitle: Not Found\n---\nnope\n",
		"docs/intro.md": "---\ntitle: Intro\n---\nhello\n",
	})

	dir, err := Build(context.Background(), src, "main", "docs", "docs")
	require.NoError(t, err)
	require.Len(t, dir.Files, 1)
	require.Equal(t, "intro.md", dir.Files[0].Name)
}

func TestBuild_TitleFallsBackToFileName(t *testing.T) {
	src := writeTree(t, map[string]string{
		"docs/quickstart.md": "no frontmatter here\n",
	})

	dir, err := Build(context.Background(), src, "main", "docs", "docs")
	require.NoError(t, err)
	require.Len(t, dir.Files, 1)
	require.Equal(t, "quickstart", dir.Files[0].Title)
}

func TestBuild_OrderedFilesBeforeUnordered(t *testing.T) {
	src := writeTree(t, map[string]string{
		"docs/zebra.md":  "---\ntitle: Zebra\norder: 1\n---\nz\n",
		"docs/apple.md":  "---\ntitle: Apple\n---\na\n",
		"docs/mango.md":  "---\ntitle: Mango\norder: 2\n---\nm\n",
		"docs/banana.md": "---\ntitle: Banana\n---\nb\n",
	})

	dir, err := Build(context.Background(), src, "main", "docs", "docs")
	require.NoError(t, err)

	titles := make([]string, 0, len(dir.Files))
	for _, f := range dir.Files {
		titles = append(titles, f.Title)
	}
	require.Equal(t, []string{"Zebra", "Mango", "Apple", "Banana"}, titles)
}

func TestLess_OrderingRules(t *testing.T) {
	order := func(n int) *int { return &n }
	withOrder := func(n int, title string) node {
		return node{attrs: frontmatter.Attributes{Order: order(n)}, title: title}
	}
	published := func(date, title string) node {
		parsed, err := time.Parse("2006-01-02", date)
		require.NoError(t, err)
		return node{attrs: frontmatter.Attributes{Published: &parsed}, title: title}
	}
	plain := func(title string) node { return node{title: title} }

	require.True(t, less(withOrder(1, "b"), withOrder(2, "a")))
	require.False(t, less(withOrder(2, "a"), withOrder(1, "b")))
	require.True(t, less(withOrder(9, "z"), plain("a")))
	require.False(t, less(plain("a"), withOrder(9, "z")))
	require.True(t, less(plain("a"), plain("b")))

	// Both published: newest first, whatever the titles say.
	require.True(t, less(published("2024-06-01", "z"), published("2023-01-01", "a")))
	require.False(t, less(published("2023-01-01", "a"), published("2024-06-01", "z")))
	// Explicit order still outranks a published date.
	require.True(t, less(withOrder(5, "z"), published("2024-06-01", "a")))
	// Only one side published: falls through to title comparison.
	require.True(t, less(published("2024-06-01", "a"), plain("b")))
	require.False(t, less(published("2024-06-01", "b"), plain("a")))
}

func TestBuild_PublishedFilesSortNewestFirst(t *testing.T) {
	src := writeTree(t, map[string]string{
		"docs/blog/oldest.md": "---\ntitle: Oldest\npublished: 2022-03-01\n---\no\n",
		"docs/blog/newest.md": "---\ntitle: Newest\npublished: 2024-06-15\n---\nn\n",
		"docs/blog/middle.md": "---\ntitle: Middle\npublished: 2023-11-20\n---\nm\n",
	})

	dir, err := Build(context.Background(), src, "main", "docs", "docs")
	require.NoError(t, err)
	require.Len(t, dir.Dirs, 1)

	titles := make([]string, 0, len(dir.Dirs[0].Files))
	for _, f := range dir.Dirs[0].Files {
		titles = append(titles, f.Title)
	}
	require.Equal(t, []string{"Newest", "Middle", "Oldest"}, titles)
}

func TestSortFiles_StableForEqualKeys(t *testing.T) {
	files := []File{
		{Name: "one.md", Title: "Same"},
		{Name: "two.md", Title: "Same"},
		{Name: "three.md", Title: "Same"},
	}

	sortFiles(files)

	require.Equal(t, "one.md", files[0].Name)
	require.Equal(t, "two.md", files[1].Name)
	require.Equal(t, "three.md", files[2].Name)
}
