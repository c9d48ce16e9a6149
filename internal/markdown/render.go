// Package markdown renders documentation bodies to sanitized HTML with
// heading anchors and syntax highlighting.
package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Renderer converts Markdown bodies to HTML. It is safe for concurrent
// use; construct one per process and share it.
type Renderer struct {
	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

// NewRenderer builds a renderer with GFM extensions, slugged heading
// IDs, and chroma-based code highlighting. Raw HTML in the source is
// dropped by the sanitization pass.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("class").OnElements("span", "pre", "code", "div")

	return &Renderer{md: md, sanitize: policy}
}

// Render converts a Markdown body (frontmatter already removed) into
// sanitized HTML. Heading IDs are generated fresh per document so
// duplicate-heading suffixes never leak between renders.
func (r *Renderer) Render(body []byte) (string, error) {
	ctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	root := r.md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, body, root); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return r.sanitize.Sanitize(buf.String()), nil
}
