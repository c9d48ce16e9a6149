package markdown

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugIDs implements goldmark's parser.IDs with filesystem/URL-safe
// heading slugs. Duplicate headings get a numeric suffix.
type slugIDs struct {
	seen map[string]int
}

func newSlugIDs() *slugIDs {
	return &slugIDs{seen: map[string]int{}}
}

func (s *slugIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	slug := Slugify(string(value))
	if slug == "" {
		slug = "heading"
	}
	if n, taken := s.seen[slug]; taken {
		s.seen[slug] = n + 1
		return []byte(fmt.Sprintf("%s-%d", slug, n+1))
	}
	s.seen[slug] = 0
	return []byte(slug)
}

func (s *slugIDs) Put(value []byte) {
	s.seen[string(value)] = 0
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases text, strips diacritics, and collapses everything
// that is not a letter or digit into single hyphens.
func Slugify(text string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
