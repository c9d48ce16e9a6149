// Package frontmatter parses the YAML metadata block at the top of a
// Markdown document into typed attributes.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a frontmatter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter opening delimiter found but closing delimiter is missing")

// Attributes holds the metadata fields the site cares about. Unrecognized
// scalar fields are preserved in Extra.
type Attributes struct {
	Title     string
	Order     *int
	Published *time.Time
	Extra     map[string]string
}

// Split separates a `---` delimited YAML frontmatter block from the
// Markdown body. If the document does not start with a delimiter, had is
// false and body is the full input.
func Split(content []byte) (fm, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty frontmatter block.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes the frontmatter block into Attributes.
// Documents without frontmatter yield zero Attributes and the full body.
func Parse(content []byte) (Attributes, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Attributes{}, nil, err
	}
	if !had || len(fm) == 0 {
		return Attributes{Extra: map[string]string{}}, body, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return Attributes{}, nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	attrs := Attributes{Extra: map[string]string{}}
	for key, value := range fields {
		switch key {
		case "title":
			if s, ok := value.(string); ok {
				attrs.Title = s
			}
		case "order":
			if n, ok := asInt(value); ok {
				attrs.Order = &n
			}
		case "published":
			if t, ok := asTime(value); ok {
				attrs.Published = &t
			}
		default:
			attrs.Extra[key] = fmt.Sprintf("%v", value)
		}
	}
	return attrs, body, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func detectNewline(content []byte) string {
	if idx := bytes.IndexByte(content, '\n'); idx > 0 && content[idx-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
