// Package version reduces a raw list of release tags to one
// representative head per version line.
package version

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Head is the canonical label for a version line together with the
// highest release published on that line.
type Head struct {
	Head     string `json:"head"`    // short label, e.g. "v2" or "v0.1"
	Version  string `json:"version"` // full version, e.g. "2.1.3"
	Tag      string `json:"tag"`     // original tag string, used for ref pinning
	IsLatest bool   `json:"isLatest"`
}

var tagPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

type parsedTag struct {
	major, minor, patch int
	tag                 string
}

// ResolveHeads buckets release tags into version lines and returns the
// highest release of each line, newest line first. The first element is
// marked IsLatest. Tags that are not plain semver are ignored. An empty
// or fully filtered input yields an empty slice.
func ResolveHeads(tags []string) []Head {
	parsed := make([]parsedTag, 0, len(tags))
	for _, tag := range tags {
		m := tagPattern.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		patch, _ := strconv.Atoi(m[3])
		parsed = append(parsed, parsedTag{major: major, minor: minor, patch: patch, tag: tag})
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		a, b := parsed[i], parsed[j]
		if a.major != b.major {
			return a.major < b.major
		}
		if a.minor != b.minor {
			return a.minor < b.minor
		}
		return a.patch < b.patch
	})

	// Ascending order means later entries with the same head key
	// overwrite earlier ones, so each bucket ends up holding the
	// highest release of its line.
	buckets := make(map[string]parsedTag)
	order := make([]string, 0)
	for _, p := range parsed {
		key := headKey(p)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = p
	}

	heads := make([]Head, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		p := buckets[order[i]]
		heads = append(heads, Head{
			Head:    order[i],
			Version: versionString(p),
			Tag:     p.tag,
		})
	}
	if len(heads) > 0 {
		heads[0].IsLatest = true
	}
	return heads
}

// Find returns the head whose short label matches the given string.
func Find(heads []Head, label string) (Head, bool) {
	for _, h := range heads {
		if h.Head == label {
			return h, true
		}
	}
	return Head{}, false
}

// headKey picks the version line a tag belongs to: the major line for
// releases >= 1.0.0, the minor line for 0.x, the exact patch for 0.0.x.
func headKey(p parsedTag) string {
	switch {
	case p.major > 0:
		return "v" + strconv.Itoa(p.major)
	case p.minor > 0:
		return "v0." + strconv.Itoa(p.minor)
	default:
		return "v" + versionString(p)
	}
}

func versionString(p parsedTag) string {
	return strings.Join([]string{
		strconv.Itoa(p.major),
		strconv.Itoa(p.minor),
		strconv.Itoa(p.patch),
	}, ".")
}
