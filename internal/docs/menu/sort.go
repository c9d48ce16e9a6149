package menu

import (
	"sort"

	"github.com/remixweb/site/internal/frontmatter"
)

// node is the slice of ordering attributes shared by files and dirs.
type node struct {
	attrs frontmatter.Attributes
	title string
}

// less orders siblings: an explicit numeric order attribute wins over
// anything without one (ties broken numerically), then both-published
// nodes sort newest first, then titles sort lexicographically.
func less(a, b node) bool {
	switch {
	case a.attrs.Order != nil && b.attrs.Order != nil:
		return *a.attrs.Order < *b.attrs.Order
	case a.attrs.Order != nil:
		return true
	case b.attrs.Order != nil:
		return false
	case a.attrs.Published != nil && b.attrs.Published != nil:
		return a.attrs.Published.After(*b.attrs.Published)
	default:
		return a.title < b.title
	}
}

// Stable sorts: siblings with equal keys keep their input order.

func sortFiles(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		return less(node{files[i].Attrs, files[i].Title}, node{files[j].Attrs, files[j].Title})
	})
}

func sortDirs(dirs []*Dir) {
	sort.SliceStable(dirs, func(i, j int) bool {
		return less(node{dirs[i].Attrs, dirs[i].Title}, node{dirs[j].Attrs, dirs[j].Title})
	})
}
