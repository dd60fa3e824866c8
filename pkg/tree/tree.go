// Package tree derives directory listings and breadcrumbs from a flat item
// collection. Items carry no parent pointer; the hierarchy is implied by the
// slash-delimited Path of each item.
package tree

import (
	"strings"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// ChildrenOf returns the items whose parent path equals path, in input order.
// "/" and "" both address the root. An unknown path yields an empty slice.
func ChildrenOf(items []models.Item, path string) []models.Item {
	normalized := path
	if normalized == "/" {
		normalized = ""
	}

	result := make([]models.Item, 0)
	for _, item := range items {
		if normalized == "" {
			// Root: no further slash after the leading one.
			rest := item.Path
			if rest != "" {
				rest = rest[1:]
			}
			if !strings.Contains(rest, "/") {
				result = append(result, item)
			}
			continue
		}
		if ParentPath(item.Path) == normalized {
			result = append(result, item)
		}
	}
	return result
}

// ParentPath returns everything before the last slash of path, or "/" when
// nothing remains.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// Segments splits path into breadcrumb steps. The root yields an empty slice.
func Segments(path string) []models.Segment {
	segments := make([]models.Segment, 0)
	if path == "/" || path == "" {
		return segments
	}

	current := ""
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		current += "/" + part
		segments = append(segments, models.Segment{Name: part, Path: current})
	}
	return segments
}

// ChildPath constructs a child path from parent + name.
func ChildPath(parentPath, name string) string {
	if parentPath == "/" || parentPath == "" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// Clean normalizes user input into the path form items use: a leading slash,
// no empty components and no trailing slash. The root is "/".
func Clean(path string) string {
	var b strings.Builder
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(part)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Depth counts the components of path. The root has depth 0.
func Depth(path string) int {
	return len(Segments(path))
}
