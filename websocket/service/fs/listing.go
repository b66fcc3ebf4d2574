package fs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// SortItems orders items directories first, then by case-insensitive name.
func SortItems(items []*FileItem) {
	type key struct {
		item *FileItem
		dir  bool
		name string
	}
	keys := make([]key, len(items))
	for i, item := range items {
		keys[i] = key{item: item, dir: item.IsDirectory(), name: strings.ToLower(item.Name())}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].dir != keys[j].dir {
			return keys[i].dir
		}
		return keys[i].name < keys[j].name
	})

	for i, k := range keys {
		items[i] = k.item
	}
}

// FilterItems keeps the items whose name contains query, ignoring case.
// With useFuzzy set, items are instead fuzzy-matched and ranked best first.
// An empty query keeps everything.
func FilterItems(items []*FileItem, query string, useFuzzy bool) []*FileItem {
	if query == "" {
		return items
	}

	if useFuzzy {
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Name()
		}
		matches := fuzzy.Find(query, names)
		filtered := make([]*FileItem, 0, len(matches))
		for _, match := range matches {
			filtered = append(filtered, items[match.Index])
		}
		return filtered
	}

	query = strings.ToLower(query)
	filtered := make([]*FileItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name()), query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// ParentOf returns the parent directory of path, or "" when path is a root.
func ParentOf(path string) string {
	clean := filepath.Clean(path)
	parent := filepath.Dir(clean)
	if parent == clean {
		return ""
	}
	return parent
}
