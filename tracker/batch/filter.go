package batch

import (
	"strings"

	"github.com/banditrecycle/server/model"
)

// Filter returns catalog items whose name contains query, ignoring case.
// An empty query returns the full catalog.
func Filter(items []model.ItemType, query string) []model.ItemType {
	q := strings.ToLower(query)
	out := make([]model.ItemType, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}
