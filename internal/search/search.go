// Package search finds reference items by fuzzy match on their text.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Hit is one matched item with its location in the tree.
type Hit struct {
	Category string `json:"category"`
	Group    string `json:"group"`
	Item     string `json:"item"`
	Score    int    `json:"score"`
}

// entries implements fuzzy.Source over the flattened tree.
type entries []Hit

func (e entries) String(i int) string { return e[i].Item }
func (e entries) Len() int            { return len(e) }

// Items returns the items of doc that fuzzy-match pattern, best match
// first. Equal scores keep tree order. A limit of zero or less returns all
// matches; a blank pattern returns none.
func Items(doc types.Document, pattern string, limit int) []Hit {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}

	var all entries
	for _, c := range doc.Categories {
		for _, g := range c.Groups {
			for _, it := range g.Items {
				all = append(all, Hit{Category: c.Name, Group: g.Title, Item: it})
			}
		}
	}

	matches := fuzzy.FindFrom(pattern, all)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	hits := make([]Hit, len(matches))
	for i, m := range matches {
		hits[i] = all[m.Index]
		hits[i].Score = m.Score
	}
	return hits
}
