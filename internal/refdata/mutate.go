package refdata

import (
	"context"
	"slices"
	"strings"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Mutations change only the cached tree and the dirty flag; the store is
// touched when the cache first loads and at commit. Unknown parents,
// duplicate names, and blank values are silent no-ops.

// AddCategory appends a category named name unless one already exists.
func (r *Repository) AddCategory(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return err
	}
	if blank(name) {
		return nil
	}
	if _, ok := r.byName[name]; ok {
		return nil
	}
	c := &types.Category{Name: name, Order: len(r.categories)}
	r.categories = append(r.categories, c)
	r.byName[name] = c
	r.setDirty(true)
	return nil
}

// AddGroup appends a group titled title to category unless the category is
// unknown or already has a group with that title.
func (r *Repository) AddGroup(ctx context.Context, category, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return err
	}
	if blank(title) {
		return nil
	}
	c, ok := r.byName[category]
	if !ok {
		return nil
	}
	if r.group(category, title) != nil {
		return nil
	}
	c.Groups = append(c.Groups, &types.Group{Title: title, Order: len(c.Groups)})
	r.setDirty(true)
	return nil
}

// AddItem appends an item to the named group. Duplicate text is allowed.
func (r *Repository) AddItem(ctx context.Context, category, group, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return err
	}
	if blank(text) {
		return nil
	}
	g := r.group(category, group)
	if g == nil {
		return nil
	}
	g.Items = append(g.Items, &types.Item{Text: text, Order: len(g.Items)})
	r.setDirty(true)
	return nil
}

// RemoveItem removes item, matched by identity, from the first group that
// holds it. An item held by no group is ignored.
func (r *Repository) RemoveItem(item *types.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item == nil || !r.loaded {
		return
	}
	for _, c := range r.categories {
		for _, g := range c.Groups {
			if i := slices.Index(g.Items, item); i >= 0 {
				g.Items = slices.Delete(g.Items, i, i+1)
				r.setDirty(true)
				return
			}
		}
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
