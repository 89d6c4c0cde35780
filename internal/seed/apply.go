package seed

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Mutator is the part of the repository Apply needs.
type Mutator interface {
	AddCategory(ctx context.Context, name string) error
	AddGroup(ctx context.Context, category, title string) error
	AddItem(ctx context.Context, category, group, text string) error
}

// Apply adds every node of doc through m, parents before children.
// Categories and groups that already exist are merged into; items are
// always appended.
func Apply(ctx context.Context, m Mutator, doc types.Document) error {
	for _, c := range doc.Categories {
		if err := m.AddCategory(ctx, c.Name); err != nil {
			return fmt.Errorf("adding category %q: %w", c.Name, err)
		}
		for _, g := range c.Groups {
			if err := m.AddGroup(ctx, c.Name, g.Title); err != nil {
				return fmt.Errorf("adding group %q: %w", g.Title, err)
			}
			for _, it := range g.Items {
				if err := m.AddItem(ctx, c.Name, g.Title, it); err != nil {
					return fmt.Errorf("adding item %q: %w", it, err)
				}
			}
		}
	}
	return nil
}
