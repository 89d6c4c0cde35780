package refdata

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Load populates the cache from the store if it is not loaded yet. A second
// call is a no-op until the cache is invalidated. On failure the repository
// stays unloaded, so a later call retries.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

// loadLocked is Load without locking. The caller must hold r.mu.
func (r *Repository) loadLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}

	start := time.Now()
	categories, err := r.readTree(ctx)
	if err != nil {
		r.logger.Error("load reference data", "op", "load", "err", err)
		r.metrics.observeLoad(false)
		return fmt.Errorf("%w: %v", types.ErrLoadFailed, err)
	}

	r.categories = categories
	r.byName = make(map[string]*types.Category, len(categories))
	for _, c := range categories {
		r.byName[c.Name] = c
	}
	r.loaded = true
	r.setDirty(false)
	r.metrics.observeLoad(true)

	r.logger.Debug("loaded reference data",
		"categories", len(categories),
		"duration", time.Since(start))
	return nil
}

// readTree scans the three tables, each ordered by display order, and links
// children to parents by row identifier.
func (r *Repository) readTree(ctx context.Context) ([]*types.Category, error) {
	categories, catByID, err := r.readCategories(ctx)
	if err != nil {
		return nil, err
	}
	groupByID, err := r.readGroups(ctx, catByID)
	if err != nil {
		return nil, err
	}
	if err := r.readItems(ctx, groupByID); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) readCategories(ctx context.Context) ([]*types.Category, map[string]*types.Category, error) {
	rows, err := r.store.Query(ctx,
		"SELECT id, name FROM categories ORDER BY display_order ASC, name ASC")
	if err != nil {
		return nil, nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []*types.Category
	byID := make(map[string]*types.Category)
	for rows.Next() {
		var id string
		c := &types.Category{Order: len(categories)}
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
		byID[id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, byID, nil
}

func (r *Repository) readGroups(ctx context.Context, catByID map[string]*types.Category) (map[string]*types.Group, error) {
	rows, err := r.store.Query(ctx,
		"SELECT id, category_id, title FROM medication_groups ORDER BY category_id, display_order ASC")
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*types.Group)
	for rows.Next() {
		var id, categoryID, title string
		if err := rows.Scan(&id, &categoryID, &title); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		c, ok := catByID[categoryID]
		if !ok {
			r.logger.Warn("skipping orphan group", "group_id", id, "category_id", categoryID)
			continue
		}
		g := &types.Group{Title: title, Order: len(c.Groups)}
		c.Groups = append(c.Groups, g)
		byID[id] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return byID, nil
}

func (r *Repository) readItems(ctx context.Context, groupByID map[string]*types.Group) error {
	rows, err := r.store.Query(ctx,
		"SELECT id, group_id, text FROM medication_items ORDER BY group_id, display_order ASC")
	if err != nil {
		return fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, groupID, text string
		if err := rows.Scan(&id, &groupID, &text); err != nil {
			return fmt.Errorf("scanning item: %w", err)
		}
		g, ok := groupByID[groupID]
		if !ok {
			r.logger.Warn("skipping orphan item", "item_id", id, "group_id", groupID)
			continue
		}
		g.Items = append(g.Items, &types.Item{Text: text, Order: len(g.Items)})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating items: %w", err)
	}
	return nil
}
