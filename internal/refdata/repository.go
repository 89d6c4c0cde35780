// Package refdata implements the hierarchical reference-data repository: an
// in-memory Category -> Group -> Item tree loaded lazily from the store,
// mutated in place with dirty tracking, and persisted by a full-rewrite
// commit inside one transaction.
//
// A Repository is safe for use by multiple goroutines. Every public method
// takes the same mutex, and CommitPending holds it for the duration of its
// I/O, so reads and mutations never interleave with an in-flight commit.
package refdata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/formulary/internal/logging"
	"github.com/mesh-intelligence/formulary/internal/store"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

var _ types.Repository = (*Repository)(nil)

// Repository owns the cached tree, the dirty flag, and the loaded flag.
type Repository struct {
	mu      sync.Mutex
	store   *store.Store
	logger  *slog.Logger
	metrics *Metrics

	categories []*types.Category
	byName     map[string]*types.Category
	loaded     bool
	dirty      bool
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used to report store failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records load and commit outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// New creates an unloaded repository over s. The store must have been
// opened with store.ReferenceSchema.
func New(s *store.Store, opts ...Option) *Repository {
	r := &Repository{
		store:  s,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reset()
	return r
}

// reset empties the cache. The caller must hold r.mu.
func (r *Repository) reset() {
	r.categories = nil
	r.byName = make(map[string]*types.Category)
	r.loaded = false
	r.setDirty(false)
}

func (r *Repository) setDirty(dirty bool) {
	r.dirty = dirty
	r.metrics.setPending(dirty)
}

// Loaded reports whether the cache has been populated from the store.
func (r *Repository) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// OrderedCategories returns category names in display order, loading the
// cache first if needed.
func (r *Repository) OrderedCategories(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	names := make([]string, len(r.categories))
	for i, c := range r.categories {
		names[i] = c.Name
	}
	return names, nil
}

// MedicationData maps each category name to a copy of its groups in display
// order. The returned groups share Item pointers with the cache so that an
// item can be handed back to RemoveItem; callers must not modify them. The
// repository never writes an item after creating it, so reading them needs
// no lock.
func (r *Repository) MedicationData(ctx context.Context) (map[string][]types.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	data := make(map[string][]types.Group, len(r.categories))
	for _, c := range r.categories {
		groups := make([]types.Group, len(c.Groups))
		for i, g := range c.Groups {
			groups[i] = types.Group{
				Title: g.Title,
				Order: g.Order,
				Items: append([]*types.Item(nil), g.Items...),
			}
		}
		data[c.Name] = groups
	}
	return data, nil
}

// FindItem returns the first item in the named group whose text equals text,
// or nil if there is none.
func (r *Repository) FindItem(ctx context.Context, category, group, text string) (*types.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	g := r.group(category, group)
	if g == nil {
		return nil, nil
	}
	for _, it := range g.Items {
		if it.Text == text {
			return it, nil
		}
	}
	return nil, nil
}

// Snapshot returns a detached copy of the tree.
func (r *Repository) Snapshot(ctx context.Context) (types.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return types.Document{}, err
	}
	doc := types.Document{Categories: make([]types.DocumentCategory, 0, len(r.categories))}
	for _, c := range r.categories {
		dc := types.DocumentCategory{Name: c.Name}
		for _, g := range c.Groups {
			dg := types.DocumentGroup{Title: g.Title}
			for _, it := range g.Items {
				dg.Items = append(dg.Items, it.Text)
			}
			dc.Groups = append(dc.Groups, dg)
		}
		doc.Categories = append(doc.Categories, dc)
	}
	return doc, nil
}

// HasPendingChanges reports whether the cache holds mutations that have not
// been committed.
func (r *Repository) HasPendingChanges() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// Invalidate drops the cache, discarding any pending changes. The next read
// or mutation loads from the store again.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Reload replaces the cache with the current store contents. It refuses with
// types.ErrPendingChanges rather than discard uncommitted mutations.
func (r *Repository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dirty {
		return types.ErrPendingChanges
	}
	r.reset()
	return r.loadLocked(ctx)
}

func (r *Repository) group(category, title string) *types.Group {
	c, ok := r.byName[category]
	if !ok {
		return nil
	}
	for _, g := range c.Groups {
		if g.Title == title {
			return g
		}
	}
	return nil
}
