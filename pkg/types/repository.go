package types

import (
	"context"
	"errors"
)

// Repository is the hierarchical reference-data cache exposed to the UI and
// controller layer. Reads and mutations act on an in-memory tree that is
// loaded lazily from the store; Commit rewrites the whole tree atomically.
//
// The Add methods are silent no-ops for duplicates, unknown parents, and
// blank values: a name, title, or text that is empty or only whitespace
// adds nothing and leaves HasPendingChanges unchanged.
type Repository interface {
	// OrderedCategories returns category names in display order.
	OrderedCategories(ctx context.Context) ([]string, error)

	// MedicationData maps each category name to its groups in display order.
	MedicationData(ctx context.Context) (map[string][]Group, error)

	// AddCategory appends a category. Adding an existing or blank name is a
	// no-op.
	AddCategory(ctx context.Context, name string) error

	// AddGroup appends a group to a category. Unknown categories, duplicate
	// titles, and blank titles are silent no-ops.
	AddGroup(ctx context.Context, category, title string) error

	// AddItem appends an item to a group. Unknown categories or groups and
	// blank text are silent no-ops. Duplicate text is allowed.
	AddItem(ctx context.Context, category, group, text string) error

	// RemoveItem removes the given item from whichever group holds it.
	// Unknown items are a no-op.
	RemoveItem(item *Item)

	// HasPendingChanges reports whether the cache holds uncommitted mutations.
	HasPendingChanges() bool

	// CommitPending rewrites the store from the cache inside one transaction.
	// On failure the store is unchanged and pending changes remain.
	CommitPending(ctx context.Context) error
}

// Repository errors. Store-level failures are always reported through one of
// these; the underlying driver error is included in the message only.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrLoadFailed       = errors.New("load failed")
	ErrCommitFailed     = errors.New("commit failed")
	ErrPendingChanges   = errors.New("cache has uncommitted changes")
)
