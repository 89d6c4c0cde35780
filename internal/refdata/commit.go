package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/formulary/internal/store"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

// Children are deleted before parents and inserted after them; the schema
// has no cascading deletes.
var deleteOrder = []string{store.TableItems, store.TableGroups, store.TableCategories}

const (
	insertCategorySQL = "INSERT INTO categories (id, name, display_order) VALUES (?, ?, ?)"
	insertGroupSQL    = "INSERT INTO medication_groups (id, category_id, title, display_order) VALUES (?, ?, ?, ?)"
	insertItemSQL     = "INSERT INTO medication_items (id, group_id, text, display_order) VALUES (?, ?, ?, ?)"
)

// CommitPending rewrites the store from the cache inside one transaction:
// every row is deleted, then the tree is inserted in its current sequence
// order with display_order set to each node's position. It is a no-op when
// the cache was never loaded or has no pending changes. On failure the
// transaction is rolled back, pending changes remain, and the error wraps
// types.ErrCommitFailed.
func (r *Repository) CommitPending(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded || !r.dirty {
		return nil
	}

	start := time.Now()
	var written int
	err := r.store.RunTransaction(ctx, func(tx *store.Tx) error {
		for _, table := range deleteOrder {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		n, err := r.insertTree(ctx, tx)
		written = n
		return err
	})
	if err != nil {
		r.logger.Error("commit reference data", "op", "commit", "err", err)
		r.metrics.observeCommit(false, 0, time.Since(start))
		return fmt.Errorf("%w: %v", types.ErrCommitFailed, err)
	}

	r.renumber()
	r.setDirty(false)
	r.metrics.observeCommit(true, written, time.Since(start))
	r.logger.Info("committed reference data",
		"rows", written,
		"duration", time.Since(start))
	return nil
}

// insertTree inserts every node parent-first and returns the row count.
func (r *Repository) insertTree(ctx context.Context, tx *store.Tx) (int, error) {
	catStmt, err := tx.Prepare(ctx, insertCategorySQL)
	if err != nil {
		return 0, fmt.Errorf("preparing category insert: %w", err)
	}
	defer catStmt.Close()
	groupStmt, err := tx.Prepare(ctx, insertGroupSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing group insert: %w", err)
	}
	defer groupStmt.Close()
	itemStmt, err := tx.Prepare(ctx, insertItemSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing item insert: %w", err)
	}
	defer itemStmt.Close()

	rows := 0
	for ci, c := range r.categories {
		categoryID, err := insertRow(ctx, catStmt, c.Name, ci)
		if err != nil {
			return rows, fmt.Errorf("inserting category %q: %w", c.Name, err)
		}
		rows++
		for gi, g := range c.Groups {
			groupID, err := insertRow(ctx, groupStmt, categoryID, g.Title, gi)
			if err != nil {
				return rows, fmt.Errorf("inserting group %q in %q: %w", g.Title, c.Name, err)
			}
			rows++
			for ii, it := range g.Items {
				if _, err := insertRow(ctx, itemStmt, groupID, it.Text, ii); err != nil {
					return rows, fmt.Errorf("inserting item %q in %q/%q: %w", it.Text, c.Name, g.Title, err)
				}
				rows++
			}
		}
	}
	return rows, nil
}

// insertRow executes stmt with a fresh row identifier followed by args and
// returns the identifier.
func insertRow(ctx context.Context, stmt *sql.Stmt, args ...any) (string, error) {
	id := generateUUID()
	if _, err := stmt.ExecContext(ctx, append([]any{id}, args...)...); err != nil {
		return "", err
	}
	return id, nil
}

// renumber sets category and group Order to their positions after a
// successful commit. Items are left alone: MedicationData and FindItem hand
// out item pointers that callers read without the lock.
func (r *Repository) renumber() {
	for ci, c := range r.categories {
		c.Order = ci
		for gi, g := range c.Groups {
			g.Order = gi
		}
	}
}

// generateUUID generates a new UUID v7 for row identifiers.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
