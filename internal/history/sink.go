// Package history implements the append-only plan history. It uses its own
// store connection and never reads or rewrites reference-data rows.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/formulary/internal/logging"
	"github.com/mesh-intelligence/formulary/internal/store"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

var _ types.HistorySink = (*Sink)(nil)

// DefaultLimit is the number of entries Recent returns for a non-positive limit.
const DefaultLimit = 20

// Sink writes history entries. It is safe for concurrent use.
type Sink struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Open opens a dedicated store connection for cfg and ensures the history
// table exists.
func Open(ctx context.Context, cfg types.Config, logger *slog.Logger) (*Sink, error) {
	s, err := store.Open(ctx, cfg, store.HistorySchema)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Sink{store: s, logger: logger, now: time.Now}, nil
}

// Close releases the sink's connection.
func (s *Sink) Close() error {
	return s.store.Close()
}

// Append inserts entry with a new UUID v7 and the current UTC time, and
// returns the stored entry. Section and content are required.
func (s *Sink) Append(ctx context.Context, entry types.HistoryEntry) (types.HistoryEntry, error) {
	if strings.TrimSpace(entry.Section) == "" || strings.TrimSpace(entry.Content) == "" {
		return types.HistoryEntry{}, types.ErrInvalidEntry
	}

	id, err := uuid.NewV7()
	if err != nil {
		return types.HistoryEntry{}, fmt.Errorf("generating UUID v7: %w", err)
	}
	entry.ID = id.String()
	entry.CreatedAt = s.now().UTC().Truncate(time.Second)

	err = s.store.RunTransaction(ctx, func(tx *store.Tx) error {
		_, err := tx.Exec(ctx,
			"INSERT INTO plan_history (id, created_at, section, content, patient_id, encounter_date) VALUES (?, ?, ?, ?, ?, ?)",
			entry.ID, entry.CreatedAt.Format(time.RFC3339), entry.Section, entry.Content,
			nullable(entry.PatientID), nullable(entry.EncounterDate),
		)
		return err
	})
	if err != nil {
		s.logger.Error("append history entry", "op", "history_append", "section", entry.Section, "err", err)
		return types.HistoryEntry{}, fmt.Errorf("%w: append history: %v", types.ErrStoreUnavailable, err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (s *Sink) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.store.Query(ctx,
		"SELECT id, created_at, section, content, patient_id, encounter_date FROM plan_history ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query history: %v", types.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	entries := []types.HistoryEntry{}
	for rows.Next() {
		var e types.HistoryEntry
		var createdAt string
		var patientID, encounterDate *string
		if err := rows.Scan(&e.ID, &createdAt, &e.Section, &e.Content, &patientID, &encounterDate); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		if patientID != nil {
			e.PatientID = *patientID
		}
		if encounterDate != nil {
			e.EncounterDate = *encounterDate
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
