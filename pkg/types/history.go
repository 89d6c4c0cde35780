package types

import (
	"context"
	"errors"
	"time"
)

// HistoryEntry is one row of the append-only plan history.
type HistoryEntry struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Section       string    `json:"section"`
	Content       string    `json:"content"`
	PatientID     string    `json:"patient_id,omitempty"`
	EncounterDate string    `json:"encounter_date,omitempty"`
}

// HistorySink accepts timestamped free-text entries. Entries are never
// updated or deleted.
type HistorySink interface {
	Append(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)
}

// ErrInvalidEntry is returned when a history entry lacks a section or content.
var ErrInvalidEntry = errors.New("history entry requires section and content")
