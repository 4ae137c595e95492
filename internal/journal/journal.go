// Package journal records the outcome of every upload attempt so a user can
// look back at what was filed where.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/billbot/internal/bills"
)

// Outcome values stored with each entry.
const (
	OutcomeUploaded    = "uploaded"
	OutcomeOverwritten = "overwritten"
	OutcomeFailed      = "fail"
)

// Entry is one finished upload attempt.
type Entry struct {
	AttemptID    uuid.UUID          `db:"attempt_id" json:"attempt_id"`
	UserID       int64              `db:"user_id" json:"user_id"`
	Year         int                `db:"year" json:"year"`
	Month        bills.Month        `db:"month" json:"month"`
	Company      bills.Company      `db:"company" json:"company"`
	DocumentType bills.DocumentType `db:"doc_type" json:"doc_type"`
	Path         string             `db:"path" json:"path"`
	Outcome      string             `db:"outcome" json:"outcome"`
	Reason       string             `db:"reason" json:"reason,omitempty"`
	Bytes        int64              `db:"bytes" json:"bytes"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}

// NewEntry stamps a fresh attempt ID and creation time.
func NewEntry(userID int64, meta bills.Metadata, path, outcome string) Entry {
	return Entry{
		AttemptID:    uuid.New(),
		UserID:       userID,
		Year:         meta.Year,
		Month:        meta.Month,
		Company:      meta.Company,
		DocumentType: meta.DocumentType,
		Path:         path,
		Outcome:      outcome,
		CreatedAt:    time.Now().UTC(),
	}
}

// Recorder persists entries and lists the most recent ones per user.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, userID int64, limit int) ([]Entry, error)
	Close() error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error                 { return nil }
func (Nop) Recent(context.Context, int64, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                                        { return nil }
