package journal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Postgres stores entries in the upload_journal table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open pool. The schema comes from the embedded migrations.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

const insertEntry = `
INSERT INTO upload_journal
    (attempt_id, user_id, year, month, company, doc_type, path, outcome, reason, bytes, created_at)
VALUES
    (:attempt_id, :user_id, :year, :month, :company, :doc_type, :path, :outcome, :reason, :bytes, :created_at)`

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if _, err := p.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

const selectRecent = `
SELECT attempt_id, user_id, year, month, company, doc_type, path, outcome, reason, bytes, created_at
FROM upload_journal
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

func (p *Postgres) Recent(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	var out []Entry
	if err := p.db.SelectContext(ctx, &out, selectRecent, userID, limit); err != nil {
		return nil, fmt.Errorf("journal select: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() error { return p.db.Close() }
