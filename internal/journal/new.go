package journal

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/billbot/core/config"
)

// New opens the recorder selected by cfg.Backend. db is required for the
// postgres backend and ignored otherwise.
func New(cfg config.JournalConfig, db *sqlx.DB) (Recorder, error) {
	switch cfg.Backend {
	case config.JournalNone, "":
		return Nop{}, nil
	case config.JournalBolt:
		return OpenBolt(cfg.BoltPath)
	case config.JournalPostgres:
		if db == nil {
			return nil, fmt.Errorf("journal: postgres backend needs a database connection")
		}
		return NewPostgres(db), nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
