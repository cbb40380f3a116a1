// internal/editor/saver.go
//
// Production Saver over the site repository.  The session holds content
// as a typed tree; persistence flattens it back to the draft JSON column.
package editor

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/loft/internal/content"
	"github.com/yanizio/loft/internal/site"
)

// SQLSaver persists drafts through the site table.
type SQLSaver struct {
	db *sqlx.DB
}

// NewSQLSaver wraps an open pool.
func NewSQLSaver(db *sqlx.DB) *SQLSaver { return &SQLSaver{db: db} }

func (s *SQLSaver) SaveDraft(ctx context.Context, siteID string, cfg *content.Config) error {
	draft, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return site.UpdateDraft(ctx, s.db, siteID, draft)
}
