package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/catalog"
	"github.com/erazemk/fleetdesk/internal/order"
)

// DraftInfo describes a saved draft without loading it.
type DraftInfo struct {
	Key       string
	Mode      string
	OrderID   int64
	ClientID  int64
	Total     decimal.Decimal
	UpdatedAt time.Time
}

// SaveDraft stores d under key, replacing any earlier version.
func SaveDraft(ctx context.Context, db *sql.DB, key string, d *order.Draft) error {
	data, err := d.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO drafts (key, mode, order_id, client_id, total, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET
		     mode = excluded.mode, order_id = excluded.order_id, client_id = excluded.client_id,
		     total = excluded.total, data = excluded.data, updated_at = excluded.updated_at`,
		key, d.Mode.String(), d.OrderID, d.ClientID, d.Total().String(), data,
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// LoadDraft returns the draft saved under key priced against ix, or nil if
// there is none.
func LoadDraft(ctx context.Context, db *sql.DB, key string, ix *catalog.Index) (*order.Draft, error) {
	var data []byte
	err := db.QueryRowContext(ctx, `SELECT data FROM drafts WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return order.Decode(data, ix)
}

// ListDrafts returns saved drafts, most recent first.
func ListDrafts(ctx context.Context, db *sql.DB) ([]DraftInfo, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT key, mode, order_id, client_id, total, updated_at
		 FROM drafts ORDER BY updated_at DESC, key`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	var drafts []DraftInfo
	for rows.Next() {
		var d DraftInfo
		if err := rows.Scan(&d.Key, &d.Mode, &d.OrderID, &d.ClientID, &d.Total, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// DeleteDraft removes the draft saved under key. Missing drafts are not an error.
func DeleteDraft(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// Drafts adapts the draft functions to the order form.
type Drafts struct {
	DB *sql.DB
}

// SaveDraft stores d under key.
func (s Drafts) SaveDraft(ctx context.Context, key string, d *order.Draft) error {
	return SaveDraft(ctx, s.DB, key, d)
}

// DeleteDraft removes the draft under key.
func (s Drafts) DeleteDraft(ctx context.Context, key string) error {
	return DeleteDraft(ctx, s.DB, key)
}
