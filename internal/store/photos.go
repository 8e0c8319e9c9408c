package store

import (
	"context"
	"database/sql"
	"fmt"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreatePhoto stores an image and returns its ID.
func CreatePhoto(ctx context.Context, db execer, data []byte, mime string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO photos (data, mime) VALUES (?, ?)`, data, mime,
	)
	if err != nil {
		return 0, fmt.Errorf("storing photo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting photo id: %w", err)
	}
	return id, nil
}

// GetPhoto returns a photo's bytes and MIME type. Returns nil data if missing.
func GetPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var (
		data []byte
		mime string
	)
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM photos WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting photo: %w", err)
	}
	return data, mime, nil
}
