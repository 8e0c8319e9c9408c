package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fleetdesk/internal/model"
)

// CreateClient creates a new client.
func CreateClient(ctx context.Context, db *sql.DB, c model.Client) (*model.Client, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO clients (name, surname, phone, email) VALUES (?, ?, ?, ?)`,
		c.Name, c.Surname, c.Phone, c.Email,
	)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting client id: %w", err)
	}

	return GetClient(ctx, db, id)
}

// GetClient returns a client by ID.
func GetClient(ctx context.Context, db *sql.DB, id int64) (*model.Client, error) {
	c := &model.Client{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, surname, phone, email, created_at FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Surname, &c.Phone, &c.Email, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting client: %w", err)
	}
	return c, nil
}

// ListClients returns all clients ordered by surname and name.
func ListClients(ctx context.Context, db *sql.DB) ([]model.Client, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, surname, phone, email, created_at
		 FROM clients ORDER BY surname, name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Surname, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
