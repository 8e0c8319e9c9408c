package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: usernames are unique among active users only, so a
	// removed account's name can be given to someone else.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
	     ON users(username) WHERE deleted_at IS NULL`,
	// Migration 2: lookups the order form does on every client change.
	`CREATE INDEX IF NOT EXISTS idx_trucks_client ON trucks(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_works_category ON works(category_id)`,
	// Migration 3: order numbers are assigned once and never reused.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_number ON orders(order_number)`,
	`CREATE INDEX IF NOT EXISTS idx_order_works_order ON order_works(order_id, position)`,
}

// Migrate creates the backend schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
