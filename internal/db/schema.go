package db

import (
	"database/sql"
	"fmt"
)

// schema is the backend database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'mechanic' CHECK (role IN ('admin', 'manager', 'mechanic')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    surname    TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trucks (
    id            INTEGER PRIMARY KEY,
    model         TEXT NOT NULL,
    vin_code      TEXT NOT NULL DEFAULT '',
    license_plate TEXT NOT NULL,
    client_id     INTEGER NOT NULL REFERENCES clients(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS work_categories (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    price_per_hour TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS works (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    category_id INTEGER NOT NULL REFERENCES work_categories(id)
);

CREATE TABLE IF NOT EXISTS photos (
    id         INTEGER PRIMARY KEY,
    data       BLOB NOT NULL,
    mime       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS orders (
    id                 INTEGER PRIMARY KEY,
    order_number       TEXT NOT NULL,
    client_id          INTEGER NOT NULL REFERENCES clients(id),
    truck_id           INTEGER NOT NULL REFERENCES trucks(id),
    status             TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'in_progress', 'completed', 'canceled')),
    total_cost         TEXT NOT NULL DEFAULT '0',
    car_photo_id       INTEGER REFERENCES photos(id),
    odometer_photo_id  INTEGER REFERENCES photos(id),
    dashboard_photo_id INTEGER REFERENCES photos(id),
    created_by         INTEGER REFERENCES users(id),
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_works (
    id                 INTEGER PRIMARY KEY,
    order_id           INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    position           INTEGER NOT NULL,
    work_id            INTEGER NOT NULL REFERENCES works(id),
    duration_hours     TEXT NOT NULL,
    custom_description TEXT NOT NULL DEFAULT '',
    cost               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS repair_photos (
    id       INTEGER PRIMARY KEY,
    order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    photo_id INTEGER NOT NULL REFERENCES photos(id),
    caption  TEXT NOT NULL
);
`

// draftSchema is the schema of the client's local draft database.
const draftSchema = `
CREATE TABLE IF NOT EXISTS drafts (
    key        TEXT PRIMARY KEY,
    mode       TEXT NOT NULL CHECK (mode IN ('create', 'edit')),
    order_id   INTEGER NOT NULL DEFAULT 0,
    client_id  INTEGER NOT NULL DEFAULT 0,
    total      TEXT NOT NULL DEFAULT '0',
    data       BLOB NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all backend tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// EnsureDraftSchema creates the local draft table.
func EnsureDraftSchema(db *sql.DB) error {
	if _, err := db.Exec(draftSchema); err != nil {
		return fmt.Errorf("creating draft schema: %w", err)
	}
	return nil
}
