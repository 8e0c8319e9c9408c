package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fleetdesk/internal/model"
)

// CreateTruck creates a new truck for its client.
func CreateTruck(ctx context.Context, db *sql.DB, t model.Truck) (*model.Truck, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO trucks (model, vin_code, license_plate, client_id) VALUES (?, ?, ?, ?)`,
		t.Model, t.VINCode, t.LicensePlate, t.ClientID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating truck: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting truck id: %w", err)
	}

	return GetTruck(ctx, db, id)
}

// GetTruck returns a truck by ID.
func GetTruck(ctx context.Context, db *sql.DB, id int64) (*model.Truck, error) {
	t := &model.Truck{}
	err := db.QueryRowContext(ctx,
		`SELECT id, model, vin_code, license_plate, client_id, created_at FROM trucks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Model, &t.VINCode, &t.LicensePlate, &t.ClientID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting truck: %w", err)
	}
	return t, nil
}

// ListTrucks returns the trucks of a client, or all trucks when clientID is 0.
func ListTrucks(ctx context.Context, db *sql.DB, clientID int64) ([]model.Truck, error) {
	query := `SELECT id, model, vin_code, license_plate, client_id, created_at FROM trucks`
	var args []any
	if clientID != 0 {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY license_plate, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trucks: %w", err)
	}
	defer rows.Close()

	var trucks []model.Truck
	for rows.Next() {
		var t model.Truck
		if err := rows.Scan(&t.ID, &t.Model, &t.VINCode, &t.LicensePlate, &t.ClientID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning truck: %w", err)
		}
		trucks = append(trucks, t)
	}
	return trucks, rows.Err()
}
