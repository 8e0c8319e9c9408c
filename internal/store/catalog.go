package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fleetdesk/internal/model"
)

// CreateWorkCategory creates a category together with its work items.
func CreateWorkCategory(ctx context.Context, db *sql.DB, cat model.WorkCategory) (*model.WorkCategory, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO work_categories (name, price_per_hour) VALUES (?, ?)`,
		cat.Name, cat.HourlyRate.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating work category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting work category id: %w", err)
	}

	for _, w := range cat.Works {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO works (name, category_id) VALUES (?, ?)`, w.Name, id,
		); err != nil {
			return nil, fmt.Errorf("creating work %q: %w", w.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing work category: %w", err)
	}

	cats, err := ListWorkCategories(ctx, db)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].ID == id {
			return &cats[i], nil
		}
	}
	return nil, nil
}

// ListWorkCategories returns every category with its works, in creation order.
func ListWorkCategories(ctx context.Context, db *sql.DB) ([]model.WorkCategory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.name, c.price_per_hour, w.id, w.name
		 FROM work_categories c
		 LEFT JOIN works w ON w.category_id = c.id
		 ORDER BY c.id, w.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing work categories: %w", err)
	}
	defer rows.Close()

	var cats []model.WorkCategory
	for rows.Next() {
		var (
			c        model.WorkCategory
			workID   sql.NullInt64
			workName sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.HourlyRate, &workID, &workName); err != nil {
			return nil, fmt.Errorf("scanning work category: %w", err)
		}
		if n := len(cats); n == 0 || cats[n-1].ID != c.ID {
			c.Works = []model.WorkItem{}
			cats = append(cats, c)
		}
		if workID.Valid {
			last := &cats[len(cats)-1]
			last.Works = append(last.Works, model.WorkItem{
				ID:         workID.Int64,
				Name:       workName.String,
				CategoryID: c.ID,
			})
		}
	}
	return cats, rows.Err()
}
