package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/model"
)

// WorkInput is one work line to store. Cost is the backend's own figure.
type WorkInput struct {
	WorkID      int64
	Duration    decimal.Decimal
	Description string
	Cost        decimal.Decimal
}

// PhotoInput is an uploaded image.
type PhotoInput struct {
	Data []byte
	MIME string
}

// RepairInput is an uploaded damage photo with its caption.
type RepairInput struct {
	Photo   PhotoInput
	Caption string
}

// OrderInput describes a new order.
type OrderInput struct {
	OrderNumber string
	ClientID    int64
	TruckID     int64
	Status      string
	Works       []WorkInput
	Photos      map[string]PhotoInput
	Repairs     []RepairInput
	CreatedBy   int64
}

// OrderPatch is a partial update. Nil fields are left alone; Works replaces
// every line when ReplaceWorks is set; Photos replace their slots; Repairs
// are added to the existing ones.
type OrderPatch struct {
	OrderNumber  *string
	ClientID     *int64
	TruckID      *int64
	Status       *string
	ReplaceWorks bool
	Works        []WorkInput
	Photos       map[string]PhotoInput
	Repairs      []RepairInput
}

// photoColumns maps fixed photo fields to their order columns.
var photoColumns = map[string]string{
	model.FieldCarPhoto:       "car_photo_id",
	model.FieldOdometerPhoto:  "odometer_photo_id",
	model.FieldDashboardPhoto: "dashboard_photo_id",
}

// CreateOrder stores a new order with its lines and photos. An empty order
// number is replaced with one derived from the ID.
func CreateOrder(ctx context.Context, db *sql.DB, in OrderInput) (*model.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var createdBy any
	if in.CreatedBy != 0 {
		createdBy = in.CreatedBy
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (order_number, client_id, truck_id, status, created_by) VALUES (?, ?, ?, ?, ?)`,
		in.OrderNumber, in.ClientID, in.TruckID, in.Status, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order id: %w", err)
	}

	if in.OrderNumber == "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET order_number = ? WHERE id = ?`, fmt.Sprintf("WO-%06d", id), id,
		); err != nil {
			return nil, fmt.Errorf("assigning order number: %w", err)
		}
	}

	if err := insertWorks(ctx, tx, id, in.Works); err != nil {
		return nil, err
	}
	if err := setPhotos(ctx, tx, id, in.Photos); err != nil {
		return nil, err
	}
	if err := insertRepairs(ctx, tx, id, in.Repairs); err != nil {
		return nil, err
	}
	if err := updateTotal(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}
	return GetOrder(ctx, db, id)
}

// assignment is one column update. Columns come from code, never input.
type assignment struct {
	column string
	value  any
}

// UpdateOrder applies a patch to an existing order.
func UpdateOrder(ctx context.Context, db *sql.DB, id int64, p OrderPatch) (*model.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var sets []assignment
	if p.OrderNumber != nil {
		sets = append(sets, assignment{"order_number", *p.OrderNumber})
	}
	if p.ClientID != nil {
		sets = append(sets, assignment{"client_id", *p.ClientID})
	}
	if p.TruckID != nil {
		sets = append(sets, assignment{"truck_id", *p.TruckID})
	}
	if p.Status != nil {
		sets = append(sets, assignment{"status", *p.Status})
	}
	for _, s := range sets {
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET `+s.column+` = ? WHERE id = ?`, s.value, id,
		); err != nil {
			return nil, fmt.Errorf("updating order %s: %w", s.column, err)
		}
	}

	if p.ReplaceWorks {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_works WHERE order_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clearing order works: %w", err)
		}
		if err := insertWorks(ctx, tx, id, p.Works); err != nil {
			return nil, err
		}
	}
	if err := setPhotos(ctx, tx, id, p.Photos); err != nil {
		return nil, err
	}
	if err := insertRepairs(ctx, tx, id, p.Repairs); err != nil {
		return nil, err
	}
	if err := updateTotal(ctx, tx, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	); err != nil {
		return nil, fmt.Errorf("touching order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}
	return GetOrder(ctx, db, id)
}

func insertWorks(ctx context.Context, tx *sql.Tx, orderID int64, works []WorkInput) error {
	for i, w := range works {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_works (order_id, position, work_id, duration_hours, custom_description, cost)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			orderID, i, w.WorkID, w.Duration.String(), w.Description, w.Cost.String(),
		); err != nil {
			return fmt.Errorf("storing order work %d: %w", i, err)
		}
	}
	return nil
}

func setPhotos(ctx context.Context, tx *sql.Tx, orderID int64, photos map[string]PhotoInput) error {
	for field, p := range photos {
		column, ok := photoColumns[field]
		if !ok {
			return fmt.Errorf("unknown photo field %q", field)
		}
		photoID, err := CreatePhoto(ctx, tx, p.Data, p.MIME)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET `+column+` = ? WHERE id = ?`, photoID, orderID,
		); err != nil {
			return fmt.Errorf("setting %s: %w", field, err)
		}
	}
	return nil
}

func insertRepairs(ctx context.Context, tx *sql.Tx, orderID int64, repairs []RepairInput) error {
	for i, r := range repairs {
		photoID, err := CreatePhoto(ctx, tx, r.Photo.Data, r.Photo.MIME)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO repair_photos (order_id, photo_id, caption) VALUES (?, ?, ?)`,
			orderID, photoID, r.Caption,
		); err != nil {
			return fmt.Errorf("storing repair photo %d: %w", i, err)
		}
	}
	return nil
}

// updateTotal recomputes total_cost from the stored line costs.
func updateTotal(ctx context.Context, tx *sql.Tx, orderID int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT cost FROM order_works WHERE order_id = ?`, orderID)
	if err != nil {
		return fmt.Errorf("reading order costs: %w", err)
	}
	total := decimal.Zero
	for rows.Next() {
		var cost decimal.Decimal
		if err := rows.Scan(&cost); err != nil {
			rows.Close()
			return fmt.Errorf("scanning order cost: %w", err)
		}
		total = total.Add(cost)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading order costs: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET total_cost = ? WHERE id = ?`, total.String(), orderID,
	); err != nil {
		return fmt.Errorf("updating order total: %w", err)
	}
	return nil
}

// GetOrder returns an order with nested client, truck, works and photo paths.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	o := &model.Order{}
	var carID, odoID, dashID sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT o.id, o.order_number, o.status, o.total_cost,
		        o.car_photo_id, o.odometer_photo_id, o.dashboard_photo_id, o.created_at, o.updated_at,
		        c.id, c.name, c.surname, c.phone, c.email, c.created_at,
		        t.id, t.model, t.vin_code, t.license_plate, t.client_id, t.created_at
		 FROM orders o
		 JOIN clients c ON c.id = o.client_id
		 JOIN trucks t ON t.id = o.truck_id
		 WHERE o.id = ?`, id,
	).Scan(&o.ID, &o.OrderNumber, &o.Status, &o.TotalCost,
		&carID, &odoID, &dashID, &o.CreatedAt, &o.UpdatedAt,
		&o.Client.ID, &o.Client.Name, &o.Client.Surname, &o.Client.Phone, &o.Client.Email, &o.Client.CreatedAt,
		&o.Truck.ID, &o.Truck.Model, &o.Truck.VINCode, &o.Truck.LicensePlate, &o.Truck.ClientID, &o.Truck.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	o.CarPhoto = photoPath(carID)
	o.OdometerPhoto = photoPath(odoID)
	o.DashboardPhoto = photoPath(dashID)

	if o.Works, err = orderWorks(ctx, db, id); err != nil {
		return nil, err
	}
	if o.RepairPhotos, err = repairPhotos(ctx, db, id); err != nil {
		return nil, err
	}
	return o, nil
}

func photoPath(id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	return model.PhotoPath(id.Int64)
}

func orderWorks(ctx context.Context, db *sql.DB, orderID int64) ([]model.OrderWork, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ow.id, ow.duration_hours, ow.custom_description, ow.cost, w.id, w.name, w.category_id
		 FROM order_works ow
		 JOIN works w ON w.id = ow.work_id
		 WHERE ow.order_id = ? ORDER BY ow.position`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing order works: %w", err)
	}
	defer rows.Close()

	works := []model.OrderWork{}
	for rows.Next() {
		var w model.OrderWork
		if err := rows.Scan(&w.ID, &w.DurationHours, &w.CustomDescription, &w.Cost,
			&w.Work.ID, &w.Work.Name, &w.Work.CategoryID); err != nil {
			return nil, fmt.Errorf("scanning order work: %w", err)
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

func repairPhotos(ctx context.Context, db *sql.DB, orderID int64) ([]model.RepairPhoto, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, photo_id, caption FROM repair_photos WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing repair photos: %w", err)
	}
	defer rows.Close()

	photos := []model.RepairPhoto{}
	for rows.Next() {
		var (
			p       model.RepairPhoto
			photoID int64
		)
		if err := rows.Scan(&p.ID, &photoID, &p.Caption); err != nil {
			return nil, fmt.Errorf("scanning repair photo: %w", err)
		}
		p.Image = model.PhotoPath(photoID)
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// ListOrders returns order summaries, newest first.
func ListOrders(ctx context.Context, db *sql.DB) ([]model.OrderSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT o.id, o.order_number, c.name, c.surname, t.license_plate, o.status, o.total_cost, o.created_at
		 FROM orders o
		 JOIN clients c ON c.id = o.client_id
		 JOIN trucks t ON t.id = o.truck_id
		 ORDER BY o.created_at DESC, o.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []model.OrderSummary
	for rows.Next() {
		var (
			s      model.OrderSummary
			client model.Client
		)
		if err := rows.Scan(&s.ID, &s.OrderNumber, &client.Name, &client.Surname,
			&s.TruckLicensePlate, &s.Status, &s.TotalCost, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		s.ClientName = client.FullName()
		orders = append(orders, s)
	}
	return orders, rows.Err()
}
