package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/db"
	"github.com/erazemk/fleetdesk/internal/model"
)

type fixture struct {
	client    *model.Client
	other     *model.Client
	truck     *model.Truck
	oilChange int64
	brakes    int64
}

func seed(t *testing.T, database *sql.DB) fixture {
	t.Helper()
	ctx := context.Background()

	var f fixture
	var err error
	if f.client, err = CreateClient(ctx, database, model.Client{Name: "Ana", Surname: "Novak", Phone: "040"}); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if f.other, err = CreateClient(ctx, database, model.Client{Name: "Bor", Surname: "Kos"}); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if f.truck, err = CreateTruck(ctx, database, model.Truck{Model: "Actros", VINCode: "1234567", LicensePlate: "LJ AB-123", ClientID: f.client.ID}); err != nil {
		t.Fatalf("CreateTruck: %v", err)
	}
	if _, err := CreateTruck(ctx, database, model.Truck{Model: "FH16", LicensePlate: "MB CD-456", ClientID: f.other.ID}); err != nil {
		t.Fatalf("CreateTruck: %v", err)
	}

	oil, err := CreateWorkCategory(ctx, database, model.WorkCategory{
		Name: "Oil", HourlyRate: decimal.NewFromInt(500),
		Works: []model.WorkItem{{Name: "Oil change"}},
	})
	if err != nil {
		t.Fatalf("CreateWorkCategory: %v", err)
	}
	chassis, err := CreateWorkCategory(ctx, database, model.WorkCategory{
		Name: "Chassis", HourlyRate: decimal.RequireFromString("200.50"),
		Works: []model.WorkItem{{Name: "Brake pads"}, {Name: "Tyre swap"}},
	})
	if err != nil {
		t.Fatalf("CreateWorkCategory: %v", err)
	}
	f.oilChange = oil.Works[0].ID
	f.brakes = chassis.Works[0].ID
	return f
}

func TestListTrucksByClient(t *testing.T) {
	database := db.NewTestDB(t)
	f := seed(t, database)
	ctx := context.Background()

	trucks, err := ListTrucks(ctx, database, f.client.ID)
	if err != nil {
		t.Fatalf("ListTrucks: %v", err)
	}
	if len(trucks) != 1 || trucks[0].ClientID != f.client.ID {
		t.Errorf("trucks = %+v, want only client %d's", trucks, f.client.ID)
	}

	all, _ := ListTrucks(ctx, database, 0)
	if len(all) != 2 {
		t.Errorf("expected 2 trucks in total, got %d", len(all))
	}

	none, _ := ListTrucks(ctx, database, 9999)
	if len(none) != 0 {
		t.Errorf("expected no trucks for unknown client, got %d", len(none))
	}
}

func TestTruckRequiresClient(t *testing.T) {
	database := db.NewTestDB(t)
	_, err := CreateTruck(context.Background(), database, model.Truck{Model: "X", LicensePlate: "Y", ClientID: 42})
	if err == nil {
		t.Error("expected foreign key error for unknown client")
	}
}

func TestListWorkCategories(t *testing.T) {
	database := db.NewTestDB(t)
	seed(t, database)

	cats, err := ListWorkCategories(context.Background(), database)
	if err != nil {
		t.Fatalf("ListWorkCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	if cats[0].Name != "Oil" || len(cats[0].Works) != 1 {
		t.Errorf("first category = %+v", cats[0])
	}
	if !cats[1].HourlyRate.Equal(decimal.RequireFromString("200.5")) {
		t.Errorf("rate = %s, want 200.5", cats[1].HourlyRate)
	}
	for _, w := range cats[1].Works {
		if w.CategoryID != cats[1].ID {
			t.Errorf("work %d category = %d, want %d", w.ID, w.CategoryID, cats[1].ID)
		}
	}
}

func TestCategoryWithoutWorks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cat, err := CreateWorkCategory(ctx, database, model.WorkCategory{Name: "Empty", HourlyRate: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("CreateWorkCategory: %v", err)
	}
	if cat.Works == nil || len(cat.Works) != 0 {
		t.Errorf("works = %#v, want empty slice", cat.Works)
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	database := db.NewTestDB(t)
	f := seed(t, database)
	ctx := context.Background()

	o, err := CreateOrder(ctx, database, OrderInput{
		ClientID: f.client.ID,
		TruckID:  f.truck.ID,
		Status:   model.StatusNew,
		Works: []WorkInput{
			{WorkID: f.oilChange, Duration: decimal.RequireFromString("1.5"), Cost: decimal.NewFromInt(750)},
			{WorkID: f.brakes, Duration: decimal.NewFromInt(2), Description: "front axle", Cost: decimal.NewFromInt(401)},
		},
		Photos: map[string]PhotoInput{
			model.FieldCarPhoto:       {Data: []byte("plate"), MIME: "image/jpeg"},
			model.FieldOdometerPhoto:  {Data: []byte("odo"), MIME: "image/jpeg"},
			model.FieldDashboardPhoto: {Data: []byte("dash"), MIME: "image/jpeg"},
		},
		Repairs: []RepairInput{{Photo: PhotoInput{Data: []byte("dent"), MIME: "image/jpeg"}, Caption: "dent"}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if o.OrderNumber != "WO-000001" {
		t.Errorf("order number = %q, want WO-000001", o.OrderNumber)
	}
	if o.Client.Name != "Ana" || o.Truck.LicensePlate != "LJ AB-123" {
		t.Errorf("nested refs = %+v / %+v", o.Client, o.Truck)
	}
	if !o.TotalCost.Equal(decimal.NewFromInt(1151)) {
		t.Errorf("total = %s, want 1151", o.TotalCost)
	}
	if len(o.Works) != 2 || o.Works[1].Work.Name != "Brake pads" || o.Works[1].CustomDescription != "front axle" {
		t.Errorf("works = %+v", o.Works)
	}
	if o.CarPhoto == "" || o.OdometerPhoto == "" || o.DashboardPhoto == "" {
		t.Errorf("photo paths missing: %q %q %q", o.CarPhoto, o.OdometerPhoto, o.DashboardPhoto)
	}
	if len(o.RepairPhotos) != 1 || o.RepairPhotos[0].Caption != "dent" {
		t.Errorf("repair photos = %+v", o.RepairPhotos)
	}

	var photoID int64
	if _, err := fmt.Sscanf(o.OdometerPhoto, "photos/%d/", &photoID); err != nil {
		t.Fatalf("parsing photo path %q: %v", o.OdometerPhoto, err)
	}
	data, mime, err := GetPhoto(ctx, database, photoID)
	if err != nil || string(data) != "odo" || mime != "image/jpeg" {
		t.Errorf("GetPhoto = %q, %q, %v", data, mime, err)
	}
}

func TestCreateOrderKeepsGivenNumber(t *testing.T) {
	database := db.NewTestDB(t)
	f := seed(t, database)

	o, err := CreateOrder(context.Background(), database, OrderInput{
		OrderNumber: "2024/17", ClientID: f.client.ID, TruckID: f.truck.ID, Status: model.StatusNew,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.OrderNumber != "2024/17" {
		t.Errorf("order number = %q", o.OrderNumber)
	}
	if !o.TotalCost.IsZero() || len(o.Works) != 0 {
		t.Errorf("empty order total=%s works=%d", o.TotalCost, len(o.Works))
	}
}

func TestUpdateOrder(t *testing.T) {
	database := db.NewTestDB(t)
	f := seed(t, database)
	ctx := context.Background()

	o, _ := CreateOrder(ctx, database, OrderInput{
		ClientID: f.client.ID, TruckID: f.truck.ID, Status: model.StatusNew,
		Works:  []WorkInput{{WorkID: f.oilChange, Duration: decimal.NewFromInt(1), Cost: decimal.NewFromInt(500)}},
		Photos: map[string]PhotoInput{model.FieldCarPhoto: {Data: []byte("plate"), MIME: "image/jpeg"}},
	})

	status := model.StatusInProgress
	updated, err := UpdateOrder(ctx, database, o.ID, OrderPatch{
		Status:       &status,
		ReplaceWorks: true,
		Works:        []WorkInput{{WorkID: f.brakes, Duration: decimal.NewFromInt(1), Cost: decimal.RequireFromString("200.5")}},
		Repairs:      []RepairInput{{Photo: PhotoInput{Data: []byte("x"), MIME: "image/jpeg"}, Caption: "scratch"}},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if updated.Status != model.StatusInProgress {
		t.Errorf("status = %q", updated.Status)
	}
	if len(updated.Works) != 1 || updated.Works[0].Work.ID != f.brakes {
		t.Errorf("works = %+v", updated.Works)
	}
	if !updated.TotalCost.Equal(decimal.RequireFromString("200.5")) {
		t.Errorf("total = %s, want 200.5", updated.TotalCost)
	}
	if updated.CarPhoto != o.CarPhoto {
		t.Errorf("untouched photo changed: %q -> %q", o.CarPhoto, updated.CarPhoto)
	}
	if len(updated.RepairPhotos) != 1 {
		t.Errorf("repair photos = %d, want 1", len(updated.RepairPhotos))
	}

	// Without works in the patch the lines and total stay.
	again, err := UpdateOrder(ctx, database, o.ID, OrderPatch{
		Photos: map[string]PhotoInput{model.FieldCarPhoto: {Data: []byte("new plate"), MIME: "image/jpeg"}},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if len(again.Works) != 1 || !again.TotalCost.Equal(updated.TotalCost) {
		t.Errorf("works or total changed: %+v %s", again.Works, again.TotalCost)
	}
	if again.CarPhoto == updated.CarPhoto {
		t.Error("replaced photo kept the old path")
	}
}

func TestGetOrderMissing(t *testing.T) {
	database := db.NewTestDB(t)
	o, err := GetOrder(context.Background(), database, 1)
	if err != nil {
		t.Fatal(err)
	}
	if o != nil {
		t.Error("expected nil for missing order")
	}
}

func TestListOrders(t *testing.T) {
	database := db.NewTestDB(t)
	f := seed(t, database)
	ctx := context.Background()

	CreateOrder(ctx, database, OrderInput{ClientID: f.client.ID, TruckID: f.truck.ID, Status: model.StatusNew})
	CreateOrder(ctx, database, OrderInput{ClientID: f.client.ID, TruckID: f.truck.ID, Status: model.StatusCompleted})

	orders, err := ListOrders(ctx, database)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID < orders[1].ID {
		t.Error("expected newest first")
	}
	if orders[0].ClientName != "Ana Novak" || orders[0].TruckLicensePlate != "LJ AB-123" {
		t.Errorf("summary = %+v", orders[0])
	}
}
