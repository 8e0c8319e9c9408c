package form

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/fleetapi"
	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/order"
	"github.com/erazemk/fleetdesk/internal/submit"
)

type fakeBackend struct {
	mu sync.Mutex

	catalogErr error
	clientsErr error
	orderErr   error
	submitErr  error
	order      *model.Order
	total      string
	// trucksGate, when set, holds ListTrucks for client 2 until closed.
	trucksGate chan struct{}

	creates  int
	updates  int
	payloads []*submit.Payload
}

func (f *fakeBackend) ListClients(context.Context) ([]model.Client, error) {
	if f.clientsErr != nil {
		return nil, f.clientsErr
	}
	return []model.Client{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bor"}}, nil
}

func (f *fakeBackend) ListTrucks(_ context.Context, clientID int64) ([]model.Truck, error) {
	switch clientID {
	case 1:
		return []model.Truck{{ID: 10, ClientID: 1}, {ID: 11, ClientID: 1}}, nil
	case 2:
		if f.trucksGate != nil {
			<-f.trucksGate
		}
		return []model.Truck{{ID: 20, ClientID: 2}}, nil
	}
	return nil, nil
}

func (f *fakeBackend) ListWorkCategories(context.Context) ([]model.WorkCategory, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return []model.WorkCategory{
		{ID: 1, Name: "Oil", HourlyRate: decimal.NewFromInt(500), Works: []model.WorkItem{{ID: 100, Name: "Oil change"}}},
	}, nil
}

func (f *fakeBackend) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, p *submit.Payload) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.payloads = append(f.payloads, p)
	return f.result(1)
}

func (f *fakeBackend) UpdateOrder(_ context.Context, id int64, p *submit.Payload) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.payloads = append(f.payloads, p)
	return f.result(id)
}

func (f *fakeBackend) result(id int64) (*model.Order, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	total := f.total
	if total == "" {
		total = "750"
	}
	return &model.Order{ID: id, OrderNumber: "WO-1", TotalCost: decimal.RequireFromString(total)}, nil
}

type memDrafts struct {
	saved   map[string]*order.Draft
	deleted []string
}

func (m *memDrafts) SaveDraft(_ context.Context, key string, d *order.Draft) error {
	if m.saved == nil {
		m.saved = make(map[string]*order.Draft)
	}
	m.saved[key] = d
	return nil
}

func (m *memDrafts) DeleteDraft(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.saved, key)
	return nil
}

func photo(name string) *order.Photo {
	return &order.Photo{Filename: name, MIME: "image/jpeg", Data: []byte(name)}
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

// readyCreate loads a create form and fills it until it would submit.
func readyCreate(t *testing.T, b *fakeBackend, drafts DraftStore) *Controller {
	t.Helper()
	c := NewCreate(b, drafts)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	done, err := c.SelectClient(context.Background(), 1)
	if err != nil {
		t.Fatalf("SelectClient: %v", err)
	}
	waitFor(t, done)
	if err := c.SelectTruck(10); err != nil {
		t.Fatalf("SelectTruck: %v", err)
	}
	id, _ := c.AddLine()
	work := int64(100)
	hours := "1.5"
	if err := c.UpdateLine(id, order.Patch{WorkID: &work, DurationText: &hours}); err != nil {
		t.Fatalf("UpdateLine: %v", err)
	}
	for _, s := range order.Slots {
		if err := c.SetPhoto(s, photo(string(s))); err != nil {
			t.Fatalf("SetPhoto: %v", err)
		}
	}
	return c
}

func TestCreateSubmit(t *testing.T) {
	b := &fakeBackend{}
	drafts := &memDrafts{}
	c := readyCreate(t, b, drafts)

	if got, _ := c.Total(); got != "750.00" {
		t.Errorf("Total = %s, want 750.00", got)
	}

	o, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if o.ID != 1 || c.State() != StateDone {
		t.Errorf("order=%+v state=%s", o, c.State())
	}
	if b.creates != 1 {
		t.Errorf("creates = %d, want 1", b.creates)
	}
	if len(drafts.deleted) != 1 || drafts.deleted[0] != c.DraftKey() {
		t.Errorf("draft not cleared: %v", drafts.deleted)
	}

	p := b.payloads[0]
	if part, _ := p.Get(model.FieldTruck); part.Value != "10" {
		t.Errorf("truck = %q, want 10", part.Value)
	}
}

func TestMissingPhotoNeverReachesBackend(t *testing.T) {
	b := &fakeBackend{}
	c := readyCreate(t, b, nil)
	c.SetPhoto(order.SlotOdometer, nil)

	_, err := c.Submit(context.Background())
	var v *order.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if b.creates != 0 {
		t.Errorf("backend called %d times", b.creates)
	}
	if _, ok := c.FieldErrors()[model.FieldOdometerPhoto]; !ok {
		t.Errorf("field errors = %v", c.FieldErrors())
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	b := &fakeBackend{submitErr: &fleetapi.APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "validation failed",
		Fields:     map[string]string{"works[0][work]": "unknown work"},
	}}
	drafts := &memDrafts{}
	c := readyCreate(t, b, drafts)

	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatal("Submit succeeded")
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
	if got := c.FieldErrors()["works[0][work]"]; got != "unknown work" {
		t.Errorf("field error = %q", got)
	}
	if drafts.saved[c.DraftKey()] == nil {
		t.Error("draft not saved after failure")
	}
	if c.Draft().Lines.Len() != 1 {
		t.Error("draft lines lost")
	}

	notices := c.Notices()
	if len(notices) != 1 || notices[0].Section != SectionSubmit {
		t.Errorf("notices = %+v", notices)
	}

	// Retry succeeds without re-entering anything.
	b.submitErr = nil
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if c.State() != StateDone {
		t.Errorf("state = %s, want done", c.State())
	}
}

func TestBackendTotalWins(t *testing.T) {
	b := &fakeBackend{total: "800"}
	c := readyCreate(t, b, nil)

	o, err := c.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !c.Result().TotalCost.Equal(decimal.NewFromInt(800)) || o != c.Result() {
		t.Errorf("result total = %s, want backend's 800", c.Result().TotalCost)
	}
}

func TestCatalogFailureIsRecoverable(t *testing.T) {
	b := &fakeBackend{catalogErr: errors.New("boom")}
	c := NewCreate(b, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
	if len(c.Clients()) != 2 {
		t.Errorf("clients not loaded alongside failed catalog")
	}
	if n := c.Notices(); len(n) != 1 || n[0].Section != SectionCatalog {
		t.Errorf("notices = %+v", n)
	}
	if c.Catalog().Len() != 0 {
		t.Errorf("catalog len = %d, want 0", c.Catalog().Len())
	}

	b.catalogErr = nil
	if err := c.RefreshCatalog(context.Background()); err != nil {
		t.Fatalf("RefreshCatalog: %v", err)
	}
	if c.Catalog().Len() != 1 {
		t.Errorf("catalog len after refresh = %d, want 1", c.Catalog().Len())
	}
}

func TestClientsFailureIsRecoverable(t *testing.T) {
	b := &fakeBackend{clientsErr: errors.New("boom")}
	c := NewCreate(b, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.State() != StateReady || c.Catalog().Len() != 1 {
		t.Errorf("state=%s catalog=%d", c.State(), c.Catalog().Len())
	}
}

func editOrder() *model.Order {
	return &model.Order{
		ID:     5,
		Client: model.Client{ID: 1},
		Truck:  model.Truck{ID: 11},
		Status: model.StatusInProgress,
		Works: []model.OrderWork{
			{Work: model.WorkItem{ID: 100}, DurationHours: decimal.RequireFromString("1.5")},
		},
		CarPhoto:       "/photos/1/",
		OdometerPhoto:  "/photos/2/",
		DashboardPhoto: "/photos/3/",
	}
}

func TestEditLoadAndSubmit(t *testing.T) {
	b := &fakeBackend{order: editOrder()}
	c := NewEdit(b, nil, 5)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Selector().TruckID(); got != 11 {
		t.Errorf("restored truck = %d, want 11", got)
	}
	if got, _ := c.Total(); got != "750.00" {
		t.Errorf("Total = %s, want 750.00", got)
	}

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if b.updates != 1 || b.creates != 0 {
		t.Errorf("updates=%d creates=%d", b.updates, b.creates)
	}
	p := b.payloads[0]
	for _, s := range order.Slots {
		if _, ok := p.Get(string(s)); ok {
			t.Errorf("unchanged %s re-sent", s)
		}
	}
}

func TestEditLoadFailureIsFatal(t *testing.T) {
	b := &fakeBackend{orderErr: errors.New("not found")}
	c := NewEdit(b, nil, 5)

	if err := c.Load(context.Background()); err == nil {
		t.Fatal("Load succeeded without the order")
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s, want failed", c.State())
	}
	if _, err := c.AddLine(); !errors.Is(err, ErrNotReady) {
		t.Errorf("AddLine err = %v, want ErrNotReady", err)
	}
}

func TestSwitchClientClearsTruck(t *testing.T) {
	b := &fakeBackend{}
	c := readyCreate(t, b, nil)

	done, err := c.SelectClient(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, done)

	if got := c.Selector().TruckID(); got != 0 {
		t.Errorf("truck = %d, want cleared", got)
	}
	_, err = c.Submit(context.Background())
	var v *order.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if _, ok := v.Message(model.FieldTruck); !ok {
		t.Errorf("no truck error in %v", v.Fields)
	}
}

func TestSubmitWhileTrucksLoading(t *testing.T) {
	b := &fakeBackend{trucksGate: make(chan struct{})}
	c := readyCreate(t, b, nil)

	done, err := c.SelectClient(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Selector().Pending() {
		t.Fatal("selector not pending")
	}

	_, err = c.Submit(context.Background())
	var v *order.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if _, ok := v.Message(model.FieldTruck); !ok {
		t.Errorf("no truck error in %v", v.Fields)
	}
	if c.FieldErrors()[model.FieldTruck] == "" {
		t.Error("truck field error not recorded")
	}

	close(b.trucksGate)
	waitFor(t, done)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.creates != 0 {
		t.Errorf("creates = %d, want 0", b.creates)
	}
}

func TestEditDamageErrorsKeyedByDraftPosition(t *testing.T) {
	o := editOrder()
	o.RepairPhotos = []model.RepairPhoto{{ID: 7, Image: "/photos/4/", Caption: "dent"}}
	b := &fakeBackend{order: o, submitErr: &fleetapi.APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "validation failed",
		Fields:     map[string]string{model.RepairKey(0, model.RepairImage): "must be a JPEG or PNG image"},
	}}
	c := NewEdit(b, nil, 5)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := c.RemoveDamage(0); !errors.Is(err, order.ErrSavedDamage) {
		t.Errorf("RemoveDamage(saved) err = %v, want ErrSavedDamage", err)
	}
	i, err := c.AddDamage(photo("crack.gif"), "crack")
	if err != nil || i != 1 {
		t.Fatalf("AddDamage = %d, %v", i, err)
	}

	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatal("Submit succeeded")
	}
	fields := c.FieldErrors()
	if got := fields[model.RepairKey(1, model.RepairImage)]; got != "must be a JPEG or PNG image" {
		t.Errorf("error for new photo = %q; fields %v", got, fields)
	}
	if _, ok := fields[model.RepairKey(0, model.RepairImage)]; ok {
		t.Error("error attached to the saved photo")
	}
}

func TestResumeDraft(t *testing.T) {
	b := &fakeBackend{}
	d := order.NewDraft(nil)
	d.ClientID = 1
	d.TruckID = 10
	id := d.Lines.Append(decimal.NewFromInt(2))
	work := int64(100)
	d.Lines.Update(id, order.Patch{WorkID: &work})

	c := Resume(b, nil, "new-saved", d)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, _ := c.Total(); got != "1000.00" {
		t.Errorf("Total = %s, want 1000.00 after repricing", got)
	}
	if c.Selector().TruckID() != 10 {
		t.Errorf("truck = %d, want 10", c.Selector().TruckID())
	}
	if c.DraftKey() != "new-saved" {
		t.Errorf("key = %q", c.DraftKey())
	}
}

func TestLoadTwice(t *testing.T) {
	c := NewCreate(&fakeBackend{}, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(context.Background()); err == nil {
		t.Error("second Load succeeded")
	}
}
