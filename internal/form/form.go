// Package form drives one order form from reference-data loading through
// submission, in create or edit mode.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/fleetdesk/internal/catalog"
	"github.com/erazemk/fleetdesk/internal/fleetapi"
	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/order"
	"github.com/erazemk/fleetdesk/internal/selector"
	"github.com/erazemk/fleetdesk/internal/submit"
)

// State is the lifecycle position of a form.
type State int

// Form states.
const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateSubmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Notice sections.
const (
	SectionCatalog = "catalog"
	SectionClients = "clients"
	SectionTrucks  = "trucks"
	SectionOrder   = "order"
	SectionSubmit  = "submit"
)

// Notice is a recoverable problem shown to the user.
type Notice struct {
	Section string
	Message string
	Err     error
}

// ErrNotReady is returned for edits outside the Ready state.
var ErrNotReady = errors.New("form is not ready for input")

// Backend is the part of the API the form uses.
type Backend interface {
	ListClients(ctx context.Context) ([]model.Client, error)
	ListTrucks(ctx context.Context, clientID int64) ([]model.Truck, error)
	ListWorkCategories(ctx context.Context) ([]model.WorkCategory, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	CreateOrder(ctx context.Context, p *submit.Payload) (*model.Order, error)
	UpdateOrder(ctx context.Context, id int64, p *submit.Payload) (*model.Order, error)
}

// DraftStore keeps drafts of failed submissions so they can be resumed.
type DraftStore interface {
	SaveDraft(ctx context.Context, key string, d *order.Draft) error
	DeleteDraft(ctx context.Context, key string) error
}

// Controller is one order form instance.
type Controller struct {
	backend Backend
	drafts  DraftStore
	sel     *selector.Selector
	key     string
	orderID int64
	seed    *order.Draft

	mu      sync.Mutex
	state   State
	draft   *order.Draft
	index   *catalog.Index
	clients []model.Client
	notices []Notice
	fields  map[string]string
	result  *model.Order
}

func newController(b Backend, drafts DraftStore, key string) *Controller {
	c := &Controller{
		backend: b,
		drafts:  drafts,
		key:     key,
		fields:  make(map[string]string),
	}
	c.sel = selector.New(b, func(err error) {
		c.notice(SectionTrucks, "trucks could not be loaded", err)
	})
	return c
}

// NewCreate returns a form for a new order. drafts may be nil.
func NewCreate(b Backend, drafts DraftStore) *Controller {
	return newController(b, drafts, "new-"+uuid.NewString())
}

// NewEdit returns a form editing order id.
func NewEdit(b Backend, drafts DraftStore, id int64) *Controller {
	c := newController(b, drafts, EditKey(id))
	c.orderID = id
	return c
}

// Resume returns a form continuing a saved draft under key. Edit drafts are
// not refetched; the saved state is what the user last had.
func Resume(b Backend, drafts DraftStore, key string, d *order.Draft) *Controller {
	c := newController(b, drafts, key)
	c.seed = d
	c.orderID = d.OrderID
	return c
}

// EditKey is the draft key used for edits of order id.
func EditKey(id int64) string {
	return fmt.Sprintf("order-%d", id)
}

// Load fetches the catalog, the client list and, in edit mode, the order,
// all concurrently. Catalog and client failures become notices and the form
// still becomes Ready. A failed order fetch moves the form to Failed and is
// returned.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateEmpty {
		c.mu.Unlock()
		return fmt.Errorf("load in state %s", c.state)
	}
	c.state = StateLoading
	c.mu.Unlock()

	var (
		g       errgroup.Group
		cats    []model.WorkCategory
		clients []model.Client
		fetched *model.Order
	)

	g.Go(func() error {
		var err error
		if cats, err = c.backend.ListWorkCategories(ctx); err != nil {
			c.notice(SectionCatalog, "work catalog could not be loaded", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if clients, err = c.backend.ListClients(ctx); err != nil {
			c.notice(SectionClients, "clients could not be loaded", err)
		}
		return nil
	})
	if c.seed == nil && c.orderID != 0 {
		g.Go(func() error {
			var err error
			fetched, err = c.backend.GetOrder(ctx, c.orderID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		c.mu.Lock()
		c.state = StateFailed
		c.mu.Unlock()
		c.notice(SectionOrder, "order could not be loaded", err)
		return fmt.Errorf("loading order %d: %w", c.orderID, err)
	}

	ix := catalog.Build(cats)
	var d *order.Draft
	switch {
	case c.seed != nil:
		d = c.seed
		d.Lines.SetCatalog(ix)
	case fetched != nil:
		d = order.FromOrder(fetched, ix)
	default:
		d = order.NewDraft(ix)
	}

	c.mu.Lock()
	c.index = ix
	c.clients = clients
	c.draft = d
	c.mu.Unlock()

	if d.ClientID != 0 {
		t := c.sel.Restore(d.ClientID, d.TruckID)
		trucks, err := c.backend.ListTrucks(ctx, d.ClientID)
		c.sel.Apply(t, trucks, err)
	}

	c.mu.Lock()
	c.state = StateReady
	c.mu.Unlock()
	slog.Info("order form ready", "mode", d.Mode, "order", d.OrderID, "works", ix.Len(), "clients", len(clients))
	return nil
}

// RefreshCatalog refetches the work catalog and reprices every line.
func (c *Controller) RefreshCatalog(ctx context.Context) error {
	cats, err := c.backend.ListWorkCategories(ctx)
	if err != nil {
		c.notice(SectionCatalog, "work catalog could not be loaded", err)
		return fmt.Errorf("refreshing catalog: %w", err)
	}
	ix := catalog.Build(cats)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = ix
	if c.draft != nil {
		c.draft.Lines.SetCatalog(ix)
	}
	return nil
}

// SelectClient changes the client and fetches its trucks. The channel closes
// when the truck list has been applied or superseded.
func (c *Controller) SelectClient(ctx context.Context, id int64) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return nil, ErrNotReady
	}
	c.draft.ClientID = id
	return c.sel.SelectClient(ctx, id), nil
}

// SelectTruck chooses one of the selected client's trucks.
func (c *Controller) SelectTruck(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return ErrNotReady
	}
	return c.sel.SelectTruck(id)
}

// Selector exposes the client/truck selection state for display.
func (c *Controller) Selector() *selector.Selector {
	return c.sel
}

// SetStatus sets the order status.
func (c *Controller) SetStatus(status string) error {
	return c.edit(func(d *order.Draft) error {
		if !model.ValidStatus(status) {
			return fmt.Errorf("unknown status %q", status)
		}
		d.Status = status
		return nil
	})
}

// SetOrderNumber sets the human order number; blank lets the backend assign one.
func (c *Controller) SetOrderNumber(num string) error {
	return c.edit(func(d *order.Draft) error {
		d.OrderNumber = num
		return nil
	})
}

// AddLine appends a line with the default duration.
func (c *Controller) AddLine() (order.EntryID, error) {
	var id order.EntryID
	err := c.edit(func(d *order.Draft) error {
		id = d.Lines.Append(order.DefaultHours)
		return nil
	})
	return id, err
}

// UpdateLine applies p to a line.
func (c *Controller) UpdateLine(id order.EntryID, p order.Patch) error {
	return c.edit(func(d *order.Draft) error {
		return d.Lines.Update(id, p)
	})
}

// RemoveLine drops a line.
func (c *Controller) RemoveLine(id order.EntryID) error {
	return c.edit(func(d *order.Draft) error {
		return d.Lines.Remove(id)
	})
}

// MoveLine moves a line to pos.
func (c *Controller) MoveLine(id order.EntryID, pos int) error {
	return c.edit(func(d *order.Draft) error {
		return d.Lines.Move(id, pos)
	})
}

// SetPhoto fills or clears a fixed photo slot.
func (c *Controller) SetPhoto(slot order.Slot, p *order.Photo) error {
	return c.edit(func(d *order.Draft) error {
		return d.SetPhoto(slot, p)
	})
}

// AddDamage appends a damage photo entry.
func (c *Controller) AddDamage(p *order.Photo, caption string) (int, error) {
	var i int
	err := c.edit(func(d *order.Draft) error {
		i = d.AddDamage(p, caption)
		return nil
	})
	return i, err
}

// SetDamage replaces damage photo entry i. Saved entries are rejected with
// order.ErrSavedDamage.
func (c *Controller) SetDamage(i int, p *order.Photo, caption string) error {
	return c.edit(func(d *order.Draft) error {
		return d.SetDamage(i, p, caption)
	})
}

// RemoveDamage drops damage photo entry i unless it is already saved.
func (c *Controller) RemoveDamage(i int) error {
	return c.edit(func(d *order.Draft) error {
		return d.RemoveDamage(i)
	})
}

func (c *Controller) edit(fn func(d *order.Draft) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return ErrNotReady
	}
	return fn(c.draft)
}

// Submit validates, assembles and sends the order. Validation failures never
// reach the network. On any failure the form returns to Ready with the draft
// intact and, when a DraftStore is set, saved.
func (c *Controller) Submit(ctx context.Context) (*model.Order, error) {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return nil, ErrNotReady
	}
	d := c.draft
	d.ClientID = c.sel.ClientID()
	d.TruckID = c.sel.TruckID()
	clear(c.fields)

	payload, err := submit.Assemble(d)
	if err == nil {
		switch {
		case c.sel.Pending():
			err = &order.ValidationError{Fields: []order.FieldError{{
				Field: model.FieldTruck, Message: "truck list is still loading",
			}}}
		case !c.sel.Owns(d.TruckID):
			err = &order.ValidationError{Fields: []order.FieldError{{
				Field: model.FieldTruck, Message: "truck does not belong to the selected client",
			}}}
		}
	}
	if err != nil {
		var v *order.ValidationError
		if errors.As(err, &v) {
			for _, f := range v.Fields {
				c.fields[f.Field] = f.Message
			}
		}
		c.mu.Unlock()
		return nil, err
	}

	c.state = StateSubmitting
	local := d.Total()
	c.mu.Unlock()

	var result *model.Order
	if d.Mode == order.ModeEdit {
		result, err = c.backend.UpdateOrder(ctx, d.OrderID, payload)
	} else {
		result, err = c.backend.CreateOrder(ctx, payload)
	}

	if err != nil {
		c.mu.Lock()
		c.state = StateReady
		var apiErr *fleetapi.APIError
		if errors.As(err, &apiErr) {
			for k, v := range apiErr.Fields {
				c.fields[payload.DraftField(k)] = v
			}
		}
		c.mu.Unlock()

		c.notice(SectionSubmit, "order could not be saved", err)
		c.saveDraft(ctx, d)
		return nil, fmt.Errorf("submitting order: %w", err)
	}

	if !result.TotalCost.Round(2).Equal(local.Round(2)) {
		slog.Warn("order total differs from backend",
			"order", result.OrderNumber, "local", order.Display(local), "backend", order.Display(result.TotalCost))
	}

	c.mu.Lock()
	c.state = StateDone
	c.result = result
	c.mu.Unlock()

	if c.drafts != nil {
		if err := c.drafts.DeleteDraft(ctx, c.key); err != nil {
			slog.Warn("clearing draft failed", "draft", c.key, "error", err)
		}
	}
	slog.Info("order submitted", "order", result.OrderNumber, "id", result.ID, "mode", d.Mode, "total", order.Display(result.TotalCost))
	return result, nil
}

func (c *Controller) saveDraft(ctx context.Context, d *order.Draft) {
	if c.drafts == nil {
		return
	}
	if err := c.drafts.SaveDraft(ctx, c.key, d); err != nil {
		slog.Error("saving draft failed", "draft", c.key, "error", err)
		return
	}
	slog.Info("draft saved", "draft", c.key)
}

func (c *Controller) notice(section, message string, err error) {
	slog.Warn(message, "section", section, "error", err)
	c.mu.Lock()
	c.notices = append(c.notices, Notice{Section: section, Message: message, Err: err})
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DraftKey is the key the draft is saved under.
func (c *Controller) DraftKey() string {
	return c.key
}

// Draft returns the draft being edited. Callers must not modify it directly.
func (c *Controller) Draft() *order.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Catalog returns the current catalog index.
func (c *Controller) Catalog() *catalog.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Clients returns the loaded clients.
func (c *Controller) Clients() []model.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Client(nil), c.clients...)
}

// Total returns the derived order total.
func (c *Controller) Total() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return "", ErrNotReady
	}
	return order.Display(c.draft.Total()), nil
}

// Notices returns the notices raised so far.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

// FieldErrors returns the field errors from the last submission attempt,
// keyed by wire field name.
func (c *Controller) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// Result returns the order returned by a successful submission.
func (c *Controller) Result() *model.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
