package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/fleetdesk/internal/catalog"
	"github.com/erazemk/fleetdesk/internal/imaging"
	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/order"
	"github.com/erazemk/fleetdesk/internal/store"
)

const (
	// maxOrderBody caps a whole order submission.
	maxOrderBody = 128 << 20
	// maxOrderMemory is how much of a submission is kept in memory.
	maxOrderMemory = 32 << 20
)

// OrdersHandler handles work order endpoints.
type OrdersHandler struct {
	DB *sql.DB
}

// List handles GET /api/orders/.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListOrders(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list orders", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.OrderSummary{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}/.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get order", "order", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if o == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	absolutePhotos(r, o)
	jsonResponse(w, http.StatusOK, o)
}

// Create handles POST /api/orders/ (multipart).
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, fields, ok := readOrderForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	fields = mergeFields(fields, validateStruct(f))
	for _, slot := range order.Slots {
		if f.photos[string(slot)] == nil {
			fields = mergeFields(fields, map[string]string{string(slot): "this field is required"})
		}
	}
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	res, fields, err := h.resolve(r.Context(), f)
	if err != nil {
		slog.Error("failed to prepare order", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create order")
		return
	}
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	var createdBy int64
	if claims := GetClaims(r.Context()); claims != nil {
		createdBy = claims.UserID
	}
	o, err := store.CreateOrder(r.Context(), h.DB, store.OrderInput{
		OrderNumber: strings.TrimSpace(f.OrderNumber),
		ClientID:    f.ClientID,
		TruckID:     f.TruckID,
		Status:      f.Status,
		Works:       res.works,
		Photos:      res.photos,
		Repairs:     res.repairs,
		CreatedBy:   createdBy,
	})
	if err != nil {
		slog.Error("failed to create order", "error", err)
		if isUniqueViolation(err) {
			jsonFieldErrors(w, map[string]string{model.FieldOrderNumber: "order number already exists"})
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	ordersSaved.WithLabelValues("create").Inc()
	slog.Info("order created", "order", o.OrderNumber, "id", o.ID, "client", o.Client.ID, "works", len(o.Works), "total", o.TotalCost.StringFixed(2))
	absolutePhotos(r, o)
	jsonResponse(w, http.StatusCreated, o)
}

// Update handles PATCH /api/orders/{id}/ (multipart). Fields that are not
// sent keep their stored values; a sent work list replaces the stored one.
func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	existing, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get order", "order", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update order")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	f, fields, ok := readOrderForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	if !f.present[model.FieldOrderNumber] {
		f.OrderNumber = existing.OrderNumber
	}
	if !f.present[model.FieldClient] {
		f.ClientID = existing.Client.ID
	}
	if !f.present[model.FieldTruck] {
		f.TruckID = existing.Truck.ID
	}
	if !f.present[model.FieldStatus] {
		f.Status = existing.Status
	}
	fields = mergeFields(fields, validateStruct(f))
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	res, fields, err := h.resolve(r.Context(), f)
	if err != nil {
		slog.Error("failed to prepare order", "order", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update order")
		return
	}
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	num := strings.TrimSpace(f.OrderNumber)
	if num == "" {
		num = existing.OrderNumber
	}
	o, err := store.UpdateOrder(r.Context(), h.DB, id, store.OrderPatch{
		OrderNumber:  &num,
		ClientID:     &f.ClientID,
		TruckID:      &f.TruckID,
		Status:       &f.Status,
		ReplaceWorks: f.replaceWorks,
		Works:        res.works,
		Photos:       res.photos,
		Repairs:      res.repairs,
	})
	if err != nil {
		slog.Error("failed to update order", "order", id, "error", err)
		if isUniqueViolation(err) {
			jsonFieldErrors(w, map[string]string{model.FieldOrderNumber: "order number already exists"})
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	ordersSaved.WithLabelValues("update").Inc()
	slog.Info("order updated", "order", o.OrderNumber, "id", o.ID, "status", o.Status, "works", len(o.Works), "total", o.TotalCost.StringFixed(2))
	absolutePhotos(r, o)
	jsonResponse(w, http.StatusOK, o)
}

// readOrderForm parses the multipart body. It writes the error response and
// returns false when the body is unusable.
func readOrderForm(w http.ResponseWriter, r *http.Request) (*orderForm, map[string]string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxOrderBody)
	if err := r.ParseMultipartForm(maxOrderMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "submission too large")
			return nil, nil, false
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, nil, false
	}
	f, fields := parseOrderForm(r.MultipartForm)
	return f, fields, true
}

// resolved holds the parts of a submission checked against stored data.
type resolved struct {
	works   []store.WorkInput
	photos  map[string]store.PhotoInput
	repairs []store.RepairInput
}

// resolve checks references against the database, recomputes line costs
// from the catalog and normalises uploaded photos. Client-sent costs are
// advisory; a mismatch is logged and the recomputed value is stored.
func (h *OrdersHandler) resolve(ctx context.Context, f *orderForm) (*resolved, map[string]string, error) {
	fields := make(map[string]string)

	client, err := store.GetClient(ctx, h.DB, f.ClientID)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		fields[model.FieldClient] = "client not found"
	}
	truck, err := store.GetTruck(ctx, h.DB, f.TruckID)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case truck == nil:
		fields[model.FieldTruck] = "truck not found"
	case truck.ClientID != f.ClientID:
		fields[model.FieldTruck] = "truck does not belong to the selected client"
	}

	cats, err := store.ListWorkCategories(ctx, h.DB)
	if err != nil {
		return nil, nil, err
	}
	ix := catalog.Build(cats)

	res := &resolved{photos: make(map[string]store.PhotoInput)}
	for i, wf := range f.Works {
		if !ix.Has(wf.WorkID) {
			fields[model.WorkKey(i, model.WorkWork)] = "unknown work"
			continue
		}
		cost := order.LineCost(order.LineItem{WorkID: wf.WorkID, Duration: wf.hours}, ix)
		if wf.Cost != "" {
			if sent, err := order.ParseHours(wf.Cost); err != nil || !sent.Round(2).Equal(cost.Round(2)) {
				costMismatches.Inc()
				slog.Warn("client cost differs from catalog", "line", i, "work", wf.WorkID, "sent", wf.Cost, "computed", cost.StringFixed(2))
			}
		}
		res.works = append(res.works, store.WorkInput{
			WorkID:      wf.WorkID,
			Duration:    wf.hours,
			Description: strings.TrimSpace(wf.Description),
			Cost:        cost,
		})
	}

	for field, fh := range f.photos {
		p, err := readPhoto(fh)
		if err != nil {
			fields[field] = err.Error()
			continue
		}
		res.photos[field] = p
	}
	for i, rf := range f.Repairs {
		p, err := readPhoto(rf.Image)
		if err != nil {
			fields[model.RepairKey(i, model.RepairImage)] = err.Error()
			continue
		}
		res.repairs = append(res.repairs, store.RepairInput{Photo: p, Caption: strings.TrimSpace(rf.Caption)})
	}

	return res, fields, nil
}

func readPhoto(fh *multipart.FileHeader) (store.PhotoInput, error) {
	file, err := fh.Open()
	if err != nil {
		return store.PhotoInput{}, errors.New("cannot read upload")
	}
	defer file.Close()

	p, err := imaging.Normalize(file)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			return store.PhotoInput{}, err
		}
		return store.PhotoInput{}, errors.New("must be a JPEG or PNG image")
	}
	return store.PhotoInput{Data: p.Data, MIME: p.MIME}, nil
}

// absolutePhotos rewrites stored photo paths into URLs under this API.
func absolutePhotos(r *http.Request, o *model.Order) {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	base := scheme + "://" + r.Host + apiPrefix
	abs := func(p string) string {
		if p == "" {
			return ""
		}
		return base + p
	}
	o.CarPhoto = abs(o.CarPhoto)
	o.OdometerPhoto = abs(o.OdometerPhoto)
	o.DashboardPhoto = abs(o.DashboardPhoto)
	for i := range o.RepairPhotos {
		o.RepairPhotos[i].Image = abs(o.RepairPhotos[i].Image)
	}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
