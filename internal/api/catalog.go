package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/store"
)

// CatalogHandler handles the work catalog endpoints.
type CatalogHandler struct {
	DB *sql.DB
}

type createCategoryRequest struct {
	Name       string              `json:"name" validate:"required,max=100"`
	HourlyRate decimal.Decimal     `json:"price_per_hour"`
	Works      []createWorkRequest `json:"works" validate:"dive"`
}

type createWorkRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// List handles GET /api/work-categories/.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := store.ListWorkCategories(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list work categories", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list work categories")
		return
	}
	if cats == nil {
		cats = []model.WorkCategory{}
	}
	jsonResponse(w, http.StatusOK, cats)
}

// Create handles POST /api/work-categories/.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fields := validateStruct(req)
	if req.HourlyRate.IsNegative() {
		fields = mergeFields(fields, map[string]string{"price_per_hour": "must not be negative"})
	}
	if fields != nil {
		jsonFieldErrors(w, fields)
		return
	}

	cat := model.WorkCategory{Name: req.Name, HourlyRate: req.HourlyRate}
	for _, wr := range req.Works {
		cat.Works = append(cat.Works, model.WorkItem{Name: wr.Name})
	}

	created, err := store.CreateWorkCategory(r.Context(), h.DB, cat)
	if err != nil {
		slog.Error("failed to create work category", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create work category")
		return
	}

	slog.Info("work category created", "category", created.ID, "rate", created.HourlyRate, "works", len(created.Works))
	jsonResponse(w, http.StatusCreated, created)
}
