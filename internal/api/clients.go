package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/store"
)

// ClientsHandler handles client and truck endpoints.
type ClientsHandler struct {
	DB *sql.DB
}

type createClientRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Surname string `json:"surname" validate:"max=100"`
	Phone   string `json:"phone" validate:"max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
}

type createTruckRequest struct {
	Model        string `json:"model" validate:"required,max=100"`
	VINCode      string `json:"vin_code" validate:"omitempty,len=7"`
	LicensePlate string `json:"license_plate" validate:"required,max=20"`
	ClientID     int64  `json:"client" validate:"required,gt=0"`
}

// ListClients handles GET /api/clients/.
func (h *ClientsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := store.ListClients(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list clients", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	jsonResponse(w, http.StatusOK, clients)
}

// CreateClient handles POST /api/clients/.
func (h *ClientsHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := validateStruct(req); fields != nil {
		jsonFieldErrors(w, fields)
		return
	}

	client, err := store.CreateClient(r.Context(), h.DB, model.Client{
		Name:    req.Name,
		Surname: req.Surname,
		Phone:   req.Phone,
		Email:   req.Email,
	})
	if err != nil {
		slog.Error("failed to create client", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create client")
		return
	}

	slog.Info("client created", "client", client.ID, "name", client.FullName())
	jsonResponse(w, http.StatusCreated, client)
}

// ListTrucks handles GET /api/trucks/?client=<id>.
func (h *ClientsHandler) ListTrucks(w http.ResponseWriter, r *http.Request) {
	var clientID int64
	if v := r.URL.Query().Get("client"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid client id")
			return
		}
		clientID = id
	}

	trucks, err := store.ListTrucks(r.Context(), h.DB, clientID)
	if err != nil {
		slog.Error("failed to list trucks", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list trucks")
		return
	}
	if trucks == nil {
		trucks = []model.Truck{}
	}
	jsonResponse(w, http.StatusOK, trucks)
}

// CreateTruck handles POST /api/trucks/.
func (h *ClientsHandler) CreateTruck(w http.ResponseWriter, r *http.Request) {
	var req createTruckRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := validateStruct(req); fields != nil {
		jsonFieldErrors(w, fields)
		return
	}

	client, err := store.GetClient(r.Context(), h.DB, req.ClientID)
	if err != nil {
		slog.Error("failed to get client", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create truck")
		return
	}
	if client == nil {
		jsonFieldErrors(w, map[string]string{model.FieldClient: "client not found"})
		return
	}

	truck, err := store.CreateTruck(r.Context(), h.DB, model.Truck{
		Model:        req.Model,
		VINCode:      req.VINCode,
		LicensePlate: req.LicensePlate,
		ClientID:     req.ClientID,
	})
	if err != nil {
		slog.Error("failed to create truck", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create truck")
		return
	}

	slog.Info("truck created", "truck", truck.ID, "plate", truck.LicensePlate, "client", truck.ClientID)
	jsonResponse(w, http.StatusCreated, truck)
}
