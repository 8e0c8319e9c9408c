package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/fleetdesk/internal/store"
)

// PhotosHandler serves stored order photos.
type PhotosHandler struct {
	DB *sql.DB
}

// Get handles GET /api/photos/{id}/.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	data, mime, err := store.GetPhoto(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get photo", "photo", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "photo not found")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Write(data)
}
