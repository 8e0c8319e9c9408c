package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/fleetdesk/internal/model"
)

// apiPrefix is where the API is mounted. Resource paths end in a slash.
const apiPrefix = "/api/"

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	clientsHandler := &ClientsHandler{DB: db}
	catalogHandler := &CatalogHandler{DB: db}
	ordersHandler := &OrdersHandler{DB: db}
	photosHandler := &PhotosHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/token/{$}", authHandler.Login)

	// Users (admin only).
	mux.Handle("GET /api/users/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("DELETE /api/users/{id}/{$}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Clients and trucks: read (all roles), write (manager+).
	mux.Handle("GET /api/clients/{$}", authMW(http.HandlerFunc(clientsHandler.ListClients)))
	mux.Handle("POST /api/clients/{$}", authMW(requireManager(http.HandlerFunc(clientsHandler.CreateClient))))
	mux.Handle("GET /api/trucks/{$}", authMW(http.HandlerFunc(clientsHandler.ListTrucks)))
	mux.Handle("POST /api/trucks/{$}", authMW(requireManager(http.HandlerFunc(clientsHandler.CreateTruck))))

	// Work catalog: read (all roles), write (manager+).
	mux.Handle("GET /api/work-categories/{$}", authMW(http.HandlerFunc(catalogHandler.List)))
	mux.Handle("POST /api/work-categories/{$}", authMW(requireManager(http.HandlerFunc(catalogHandler.Create))))

	// Orders and their photos (all roles).
	mux.Handle("GET /api/orders/{$}", authMW(http.HandlerFunc(ordersHandler.List)))
	mux.Handle("POST /api/orders/{$}", authMW(http.HandlerFunc(ordersHandler.Create)))
	mux.Handle("GET /api/orders/{id}/{$}", authMW(http.HandlerFunc(ordersHandler.Get)))
	mux.Handle("PATCH /api/orders/{id}/{$}", authMW(http.HandlerFunc(ordersHandler.Update)))
	mux.Handle("GET /api/photos/{id}/{$}", authMW(http.HandlerFunc(photosHandler.Get)))

	return MetricsMiddleware(mux)
}
