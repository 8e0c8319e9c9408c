package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Order is a maintenance work order as returned by the backend, with nested
// client, truck and work references.
type Order struct {
	ID             int64           `json:"id"`
	OrderNumber    string          `json:"order_number"`
	Client         Client          `json:"client"`
	Truck          Truck           `json:"truck"`
	Status         string          `json:"status"`
	Works          []OrderWork     `json:"works"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CarPhoto       string          `json:"car_photo,omitempty"`
	OdometerPhoto  string          `json:"odometer_photo,omitempty"`
	DashboardPhoto string          `json:"dashboard_photo,omitempty"`
	RepairPhotos   []RepairPhoto   `json:"repair_photos"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderWork is one work line of a persisted order.
type OrderWork struct {
	ID                int64           `json:"id"`
	Work              WorkItem        `json:"work"`
	DurationHours     decimal.Decimal `json:"duration_hours"`
	CustomDescription string          `json:"custom_description,omitempty"`
	Cost              decimal.Decimal `json:"cost"`
}

// RepairPhoto is a persisted damage photo.
type RepairPhoto struct {
	ID      int64  `json:"id"`
	Image   string `json:"image"`
	Caption string `json:"caption"`
}

// OrderSummary is the list form of an order.
type OrderSummary struct {
	ID                int64           `json:"id"`
	OrderNumber       string          `json:"order_number"`
	ClientName        string          `json:"client_name"`
	TruckLicensePlate string          `json:"truck_license_plate"`
	Status            string          `json:"status"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	CreatedAt         time.Time       `json:"created_at"`
}

// PhotoPath is the API-relative path a stored photo is served from.
func PhotoPath(id int64) string {
	return fmt.Sprintf("photos/%d/", id)
}
