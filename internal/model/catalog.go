package model

import "github.com/shopspring/decimal"

// WorkCategory is a priced group of work items. The hourly rate applies to
// every item in the category.
type WorkCategory struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"price_per_hour"`
	Works      []WorkItem      `json:"works"`
}

// WorkItem is a named unit of labour. It carries no price of its own.
type WorkItem struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category"`
}
