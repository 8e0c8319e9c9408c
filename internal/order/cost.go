package order

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/catalog"
)

// LineCost is rate(work) x hours. Unselected, unknown or unparsable entries
// cost zero.
func LineCost(item LineItem, ix *catalog.Index) decimal.Decimal {
	if item.WorkID == 0 || item.InvalidDuration != "" {
		return decimal.Zero
	}
	return ix.Rate(item.WorkID).Mul(item.Duration)
}

// OrderTotal sums LineCost over items. Values are not rounded.
func OrderTotal(items []LineItem, ix *catalog.Index) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineCost(item, ix))
	}
	return total
}

// Display formats a money amount with two fraction digits.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
