package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Multipart field names for order submissions. The same names key the
// field-level validation errors on both sides of the wire.
const (
	FieldOrderNumber = "order_number"
	FieldClient      = "client"
	FieldTruck       = "truck"
	FieldStatus      = "status"
	// FieldWorks sent bare with an empty value clears every work line.
	FieldWorks = "works"

	FieldCarPhoto       = "car_photo"
	FieldOdometerPhoto  = "odometer_photo"
	FieldDashboardPhoto = "dashboard_photo"

	WorkWork        = "work"
	WorkDuration    = "duration_hours"
	WorkDescription = "custom_description"
	WorkCost        = "cost"

	RepairImage   = "image"
	RepairCaption = "caption"
)

// WorkKey returns the indexed field name for line item i, e.g. works[0][work].
func WorkKey(i int, field string) string {
	return fmt.Sprintf("works[%d][%s]", i, field)
}

// RepairKey returns the indexed field name for damage photo i.
func RepairKey(i int, field string) string {
	return fmt.Sprintf("repair_photos[%d][%s]", i, field)
}

// ParseRepairKey splits a damage photo field name into its index and field.
func ParseRepairKey(name string) (int, string, bool) {
	rest, ok := strings.CutPrefix(name, "repair_photos[")
	if !ok {
		return 0, "", false
	}
	idx, rest, ok := strings.Cut(rest, "][")
	if !ok {
		return 0, "", false
	}
	field, ok := strings.CutSuffix(rest, "]")
	if !ok || field == "" || strings.ContainsAny(field, "[]") {
		return 0, "", false
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return 0, "", false
	}
	return i, field, true
}
