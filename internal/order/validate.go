package order

import (
	"strings"

	"github.com/erazemk/fleetdesk/internal/model"
)

// FieldError is a problem with a single form field, keyed by its wire name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field errors found before submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Message returns the error for a field, if any.
func (e *ValidationError) Message(field string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

// Err returns e, or nil when no field errors were recorded.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks the draft for everything that must hold before assembly.
// It returns a *ValidationError or nil.
func (d *Draft) Validate() error {
	v := &ValidationError{}

	if d.ClientID <= 0 {
		v.Add(model.FieldClient, "client required")
	}
	if d.TruckID <= 0 {
		v.Add(model.FieldTruck, "truck required")
	}
	if !model.ValidStatus(d.Status) {
		v.Add(model.FieldStatus, "unknown status")
	}

	for i, item := range d.Lines.Entries() {
		if item.WorkID <= 0 {
			v.Add(model.WorkKey(i, model.WorkWork), "work required")
		}
		if item.InvalidDuration != "" {
			v.Add(model.WorkKey(i, model.WorkDuration), "duration must be a non-negative number")
		}
	}

	for _, slot := range Slots {
		p := d.Fixed[slot]
		switch d.Mode {
		case ModeCreate:
			// New orders must carry fresh files for every fixed slot.
			if !p.Local() {
				v.Add(string(slot), "photo required")
			}
		case ModeEdit:
			if !p.Present() {
				v.Add(string(slot), "photo required")
			}
		}
	}

	for i, dp := range d.Damage {
		if !dp.Image.Present() {
			v.Add(model.RepairKey(i, model.RepairImage), "image required")
		}
		if strings.TrimSpace(dp.Caption) == "" {
			v.Add(model.RepairKey(i, model.RepairCaption), "caption required")
		}
	}

	return v.Err()
}
