package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/catalog"
)

// ErrNoEntry is returned when an entry id is not in the list.
var ErrNoEntry = errors.New("line item not found")

// EntryID identifies a line item for the lifetime of a draft. It does not
// change when other entries are removed or moved.
type EntryID string

// LineItem is one work row of a draft order.
type LineItem struct {
	ID          EntryID         `json:"id"`
	WorkID      int64           `json:"work"`
	Duration    decimal.Decimal `json:"duration_hours"`
	Description string          `json:"custom_description,omitempty"`

	// InvalidDuration holds the last duration input that failed to parse.
	// Empty when Duration is valid.
	InvalidDuration string `json:"invalid_duration,omitempty"`

	// Cost is derived from the catalog rate and Duration on every change.
	Cost decimal.Decimal `json:"cost"`
}

// Patch is a partial change to a line item. Nil fields are left alone.
// DurationText is raw user input and is parsed with ParseHours.
type Patch struct {
	WorkID       *int64
	Duration     *decimal.Decimal
	DurationText *string
	Description  *string
}

// ParseHours parses a duration in hours. A decimal comma is accepted.
func ParseHours(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, errors.New("duration required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("duration %q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("duration %s is negative", d)
	}
	return d, nil
}

// List is an ordered, mutable collection of line items. Every mutation
// recomputes the affected costs against the current catalog index.
type List struct {
	entries []LineItem
	index   *catalog.Index
}

// NewList returns an empty list priced against ix (which may be nil until
// the catalog loads).
func NewList(ix *catalog.Index) *List {
	return &List{index: ix}
}

// Append adds an entry with the given default duration and returns its id.
func (l *List) Append(defaultHours decimal.Decimal) EntryID {
	return l.add(LineItem{Duration: defaultHours})
}

func (l *List) add(item LineItem) EntryID {
	if item.ID == "" {
		item.ID = EntryID(uuid.NewString())
	}
	if item.Duration.IsNegative() {
		item.InvalidDuration = item.Duration.String()
		item.Duration = decimal.Zero
	}
	item.Cost = LineCost(item, l.index)
	l.entries = append(l.entries, item)
	return item.ID
}

// Remove deletes an entry. Other ids are unaffected.
func (l *List) Remove(id EntryID) error {
	i := l.position(id)
	if i < 0 {
		return ErrNoEntry
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return nil
}

// Update merges p into the entry and recomputes its cost.
func (l *List) Update(id EntryID, p Patch) error {
	i := l.position(id)
	if i < 0 {
		return ErrNoEntry
	}

	item := l.entries[i]
	if p.WorkID != nil {
		item.WorkID = *p.WorkID
	}
	if p.DurationText != nil {
		d, err := ParseHours(*p.DurationText)
		if err != nil {
			item.Duration = decimal.Zero
			item.InvalidDuration = *p.DurationText
		} else {
			item.Duration = d
			item.InvalidDuration = ""
		}
	}
	if p.Duration != nil {
		if p.Duration.IsNegative() {
			item.Duration = decimal.Zero
			item.InvalidDuration = p.Duration.String()
		} else {
			item.Duration = *p.Duration
			item.InvalidDuration = ""
		}
	}
	if p.Description != nil {
		item.Description = *p.Description
	}

	item.Cost = LineCost(item, l.index)
	l.entries[i] = item
	return nil
}

// Move places the entry at position pos (clamped to the list bounds).
func (l *List) Move(id EntryID, pos int) error {
	i := l.position(id)
	if i < 0 {
		return ErrNoEntry
	}
	pos = min(max(pos, 0), len(l.entries)-1)

	item := l.entries[i]
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.entries = append(l.entries[:pos], append([]LineItem{item}, l.entries[pos:]...)...)
	return nil
}

// SetCatalog swaps the pricing index and recomputes every cost.
func (l *List) SetCatalog(ix *catalog.Index) {
	l.index = ix
	for i := range l.entries {
		l.entries[i].Cost = LineCost(l.entries[i], ix)
	}
}

// Catalog returns the index the list is priced against.
func (l *List) Catalog() *catalog.Index {
	return l.index
}

// Get returns a copy of the entry.
func (l *List) Get(id EntryID) (LineItem, bool) {
	i := l.position(id)
	if i < 0 {
		return LineItem{}, false
	}
	return l.entries[i], true
}

// Entries returns a copy of the entries in order.
func (l *List) Entries() []LineItem {
	return append([]LineItem(nil), l.entries...)
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Total is the order total over the current entries.
func (l *List) Total() decimal.Decimal {
	return OrderTotal(l.entries, l.index)
}

func (l *List) position(id EntryID) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
