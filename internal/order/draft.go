// Package order holds the editable state of a work order: the line-item list
// with its derived costs, the photo attachments, validation and hydration
// from a persisted order.
package order

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/catalog"
	"github.com/erazemk/fleetdesk/internal/model"
)

// Mode tells create drafts from edit drafts.
type Mode int

// Draft modes.
const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// ErrSavedDamage is returned when changing a damage photo that is already
// stored with the order. Saved damage photos can only be added to.
var ErrSavedDamage = errors.New("saved damage photos cannot be changed")

// DefaultHours is the duration given to newly appended line items.
var DefaultHours = decimal.NewFromInt(1)

// Draft is an order being composed or edited.
type Draft struct {
	Mode        Mode
	OrderID     int64
	OrderNumber string
	ClientID    int64
	TruckID     int64
	Status      string
	Lines       *List
	Fixed       map[Slot]*Photo
	Damage      []DamagePhoto
}

// NewDraft returns an empty create-mode draft.
func NewDraft(ix *catalog.Index) *Draft {
	return &Draft{
		Mode:   ModeCreate,
		Status: model.StatusNew,
		Lines:  NewList(ix),
		Fixed:  make(map[Slot]*Photo, len(Slots)),
	}
}

// SetPhoto puts p into a fixed slot, replacing whatever was there.
func (d *Draft) SetPhoto(slot Slot, p *Photo) error {
	if !slot.Valid() {
		return fmt.Errorf("unknown photo slot %q", slot)
	}
	if p == nil {
		delete(d.Fixed, slot)
		return nil
	}
	d.Fixed[slot] = p
	return nil
}

// Photo returns the photo in a fixed slot, or nil.
func (d *Draft) Photo(slot Slot) *Photo {
	return d.Fixed[slot]
}

// AddDamage appends a damage photo entry and returns its position. Either
// part may be missing here; Validate rejects incomplete entries.
func (d *Draft) AddDamage(p *Photo, caption string) int {
	d.Damage = append(d.Damage, DamagePhoto{Image: p, Caption: caption})
	return len(d.Damage) - 1
}

// SetDamage replaces the image and caption of an unsaved entry i.
func (d *Draft) SetDamage(i int, p *Photo, caption string) error {
	if err := d.unsavedDamage(i); err != nil {
		return err
	}
	d.Damage[i].Image = p
	d.Damage[i].Caption = caption
	return nil
}

// RemoveDamage drops an unsaved entry i.
func (d *Draft) RemoveDamage(i int) error {
	if err := d.unsavedDamage(i); err != nil {
		return err
	}
	d.Damage = append(d.Damage[:i], d.Damage[i+1:]...)
	return nil
}

func (d *Draft) unsavedDamage(i int) error {
	if i < 0 || i >= len(d.Damage) {
		return fmt.Errorf("damage photo %d out of range", i)
	}
	if d.Damage[i].RemoteID != 0 {
		return fmt.Errorf("damage photo %d: %w", i, ErrSavedDamage)
	}
	return nil
}

// Total is the derived order total.
func (d *Draft) Total() decimal.Decimal {
	return d.Lines.Total()
}
