package order

import (
	"encoding/json"
	"fmt"

	"github.com/erazemk/fleetdesk/internal/catalog"
)

// snapshot is the persisted form of a draft.
type snapshot struct {
	Mode        Mode            `json:"mode"`
	OrderID     int64           `json:"order_id,omitempty"`
	OrderNumber string          `json:"order_number,omitempty"`
	ClientID    int64           `json:"client"`
	TruckID     int64           `json:"truck"`
	Status      string          `json:"status"`
	Lines       []LineItem      `json:"works"`
	Fixed       map[Slot]*Photo `json:"photos,omitempty"`
	Damage      []DamagePhoto   `json:"repair_photos,omitempty"`
}

// MarshalJSON encodes the draft, including photo bytes and line-item ids.
func (d *Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Mode:        d.Mode,
		OrderID:     d.OrderID,
		OrderNumber: d.OrderNumber,
		ClientID:    d.ClientID,
		TruckID:     d.TruckID,
		Status:      d.Status,
		Lines:       d.Lines.Entries(),
		Fixed:       d.Fixed,
		Damage:      d.Damage,
	})
}

// Decode restores a draft saved with MarshalJSON and reprices it against ix.
// Stored costs are ignored.
func Decode(data []byte, ix *catalog.Index) (*Draft, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}

	d := NewDraft(ix)
	d.Mode = s.Mode
	d.OrderID = s.OrderID
	d.OrderNumber = s.OrderNumber
	d.ClientID = s.ClientID
	d.TruckID = s.TruckID
	d.Status = s.Status
	for _, item := range s.Lines {
		d.Lines.add(item)
	}
	for slot, p := range s.Fixed {
		if slot.Valid() && p != nil {
			d.Fixed[slot] = p
		}
	}
	d.Damage = s.Damage
	return d, nil
}
