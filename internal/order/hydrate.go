package order

import (
	"github.com/erazemk/fleetdesk/internal/catalog"
	"github.com/erazemk/fleetdesk/internal/model"
)

// FromOrder flattens a fetched order into an edit-mode draft. Nested client,
// truck and work objects become bare ids; costs are recomputed from ix rather
// than copied. Persisted photos become remote attachments so they are not
// uploaded again.
func FromOrder(o *model.Order, ix *catalog.Index) *Draft {
	d := NewDraft(ix)
	d.Mode = ModeEdit
	d.OrderID = o.ID
	d.OrderNumber = o.OrderNumber
	d.ClientID = o.Client.ID
	d.TruckID = o.Truck.ID
	d.Status = o.Status

	for _, w := range o.Works {
		d.Lines.add(LineItem{
			WorkID:      w.Work.ID,
			Duration:    w.DurationHours,
			Description: w.CustomDescription,
		})
	}

	for slot, url := range map[Slot]string{
		SlotPlate:     o.CarPhoto,
		SlotOdometer:  o.OdometerPhoto,
		SlotDashboard: o.DashboardPhoto,
	} {
		if p := RemotePhoto(url); p != nil {
			d.Fixed[slot] = p
		}
	}

	for _, rp := range o.RepairPhotos {
		d.Damage = append(d.Damage, DamagePhoto{
			Image:    RemotePhoto(rp.Image),
			Caption:  rp.Caption,
			RemoteID: rp.ID,
		})
	}

	return d
}
