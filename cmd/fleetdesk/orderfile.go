package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/erazemk/fleetdesk/internal/form"
	"github.com/erazemk/fleetdesk/internal/order"
)

// orderFile describes an order, or changes to one, as JSON. Photo paths are
// relative to the file.
type orderFile struct {
	OrderNumber *string           `json:"order_number"`
	Client      int64             `json:"client"`
	Truck       int64             `json:"truck"`
	Status      string            `json:"status"`
	Works       []workLine        `json:"works"`
	Photos      map[string]string `json:"photos"`
	Damage      []damageLine      `json:"damage"`

	dir string
}

type workLine struct {
	Work        int64  `json:"work"`
	Hours       hours  `json:"hours"`
	Description string `json:"description"`
}

type damageLine struct {
	Image   string `json:"image"`
	Caption string `json:"caption"`
}

// patch sets the line to w. Missing hours keep the default duration.
func (w workLine) patch() order.Patch {
	p := order.Patch{WorkID: &w.Work, Description: &w.Description}
	if w.Hours != "" {
		text := string(w.Hours)
		p.DurationText = &text
	}
	return p
}

// hours accepts 1.5, "1.5" and "1,5".
type hours string

func (h *hours) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*h = hours(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("hours must be a number or a string, got %s", b)
	}
	*h = hours(n.String())
	return nil
}

func readOrderFile(path string) (*orderFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f orderFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return &f, nil
}

func (f *orderFile) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.dir, p)
}

// addLines appends the file's works to l.
func (f *orderFile) addLines(l *order.List) error {
	for i, w := range f.Works {
		id := l.Append(order.DefaultHours)
		if err := l.Update(id, w.patch()); err != nil {
			return fmt.Errorf("works[%d]: %w", i, err)
		}
	}
	return nil
}

// apply copies the file into the form. Fields the file leaves out keep their
// current value; a works list replaces every line.
func (f *orderFile) apply(ctx context.Context, c *form.Controller) error {
	if f.Client != 0 && f.Client != c.Selector().ClientID() {
		done, err := c.SelectClient(ctx, f.Client)
		if err != nil {
			return err
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.Truck != 0 && f.Truck != c.Selector().TruckID() {
		if err := c.SelectTruck(f.Truck); err != nil {
			return fmt.Errorf("truck %d: %w", f.Truck, err)
		}
	}
	if f.Status != "" {
		if err := c.SetStatus(f.Status); err != nil {
			return err
		}
	}
	if f.OrderNumber != nil {
		if err := c.SetOrderNumber(*f.OrderNumber); err != nil {
			return err
		}
	}

	if f.Works != nil {
		for _, item := range c.Draft().Lines.Entries() {
			if err := c.RemoveLine(item.ID); err != nil {
				return err
			}
		}
		for i, w := range f.Works {
			id, err := c.AddLine()
			if err != nil {
				return err
			}
			if err := c.UpdateLine(id, w.patch()); err != nil {
				return fmt.Errorf("works[%d]: %w", i, err)
			}
		}
	}

	for name, p := range f.Photos {
		slot := order.Slot(name)
		if !slot.Valid() {
			return fmt.Errorf("unknown photo %q", name)
		}
		photo, err := f.photo(p)
		if err != nil {
			return err
		}
		if err := c.SetPhoto(slot, photo); err != nil {
			return err
		}
	}
	for _, d := range f.Damage {
		var photo *order.Photo
		if d.Image != "" {
			var err error
			if photo, err = f.photo(d.Image); err != nil {
				return err
			}
		}
		if _, err := c.AddDamage(photo, d.Caption); err != nil {
			return err
		}
	}
	return nil
}

func (f *orderFile) photo(p string) (*order.Photo, error) {
	file, err := os.Open(f.path(p))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return order.LocalPhoto(p, file)
}
