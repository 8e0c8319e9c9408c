package order

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/erazemk/fleetdesk/internal/imaging"
	"github.com/erazemk/fleetdesk/internal/model"
)

// Slot is one of the three fixed, single-photo attachments. Its value is the
// multipart field name.
type Slot string

// Fixed photo slots.
const (
	SlotPlate     Slot = model.FieldCarPhoto
	SlotOdometer  Slot = model.FieldOdometerPhoto
	SlotDashboard Slot = model.FieldDashboardPhoto
)

// Slots lists the fixed slots in submission order.
var Slots = []Slot{SlotPlate, SlotOdometer, SlotDashboard}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	for _, known := range Slots {
		if s == known {
			return true
		}
	}
	return false
}

// Photo is either a freshly chosen local file (Data set) or an already
// persisted remote photo (RemoteURL set). Only local photos are uploaded.
type Photo struct {
	Filename  string `json:"filename,omitempty"`
	MIME      string `json:"mime,omitempty"`
	Data      []byte `json:"data,omitempty"`
	RemoteURL string `json:"remote_url,omitempty"`
}

// LocalPhoto normalises a chosen file into an uploadable JPEG.
func LocalPhoto(filename string, r io.Reader) (*Photo, error) {
	p, err := imaging.Normalize(r)
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", filepath.Base(filename), err)
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		base = "photo"
	}
	return &Photo{
		Filename: base + ".jpg",
		MIME:     p.MIME,
		Data:     p.Data,
	}, nil
}

// RemotePhoto wraps a persisted photo URL.
func RemotePhoto(url string) *Photo {
	if url == "" {
		return nil
	}
	return &Photo{RemoteURL: url}
}

// Local reports whether the photo carries a new file to upload.
func (p *Photo) Local() bool {
	return p != nil && len(p.Data) > 0
}

// Remote reports whether the photo is an unchanged persisted one.
func (p *Photo) Remote() bool {
	return p != nil && !p.Local() && p.RemoteURL != ""
}

// Present reports whether the photo is usable either way.
func (p *Photo) Present() bool {
	return p.Local() || p.Remote()
}

// DamagePhoto pairs an image with its caption. RemoteID is set for photos
// that already exist on the backend.
type DamagePhoto struct {
	Image    *Photo `json:"image,omitempty"`
	Caption  string `json:"caption"`
	RemoteID int64  `json:"remote_id,omitempty"`
}
