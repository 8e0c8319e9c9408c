// Package submit turns an order draft into the multipart payload accepted by
// POST orders/ and PATCH orders/<id>/.
package submit

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/order"
)

// Part is one named field of the payload. File parts carry Data.
type Part struct {
	Name     string
	Value    string
	Filename string
	MIME     string
	Data     []byte
}

// IsFile reports whether the part is a binary file part.
func (p Part) IsFile() bool {
	return p.Data != nil
}

// Payload is an ordered list of parts.
type Payload struct {
	Mode  order.Mode
	Parts []Part

	// repairs maps payload damage photo indexes to draft positions.
	repairs []int
}

// Assemble validates d and builds its payload. Validation failures are
// returned as *order.ValidationError and no payload is produced.
//
// Line-item cost is only sent for new orders. Fixed photos are only sent when
// a new local file was chosen, and damage photos that already exist on the
// backend are never sent again. New damage photos are numbered from 0 in the
// payload; DraftField maps their error keys back to draft positions.
func Assemble(d *order.Draft) (*Payload, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	p := &Payload{Mode: d.Mode}
	if num := strings.TrimSpace(d.OrderNumber); num != "" {
		p.field(model.FieldOrderNumber, num)
	}
	p.field(model.FieldClient, strconv.FormatInt(d.ClientID, 10))
	p.field(model.FieldTruck, strconv.FormatInt(d.TruckID, 10))
	p.field(model.FieldStatus, d.Status)

	if d.Mode == order.ModeEdit && d.Lines.Len() == 0 {
		p.field(model.FieldWorks, "")
	}
	for i, item := range d.Lines.Entries() {
		p.field(model.WorkKey(i, model.WorkWork), strconv.FormatInt(item.WorkID, 10))
		p.field(model.WorkKey(i, model.WorkDuration), item.Duration.String())
		p.field(model.WorkKey(i, model.WorkDescription), item.Description)
		if d.Mode == order.ModeCreate {
			p.field(model.WorkKey(i, model.WorkCost), order.Display(item.Cost))
		}
	}

	for _, slot := range order.Slots {
		if ph := d.Photo(slot); ph.Local() {
			p.file(string(slot), ph)
		}
	}

	for i, dp := range d.Damage {
		if dp.RemoteID != 0 {
			continue
		}
		n := len(p.repairs)
		p.file(model.RepairKey(n, model.RepairImage), dp.Image)
		p.field(model.RepairKey(n, model.RepairCaption), strings.TrimSpace(dp.Caption))
		p.repairs = append(p.repairs, i)
	}

	return p, nil
}

func (p *Payload) field(name, value string) {
	p.Parts = append(p.Parts, Part{Name: name, Value: value})
}

func (p *Payload) file(name string, ph *order.Photo) {
	filename := ph.Filename
	if filename == "" {
		filename = name + ".jpg"
	}
	p.Parts = append(p.Parts, Part{
		Name:     name,
		Filename: filename,
		MIME:     ph.MIME,
		Data:     ph.Data,
	})
}

// DraftField translates a field name used in the payload, as found in backend
// field errors, to the name the draft's own validation uses. Only damage photo
// keys differ.
func (p *Payload) DraftField(name string) string {
	n, field, ok := model.ParseRepairKey(name)
	if !ok || n >= len(p.repairs) {
		return name
	}
	return model.RepairKey(p.repairs[n], field)
}

// Get returns the first part named name.
func (p *Payload) Get(name string) (Part, bool) {
	for _, part := range p.Parts {
		if part.Name == name {
			return part, true
		}
	}
	return Part{}, false
}

// Names lists the part names in order.
func (p *Payload) Names() []string {
	names := make([]string, len(p.Parts))
	for i, part := range p.Parts {
		names[i] = part.Name
	}
	return names
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode writes the payload as a multipart/form-data body and returns the
// content type including the boundary.
func (p *Payload) Encode(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for _, part := range p.Parts {
		if !part.IsFile() {
			if err := mw.WriteField(part.Name, part.Value); err != nil {
				return "", fmt.Errorf("writing field %s: %w", part.Name, err)
			}
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(part.Name), quoteEscaper.Replace(part.Filename)))
		mime := part.MIME
		if mime == "" {
			mime = "application/octet-stream"
		}
		h.Set("Content-Type", mime)
		fw, err := mw.CreatePart(h)
		if err != nil {
			return "", fmt.Errorf("creating part %s: %w", part.Name, err)
		}
		if _, err := fw.Write(part.Data); err != nil {
			return "", fmt.Errorf("writing part %s: %w", part.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}
	return mw.FormDataContentType(), nil
}
