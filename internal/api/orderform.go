package api

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/order"
)

// maxFormEntries caps the index of works[i] and repair_photos[i] keys.
const maxFormEntries = 200

var formDecoder = newFormDecoder()

// newFormDecoder decodes nested keys written as works[0][work].
func newFormDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetNamespacePrefix("[")
	d.SetNamespaceSuffix("]")
	d.SetMaxArraySize(maxFormEntries)
	return d
}

// orderForm is a parsed multipart order submission.
type orderForm struct {
	OrderNumber string       `form:"order_number" validate:"max=64"`
	ClientID    int64        `form:"client" validate:"required,gt=0"`
	TruckID     int64        `form:"truck" validate:"required,gt=0"`
	Status      string       `form:"status" validate:"required,oneof=new in_progress completed canceled"`
	Works       []workForm   `form:"works" validate:"dive"`
	Repairs     []repairForm `form:"repair_photos" validate:"dive"`

	photos  map[string]*multipart.FileHeader
	present map[string]bool
	// replaceWorks is set when the submission carries a work list, even an
	// empty one.
	replaceWorks bool
}

type workForm struct {
	WorkID      int64  `form:"work" validate:"required,gt=0"`
	Duration    string `form:"duration_hours" validate:"required"`
	Description string `form:"custom_description" validate:"max=500"`
	Cost        string `form:"cost"`

	hours decimal.Decimal
}

type repairForm struct {
	Image   *multipart.FileHeader `form:"image" validate:"required"`
	Caption string                `form:"caption" validate:"required,max=200"`
}

// parseOrderForm reads the wire fields of an order submission. Values that
// cannot be parsed are reported as field errors. Indexed entries keep the
// index they were sent with; gaps fail validation.
func parseOrderForm(mf *multipart.Form) (*orderForm, map[string]string) {
	f := &orderForm{
		photos:  make(map[string]*multipart.FileHeader),
		present: make(map[string]bool),
	}
	fields := make(map[string]string)

	values := make(url.Values, len(mf.Value))
	for key, vals := range mf.Value {
		switch {
		case key == model.FieldWorks:
			f.replaceWorks = true
			continue
		case strings.HasPrefix(key, model.FieldWorks+"["):
			f.replaceWorks = true
		}
		if len(vals) > 0 {
			f.present[key] = true
		}
		values[key] = vals
	}

	if err := formDecoder.Decode(f, values); err != nil {
		errs, ok := err.(form.DecodeErrors)
		if !ok {
			fields[""] = err.Error()
			return f, fields
		}
		for key := range errs {
			fields[key] = decodeMessage(key)
		}
	}

	for _, slot := range order.Slots {
		if fh := mf.File[string(slot)]; len(fh) > 0 {
			f.photos[string(slot)] = fh[0]
		}
	}

	for key, fhs := range mf.File {
		i, field, ok := model.ParseRepairKey(key)
		if !ok {
			if strings.HasPrefix(key, "repair_photos[") {
				fields[key] = "invalid index"
			}
			continue
		}
		if field != model.RepairImage || len(fhs) == 0 {
			continue
		}
		if i >= maxFormEntries {
			fields[key] = fmt.Sprintf("index must be below %d", maxFormEntries)
			continue
		}
		for len(f.Repairs) <= i {
			f.Repairs = append(f.Repairs, repairForm{})
		}
		f.Repairs[i].Image = fhs[0]
	}

	for i := range f.Works {
		w := &f.Works[i]
		if w.Duration == "" {
			continue
		}
		hours, err := order.ParseHours(w.Duration)
		if err != nil {
			fields[model.WorkKey(i, model.WorkDuration)] = err.Error()
		}
		w.hours = hours
	}

	return f, fields
}

func decodeMessage(key string) string {
	switch key {
	case model.FieldClient, model.FieldTruck:
		return "must be an integer"
	case model.FieldWorks, "repair_photos":
		return fmt.Sprintf("at most %d entries", maxFormEntries)
	}
	if strings.HasSuffix(key, "["+model.WorkWork+"]") {
		return "must be an integer"
	}
	return "invalid value"
}
