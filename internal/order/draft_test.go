package order

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/erazemk/fleetdesk/internal/model"
)

func localPhoto(name string) *Photo {
	return &Photo{Filename: name, MIME: "image/jpeg", Data: []byte("jpeg:" + name)}
}

// completeDraft returns a create-mode draft that passes validation.
func completeDraft() *Draft {
	d := NewDraft(testIndex())
	d.ClientID = 1
	d.TruckID = 7
	id := d.Lines.Append(DefaultHours)
	d.Lines.Update(id, Patch{WorkID: ptr(oilChange)})
	for _, s := range Slots {
		d.SetPhoto(s, localPhoto(string(s)+".jpg"))
	}
	return d
}

func validationFields(t *testing.T, err error) *ValidationError {
	t.Helper()
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	return v
}

func TestValidateComplete(t *testing.T) {
	if err := completeDraft().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateMissingOdometerPhoto(t *testing.T) {
	d := completeDraft()
	d.SetPhoto(SlotOdometer, nil)

	v := validationFields(t, d.Validate())
	if _, ok := v.Message(model.FieldOdometerPhoto); !ok {
		t.Errorf("no error for %s in %v", model.FieldOdometerPhoto, v.Fields)
	}
	if len(v.Fields) != 1 {
		t.Errorf("got %d field errors, want 1: %v", len(v.Fields), v.Fields)
	}
}

func TestValidateCreateRejectsRemotePhoto(t *testing.T) {
	d := completeDraft()
	d.SetPhoto(SlotPlate, RemotePhoto("/photos/3/"))

	v := validationFields(t, d.Validate())
	if _, ok := v.Message(model.FieldCarPhoto); !ok {
		t.Errorf("no error for %s", model.FieldCarPhoto)
	}
}

func TestValidateDamagePhotos(t *testing.T) {
	tests := []struct {
		name    string
		photo   *Photo
		caption string
		field   string
	}{
		{"caption without image", nil, "dent on door", model.RepairKey(0, model.RepairImage)},
		{"image without caption", localPhoto("dent.jpg"), "", model.RepairKey(0, model.RepairCaption)},
		{"blank caption", localPhoto("dent.jpg"), "   ", model.RepairKey(0, model.RepairCaption)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := completeDraft()
			d.AddDamage(tt.photo, tt.caption)

			v := validationFields(t, d.Validate())
			if _, ok := v.Message(tt.field); !ok {
				t.Errorf("no error for %s in %v", tt.field, v.Fields)
			}
		})
	}
}

func TestValidateLineItems(t *testing.T) {
	d := completeDraft()
	d.Lines.Append(DefaultHours)
	bad := d.Lines.Append(DefaultHours)
	d.Lines.Update(bad, Patch{WorkID: ptr(brakePads), DurationText: ptr("two")})

	v := validationFields(t, d.Validate())
	for _, field := range []string{
		model.WorkKey(1, model.WorkWork),
		model.WorkKey(2, model.WorkDuration),
	} {
		if _, ok := v.Message(field); !ok {
			t.Errorf("no error for %s in %v", field, v.Fields)
		}
	}
	if _, ok := v.Message(model.WorkKey(0, model.WorkWork)); ok {
		t.Error("unexpected error on the valid first line")
	}
}

func TestValidateScalars(t *testing.T) {
	d := completeDraft()
	d.ClientID = 0
	d.TruckID = 0
	d.Status = "parked"

	v := validationFields(t, d.Validate())
	for _, field := range []string{model.FieldClient, model.FieldTruck, model.FieldStatus} {
		if _, ok := v.Message(field); !ok {
			t.Errorf("no error for %s", field)
		}
	}
}

func TestSetPhotoUnknownSlot(t *testing.T) {
	d := NewDraft(nil)
	if err := d.SetPhoto("roof_photo", localPhoto("roof.jpg")); err == nil {
		t.Error("SetPhoto with unknown slot succeeded")
	}
}

func TestDamageRange(t *testing.T) {
	d := NewDraft(nil)
	d.AddDamage(localPhoto("a.jpg"), "a")
	if err := d.SetDamage(1, nil, ""); err == nil {
		t.Error("SetDamage out of range succeeded")
	}
	if err := d.RemoveDamage(0); err != nil {
		t.Fatalf("RemoveDamage: %v", err)
	}
	if len(d.Damage) != 0 {
		t.Errorf("got %d damage photos, want 0", len(d.Damage))
	}
}

func TestSavedDamageIsAppendOnly(t *testing.T) {
	d := FromOrder(fetchedOrder(), testIndex())
	d.AddDamage(localPhoto("new.jpg"), "new dent")

	if err := d.RemoveDamage(0); !errors.Is(err, ErrSavedDamage) {
		t.Errorf("RemoveDamage(saved) err = %v, want ErrSavedDamage", err)
	}
	if err := d.SetDamage(0, localPhoto("other.jpg"), "other"); !errors.Is(err, ErrSavedDamage) {
		t.Errorf("SetDamage(saved) err = %v, want ErrSavedDamage", err)
	}
	if d.Damage[0].Caption != "scratch" || d.Damage[0].RemoteID != 5 {
		t.Errorf("saved entry changed: %+v", d.Damage[0])
	}

	if err := d.SetDamage(1, localPhoto("new2.jpg"), "bigger dent"); err != nil {
		t.Fatalf("SetDamage(unsaved): %v", err)
	}
	if err := d.RemoveDamage(1); err != nil {
		t.Fatalf("RemoveDamage(unsaved): %v", err)
	}
	if len(d.Damage) != 1 {
		t.Errorf("got %d damage photos, want 1", len(d.Damage))
	}
}

func TestLocalPhoto(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	p, err := LocalPhoto("/tmp/plate.png", &buf)
	if err != nil {
		t.Fatalf("LocalPhoto: %v", err)
	}
	if p.Filename != "plate.jpg" {
		t.Errorf("Filename = %q, want plate.jpg", p.Filename)
	}
	if p.MIME != "image/jpeg" {
		t.Errorf("MIME = %q, want image/jpeg", p.MIME)
	}
	if !p.Local() || p.Remote() {
		t.Error("photo is not local")
	}

	if _, err := LocalPhoto("notes.txt", bytes.NewReader([]byte("hello"))); err == nil {
		t.Error("LocalPhoto accepted a text file")
	}
}

func TestPhotoKinds(t *testing.T) {
	var none *Photo
	if none.Present() {
		t.Error("nil photo is present")
	}
	r := RemotePhoto("/photos/1/")
	if !r.Remote() || r.Local() || !r.Present() {
		t.Errorf("remote photo flags wrong: %+v", r)
	}
	if RemotePhoto("") != nil {
		t.Error("RemotePhoto(\"\") is not nil")
	}
}
