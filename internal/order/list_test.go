package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

// checkTotal asserts that the list total equals the sum of its line costs and
// that each cost matches a fresh recomputation.
func checkTotal(t *testing.T, l *List) {
	t.Helper()
	sum := decimal.Zero
	for _, e := range l.Entries() {
		if want := LineCost(e, l.Catalog()); !e.Cost.Equal(want) {
			t.Errorf("entry %s: cost = %s, want %s", e.ID, e.Cost, want)
		}
		sum = sum.Add(e.Cost)
	}
	if got := l.Total(); !got.Equal(sum) {
		t.Errorf("Total = %s, want %s", got, sum)
	}
}

func TestAppendUsesDefaultDuration(t *testing.T) {
	l := NewList(testIndex())
	id := l.Append(DefaultHours)

	e, ok := l.Get(id)
	if !ok {
		t.Fatal("appended entry not found")
	}
	if !e.Duration.Equal(decimal.NewFromInt(1)) {
		t.Errorf("duration = %s, want 1", e.Duration)
	}
	if !e.Cost.IsZero() {
		t.Errorf("cost = %s, want 0 until a work is chosen", e.Cost)
	}
	if e.ID == "" {
		t.Error("entry id is empty")
	}
}

func TestUpdateRecomputesCost(t *testing.T) {
	l := NewList(testIndex())
	id := l.Append(DefaultHours)

	if err := l.Update(id, Patch{WorkID: ptr(oilChange), DurationText: ptr("1,5")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	e, _ := l.Get(id)
	if got := Display(e.Cost); got != "750.00" {
		t.Errorf("cost = %s, want 750.00", got)
	}
	checkTotal(t, l)

	if err := l.Update(id, Patch{WorkID: ptr(brakePads)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	e, _ = l.Get(id)
	if got := Display(e.Cost); got != "300.00" {
		t.Errorf("cost after work change = %s, want 300.00", got)
	}
	checkTotal(t, l)
}

func TestUpdateInvalidDuration(t *testing.T) {
	l := NewList(testIndex())
	id := l.Append(DefaultHours)
	l.Update(id, Patch{WorkID: ptr(oilChange)})

	for _, input := range []string{"abc", "", "-2"} {
		if err := l.Update(id, Patch{DurationText: ptr(input)}); err != nil {
			t.Fatalf("Update(%q): %v", input, err)
		}
		e, _ := l.Get(id)
		if e.InvalidDuration != input {
			t.Errorf("InvalidDuration = %q, want %q", e.InvalidDuration, input)
		}
		if !e.Cost.IsZero() {
			t.Errorf("cost for %q = %s, want 0", input, e.Cost)
		}
		checkTotal(t, l)
	}

	// A valid value clears the error.
	l.Update(id, Patch{Duration: ptr(dec("2"))})
	e, _ := l.Get(id)
	if e.InvalidDuration != "" {
		t.Errorf("InvalidDuration = %q after valid update", e.InvalidDuration)
	}
	if !e.Cost.Equal(dec("1000")) {
		t.Errorf("cost = %s, want 1000", e.Cost)
	}
}

func TestRemoveKeepsOtherIDs(t *testing.T) {
	l := NewList(testIndex())
	a := l.Append(DefaultHours)
	b := l.Append(DefaultHours)
	c := l.Append(DefaultHours)
	l.Update(a, Patch{WorkID: ptr(oilChange)})
	l.Update(b, Patch{WorkID: ptr(brakePads)})
	l.Update(c, Patch{WorkID: ptr(tyreSwap)})

	if err := l.Remove(b); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := l.Get(b); ok {
		t.Error("removed entry still present")
	}

	// c is addressable by its original id after the removal shifted it.
	if err := l.Update(c, Patch{Duration: ptr(dec("3"))}); err != nil {
		t.Fatalf("Update after remove: %v", err)
	}
	e, _ := l.Get(c)
	if !e.Cost.Equal(dec("600")) {
		t.Errorf("cost = %s, want 600", e.Cost)
	}
	if got := l.Total(); !got.Equal(dec("1100")) {
		t.Errorf("Total = %s, want 1100", got)
	}
	checkTotal(t, l)

	if err := l.Remove(b); !errors.Is(err, ErrNoEntry) {
		t.Errorf("second Remove err = %v, want ErrNoEntry", err)
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		want []int
	}{
		{"first to last", 0, 2, []int{1, 2, 0}},
		{"last to first", 2, 0, []int{2, 0, 1}},
		{"clamped high", 0, 10, []int{1, 2, 0}},
		{"clamped low", 1, -3, []int{1, 0, 2}},
		{"in place", 1, 1, []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewList(testIndex())
			ids := []EntryID{l.Append(DefaultHours), l.Append(DefaultHours), l.Append(DefaultHours)}

			if err := l.Move(ids[tt.from], tt.to); err != nil {
				t.Fatalf("Move: %v", err)
			}
			entries := l.Entries()
			for i, w := range tt.want {
				if entries[i].ID != ids[w] {
					t.Errorf("position %d = %s, want %s", i, entries[i].ID, ids[w])
				}
			}
		})
	}
}

func TestUnknownEntry(t *testing.T) {
	l := NewList(testIndex())
	if err := l.Update("missing", Patch{}); !errors.Is(err, ErrNoEntry) {
		t.Errorf("Update err = %v, want ErrNoEntry", err)
	}
	if err := l.Move("missing", 0); !errors.Is(err, ErrNoEntry) {
		t.Errorf("Move err = %v, want ErrNoEntry", err)
	}
}

func TestSetCatalogReprices(t *testing.T) {
	l := NewList(nil)
	id := l.Append(dec("1.5"))
	l.Update(id, Patch{WorkID: ptr(oilChange)})

	// Priced at zero until the catalog arrives.
	if !l.Total().IsZero() {
		t.Errorf("Total before catalog = %s, want 0", l.Total())
	}

	l.SetCatalog(testIndex())
	if got := Display(l.Total()); got != "750.00" {
		t.Errorf("Total after catalog = %s, want 750.00", got)
	}
	checkTotal(t, l)
}

func TestTotalAfterEveryMutation(t *testing.T) {
	l := NewList(testIndex())
	checkTotal(t, l)

	ids := make([]EntryID, 0, 5)
	for i := range 5 {
		id := l.Append(decimal.NewFromInt(int64(i + 1)))
		ids = append(ids, id)
		checkTotal(t, l)
	}
	works := []int64{oilChange, brakePads, tyreSwap, 999, oilChange}
	for i, id := range ids {
		l.Update(id, Patch{WorkID: ptr(works[i])})
		checkTotal(t, l)
	}
	l.Update(ids[2], Patch{DurationText: ptr("0.25")})
	checkTotal(t, l)
	l.Remove(ids[0])
	checkTotal(t, l)
	l.Remove(ids[4])
	checkTotal(t, l)
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1.5", "1.5", false},
		{"1,5", "1.5", false},
		{" 2 ", "2", false},
		{"0", "0", false},
		{"", "", true},
		{"abc", "", true},
		{"-1", "", true},
		{"1.2.3", "", true},
	}

	for _, tt := range tests {
		got, err := ParseHours(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHours(%q) = %s, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHours(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(dec(tt.want)) {
			t.Errorf("ParseHours(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
