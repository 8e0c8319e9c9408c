package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/model"
)

func testCategories() []model.WorkCategory {
	return []model.WorkCategory{
		{
			ID:         1,
			Name:       "Oil",
			HourlyRate: decimal.RequireFromString("500"),
			Works: []model.WorkItem{
				{ID: 10, Name: "Oil change"},
				{ID: 11, Name: "Oil filter"},
			},
		},
		{
			ID:         2,
			Name:       "Brakes",
			HourlyRate: decimal.RequireFromString("300.50"),
			Works: []model.WorkItem{
				{ID: 20, Name: "Pad replacement", CategoryID: 2},
			},
		},
	}
}

func TestRate(t *testing.T) {
	ix := Build(testCategories())

	tests := []struct {
		workID int64
		want   string
	}{
		{10, "500"},
		{11, "500"},
		{20, "300.5"},
		{99, "0"},
		{0, "0"},
	}

	for _, tt := range tests {
		got := ix.Rate(tt.workID)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Rate(%d) = %s, want %s", tt.workID, got, tt.want)
		}
	}
}

func TestEmptyAndNilIndex(t *testing.T) {
	for name, ix := range map[string]*Index{
		"nil":   nil,
		"empty": Build(nil),
	} {
		if !ix.Rate(10).IsZero() {
			t.Errorf("%s: expected zero rate", name)
		}
		if ix.Len() != 0 {
			t.Errorf("%s: expected empty index, got %d", name, ix.Len())
		}
		if _, ok := ix.Category(10); ok {
			t.Errorf("%s: expected no category", name)
		}
		if ix.Has(10) {
			t.Errorf("%s: expected Has to be false", name)
		}
	}
}

func TestCategoryLookup(t *testing.T) {
	ix := Build(testCategories())

	c, ok := ix.Category(11)
	if !ok {
		t.Fatal("expected category for work 11")
	}
	if c.Name != "Oil" {
		t.Errorf("expected category 'Oil', got %q", c.Name)
	}

	w, ok := ix.Work(10)
	if !ok {
		t.Fatal("expected work 10")
	}
	if w.CategoryID != 1 {
		t.Errorf("expected category id filled in as 1, got %d", w.CategoryID)
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	cats := testCategories()
	ix := Build(cats)

	cats[0].HourlyRate = decimal.RequireFromString("1")
	cats[0].Works[0].ID = 77

	if !ix.Rate(10).Equal(decimal.RequireFromString("500")) {
		t.Errorf("index changed after input mutation: rate %s", ix.Rate(10))
	}
	if ix.Has(77) {
		t.Error("index picked up mutated work id")
	}
}

func TestCategoriesKeepFetchOrder(t *testing.T) {
	ix := Build(testCategories())
	cats := ix.Categories()
	if len(cats) != 2 || cats[0].Name != "Oil" || cats[1].Name != "Brakes" {
		t.Errorf("unexpected category order: %+v", cats)
	}
}

func TestDuplicateCategoryListedOnce(t *testing.T) {
	cats := testCategories()
	dup := cats[0]
	dup.Name = "Oil service"
	ix := Build(append(cats, dup))

	got := ix.Categories()
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2: %+v", len(got), got)
	}
	if got[0].ID != 1 || got[0].Name != "Oil service" {
		t.Errorf("first category = %+v, want the later id 1 entry in first position", got[0])
	}
}

func TestCategoriesReturnCopies(t *testing.T) {
	ix := Build(testCategories())

	ix.Categories()[0].Works[0].Name = "changed"
	if c, _ := ix.Category(10); c.Works[0].Name != "Oil change" {
		t.Errorf("Categories leaked internal works: %q", c.Works[0].Name)
	}

	c, _ := ix.Category(20)
	c.Works[0].ID = 99
	if again, _ := ix.Category(20); again.Works[0].ID != 20 {
		t.Errorf("Category leaked internal works: %d", again.Works[0].ID)
	}
}
