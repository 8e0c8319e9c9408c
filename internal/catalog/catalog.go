// Package catalog indexes the work-category price list so line items can be
// priced by work item id.
package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/fleetdesk/internal/model"
)

// Index maps work item ids to their category and hourly rate. An Index is
// built once per catalog fetch and never mutated afterwards.
type Index struct {
	rates      map[int64]decimal.Decimal
	works      map[int64]model.WorkItem
	categories map[int64]model.WorkCategory
	order      []int64
}

// Build indexes the nested category list. A nil or empty list yields an
// empty index.
func Build(categories []model.WorkCategory) *Index {
	ix := &Index{
		rates:      make(map[int64]decimal.Decimal),
		works:      make(map[int64]model.WorkItem),
		categories: make(map[int64]model.WorkCategory, len(categories)),
	}

	for _, c := range categories {
		// Copy the works slice so later changes to the input cannot leak in.
		cat := c
		cat.Works = append([]model.WorkItem(nil), c.Works...)
		// A repeated category id replaces the earlier entry in place.
		if _, seen := ix.categories[cat.ID]; !seen {
			ix.order = append(ix.order, cat.ID)
		}
		ix.categories[cat.ID] = cat

		for i := range cat.Works {
			// Items may arrive without the back-reference filled in.
			cat.Works[i].CategoryID = cat.ID
			w := cat.Works[i]
			ix.works[w.ID] = w
			ix.rates[w.ID] = cat.HourlyRate
		}
	}

	return ix
}

// Rate returns the hourly rate for a work item, or zero when the item is
// unknown. Safe on a nil Index.
func (ix *Index) Rate(workID int64) decimal.Decimal {
	if ix == nil {
		return decimal.Zero
	}
	rate, ok := ix.rates[workID]
	if !ok {
		return decimal.Zero
	}
	return rate
}

// Has reports whether the work item exists in the catalog.
func (ix *Index) Has(workID int64) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.works[workID]
	return ok
}

// Work returns the work item with the given id.
func (ix *Index) Work(workID int64) (model.WorkItem, bool) {
	if ix == nil {
		return model.WorkItem{}, false
	}
	w, ok := ix.works[workID]
	return w, ok
}

// Category returns the category owning the given work item.
func (ix *Index) Category(workID int64) (model.WorkCategory, bool) {
	if ix == nil {
		return model.WorkCategory{}, false
	}
	w, ok := ix.works[workID]
	if !ok {
		return model.WorkCategory{}, false
	}
	c, ok := ix.categories[w.CategoryID]
	return cloneCategory(c), ok
}

// Categories returns the categories in fetch order, for grouped display.
func (ix *Index) Categories() []model.WorkCategory {
	if ix == nil {
		return nil
	}
	out := make([]model.WorkCategory, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, cloneCategory(ix.categories[id]))
	}
	return out
}

func cloneCategory(c model.WorkCategory) model.WorkCategory {
	c.Works = append([]model.WorkItem(nil), c.Works...)
	return c
}

// Len returns the number of indexed work items.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.works)
}
