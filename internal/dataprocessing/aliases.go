package dataprocessing

import "fmt"

// identityField is a required per-product column and the header spellings
// accepted for it, in priority order.
type identityField struct {
	name    string
	aliases []string
}

var (
	productIDField = identityField{
		name:    "ID",
		aliases: []string{"ID", "Product ID", "ProductID", "id", "product_id"},
	}
	productNameField = identityField{
		name:    "Product Name",
		aliases: []string{"Product Name", "ProductName", "Name", "product_name", "name"},
	}
	openingInventoryField = identityField{
		name:    "Opening Inventory",
		aliases: []string{"Opening Inventory", "Opening Inventory on Day 1", "opening_inventory", "OpeningInventory"},
	}
)

var requiredFields = []identityField{productIDField, productNameField, openingInventoryField}

// DayField is one of the four per-day measurements.
type DayField int

const (
	ProcurementQty DayField = iota
	ProcurementPrice
	SalesQty
	SalesPrice
)

// dayFields lists the per-day measurements in reporting order.
var dayFields = []DayField{ProcurementQty, ProcurementPrice, SalesQty, SalesPrice}

// dayFieldSpec holds the title used in diagnostics and the header templates
// for a day field. Templates take the day number.
type dayFieldSpec struct {
	title     string
	templates []string
}

var dayFieldSpecs = map[DayField]dayFieldSpec{
	ProcurementQty: {
		title:     "Procurement Qty",
		templates: []string{"Procurement Qty (Day %d)", "Procurement Qty Day %d", "procurementQty_day%d"},
	},
	ProcurementPrice: {
		title:     "Procurement Price",
		templates: []string{"Procurement Price (Day %d)", "Procurement Price Day %d", "procurementPrice_day%d"},
	},
	SalesQty: {
		title:     "Sales Qty",
		templates: []string{"Sales Qty (Day %d)", "Sales Qty Day %d", "salesQty_day%d"},
	},
	SalesPrice: {
		title:     "Sales Price",
		templates: []string{"Sales Price (Day %d)", "Sales Price Day %d", "salesPrice_day%d"},
	},
}

// Aliases returns the accepted headers for field on the given day, in priority order.
func (f DayField) Aliases(day int) []string {
	spec := dayFieldSpecs[f]
	out := make([]string, len(spec.templates))
	for i, tmpl := range spec.templates {
		out[i] = fmt.Sprintf(tmpl, day)
	}
	return out
}

// DisplayName is the canonical column name reported when field is missing.
func (f DayField) DisplayName(day int) string {
	return fmt.Sprintf("%s (Day %d)", dayFieldSpecs[f].title, day)
}

func (f DayField) String() string {
	return dayFieldSpecs[f].title
}

// anyPresent reports whether one of aliases is a column of s.
func anyPresent(s *Sheet, aliases []string) bool {
	for _, a := range aliases {
		if s.HasColumn(a) {
			return true
		}
	}
	return false
}

// resolve returns the first non-missing cell among aliases for row.
func resolve(s *Sheet, row int, aliases []string) (Cell, bool) {
	for _, a := range aliases {
		if c := s.Cell(row, a); !c.Missing() {
			return c, true
		}
	}
	return Cell{}, false
}
