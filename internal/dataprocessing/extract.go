package dataprocessing

import (
	"fmt"

	"invpulse/pkg/contracts/domain"
)

// nanMarker is how a missing number looks once it has been stringified upstream.
const nanMarker = "nan"

// ExtractProducts normalizes every row of s into a product record with
// maxDay procurement and sales entries each. Rows without a usable product
// ID are dropped without notice. Cells that fail to coerce read as zero.
//
// The one failure is an opening inventory holding non-numeric text. It is
// checked before the product ID, so it fails rows that would be dropped too.
func ExtractProducts(s *Sheet, maxDay int) ([]domain.ProductRecord, error) {
	records := make([]domain.ProductRecord, 0, s.Len())
	days := dayAliasTable(maxDay)

	for row := range s.Rows {
		var productID, name string
		if c, ok := resolve(s, row, productIDField.aliases); ok {
			productID = c.String()
		}
		if c, ok := resolve(s, row, productNameField.aliases); ok {
			name = c.String()
		}
		inventoryCell, _ := resolve(s, row, openingInventoryField.aliases)
		inventory, err := coerceInventory(inventoryCell)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}

		if productID == "" || productID == nanMarker {
			continue
		}

		rec := domain.ProductRecord{
			ProductID:          productID,
			Name:               name,
			OpeningInventory:   inventory,
			ProcurementEntries: make([]domain.DayEntry, 0, maxDay),
			SalesEntries:       make([]domain.DayEntry, 0, maxDay),
		}
		for i, aliases := range days {
			day := i + 1
			procQty, _ := resolve(s, row, aliases[ProcurementQty])
			procPrice, _ := resolve(s, row, aliases[ProcurementPrice])
			salesQty, _ := resolve(s, row, aliases[SalesQty])
			salesPrice, _ := resolve(s, row, aliases[SalesPrice])

			rec.ProcurementEntries = append(rec.ProcurementEntries,
				domain.NewDayEntry(day, coerceQuantity(procQty), coercePrice(procPrice)))
			rec.SalesEntries = append(rec.SalesEntries,
				domain.NewDayEntry(day, coerceQuantity(salesQty), coercePrice(salesPrice)))
		}
		records = append(records, rec)
	}

	return records, nil
}

// dayAliasTable expands the header templates once per call rather than once per row.
func dayAliasTable(maxDay int) [][4][]string {
	if maxDay < 0 {
		maxDay = 0
	}
	table := make([][4][]string, maxDay)
	for i := range table {
		for _, f := range dayFields {
			table[i][f] = f.Aliases(i + 1)
		}
	}
	return table
}
