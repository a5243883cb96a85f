package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayEntry is one day of procurement or sales activity for a product.
// Amount is always Quantity * Price and is never read from a sheet.
type DayEntry struct {
	Day      int             `json:"day" db:"day" validate:"min=1"`
	Quantity int64           `json:"quantity" db:"quantity" validate:"min=0"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Amount   decimal.Decimal `json:"amount" db:"amount"`
}

// NewDayEntry builds an entry with its derived amount.
func NewDayEntry(day int, quantity int64, price decimal.Decimal) DayEntry {
	return DayEntry{
		Day:      day,
		Quantity: quantity,
		Price:    price,
		Amount:   decimal.NewFromInt(quantity).Mul(price),
	}
}

// IsZero reports whether the entry carries no activity.
func (e DayEntry) IsZero() bool {
	return e.Quantity == 0 && e.Price.IsZero()
}

// ProductRecord is one normalized spreadsheet row.
type ProductRecord struct {
	ProductID          string     `json:"product_id" validate:"required"`
	Name               string     `json:"name"`
	OpeningInventory   int64      `json:"opening_inventory"`
	ProcurementEntries []DayEntry `json:"procurement_entries"`
	SalesEntries       []DayEntry `json:"sales_entries"`
}

// ValidationReport summarizes the structural checks run against a sheet.
// It is built once and not modified afterwards.
type ValidationReport struct {
	IsValid         bool     `json:"is_valid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	MaxDays         int      `json:"max_days"`
	TotalRows       int      `json:"total_rows"`
	ExpectedColumns int      `json:"expected_columns"`
	ColumnsFound    int      `json:"columns_found"`
}

// StoredProduct is a product as held by a persistence sink.
type StoredProduct struct {
	ID               string     `json:"id" db:"id"`
	OwnerID          string     `json:"owner_id" db:"owner_id"`
	ProductID        string     `json:"product_id" db:"product_id"`
	Name             string     `json:"name" db:"name"`
	OpeningInventory int64      `json:"opening_inventory" db:"opening_inventory"`
	ProcurementData  []DayEntry `json:"procurement_data"`
	SalesData        []DayEntry `json:"sales_data"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
