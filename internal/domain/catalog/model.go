package catalog

import "time"

// Product is a sellable catalog entry. MRP is the tax-inclusive list price;
// HSNCode is the harmonized tax classification printed on bills.
type Product struct {
	ID        string    `db:"product_id" json:"product_id"`
	Name      string    `db:"product_name" json:"product_name"`
	MRP       float64   `db:"mrp" json:"mrp"`
	HSNCode   string    `db:"hsn_code" json:"hsn_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SuggestField selects which column a typeahead query matches against.
type SuggestField string

const (
	SuggestByID   SuggestField = "id"
	SuggestByName SuggestField = "name"
)
