package models

import "github.com/shopspring/decimal"

// Book represents a single copy in the catalogue. Price is the replacement
// cost used for damaged/lost fines.
type Book struct {
	ID       int64           `json:"id" db:"id"`
	Title    string          `json:"title" db:"title"`
	Author   string          `json:"author" db:"author"`
	ISBN     string          `json:"isbn" db:"isbn"`
	Price    decimal.Decimal `json:"price" db:"price"`
	BranchID *int64          `json:"branch_id,omitempty" db:"branch_id"`
}
