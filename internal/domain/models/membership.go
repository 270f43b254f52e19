package models

import "github.com/shopspring/decimal"

// MembershipType defines a membership tier and the borrowing limits it grants.
type MembershipType struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"` // Basic, Premium, Student
	MonthlyFee     decimal.Decimal `json:"monthly_fee" db:"monthly_fee"`
	AnnualFee      decimal.Decimal `json:"annual_fee" db:"annual_fee"`
	MaxBooks       int             `json:"max_books" db:"max_books"`
	LoanPeriodDays int             `json:"loan_period_days" db:"loan_period_days"`
	ExtensionDays  int             `json:"extension_days" db:"extension_days"`
}

// AllowsExtensions reports whether this tier may request loan extensions.
func (m *MembershipType) AllowsExtensions() bool {
	return m != nil && m.ExtensionDays > 0
}
