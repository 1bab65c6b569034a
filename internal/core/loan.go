package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the loan's position in its lifecycle:
// APPLIED -> DISBURSED -> CLOSED.
type LoanStatus string

const (
	LoanApplied   LoanStatus = "APPLIED"
	LoanDisbursed LoanStatus = "DISBURSED"
	LoanClosed    LoanStatus = "CLOSED"
)

// Loan is a single-disbursement loan. InterestRate is a fraction
// (0.05 means 5%), not a percentage.
type Loan struct {
	ID           int
	HolderID     int
	Principal    decimal.Decimal
	InterestRate decimal.Decimal
	TermMonths   int
	Status       LoanStatus
	CreatedAt    time.Time
}
