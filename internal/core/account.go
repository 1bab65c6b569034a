package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType tags an account as savings or checking.
type AccountType string

const (
	Savings  AccountType = "SAVINGS"
	Checking AccountType = "CHECKING"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case Savings, Checking:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
)

// Account is a holder's deposit account. Balance is never negative and
// only changes through the storage layer's balance write inside a unit
// of work, never by direct assignment.
type Account struct {
	ID        int
	Number    string
	HolderID  int
	Type      AccountType
	Balance   decimal.Decimal
	Status    AccountStatus
	CreatedAt time.Time
}
