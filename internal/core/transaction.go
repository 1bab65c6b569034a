package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction says which side of the ledger a journal entry lands on for
// its account.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

type TransactionStatus string

// Completed is the only status the journal records; pending or failed
// movements are never written.
const Completed TransactionStatus = "COMPLETED"

// PaymentMethod identifies the operation that produced an entry.
type PaymentMethod string

const (
	MethodTransfer         PaymentMethod = "TRANSFER"
	MethodLoanDisbursement PaymentMethod = "LOAN_DISBURSEMENT"
	MethodLoanRepayment    PaymentMethod = "LOAN_REPAYMENT"
)

// Transaction is one immutable journal entry against a single account.
// The two halves of a transfer are separate entries sharing an
// OrderNumber, which is how they are recognized as a matched pair.
type Transaction struct {
	ID          int
	OrderNumber string
	AccountID   int
	Direction   Direction
	Amount      decimal.Decimal
	Timestamp   time.Time
	Status      TransactionStatus
	Method      PaymentMethod
	Note        string
}
