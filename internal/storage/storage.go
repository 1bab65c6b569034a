package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"finportal/internal/core"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrHolderNotFound      = errors.New("account holder not found")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrDuplicateUsername   = errors.New("username already taken")
)

// Store defines how holders, accounts, loans and the transaction
// journal are persisted. Plain lookups run outside any unit of work;
// everything that moves money goes through WithinTx.
type Store interface {
	CreateHolder(ctx context.Context, h *core.Holder) (*core.Holder, error)
	GetHolder(ctx context.Context, id int) (*core.Holder, error)
	GetHolderByUsername(ctx context.Context, username string) (*core.Holder, error)

	CreateAccount(ctx context.Context, a *core.Account) (*core.Account, error)
	GetAccount(ctx context.Context, id int) (*core.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*core.Account, error)
	ListAccountsByHolder(ctx context.Context, holderID int) ([]*core.Account, error)

	CreateLoan(ctx context.Context, l *core.Loan) (*core.Loan, error)
	GetLoan(ctx context.Context, id int) (*core.Loan, error)
	ListLoansByHolder(ctx context.Context, holderID int) ([]*core.Loan, error)

	GetTransaction(ctx context.Context, id int) (*core.Transaction, error)
	ListTransactions(ctx context.Context, accountID, limit int) ([]*core.Transaction, error)

	// WithinTx runs fn as a single all-or-nothing unit of work. A
	// non-nil error from fn rolls back every write made through the Tx;
	// nil commits them together.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write surface available inside a unit of work. A row read
// through GetAccountForUpdate or GetLoanForUpdate stays exclusively
// held until the unit of work commits or rolls back, so a
// read-compute-write sequence on it cannot race another caller.
type Tx interface {
	GetAccountForUpdate(ctx context.Context, id int) (*core.Account, error)
	SetBalance(ctx context.Context, accountID int, balance decimal.Decimal) error

	// AppendEntry writes one immutable journal entry and returns its id.
	// It fails if the account does not exist or the amount is not
	// positive.
	AppendEntry(ctx context.Context, e *core.Transaction) (int, error)

	GetLoanForUpdate(ctx context.Context, id int) (*core.Loan, error)
	SetLoanStatus(ctx context.Context, loanID int, status core.LoanStatus) error
}
