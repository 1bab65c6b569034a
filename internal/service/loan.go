package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finportal/internal/core"
	"finportal/internal/storage"
)

// ApplyForLoan records a loan application in state APPLIED. No balance
// or journal side effects happen until disbursement.
func (s *Service) ApplyForLoan(ctx context.Context, holderID int, principal, interestRate decimal.Decimal, termMonths int) (*core.Loan, error) {
	if holderID <= 0 {
		return nil, core.ErrInvalidID
	}
	if !principal.IsPositive() {
		return nil, core.ErrInvalidAmount
	}
	if interestRate.IsNegative() || termMonths <= 0 {
		return nil, core.ErrInvalidAmount
	}

	if _, err := s.store.GetHolder(ctx, holderID); err != nil {
		return nil, err
	}

	return s.store.CreateLoan(ctx, &core.Loan{
		HolderID:     holderID,
		Principal:    principal,
		InterestRate: interestRate,
		TermMonths:   termMonths,
		Status:       core.LoanApplied,
	})
}

// ApproveAndDisburse marks the loan DISBURSED and credits its principal
// to the target account, which must belong to the loan's holder. The
// status change, the balance credit and the LOAN_DISBURSEMENT journal
// entry commit together or not at all. Returns the id of the journal
// entry.
//
// Nothing stops a second call on the same loan; it would credit the
// principal again. That matches the modeled lifecycle, which has no
// rejected or already-disbursed guard.
func (s *Service) ApproveAndDisburse(ctx context.Context, loanID, accountID int) (int, error) {
	if loanID <= 0 || accountID <= 0 {
		return 0, core.ErrInvalidID
	}

	var entryID int
	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		loan, err := tx.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		acct, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if acct.HolderID != loan.HolderID {
			return core.ErrNotOwner
		}

		if err := tx.SetLoanStatus(ctx, loan.ID, core.LoanDisbursed); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, acct.ID, acct.Balance.Add(loan.Principal)); err != nil {
			return err
		}

		entryID, err = tx.AppendEntry(ctx, &core.Transaction{
			OrderNumber: newOrderNumber("LN-DSB"),
			AccountID:   acct.ID,
			Direction:   core.Credit,
			Amount:      loan.Principal,
			Status:      core.Completed,
			Method:      core.MethodLoanDisbursement,
			Note:        fmt.Sprintf("Loan disbursement for loan %d", loan.ID),
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return entryID, nil
}

// RepayLoan debits a repayment from an account belonging to the loan's
// holder and appends a LOAN_REPAYMENT journal entry in the same unit of
// work. A single payment of at least the principal closes the loan;
// smaller payments leave its status untouched, and their sum is never
// accumulated. Returns the id of the journal entry.
func (s *Service) RepayLoan(ctx context.Context, loanID, accountID int, amount decimal.Decimal) (int, error) {
	if loanID <= 0 || accountID <= 0 {
		return 0, core.ErrInvalidID
	}
	if !amount.IsPositive() {
		return 0, core.ErrInvalidAmount
	}

	var entryID int
	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		loan, err := tx.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		acct, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if acct.HolderID != loan.HolderID {
			return core.ErrNotOwner
		}
		if acct.Balance.LessThan(amount) {
			return storage.ErrInsufficientFunds
		}

		if err := tx.SetBalance(ctx, acct.ID, acct.Balance.Sub(amount)); err != nil {
			return err
		}

		entryID, err = tx.AppendEntry(ctx, &core.Transaction{
			OrderNumber: newOrderNumber("LN-RPY"),
			AccountID:   acct.ID,
			Direction:   core.Debit,
			Amount:      amount,
			Status:      core.Completed,
			Method:      core.MethodLoanRepayment,
			Note:        fmt.Sprintf("Loan repayment for loan %d", loan.ID),
		})
		if err != nil {
			return err
		}

		if amount.GreaterThanOrEqual(loan.Principal) {
			return tx.SetLoanStatus(ctx, loan.ID, core.LoanClosed)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return entryID, nil
}

func (s *Service) GetLoan(ctx context.Context, id int) (*core.Loan, error) {
	if id <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.store.GetLoan(ctx, id)
}

func (s *Service) ListLoansByHolder(ctx context.Context, holderID int) ([]*core.Loan, error) {
	if holderID <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.store.ListLoansByHolder(ctx, holderID)
}
