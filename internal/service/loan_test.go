package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finportal/internal/core"
	"finportal/internal/storage"
)

func TestApplyForLoan(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(1000), decimal.RequireFromString("0.05"), 12)
	require.NoError(t, err)
	assert.Equal(t, core.LoanApplied, loan.Status)
	assert.Equal(t, h.ID, loan.HolderID)
	assert.Equal(t, 12, loan.TermMonths)
	assert.True(t, loan.Principal.Equal(decimal.NewFromInt(1000)))
	assert.False(t, loan.CreatedAt.IsZero())
}

func TestApplyForLoanValidation(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	rate := decimal.RequireFromString("0.05")

	_, err := svc.ApplyForLoan(ctx, 0, decimal.NewFromInt(1000), rate, 12)
	require.ErrorIs(t, err, core.ErrInvalidID)

	_, err = svc.ApplyForLoan(ctx, h.ID, decimal.Zero, rate, 12)
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(1000), rate, 0)
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.ApplyForLoan(ctx, h.ID+1, decimal.NewFromInt(1000), rate, 12)
	require.ErrorIs(t, err, storage.ErrHolderNotFound)
}

func TestApproveAndDisburse(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	acct := openWith(t, svc, h.ID, 200)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(1000), decimal.RequireFromString("0.05"), 12)
	require.NoError(t, err)

	txID, err := svc.ApproveAndDisburse(ctx, loan.ID, acct.ID)
	require.NoError(t, err)
	require.NotZero(t, txID)

	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanDisbursed, got.Status)

	assert.True(t, balance(t, svc, acct.ID).Equal(decimal.NewFromInt(1200)))

	entries, err := svc.ListTransactions(ctx, acct.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, txID, e.ID)
	assert.Equal(t, core.Credit, e.Direction)
	assert.Equal(t, core.MethodLoanDisbursement, e.Method)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(1000)))
}

func TestDisburseOwnershipViolation(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()

	other, err := svc.RegisterHolder(ctx, "mallory", "secret", "", "")
	require.NoError(t, err)
	otherAcct := openWith(t, svc, other.ID, 5)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(1000), decimal.RequireFromString("0.05"), 12)
	require.NoError(t, err)

	_, err = svc.ApproveAndDisburse(ctx, loan.ID, otherAcct.ID)
	require.ErrorIs(t, err, core.ErrNotOwner)

	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanApplied, got.Status, "a rejected disbursement must not change loan state")
	assert.True(t, balance(t, svc, otherAcct.ID).Equal(decimal.NewFromInt(5)))

	entries, err := svc.ListTransactions(ctx, otherAcct.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDisburseNotFound(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	acct := openWith(t, svc, h.ID, 0)

	_, err := svc.ApproveAndDisburse(ctx, 42, acct.ID)
	require.ErrorIs(t, err, storage.ErrLoanNotFound)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(100), decimal.Zero, 6)
	require.NoError(t, err)

	_, err = svc.ApproveAndDisburse(ctx, loan.ID, acct.ID+100)
	require.ErrorIs(t, err, storage.ErrAccountNotFound)
}

func TestRepayFullSinglePaymentClosesLoan(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	acct := openWith(t, svc, h.ID, 200)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(1000), decimal.RequireFromString("0.05"), 12)
	require.NoError(t, err)
	_, err = svc.ApproveAndDisburse(ctx, loan.ID, acct.ID)
	require.NoError(t, err)

	txID, err := svc.RepayLoan(ctx, loan.ID, acct.ID, decimal.NewFromInt(1200))
	require.NoError(t, err)
	require.NotZero(t, txID)

	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanClosed, got.Status)
	assert.True(t, balance(t, svc, acct.ID).Equal(decimal.Zero))

	entries, err := svc.ListTransactions(ctx, acct.ID, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.Debit, entries[0].Direction)
	assert.Equal(t, core.MethodLoanRepayment, entries[0].Method)
}

func TestPartialRepaymentsNeverCloseLoan(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	acct := openWith(t, svc, h.ID, 200)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(1000), decimal.RequireFromString("0.05"), 12)
	require.NoError(t, err)
	_, err = svc.ApproveAndDisburse(ctx, loan.ID, acct.ID)
	require.NoError(t, err)

	// Two partial payments summing past the principal: the loan stays
	// open, because only a single payment >= principal closes it.
	_, err = svc.RepayLoan(ctx, loan.ID, acct.ID, decimal.NewFromInt(500))
	require.NoError(t, err)
	_, err = svc.RepayLoan(ctx, loan.ID, acct.ID, decimal.NewFromInt(600))
	require.NoError(t, err)

	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanDisbursed, got.Status)
	assert.True(t, balance(t, svc, acct.ID).Equal(decimal.NewFromInt(100)))
}

func TestRepayInsufficientFunds(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	acct := openWith(t, svc, h.ID, 0)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(100), decimal.Zero, 6)
	require.NoError(t, err)
	_, err = svc.ApproveAndDisburse(ctx, loan.ID, acct.ID)
	require.NoError(t, err)

	_, err = svc.RepayLoan(ctx, loan.ID, acct.ID, decimal.NewFromInt(500))
	require.ErrorIs(t, err, storage.ErrInsufficientFunds)

	assert.True(t, balance(t, svc, acct.ID).Equal(decimal.NewFromInt(100)))
	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanDisbursed, got.Status)
}

func TestRepayOwnershipViolation(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()

	other, err := svc.RegisterHolder(ctx, "mallory", "secret", "", "")
	require.NoError(t, err)
	otherAcct := openWith(t, svc, other.ID, 5000)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(1000), decimal.Zero, 12)
	require.NoError(t, err)

	_, err = svc.RepayLoan(ctx, loan.ID, otherAcct.ID, decimal.NewFromInt(1000))
	require.ErrorIs(t, err, core.ErrNotOwner)

	assert.True(t, balance(t, svc, otherAcct.ID).Equal(decimal.NewFromInt(5000)))
	entries, err := svc.ListTransactions(ctx, otherAcct.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRepayValidation(t *testing.T) {
	svc, h := newTestService(t)
	ctx := context.Background()
	acct := openWith(t, svc, h.ID, 100)

	_, err := svc.RepayLoan(ctx, 0, acct.ID, decimal.NewFromInt(10))
	require.ErrorIs(t, err, core.ErrInvalidID)

	loan, err := svc.ApplyForLoan(ctx, h.ID, decimal.NewFromInt(100), decimal.Zero, 6)
	require.NoError(t, err)

	_, err = svc.RepayLoan(ctx, loan.ID, acct.ID, decimal.Zero)
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.RepayLoan(ctx, loan.ID+1, acct.ID, decimal.NewFromInt(10))
	require.ErrorIs(t, err, storage.ErrLoanNotFound)
}
