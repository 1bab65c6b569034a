package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finportal/internal/core"
	"finportal/internal/storage"
)

// Transfer moves amount from one account to another inside a single
// unit of work. Both balance writes and the paired DEBIT/CREDIT journal
// entries commit together or not at all, so the total money across the
// two accounts is unchanged by success and untouched by failure.
//
// orderNo ties the two journal entries together; pass "" to have one
// synthesized. The committed order number is returned.
func (s *Service) Transfer(ctx context.Context, fromID, toID int, amount decimal.Decimal, orderNo string) (string, error) {
	if fromID <= 0 || toID <= 0 {
		return "", core.ErrInvalidID
	}
	if fromID == toID {
		return "", core.ErrSameAccount
	}
	if !amount.IsPositive() {
		return "", core.ErrInvalidAmount
	}
	if orderNo == "" {
		orderNo = newOrderNumber("TR")
	}

	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		// Lock in ascending id order so two opposing transfers cannot
		// deadlock.
		firstID, secondID := fromID, toID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}
		first, err := tx.GetAccountForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := tx.GetAccountForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		from, to := first, second
		if from.ID != fromID {
			from, to = second, first
		}

		if from.Balance.LessThan(amount) {
			return storage.ErrInsufficientFunds
		}

		if err := tx.SetBalance(ctx, from.ID, from.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, to.ID, to.Balance.Add(amount)); err != nil {
			return err
		}

		if _, err := tx.AppendEntry(ctx, &core.Transaction{
			OrderNumber: orderNo,
			AccountID:   from.ID,
			Direction:   core.Debit,
			Amount:      amount,
			Status:      core.Completed,
			Method:      core.MethodTransfer,
			Note:        fmt.Sprintf("Transfer to account %d", to.ID),
		}); err != nil {
			return err
		}
		if _, err := tx.AppendEntry(ctx, &core.Transaction{
			OrderNumber: orderNo,
			AccountID:   to.ID,
			Direction:   core.Credit,
			Amount:      amount,
			Status:      core.Completed,
			Method:      core.MethodTransfer,
			Note:        fmt.Sprintf("Transfer from account %d", from.ID),
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return orderNo, nil
}
