package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"finportal/internal/core"
	"finportal/internal/storage"
)

// Service carries the business operations over a Store. Everything
// that moves money runs inside exactly one unit of work; lookups go
// straight to the store.
type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service {
	return &Service{store: store}
}

// RegisterHolder creates a customer with a bcrypt-hashed password.
func (s *Service) RegisterHolder(ctx context.Context, username, password, email, fullName string) (*core.Holder, error) {
	if username == "" || password == "" {
		return nil, core.ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.store.CreateHolder(ctx, &core.Holder{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		FullName:     fullName,
		Role:         "CUSTOMER",
		Status:       core.HolderActive,
	})
}

// Authenticate verifies a holder's credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*core.Holder, error) {
	h, err := s.store.GetHolderByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrHolderNotFound) {
			return nil, core.ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(password)) != nil {
		return nil, core.ErrBadCredentials
	}
	return h, nil
}

// OpenAccount creates an ACTIVE account for an existing holder with a
// generated account number. The initial deposit may be zero but never
// negative.
func (s *Service) OpenAccount(ctx context.Context, holderID int, accountType core.AccountType, initialDeposit decimal.Decimal) (*core.Account, error) {
	if holderID <= 0 {
		return nil, core.ErrInvalidID
	}
	if !accountType.Valid() {
		return nil, core.ErrInvalidAccountType
	}
	if initialDeposit.IsNegative() {
		return nil, core.ErrInvalidAmount
	}

	if _, err := s.store.GetHolder(ctx, holderID); err != nil {
		return nil, err
	}

	return s.store.CreateAccount(ctx, &core.Account{
		Number:   newAccountNumber(),
		HolderID: holderID,
		Type:     accountType,
		Balance:  initialDeposit,
		Status:   core.AccountActive,
	})
}

func (s *Service) GetHolder(ctx context.Context, id int) (*core.Holder, error) {
	if id <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.store.GetHolder(ctx, id)
}

func (s *Service) GetAccount(ctx context.Context, id int) (*core.Account, error) {
	if id <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.store.GetAccount(ctx, id)
}

func (s *Service) GetAccountByNumber(ctx context.Context, number string) (*core.Account, error) {
	return s.store.GetAccountByNumber(ctx, number)
}

func (s *Service) ListAccountsByHolder(ctx context.Context, holderID int) ([]*core.Account, error) {
	if holderID <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.store.ListAccountsByHolder(ctx, holderID)
}

func (s *Service) GetTransaction(ctx context.Context, id int) (*core.Transaction, error) {
	if id <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.store.GetTransaction(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context, accountID, limit int) ([]*core.Transaction, error) {
	if accountID <= 0 {
		return nil, core.ErrInvalidID
	}
	return s.store.ListTransactions(ctx, accountID, limit)
}

// token returns n characters of a fresh UUID with the dashes stripped,
// upper-cased.
func token(n int) string {
	u := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return u[:n]
}

// newAccountNumber generates an externally visible account number,
// e.g. "AC3F2B9A71C04D8E".
func newAccountNumber() string {
	return "AC" + token(14)
}

// newOrderNumber generates a journal correlation number with an
// operation prefix, e.g. "TR-9E41C7A0B2F3".
func newOrderNumber(prefix string) string {
	return prefix + "-" + token(12)
}
