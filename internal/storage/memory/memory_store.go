package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finportal/internal/core"
	"finportal/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store provides in-memory persistence for holders, accounts, loans and
// the transaction journal. A unit of work holds the store's write lock
// for its whole lifetime and stages its writes, so committed effects on
// any account appear in a single total order and an aborted unit leaves
// nothing behind.
type Store struct {
	mu sync.RWMutex

	holders      map[int]*core.Holder
	holderByName map[string]int
	accounts     map[int]*core.Account
	acctByNumber map[string]int
	loans        map[int]*core.Loan
	journal      []*core.Transaction

	nextHolderID int
	nextAcctID   int
	nextLoanID   int
	nextEntryID  int
}

// NewStore creates an empty in-memory data store.
func NewStore() *Store {
	return &Store{
		holders:      make(map[int]*core.Holder),
		holderByName: make(map[string]int),
		accounts:     make(map[int]*core.Account),
		acctByNumber: make(map[string]int),
		loans:        make(map[int]*core.Loan),
	}
}

func (s *Store) CreateHolder(ctx context.Context, h *core.Holder) (*core.Holder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.holderByName[h.Username]; taken {
		return nil, storage.ErrDuplicateUsername
	}

	s.nextHolderID++
	cp := *h
	cp.ID = s.nextHolderID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.holders[cp.ID] = &cp
	s.holderByName[cp.Username] = cp.ID

	out := cp
	return &out, nil
}

func (s *Store) GetHolder(ctx context.Context, id int) (*core.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.holders[id]
	if !ok {
		return nil, storage.ErrHolderNotFound
	}
	cp := *h
	return &cp, nil
}

func (s *Store) GetHolderByUsername(ctx context.Context, username string) (*core.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.holderByName[username]
	if !ok {
		return nil, storage.ErrHolderNotFound
	}
	cp := *s.holders[id]
	return &cp, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *core.Account) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.holders[a.HolderID]; !ok {
		return nil, storage.ErrHolderNotFound
	}

	s.nextAcctID++
	cp := *a
	cp.ID = s.nextAcctID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.accounts[cp.ID] = &cp
	s.acctByNumber[cp.Number] = cp.ID

	out := cp
	return &out, nil
}

func (s *Store) GetAccount(ctx context.Context, id int) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.acctByNumber[number]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *Store) ListAccountsByHolder(ctx context.Context, holderID int) ([]*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*core.Account
	for id := 1; id <= s.nextAcctID; id++ {
		a, ok := s.accounts[id]
		if ok && a.HolderID == holderID {
			cp := *a
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (s *Store) CreateLoan(ctx context.Context, l *core.Loan) (*core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.holders[l.HolderID]; !ok {
		return nil, storage.ErrHolderNotFound
	}

	s.nextLoanID++
	cp := *l
	cp.ID = s.nextLoanID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.loans[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (s *Store) GetLoan(ctx context.Context, id int) (*core.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loans[id]
	if !ok {
		return nil, storage.ErrLoanNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *Store) ListLoansByHolder(ctx context.Context, holderID int) ([]*core.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*core.Loan
	for id := 1; id <= s.nextLoanID; id++ {
		l, ok := s.loans[id]
		if ok && l.HolderID == holderID {
			cp := *l
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int) (*core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.journal {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, storage.ErrTransactionNotFound
}

// ListTransactions returns an account's journal entries newest first.
// A limit <= 0 returns all of them.
func (s *Store) ListTransactions(ctx context.Context, accountID, limit int) ([]*core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*core.Transaction
	for i := len(s.journal) - 1; i >= 0; i-- {
		t := s.journal[i]
		if t.AccountID != accountID {
			continue
		}
		cp := *t
		list = append(list, &cp)
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

// WithinTx serializes the unit of work under the store's write lock.
// Writes made through the Tx are staged and only folded into the live
// maps when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:          s,
		balances:   make(map[int]decimal.Decimal),
		loanStatus: make(map[int]core.LoanStatus),
	}

	if err := fn(tx); err != nil {
		return err
	}

	tx.commit()
	return nil
}

// memTx stages writes against the store while the store lock is held.
type memTx struct {
	s          *Store
	balances   map[int]decimal.Decimal
	loanStatus map[int]core.LoanStatus
	entries    []*core.Transaction
}

var _ storage.Tx = (*memTx)(nil)

func (tx *memTx) GetAccountForUpdate(ctx context.Context, id int) (*core.Account, error) {
	a, ok := tx.s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	cp := *a
	if b, staged := tx.balances[id]; staged {
		cp.Balance = b
	}
	return &cp, nil
}

func (tx *memTx) SetBalance(ctx context.Context, accountID int, balance decimal.Decimal) error {
	if _, ok := tx.s.accounts[accountID]; !ok {
		return storage.ErrAccountNotFound
	}
	tx.balances[accountID] = balance
	return nil
}

func (tx *memTx) AppendEntry(ctx context.Context, e *core.Transaction) (int, error) {
	if _, ok := tx.s.accounts[e.AccountID]; !ok {
		return 0, storage.ErrAccountNotFound
	}
	if !e.Amount.IsPositive() {
		return 0, core.ErrInvalidAmount
	}

	tx.s.nextEntryID++
	cp := *e
	cp.ID = tx.s.nextEntryID
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	tx.entries = append(tx.entries, &cp)
	return cp.ID, nil
}

func (tx *memTx) GetLoanForUpdate(ctx context.Context, id int) (*core.Loan, error) {
	l, ok := tx.s.loans[id]
	if !ok {
		return nil, storage.ErrLoanNotFound
	}
	cp := *l
	if st, staged := tx.loanStatus[id]; staged {
		cp.Status = st
	}
	return &cp, nil
}

func (tx *memTx) SetLoanStatus(ctx context.Context, loanID int, status core.LoanStatus) error {
	if _, ok := tx.s.loans[loanID]; !ok {
		return storage.ErrLoanNotFound
	}
	tx.loanStatus[loanID] = status
	return nil
}

func (tx *memTx) commit() {
	for id, b := range tx.balances {
		tx.s.accounts[id].Balance = b
	}
	for id, st := range tx.loanStatus {
		tx.s.loans[id].Status = st
	}
	tx.s.journal = append(tx.s.journal, tx.entries...)
}
