package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"finportal/internal/core"
	"finportal/internal/storage"
)

var _ storage.Store = (*Repo)(nil)

type Repo struct {
	db *DB
}

func NewRepo(db *DB) *Repo {
	return &Repo{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHolder(row scanner) (*core.Holder, error) {
	var h core.Holder
	var lastLogin sql.NullTime
	if err := row.Scan(&h.ID, &h.Username, &h.PasswordHash, &h.Email, &h.FullName,
		&h.Role, &h.Status, &h.CreatedAt, &lastLogin); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		h.LastLogin = lastLogin.Time
	}
	return &h, nil
}

func scanAccount(row scanner) (*core.Account, error) {
	var a core.Account
	if err := row.Scan(&a.ID, &a.Number, &a.HolderID, &a.Type, &a.Balance,
		&a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanLoan(row scanner) (*core.Loan, error) {
	var l core.Loan
	if err := row.Scan(&l.ID, &l.HolderID, &l.Principal, &l.InterestRate,
		&l.TermMonths, &l.Status, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanTransaction(row scanner) (*core.Transaction, error) {
	var t core.Transaction
	var note sql.NullString
	if err := row.Scan(&t.ID, &t.OrderNumber, &t.AccountID, &t.Direction,
		&t.Amount, &t.Timestamp, &t.Status, &t.Method, &note); err != nil {
		return nil, err
	}
	if note.Valid {
		t.Note = note.String
	}
	return &t, nil
}

func isPgErr(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

func (r *Repo) CreateHolder(ctx context.Context, h *core.Holder) (*core.Holder, error) {
	const q = `INSERT INTO holders (username, password_hash, email, full_name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, username, password_hash, email, full_name, role, status, created_at, last_login`
	out, err := scanHolder(r.db.QueryRowContext(ctx, q,
		h.Username, h.PasswordHash, h.Email, h.FullName, h.Role, h.Status))
	if err != nil {
		if isPgErr(err, pgUniqueViolation) {
			return nil, storage.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create holder: %w", err)
	}
	return out, nil
}

func (r *Repo) GetHolder(ctx context.Context, id int) (*core.Holder, error) {
	const q = `SELECT id, username, password_hash, email, full_name, role, status, created_at, last_login
		FROM holders WHERE id = $1`
	h, err := scanHolder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrHolderNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *Repo) GetHolderByUsername(ctx context.Context, username string) (*core.Holder, error) {
	const q = `SELECT id, username, password_hash, email, full_name, role, status, created_at, last_login
		FROM holders WHERE username = $1`
	h, err := scanHolder(r.db.QueryRowContext(ctx, q, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrHolderNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *Repo) CreateAccount(ctx context.Context, a *core.Account) (*core.Account, error) {
	const q = `INSERT INTO accounts (number, holder_id, type, balance, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, number, holder_id, type, balance, status, created_at`
	out, err := scanAccount(r.db.QueryRowContext(ctx, q,
		a.Number, a.HolderID, a.Type, a.Balance, a.Status))
	if err != nil {
		if isPgErr(err, pgFKViolation) {
			return nil, storage.ErrHolderNotFound
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return out, nil
}

func (r *Repo) GetAccount(ctx context.Context, id int) (*core.Account, error) {
	const q = `SELECT id, number, holder_id, type, balance, status, created_at
		FROM accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *Repo) GetAccountByNumber(ctx context.Context, number string) (*core.Account, error) {
	const q = `SELECT id, number, holder_id, type, balance, status, created_at
		FROM accounts WHERE number = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *Repo) ListAccountsByHolder(ctx context.Context, holderID int) ([]*core.Account, error) {
	const q = `SELECT id, number, holder_id, type, balance, status, created_at
		FROM accounts WHERE holder_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *Repo) CreateLoan(ctx context.Context, l *core.Loan) (*core.Loan, error) {
	const q = `INSERT INTO loans (holder_id, principal, interest_rate, term_months, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, holder_id, principal, interest_rate, term_months, status, created_at`
	out, err := scanLoan(r.db.QueryRowContext(ctx, q,
		l.HolderID, l.Principal, l.InterestRate, l.TermMonths, l.Status))
	if err != nil {
		if isPgErr(err, pgFKViolation) {
			return nil, storage.ErrHolderNotFound
		}
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return out, nil
}

func (r *Repo) GetLoan(ctx context.Context, id int) (*core.Loan, error) {
	const q = `SELECT id, holder_id, principal, interest_rate, term_months, status, created_at
		FROM loans WHERE id = $1`
	l, err := scanLoan(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrLoanNotFound
		}
		return nil, err
	}
	return l, nil
}

func (r *Repo) ListLoansByHolder(ctx context.Context, holderID int) ([]*core.Loan, error) {
	const q = `SELECT id, holder_id, principal, interest_rate, term_months, status, created_at
		FROM loans WHERE holder_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r *Repo) GetTransaction(ctx context.Context, id int) (*core.Transaction, error) {
	const q = `SELECT id, order_number, account_id, direction, amount, created_at, status, method, note
		FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *Repo) ListTransactions(ctx context.Context, accountID, limit int) ([]*core.Transaction, error) {
	q := `SELECT id, order_number, account_id, direction, amount, created_at, status, method, note
		FROM transactions WHERE account_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{accountID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// WithinTx maps the unit of work onto one database transaction. Row
// locks taken by GetAccountForUpdate/GetLoanForUpdate are held until
// commit or rollback.
func (r *Repo) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(&pgTx{tx: dbTx}); err != nil {
		return err
	}
	return dbTx.Commit()
}

type pgTx struct {
	tx *sql.Tx
}

var _ storage.Tx = (*pgTx)(nil)

func (t *pgTx) GetAccountForUpdate(ctx context.Context, id int) (*core.Account, error) {
	const q = `SELECT id, number, holder_id, type, balance, status, created_at
		FROM accounts WHERE id = $1 FOR UPDATE`
	a, err := scanAccount(t.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (t *pgTx) SetBalance(ctx context.Context, accountID int, balance decimal.Decimal) error {
	const q = `UPDATE accounts SET balance = $1 WHERE id = $2`
	res, err := t.tx.ExecContext(ctx, q, balance, accountID)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrAccountNotFound
	}
	return nil
}

func (t *pgTx) AppendEntry(ctx context.Context, e *core.Transaction) (int, error) {
	if !e.Amount.IsPositive() {
		return 0, core.ErrInvalidAmount
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	const q = `INSERT INTO transactions (order_number, account_id, direction, amount, created_at, status, method, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id int
	err := t.tx.QueryRowContext(ctx, q, e.OrderNumber, e.AccountID, e.Direction,
		e.Amount, ts, e.Status, e.Method, nullIfEmpty(e.Note)).Scan(&id)
	if err != nil {
		if isPgErr(err, pgFKViolation) {
			return 0, storage.ErrAccountNotFound
		}
		return 0, fmt.Errorf("append journal entry: %w", err)
	}
	return id, nil
}

func (t *pgTx) GetLoanForUpdate(ctx context.Context, id int) (*core.Loan, error) {
	const q = `SELECT id, holder_id, principal, interest_rate, term_months, status, created_at
		FROM loans WHERE id = $1 FOR UPDATE`
	l, err := scanLoan(t.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrLoanNotFound
		}
		return nil, err
	}
	return l, nil
}

func (t *pgTx) SetLoanStatus(ctx context.Context, loanID int, status core.LoanStatus) error {
	const q = `UPDATE loans SET status = $1 WHERE id = $2`
	res, err := t.tx.ExecContext(ctx, q, status, loanID)
	if err != nil {
		return fmt.Errorf("set loan status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrLoanNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
