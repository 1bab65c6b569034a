package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finportal/internal/core"
	"finportal/internal/service"
	"finportal/internal/storage"
)

type API struct {
	svc       *service.Service
	logger    *slog.Logger
	jwtSecret []byte
}

func NewAPI(svc *service.Service, logger *slog.Logger, jwtSecret []byte) *API {
	return &API{svc: svc, logger: logger, jwtSecret: jwtSecret}
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleError maps domain failures to HTTP statuses. Anything not
// recognized is an infrastructure failure: logged, and answered with
// the fallback message and a 500 so the caller knows a retry may help.
func (a *API) handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrInvalidID),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrSameAccount),
		errors.Is(err, core.ErrInvalidAccountType):
		httpError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrHolderNotFound),
		errors.Is(err, storage.ErrAccountNotFound),
		errors.Is(err, storage.ErrLoanNotFound),
		errors.Is(err, storage.ErrTransactionNotFound):
		httpError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrNotOwner):
		httpError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, storage.ErrInsufficientFunds):
		httpError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrDuplicateUsername):
		httpError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrBadCredentials):
		httpError(w, http.StatusUnauthorized, err.Error())
	default:
		a.logger.Error(fallback, "err", err)
		httpError(w, http.StatusInternalServerError, fallback)
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type holderResponse struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	HolderID int    `json:"holder_id"`
}

type openAccountRequest struct {
	HolderID       int              `json:"holder_id"`
	Type           core.AccountType `json:"type"`
	InitialDeposit decimal.Decimal  `json:"initial_deposit"`
}

type accountResponse struct {
	ID        int                `json:"id"`
	Number    string             `json:"number"`
	HolderID  int                `json:"holder_id"`
	Type      core.AccountType   `json:"type"`
	Balance   decimal.Decimal    `json:"balance"`
	Status    core.AccountStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

func toAccountResponse(a *core.Account) *accountResponse {
	return &accountResponse{
		ID:        a.ID,
		Number:    a.Number,
		HolderID:  a.HolderID,
		Type:      a.Type,
		Balance:   a.Balance,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

type transferRequest struct {
	FromID int             `json:"from_id"`
	ToID   int             `json:"to_id"`
	Amount decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	OrderNumber string `json:"order_number"`
}

type applyLoanRequest struct {
	HolderID     int             `json:"holder_id"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
}

type loanResponse struct {
	ID           int             `json:"id"`
	HolderID     int             `json:"holder_id"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
	Status       core.LoanStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toLoanResponse(l *core.Loan) *loanResponse {
	return &loanResponse{
		ID:           l.ID,
		HolderID:     l.HolderID,
		Principal:    l.Principal,
		InterestRate: l.InterestRate,
		TermMonths:   l.TermMonths,
		Status:       l.Status,
		CreatedAt:    l.CreatedAt,
	}
}

type disburseRequest struct {
	AccountID int `json:"account_id"`
}

type repayRequest struct {
	AccountID int             `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type entryIDResponse struct {
	TransactionID int `json:"transaction_id"`
}

type transactionResponse struct {
	ID          int                    `json:"id"`
	OrderNumber string                 `json:"order_number"`
	AccountID   int                    `json:"account_id"`
	Direction   core.Direction         `json:"direction"`
	Amount      decimal.Decimal        `json:"amount"`
	Timestamp   time.Time              `json:"timestamp"`
	Status      core.TransactionStatus `json:"status"`
	Method      core.PaymentMethod     `json:"method"`
	Note        string                 `json:"note,omitempty"`
}

func toTransactionResponse(t *core.Transaction) *transactionResponse {
	return &transactionResponse{
		ID:          t.ID,
		OrderNumber: t.OrderNumber,
		AccountID:   t.AccountID,
		Direction:   t.Direction,
		Amount:      t.Amount,
		Timestamp:   t.Timestamp,
		Status:      t.Status,
		Method:      t.Method,
		Note:        t.Note,
	}
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	return id, err == nil && id > 0
}

func (a *API) RegisterHolderHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	h, err := a.svc.RegisterHolder(r.Context(), req.Username, req.Password, req.Email, req.FullName)
	if err != nil {
		a.handleError(w, err, "failed to register holder")
		return
	}

	jsonResponse(w, http.StatusCreated, holderResponse{
		ID:        h.ID,
		Username:  h.Username,
		Email:     h.Email,
		FullName:  h.FullName,
		Role:      h.Role,
		CreatedAt: h.CreatedAt,
	})
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h, err := a.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		a.handleError(w, err, "login failed")
		return
	}

	token, err := a.generateToken(h.ID)
	if err != nil {
		a.logger.Error("failed to sign token", "err", err)
		httpError(w, http.StatusInternalServerError, "login failed")
		return
	}

	jsonResponse(w, http.StatusOK, loginResponse{Token: token, HolderID: h.ID})
}

func (a *API) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	acc, err := a.svc.OpenAccount(r.Context(), req.HolderID, req.Type, req.InitialDeposit)
	if err != nil {
		a.handleError(w, err, "failed to open account")
		return
	}

	jsonResponse(w, http.StatusCreated, toAccountResponse(acc))
}

func (a *API) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	acc, err := a.svc.GetAccount(r.Context(), id)
	if err != nil {
		a.handleError(w, err, "failed to get account")
		return
	}

	jsonResponse(w, http.StatusOK, toAccountResponse(acc))
}

func (a *API) ListHolderAccountsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid holder id")
		return
	}

	accounts, err := a.svc.ListAccountsByHolder(r.Context(), id)
	if err != nil {
		a.handleError(w, err, "failed to list accounts")
		return
	}

	resp := make([]*accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, toAccountResponse(acc))
	}
	jsonResponse(w, http.StatusOK, map[string]any{"accounts": resp})
}

func (a *API) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	orderNo, err := a.svc.Transfer(r.Context(), req.FromID, req.ToID, req.Amount, "")
	if err != nil {
		a.handleError(w, err, "transfer failed")
		return
	}

	jsonResponse(w, http.StatusOK, transferResponse{OrderNumber: orderNo})
}

func (a *API) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := a.svc.GetTransaction(r.Context(), id)
	if err != nil {
		a.handleError(w, err, "failed to get transaction")
		return
	}

	jsonResponse(w, http.StatusOK, toTransactionResponse(t))
}

func (a *API) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := a.svc.ListTransactions(r.Context(), id, limit)
	if err != nil {
		a.handleError(w, err, "failed to list transactions")
		return
	}

	resp := make([]*transactionResponse, 0, len(entries))
	for _, t := range entries {
		resp = append(resp, toTransactionResponse(t))
	}
	jsonResponse(w, http.StatusOK, map[string]any{"transactions": resp})
}

func (a *API) ApplyLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req applyLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	loan, err := a.svc.ApplyForLoan(r.Context(), req.HolderID, req.Principal, req.InterestRate, req.TermMonths)
	if err != nil {
		a.handleError(w, err, "failed to apply for loan")
		return
	}

	jsonResponse(w, http.StatusCreated, toLoanResponse(loan))
}

func (a *API) GetLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	loan, err := a.svc.GetLoan(r.Context(), id)
	if err != nil {
		a.handleError(w, err, "failed to get loan")
		return
	}

	jsonResponse(w, http.StatusOK, toLoanResponse(loan))
}

func (a *API) ListHolderLoansHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid holder id")
		return
	}

	loans, err := a.svc.ListLoansByHolder(r.Context(), id)
	if err != nil {
		a.handleError(w, err, "failed to list loans")
		return
	}

	resp := make([]*loanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, toLoanResponse(l))
	}
	jsonResponse(w, http.StatusOK, map[string]any{"loans": resp})
}

func (a *API) DisburseLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	var req disburseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	txID, err := a.svc.ApproveAndDisburse(r.Context(), id, req.AccountID)
	if err != nil {
		a.handleError(w, err, "failed to disburse loan")
		return
	}

	jsonResponse(w, http.StatusOK, entryIDResponse{TransactionID: txID})
}

func (a *API) RepayLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	var req repayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	txID, err := a.svc.RepayLoan(r.Context(), id, req.AccountID, req.Amount)
	if err != nil {
		a.handleError(w, err, "failed to repay loan")
		return
	}

	jsonResponse(w, http.StatusOK, entryIDResponse{TransactionID: txID})
}
