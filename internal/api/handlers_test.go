package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finportal/internal/service"
	"finportal/internal/storage/memory"
)

func setupAPI(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(memory.NewStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := NewAPI(svc, logger, []byte("test-secret"))
	return a.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(into))
}

func registerAndLogin(t *testing.T, h http.Handler) (int, string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/holders", "", registerRequest{
		Username: "dave", Password: "secret", Email: "dave@example.com", FullName: "Dave D",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "dave", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.HolderID, resp.Token
}

func TestRegisterLoginAndAuthRequired(t *testing.T) {
	h := setupAPI(t)
	holderID, token := registerAndLogin(t, h)
	require.NotZero(t, holderID)

	// No token.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/accounts", "", openAccountRequest{HolderID: holderID, Type: "SAVINGS"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/accounts", "not-a-jwt", openAccountRequest{HolderID: holderID, Type: "SAVINGS"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong password.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "dave", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token works.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/accounts", token, openAccountRequest{
		HolderID: holderID, Type: "SAVINGS", InitialDeposit: decimal.NewFromInt(100),
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestTransferEndpoint(t *testing.T) {
	h := setupAPI(t)
	holderID, token := registerAndLogin(t, h)

	var from, to accountResponse
	rec := doJSON(t, h, http.MethodPost, "/api/v1/accounts", token, openAccountRequest{
		HolderID: holderID, Type: "CHECKING", InitialDeposit: decimal.NewFromInt(1000),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &from)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/accounts", token, openAccountRequest{
		HolderID: holderID, Type: "SAVINGS",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &to)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/transactions/transfer", token, transferRequest{
		FromID: from.ID, ToID: to.ID, Amount: decimal.NewFromInt(400),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tr transferResponse
	decode(t, rec, &tr)
	assert.NotEmpty(t, tr.OrderNumber)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/accounts/"+itoa(from.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got accountResponse
	decode(t, rec, &got)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(600)))

	// Business failures map to client statuses.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/transactions/transfer", token, transferRequest{
		FromID: from.ID, ToID: to.ID, Amount: decimal.NewFromInt(100000),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/transactions/transfer", token, transferRequest{
		FromID: from.ID, ToID: from.ID, Amount: decimal.NewFromInt(1),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/accounts/999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoanEndpoints(t *testing.T) {
	h := setupAPI(t)
	holderID, token := registerAndLogin(t, h)

	var acct accountResponse
	rec := doJSON(t, h, http.MethodPost, "/api/v1/accounts", token, openAccountRequest{
		HolderID: holderID, Type: "CHECKING", InitialDeposit: decimal.NewFromInt(200),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &acct)

	var loan loanResponse
	rec = doJSON(t, h, http.MethodPost, "/api/v1/loans", token, applyLoanRequest{
		HolderID:     holderID,
		Principal:    decimal.NewFromInt(1000),
		InterestRate: decimal.RequireFromString("0.05"),
		TermMonths:   12,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(t, rec, &loan)
	assert.Equal(t, "APPLIED", string(loan.Status))

	rec = doJSON(t, h, http.MethodPost, "/api/v1/loans/"+itoa(loan.ID)+"/disburse", token, disburseRequest{AccountID: acct.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/v1/accounts/"+itoa(acct.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got accountResponse
	decode(t, rec, &got)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(1200)))

	rec = doJSON(t, h, http.MethodPost, "/api/v1/loans/"+itoa(loan.ID)+"/repay", token, repayRequest{
		AccountID: acct.ID, Amount: decimal.NewFromInt(1200),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/v1/loans/"+itoa(loan.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &loan)
	assert.Equal(t, "CLOSED", string(loan.Status))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
