package api

import "net/http"

func (a *API) Router() http.Handler {
	mux := http.NewServeMux()

	// Holder routes
	mux.HandleFunc("POST /api/v1/holders", a.RegisterHolderHandler)
	mux.HandleFunc("POST /api/v1/login", a.LoginHandler)
	mux.HandleFunc("GET /api/v1/holders/{id}/accounts", a.AuthMiddleware(a.ListHolderAccountsHandler))
	mux.HandleFunc("GET /api/v1/holders/{id}/loans", a.AuthMiddleware(a.ListHolderLoansHandler))

	// Account routes
	mux.HandleFunc("POST /api/v1/accounts", a.AuthMiddleware(a.OpenAccountHandler))
	mux.HandleFunc("GET /api/v1/accounts/{id}", a.AuthMiddleware(a.GetAccountHandler))
	mux.HandleFunc("GET /api/v1/accounts/{id}/transactions", a.AuthMiddleware(a.ListTransactionsHandler))

	// Transaction routes
	mux.HandleFunc("POST /api/v1/transactions/transfer", a.AuthMiddleware(a.TransferHandler))
	mux.HandleFunc("GET /api/v1/transactions/{id}", a.AuthMiddleware(a.GetTransactionHandler))

	// Loan routes
	mux.HandleFunc("POST /api/v1/loans", a.AuthMiddleware(a.ApplyLoanHandler))
	mux.HandleFunc("GET /api/v1/loans/{id}", a.AuthMiddleware(a.GetLoanHandler))
	mux.HandleFunc("POST /api/v1/loans/{id}/disburse", a.AuthMiddleware(a.DisburseLoanHandler))
	mux.HandleFunc("POST /api/v1/loans/{id}/repay", a.AuthMiddleware(a.RepayLoanHandler))

	return mux
}
