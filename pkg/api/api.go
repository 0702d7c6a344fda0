// Package api exposes accounts, queries and transfer workflows over HTTP
package api

import (
	"net/http"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/router"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/query"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/transfers"
)

var logger = diag.CreateLogger()

const healthcheckPath = "/v1/healthcheck/ping"

// Services are dependencies of the api handlers
type Services struct {
	Ledger    ledger.Ledger
	Queries   query.Service
	Transfers transfers.Service
}

// SetupRoutes registers middlewares and all api routes
func SetupRoutes(r router.Router, svc Services) {
	r.Use(diag.NewRequestIDMiddleware())
	r.Use(diag.NewLogRequestsMiddleware(
		diag.IgnorePath(healthcheckPath),
		diag.ObfuscateHeaders("authorization"),
	))

	r.Handle("GET", healthcheckPath, router.ToolkitHandlerFunc(ping))

	r.Handle("GET", "/v1/accounts", listAccounts(svc.Ledger))
	r.Handle("GET", "/v1/accounts/:type/balance", getBalance(svc.Queries))
	r.Handle("GET", "/v1/accounts/:type/transactions", getTransactionHistory(svc.Queries))

	r.Handle("POST", "/v1/transfers", createTransfer(svc.Transfers))
	r.Handle("GET", "/v1/transfers/:id", getTransfer(svc.Transfers))
	r.Handle("PUT", "/v1/transfers/:id", updateTransfer(svc.Transfers))
	r.Handle("POST", "/v1/transfers/:id/review", transferAction(svc.Transfers.Validate))
	r.Handle("POST", "/v1/transfers/:id/authentication", transferAction(svc.Transfers.RequestAuthentication))
	r.Handle("POST", "/v1/transfers/:id/authentication/resend", transferAction(svc.Transfers.ResendChallenge))
	r.Handle("POST", "/v1/transfers/:id/verify", verifyTransfer(svc.Transfers))
	r.Handle("POST", "/v1/transfers/:id/cancel", transferAction(svc.Transfers.Cancel))

	r.NotFound(router.NotFoundHandler())
}

func ping(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	return h.WriteJSON(map[string]string{"status": "ok"})
}
