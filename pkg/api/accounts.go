package api

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/router"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/query"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

type accountResponse struct {
	ID      string            `json:"id"`
	Type    types.AccountType `json:"type"`
	Number  string            `json:"number"`
	Balance decimal.Decimal   `json:"balance"`
}

func listAccounts(l ledger.Ledger) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		accounts, err := l.ListAccounts(req.Context())
		if err != nil {
			return errors.Wrap(err, "Failed to list accounts")
		}
		result := make([]accountResponse, 0, len(accounts))
		for _, acc := range accounts {
			result = append(result, accountResponse{
				ID:      acc.ID,
				Type:    acc.Type,
				Number:  acc.Number.Masked(),
				Balance: acc.Balance,
			})
		}
		return h.WriteJSON(result)
	}
}

func queryError(err error) error {
	if errors.Cause(err) == types.ErrUnknownAccountType {
		return router.ResourceNotFoundError(err.Error())
	}
	return err
}

type accountParams struct {
	AccountType string `json:"type" validate:"required"`
}

func getBalance(queries query.Service) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		var params accountParams
		if err := h.BindParams().PathParam("type").String(&params.AccountType).Validate(&params); err != nil {
			return err
		}
		balance, err := queries.GetBalance(req.Context(), params.AccountType)
		if err != nil {
			return queryError(err)
		}
		return h.WriteJSON(balance)
	}
}

type historyParams struct {
	AccountType string `json:"type" validate:"required"`
	Limit       int    `json:"limit" validate:"gte=0"`
}

func getTransactionHistory(queries query.Service) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		var params historyParams
		if err := h.BindParams().
			PathParam("type").String(&params.AccountType).
			QueryParam("limit").Default("0").Int(&params.Limit).
			Validate(&params); err != nil {
			return err
		}
		items, err := queries.GetTransactionHistory(req.Context(), params.AccountType, params.Limit)
		if err != nil {
			return queryError(err)
		}
		return h.WriteJSON(items)
	}
}
