package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/router"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/transfers"
)

type transferPayload struct {
	FromAccountID          string           `json:"fromAccountId"`
	RecipientName          string           `json:"recipientName"`
	RecipientBank          string           `json:"recipientBank"`
	RecipientAccountNumber string           `json:"recipientAccountNumber"`
	Amount                 decimal.Decimal  `json:"amount"`
	Fee                    *decimal.Decimal `json:"fee"`
	Timing                 string           `json:"timing"`
	ScheduledAt            *time.Time       `json:"scheduledAt"`
	Memo                   string           `json:"memo"`
	SaveRecipient          bool             `json:"saveRecipient"`
}

func (p *transferPayload) input() transfers.Input {
	timing := transfers.Timing(p.Timing)
	if timing == "" {
		timing = transfers.TimingImmediate
	}
	return transfers.Input{
		FromAccountID:          p.FromAccountID,
		RecipientName:          p.RecipientName,
		RecipientBank:          p.RecipientBank,
		RecipientAccountNumber: p.RecipientAccountNumber,
		Amount:                 p.Amount,
		Fee:                    p.Fee,
		Timing:                 timing,
		ScheduledAt:            p.ScheduledAt,
		Memo:                   p.Memo,
		SaveRecipient:          p.SaveRecipient,
	}
}

type verifyPayload struct {
	Code string `json:"code" validate:"required"`
}

type transferParams struct {
	ID string `json:"id" validate:"required"`
}

type authFailureDetails struct {
	State        transfers.State `json:"state"`
	AttemptsLeft int             `json:"attemptsLeft"`
}

type stateDetails struct {
	State transfers.State `json:"state"`
}

// transferError maps workflow errors to http errors. Snapshot may be nil
func transferError(err error, snapshot *transfers.Transfer) error {
	wfErr, ok := errors.Cause(err).(*transfers.Error)
	if !ok {
		return err
	}
	var details interface{}
	if snapshot != nil {
		details = stateDetails{State: snapshot.State}
	}
	switch wfErr.Category {
	case transfers.CategoryValidation:
		return router.NewHTTPErrorWithDetails(http.StatusUnprocessableEntity, wfErr.Message, wfErr.Fields)
	case transfers.CategoryInsufficientFunds, transfers.CategoryInvalidState:
		return router.NewHTTPErrorWithDetails(http.StatusConflict, wfErr.Message, details)
	case transfers.CategoryAuthenticationFailed:
		failure := authFailureDetails{AttemptsLeft: wfErr.AttemptsLeft}
		if snapshot != nil {
			failure.State = snapshot.State
		}
		return router.NewHTTPErrorWithDetails(http.StatusUnauthorized, wfErr.Message, failure)
	case transfers.CategoryNotFound:
		return router.ResourceNotFoundError(wfErr.Message)
	case transfers.CategoryTransient:
		return router.NewHTTPErrorWithDetails(http.StatusServiceUnavailable, wfErr.Message, details)
	}
	return err
}

func bindTransferID(h router.HandlerToolkit) (string, error) {
	var params transferParams
	if err := h.BindParams().PathParam("id").String(&params.ID).Validate(&params); err != nil {
		return "", err
	}
	return params.ID, nil
}

func createTransfer(svc transfers.Service) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		var payload transferPayload
		if err := h.BindPayload(&payload); err != nil {
			return err
		}
		transfer, err := svc.Create(req.Context(), payload.input())
		if err != nil {
			return transferError(err, nil)
		}
		return h.WriteJSON(transfer,
			h.WithHeader("location", "/v1/transfers/"+transfer.ID),
			h.WithStatus(http.StatusCreated),
		)
	}
}

func getTransfer(svc transfers.Service) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		id, err := bindTransferID(h)
		if err != nil {
			return err
		}
		transfer, err := svc.Get(req.Context(), id)
		if err != nil {
			return transferError(err, nil)
		}
		return h.WriteJSON(transfer)
	}
}

func updateTransfer(svc transfers.Service) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		id, err := bindTransferID(h)
		if err != nil {
			return err
		}
		var payload transferPayload
		if err := h.BindPayload(&payload); err != nil {
			return err
		}
		transfer, err := svc.Update(req.Context(), id, payload.input())
		if err != nil {
			return transferError(err, transfer)
		}
		return h.WriteJSON(transfer)
	}
}

type transferActionFunc func(ctx context.Context, id string) (*transfers.Transfer, error)

func transferAction(action transferActionFunc) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		id, err := bindTransferID(h)
		if err != nil {
			return err
		}
		transfer, err := action(req.Context(), id)
		if err != nil {
			return transferError(err, transfer)
		}
		return h.WriteJSON(transfer)
	}
}

func verifyTransfer(svc transfers.Service) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		id, err := bindTransferID(h)
		if err != nil {
			return err
		}
		var payload verifyPayload
		if err := h.BindPayload(&payload); err != nil {
			return err
		}
		transfer, err := svc.Verify(req.Context(), id, payload.Code)
		if err != nil {
			return transferError(err, transfer)
		}
		return h.WriteJSON(transfer)
	}
}
