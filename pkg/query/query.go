// Package query is a read-only view of accounts for external consumers
package query

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

var logger = diag.CreateLogger()

const dateLayout = "2006-01-02"

// Balance is a current balance of an account
type Balance struct {
	AccountType   types.AccountType `json:"accountType"`
	AccountNumber string            `json:"accountNumber"`
	Balance       decimal.Decimal   `json:"balance"`
}

// HistoryItem is a single transaction of an account
type HistoryItem struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
}

// Service answers balance and history questions
type Service interface {
	GetBalance(ctx context.Context, accountType string) (*Balance, error)

	// GetTransactionHistory returns newest transactions first, all if limit <= 0
	GetTransactionHistory(ctx context.Context, accountType string, limit int) ([]HistoryItem, error)
}

type service struct {
	ledger ledger.Ledger
}

func (s *service) findAccount(ctx context.Context, accountType string) (*ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accType, err := types.ParseAccountType(accountType)
	if err != nil {
		return nil, err
	}
	acc, err := s.ledger.FindAccountByType(ctx, accType)
	if err != nil {
		if errors.Cause(err) == ledger.ErrAccountNotFound {
			return nil, errors.Wrapf(types.ErrUnknownAccountType, "No %v account", accType)
		}
		return nil, err
	}
	return acc, nil
}

func (s *service) GetBalance(ctx context.Context, accountType string) (*Balance, error) {
	acc, err := s.findAccount(ctx, accountType)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Balance of %v account requested", acc.Type)
	return &Balance{
		AccountType:   acc.Type,
		AccountNumber: acc.Number.Masked(),
		Balance:       acc.Balance,
	}, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, accountType string, limit int) ([]HistoryItem, error) {
	acc, err := s.findAccount(ctx, accountType)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.History(ctx, acc.ID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get history of %v account", acc.Type)
	}
	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, HistoryItem{
			Date:        rec.Timestamp.Format(dateLayout),
			Description: rec.Description,
			Amount:      rec.Amount,
			Type:        string(rec.Kind),
		})
	}
	logger.Debug(ctx, "Returning %v transactions of %v account", len(items), acc.Type)
	return items, nil
}

// NewService creates a query service over the ledger
func NewService(l ledger.Ledger) Service {
	return &service{ledger: l}
}
