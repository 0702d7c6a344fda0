package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/idempotency"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

type sqlJournal struct {
	storage dal.Storage
}

func (j *sqlJournal) LoadAccounts(ctx context.Context) ([]Account, error) {
	dtos, err := j.storage.ListAccounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list accounts")
	}
	result := make([]Account, 0, len(dtos))
	for _, dto := range dtos {
		seed, err := decimal.NewFromString(dto.SeedBalance)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad seed balance of account %v", dto.ID)
		}
		accType, err := types.ParseAccountType(dto.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad type of account %v", dto.ID)
		}
		result = append(result, Account{
			ID:          dto.ID,
			Type:        accType,
			Number:      types.AccountNumber(dto.Number),
			Balance:     seed,
			SeedBalance: seed,
		})
	}
	return result, nil
}

func fromTransactionDTO(dto *dal.TransactionDTO) (*TransactionRecord, error) {
	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "Bad amount of transaction %v", dto.ID)
	}
	fee, err := decimal.NewFromString(dto.Fee)
	if err != nil {
		return nil, errors.Wrapf(err, "Bad fee of transaction %v", dto.ID)
	}
	balanceAfter, err := decimal.NewFromString(dto.BalanceAfter)
	if err != nil {
		return nil, errors.Wrapf(err, "Bad balance of transaction %v", dto.ID)
	}
	return &TransactionRecord{
		ID:           dto.ID,
		AccountID:    dto.AccountID,
		Amount:       amount,
		Fee:          fee,
		Kind:         TransactionKind(dto.Kind),
		Category:     dto.Category,
		Description:  dto.Description,
		Status:       TransactionStatus(dto.Status),
		BalanceAfter: balanceAfter,
		Timestamp:    dto.CreatedAt.UTC(),
	}, nil
}

func toTransactionDTO(record *TransactionRecord) *dal.TransactionDTO {
	return &dal.TransactionDTO{
		ID:           record.ID,
		AccountID:    record.AccountID,
		Amount:       record.Amount.String(),
		Fee:          record.Fee.String(),
		Kind:         string(record.Kind),
		Category:     record.Category,
		Description:  record.Description,
		Status:       string(record.Status),
		BalanceAfter: record.BalanceAfter.String(),
		CreatedAt:    record.Timestamp,
	}
}

func (j *sqlJournal) LoadAll(ctx context.Context, accountID string) ([]TransactionRecord, error) {
	dtos, err := j.storage.LoadTransactions(ctx, accountID)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load transactions of %v", accountID)
	}
	result := make([]TransactionRecord, 0, len(dtos))
	for i := range dtos {
		record, err := fromTransactionDTO(&dtos[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, nil
}

func (j *sqlJournal) Append(ctx context.Context, record *TransactionRecord) error {
	if err := j.storage.AppendTransaction(ctx, toTransactionDTO(record)); err != nil {
		if err == dal.ErrDuplicateTransaction {
			return idempotency.ErrDuplicate
		}
		return err
	}
	return nil
}

func (j *sqlJournal) Find(ctx context.Context, id string) (*TransactionRecord, bool, error) {
	dto, err := j.storage.FindTransaction(ctx, id)
	if err != nil {
		if err == dal.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	record, err := fromTransactionDTO(dto)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// NewSQLJournal creates a journal on top of the sql storage
func NewSQLJournal(storage dal.Storage) Journal {
	return &sqlJournal{storage: storage}
}

// SaveAccount stores an account with its seed balance. Used to provision
// accounts before the ledger is loaded
func SaveAccount(ctx context.Context, storage dal.Storage, account Account) error {
	if _, err := types.ParseAccountType(string(account.Type)); err != nil {
		return errors.Wrapf(err, "Bad type of account %v", account.ID)
	}
	return storage.SaveAccount(ctx, &dal.AccountDTO{
		ID:          account.ID,
		Type:        string(account.Type),
		Number:      account.Number.Value(),
		SeedBalance: account.SeedBalance.String(),
		CreatedAt:   time.Now().UTC(),
	})
}
