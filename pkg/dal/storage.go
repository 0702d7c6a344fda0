package dal

import (
	"context"
	"errors"
	"time"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
)

var logger = diag.CreateLogger()

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("Not found")

// ErrDuplicateTransaction is returned when a transaction with the same id is already stored
var ErrDuplicateTransaction = errors.New("Duplicate transaction")

// AccountDTO is a DTO to store an account. Balances are decimal strings
type AccountDTO struct {
	ID          string
	Type        string
	Number      string
	SeedBalance string
	CreatedAt   time.Time
}

// TransactionDTO is a DTO to store a journal entry
type TransactionDTO struct {
	ID           string
	AccountID    string
	Amount       string
	Fee          string
	Kind         string
	Category     string
	Description  string
	Status       string
	BalanceAfter string
	CreatedAt    time.Time
}

// TransferDTO is a DTO to store a transfer workflow snapshot
type TransferDTO struct {
	ID        string
	State     string
	Payload   []byte
	UpdatedAt time.Time
}

// Storage is a persistance layer
type Storage interface {
	Setup(ctx context.Context) error

	SaveAccount(ctx context.Context, account *AccountDTO) error
	ListAccounts(ctx context.Context) ([]AccountDTO, error)

	// AppendTransaction fails with ErrDuplicateTransaction if the id is taken
	AppendTransaction(ctx context.Context, trx *TransactionDTO) error
	FindTransaction(ctx context.Context, id string) (*TransactionDTO, error)

	// LoadTransactions returns account transactions in the order they were appended
	LoadTransactions(ctx context.Context, accountID string) ([]TransactionDTO, error)

	SaveTransfer(ctx context.Context, transfer *TransferDTO) error
	FindTransfer(ctx context.Context, id string) (*TransferDTO, error)

	// ListTransfers returns transfers in given states, all if no states given
	ListTransfers(ctx context.Context, states ...string) ([]TransferDTO, error)
}
