package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

// TransactionKind is a direction of a transaction
type TransactionKind string

const (
	// KindCredit increases the balance
	KindCredit TransactionKind = "credit"

	// KindDebit decreases the balance
	KindDebit TransactionKind = "debit"
)

// TransactionStatus is a status of a transaction
type TransactionStatus string

const (
	// StatusPending is never visible outside of the ledger
	StatusPending TransactionStatus = "pending"

	// StatusCompleted transactions contribute to the balance
	StatusCompleted TransactionStatus = "completed"

	// StatusFailed transactions are kept for history only
	StatusFailed TransactionStatus = "failed"
)

// TransactionRecord is an immutable journal entry of an account
type TransactionRecord struct {
	ID        string
	AccountID string

	// Amount is signed, debits are negative. Includes the fee
	Amount decimal.Decimal
	Fee    decimal.Decimal

	Kind         TransactionKind
	Category     string
	Description  string
	Status       TransactionStatus
	BalanceAfter decimal.Decimal
	Timestamp    time.Time
}

// IdempotencyKey returns the transaction id
func (r *TransactionRecord) IdempotencyKey() string {
	return r.ID
}

// Account is a snapshot of an account state. Callers always get copies
type Account struct {
	ID           string
	Type         types.AccountType
	Number       types.AccountNumber
	Balance      decimal.Decimal
	SeedBalance  decimal.Decimal
	Transactions []TransactionRecord
}

func (a *Account) copy() *Account {
	result := *a
	result.Transactions = make([]TransactionRecord, len(a.Transactions))
	copy(result.Transactions, a.Transactions)
	return &result
}

// Debit is a request to move funds out of an account
type Debit struct {
	FromAccountID string
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	TransactionID string
	Description   string
	Category      string
}

// Total is the amount that will be taken from the account
func (d Debit) Total() decimal.Decimal {
	return d.Amount.Add(d.Fee)
}
