package ledger

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/idempotency"
)

// Journal is a durable storage of accounts and their transactions
type Journal interface {
	// LoadAccounts returns all accounts with balance set to the seed balance
	LoadAccounts(ctx context.Context) ([]Account, error)

	// LoadAll returns account transactions in the order they were appended
	LoadAll(ctx context.Context, accountID string) ([]TransactionRecord, error)

	// Append stores the record. Returns idempotency.ErrDuplicate if the id is taken
	Append(ctx context.Context, record *TransactionRecord) error

	Find(ctx context.Context, id string) (*TransactionRecord, bool, error)
}

type memoryJournal struct {
	mux      sync.RWMutex
	accounts []Account
	records  []TransactionRecord
	byID     map[string]int
}

func (j *memoryJournal) LoadAccounts(ctx context.Context) ([]Account, error) {
	j.mux.RLock()
	defer j.mux.RUnlock()
	result := make([]Account, 0, len(j.accounts))
	for _, acc := range j.accounts {
		result = append(result, *acc.copy())
	}
	return result, nil
}

func (j *memoryJournal) LoadAll(ctx context.Context, accountID string) ([]TransactionRecord, error) {
	j.mux.RLock()
	defer j.mux.RUnlock()
	result := []TransactionRecord{}
	for _, rec := range j.records {
		if rec.AccountID == accountID {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (j *memoryJournal) Append(ctx context.Context, record *TransactionRecord) error {
	j.mux.Lock()
	defer j.mux.Unlock()
	if _, ok := j.byID[record.ID]; ok {
		return idempotency.ErrDuplicate
	}
	j.byID[record.ID] = len(j.records)
	j.records = append(j.records, *record)
	return nil
}

func (j *memoryJournal) Find(ctx context.Context, id string) (*TransactionRecord, bool, error) {
	j.mux.RLock()
	defer j.mux.RUnlock()
	idx, ok := j.byID[id]
	if !ok {
		return nil, false, nil
	}
	rec := j.records[idx]
	return &rec, true, nil
}

// NewMemoryJournal creates a non durable journal with given accounts
func NewMemoryJournal(accounts ...Account) Journal {
	j := &memoryJournal{
		accounts: make([]Account, 0, len(accounts)),
		byID:     map[string]int{},
	}
	for _, acc := range accounts {
		acc.Balance = acc.SeedBalance
		acc.Transactions = nil
		j.accounts = append(j.accounts, acc)
	}
	return j
}

// journalLog exposes a journal as an idempotency log so the set of
// known keys is exactly the set of appended transactions
type journalLog struct {
	journal Journal
}

func (l *journalLog) Append(ctx context.Context, record idempotency.Record) error {
	trx, ok := record.(*TransactionRecord)
	if !ok {
		return errors.Errorf("Unexpected record type: %T", record)
	}
	return l.journal.Append(ctx, trx)
}

func (l *journalLog) Find(ctx context.Context, key string) (idempotency.Record, bool, error) {
	trx, ok, err := l.journal.Find(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return trx, true, nil
}

// NewJournalLog adapts the journal to be used as an idempotency log
func NewJournalLog(journal Journal) idempotency.Log {
	return &journalLog{journal: journal}
}
