// Package ledger holds authoritative account balances. ApplyTransfer is the only
// way to change a balance.
package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/idempotency"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

var logger = diag.CreateLogger()

const defaultLockWait = 5 * time.Second

// Ledger owns accounts and their balances
type Ledger interface {
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// CheckFunds is advisory only. The result may be stale by the time
	// ApplyTransfer is invoked
	CheckFunds(ctx context.Context, accountID string, total decimal.Decimal) (bool, error)

	// ApplyTransfer debits the account by amount + fee at most once per
	// transaction id. A repeated id returns the originally stored record
	ApplyTransfer(ctx context.Context, debit Debit) (*TransactionRecord, error)

	GetAccount(ctx context.Context, accountID string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	FindAccountByType(ctx context.Context, accountType types.AccountType) (*Account, error)

	// History returns newest transactions first. All if limit <= 0
	History(ctx context.Context, accountID string, limit int) ([]TransactionRecord, error)
}

type accountEntry struct {
	lock    *accountLock
	account *Account
}

type ledger struct {
	journal  Journal
	store    idempotency.Store
	lockWait time.Duration
	now      func() time.Time

	// not modified after Load
	accounts map[string]*accountEntry
	order    []string
}

func (l *ledger) entry(accountID string) (*accountEntry, error) {
	entry, ok := l.accounts[accountID]
	if !ok {
		return nil, errors.Wrapf(ErrAccountNotFound, "Account %v", accountID)
	}
	return entry, nil
}

func (l *ledger) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	entry, err := l.entry(accountID)
	if err != nil {
		return decimal.Zero, err
	}
	entry.lock.state.RLock()
	defer entry.lock.state.RUnlock()
	return entry.account.Balance, nil
}

func (l *ledger) CheckFunds(ctx context.Context, accountID string, total decimal.Decimal) (bool, error) {
	balance, err := l.GetBalance(ctx, accountID)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(total), nil
}

func (l *ledger) ApplyTransfer(ctx context.Context, debit Debit) (*TransactionRecord, error) {
	if debit.TransactionID == "" {
		return nil, errors.New("Transaction id is required")
	}
	if !debit.Amount.IsPositive() || debit.Fee.IsNegative() {
		return nil, errors.Errorf("Invalid debit amount %v or fee %v", debit.Amount, debit.Fee)
	}
	entry, err := l.entry(debit.FromAccountID)
	if err != nil {
		return nil, err
	}

	if err := entry.lock.acquire(ctx, l.lockWait); err != nil {
		logger.Warn(ctx, "Failed to acquire lock of account %v within %v", debit.FromAccountID, l.lockWait)
		return nil, err
	}
	defer entry.lock.release()

	stored, found, err := l.store.Lookup(ctx, debit.TransactionID)
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to lookup transaction %v", debit.TransactionID)
		return nil, errors.Wrapf(ErrLedgerUnavailable, "Lookup %v: %v", debit.TransactionID, err)
	}
	if found {
		logger.Info(ctx, "Transaction %v has already been applied", debit.TransactionID)
		return replayRecord(stored, debit)
	}

	entry.lock.state.RLock()
	balance := entry.account.Balance
	entry.lock.state.RUnlock()

	total := debit.Total()
	if balance.LessThan(total) {
		logger.
			WithData(diag.MsgData{"balance": balance.String(), "total": total.String()}).
			Info(ctx, "Insufficient funds on account %v", debit.FromAccountID)
		return nil, errors.Wrapf(ErrInsufficientFunds, "Account %v", debit.FromAccountID)
	}

	record := &TransactionRecord{
		ID:           debit.TransactionID,
		AccountID:    debit.FromAccountID,
		Amount:       total.Neg(),
		Fee:          debit.Fee,
		Kind:         KindDebit,
		Category:     debit.Category,
		Description:  debit.Description,
		Status:       StatusCompleted,
		BalanceAfter: balance.Sub(total),
		Timestamp:    l.now().UTC(),
	}
	existed, stored, err := l.store.RecordIfAbsent(ctx, record)
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to record transaction %v", debit.TransactionID)
		return nil, errors.Wrapf(ErrLedgerUnavailable, "Record %v: %v", debit.TransactionID, err)
	}
	if existed {
		return replayRecord(stored, debit)
	}

	entry.lock.state.Lock()
	entry.account.Balance = record.BalanceAfter
	entry.account.Transactions = append(entry.account.Transactions, *record)
	entry.lock.state.Unlock()

	logger.
		WithData(diag.MsgData{"amount": record.Amount.String(), "balance": record.BalanceAfter.String()}).
		Info(ctx, "Applied transaction %v to account %v", record.ID, record.AccountID)
	result := *record
	return &result, nil
}

// replayRecord returns the stored record if it was applied to the same account
func replayRecord(stored idempotency.Record, debit Debit) (*TransactionRecord, error) {
	record := copyRecord(stored)
	if record.AccountID != debit.FromAccountID {
		return nil, errors.Wrapf(ErrTransactionConflict,
			"Transaction %v belongs to account %v", debit.TransactionID, record.AccountID)
	}
	return record, nil
}

func copyRecord(record idempotency.Record) *TransactionRecord {
	result := *record.(*TransactionRecord)
	return &result
}

func (l *ledger) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	entry, err := l.entry(accountID)
	if err != nil {
		return nil, err
	}
	entry.lock.state.RLock()
	defer entry.lock.state.RUnlock()
	return entry.account.copy(), nil
}

func (l *ledger) ListAccounts(ctx context.Context) ([]Account, error) {
	result := make([]Account, 0, len(l.order))
	for _, id := range l.order {
		acc, err := l.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *acc)
	}
	return result, nil
}

func (l *ledger) FindAccountByType(ctx context.Context, accountType types.AccountType) (*Account, error) {
	for _, id := range l.order {
		if l.accounts[id].account.Type == accountType {
			return l.GetAccount(ctx, id)
		}
	}
	return nil, errors.Wrapf(ErrAccountNotFound, "Account of type %v", accountType)
}

func (l *ledger) History(ctx context.Context, accountID string, limit int) ([]TransactionRecord, error) {
	entry, err := l.entry(accountID)
	if err != nil {
		return nil, err
	}
	entry.lock.state.RLock()
	defer entry.lock.state.RUnlock()
	total := len(entry.account.Transactions)
	count := total
	if limit > 0 && limit < total {
		count = limit
	}
	result := make([]TransactionRecord, 0, count)
	for i := total - 1; i >= total-count; i-- {
		result = append(result, entry.account.Transactions[i])
	}
	return result, nil
}

// Opt is an option of the ledger
type Opt func(l *ledger)

// WithJournal sets the journal to load accounts from and append transactions to
func WithJournal(journal Journal) Opt {
	return func(l *ledger) {
		l.journal = journal
	}
}

// WithIdempotencyStore overrides the store. By default the journal is used
func WithIdempotencyStore(store idempotency.Store) Opt {
	return func(l *ledger) {
		l.store = store
	}
}

// WithLockWait sets max time to wait for the account lock
func WithLockWait(wait time.Duration) Opt {
	return func(l *ledger) {
		l.lockWait = wait
	}
}

// WithNow sets a function to timestamp transactions
func WithNow(now func() time.Time) Opt {
	return func(l *ledger) {
		l.now = now
	}
}

// Load creates the ledger and replays all journal transactions
func Load(ctx context.Context, opts ...Opt) (Ledger, error) {
	l := &ledger{
		lockWait: defaultLockWait,
		now:      time.Now,
		accounts: map[string]*accountEntry{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.journal == nil {
		return nil, errors.New("Journal is required")
	}
	if l.store == nil {
		l.store = idempotency.NewStore(NewJournalLog(l.journal))
	}

	accounts, err := l.journal.LoadAccounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to load accounts")
	}
	for i := range accounts {
		acc := accounts[i]
		if _, ok := l.accounts[acc.ID]; ok {
			return nil, errors.Errorf("Duplicate account %v", acc.ID)
		}
		records, err := l.journal.LoadAll(ctx, acc.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load transactions of account %v", acc.ID)
		}
		acc.Balance = acc.SeedBalance
		acc.Transactions = make([]TransactionRecord, 0, len(records))
		for _, rec := range records {
			if rec.Status == StatusCompleted {
				acc.Balance = acc.Balance.Add(rec.Amount)
			}
			acc.Transactions = append(acc.Transactions, rec)
		}
		if acc.Balance.IsNegative() {
			logger.Warn(ctx, "Account %v replayed to negative balance %v", acc.ID, acc.Balance)
		}
		logger.Debug(ctx, "Loaded account %v with %v transactions", acc.ID, len(records))
		l.accounts[acc.ID] = &accountEntry{lock: newAccountLock(), account: &acc}
		l.order = append(l.order, acc.ID)
	}
	logger.Info(ctx, "Ledger loaded with %v accounts", len(l.order))
	return l, nil
}
