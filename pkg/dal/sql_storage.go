package dal

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type sqlStorage struct {
	db *sql.DB
}

func (s *sqlStorage) Setup(ctx context.Context) error {
	logger.Info(ctx, "Setup SQL storage")
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS accounts(
	id           nvarchar(255) NOT NULL PRIMARY KEY,
	type         nvarchar(30) NOT NULL UNIQUE,
	number       nvarchar(30) NOT NULL,
	seed_balance nvarchar(255) NOT NULL,
	created_at   timestamp NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions(
	id            nvarchar(255) NOT NULL PRIMARY KEY,
	account_id    nvarchar(255) NOT NULL,
	amount        nvarchar(255) NOT NULL,
	fee           nvarchar(255) NOT NULL,
	kind          nvarchar(30) NOT NULL,
	category      nvarchar(255) NOT NULL,
	description   nvarchar(255) NOT NULL,
	status        nvarchar(30) NOT NULL,
	balance_after nvarchar(255) NOT NULL,
	created_at    timestamp NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_account_id ON transactions(account_id);
CREATE TABLE IF NOT EXISTS transfers(
	id         nvarchar(255) NOT NULL PRIMARY KEY,
	state      nvarchar(30) NOT NULL,
	payload    TEXT NOT NULL,
	updated_at timestamp NOT NULL
);
`)
	return errors.Wrap(err, "Failed to setup storage")
}

func (s *sqlStorage) SaveAccount(ctx context.Context, account *AccountDTO) error {
	if _, err := s.db.ExecContext(ctx, `
	INSERT INTO accounts(id, type, number, seed_balance, created_at)
	VALUES($1, $2, $3, $4, $5)
	ON CONFLICT(id) DO UPDATE
	SET type=$2, number=$3, seed_balance=$4
	`, account.ID, account.Type, account.Number, account.SeedBalance, account.CreatedAt); err != nil {
		return errors.Wrapf(err, "Failed to save account %v", account.ID)
	}
	return nil
}

func (s *sqlStorage) ListAccounts(ctx context.Context) ([]AccountDTO, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, type, number, seed_balance, created_at
	FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []AccountDTO{}
	for rows.Next() {
		var account AccountDTO
		if err := rows.Scan(
			&account.ID,
			&account.Type,
			&account.Number,
			&account.SeedBalance,
			&account.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

func isPrimaryKeyViolation(err error) bool {
	sqliteErr, ok := err.(sqlite3.Error)
	return ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (s *sqlStorage) AppendTransaction(ctx context.Context, trx *TransactionDTO) error {
	if _, err := s.db.ExecContext(ctx, `
	INSERT INTO transactions(
		id,
		account_id,
		amount,
		fee,
		kind,
		category,
		description,
		status,
		balance_after,
		created_at
	)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		trx.ID,
		trx.AccountID,
		trx.Amount,
		trx.Fee,
		trx.Kind,
		trx.Category,
		trx.Description,
		trx.Status,
		trx.BalanceAfter,
		trx.CreatedAt,
	); err != nil {
		if isPrimaryKeyViolation(err) {
			return ErrDuplicateTransaction
		}
		return errors.Wrapf(err, "Failed to append transaction %v", trx.ID)
	}
	return nil
}

const selectTransactions = `
	SELECT
		id, account_id, amount, fee, kind, category, description, status, balance_after, created_at
	FROM transactions`

func scanTransaction(scanner interface{ Scan(dest ...interface{}) error }, trx *TransactionDTO) error {
	return scanner.Scan(
		&trx.ID,
		&trx.AccountID,
		&trx.Amount,
		&trx.Fee,
		&trx.Kind,
		&trx.Category,
		&trx.Description,
		&trx.Status,
		&trx.BalanceAfter,
		&trx.CreatedAt,
	)
}

func (s *sqlStorage) FindTransaction(ctx context.Context, id string) (*TransactionDTO, error) {
	row := s.db.QueryRowContext(ctx, selectTransactions+" WHERE id = $1", id)
	var trx TransactionDTO
	if err := scanTransaction(row, &trx); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &trx, nil
}

func (s *sqlStorage) LoadTransactions(ctx context.Context, accountID string) ([]TransactionDTO, error) {
	rows, err := s.db.QueryContext(ctx, selectTransactions+" WHERE account_id = $1 ORDER BY rowid", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []TransactionDTO{}
	for rows.Next() {
		var trx TransactionDTO
		if err := scanTransaction(rows, &trx); err != nil {
			return nil, err
		}
		result = append(result, trx)
	}
	return result, rows.Err()
}

func (s *sqlStorage) SaveTransfer(ctx context.Context, transfer *TransferDTO) error {
	if _, err := s.db.ExecContext(ctx, `
	INSERT INTO transfers(id, state, payload, updated_at)
	VALUES($1, $2, $3, $4)
	ON CONFLICT(id) DO UPDATE
	SET state=$2, payload=$3, updated_at=$4
	`, transfer.ID, transfer.State, string(transfer.Payload), transfer.UpdatedAt); err != nil {
		return errors.Wrapf(err, "Failed to save transfer %v", transfer.ID)
	}
	return nil
}

func scanTransfer(scanner interface{ Scan(dest ...interface{}) error }, transfer *TransferDTO) error {
	var payload string
	if err := scanner.Scan(&transfer.ID, &transfer.State, &payload, &transfer.UpdatedAt); err != nil {
		return err
	}
	transfer.Payload = []byte(payload)
	return nil
}

func (s *sqlStorage) FindTransfer(ctx context.Context, id string) (*TransferDTO, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, state, payload, updated_at FROM transfers WHERE id = $1`, id)
	var transfer TransferDTO
	if err := scanTransfer(row, &transfer); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

func (s *sqlStorage) ListTransfers(ctx context.Context, states ...string) ([]TransferDTO, error) {
	query := "SELECT id, state, payload, updated_at FROM transfers"
	args := make([]interface{}, 0, len(states))
	if len(states) > 0 {
		placeholders := make([]string, 0, len(states))
		for _, state := range states {
			args = append(args, state)
			placeholders = append(placeholders, "?")
		}
		query += " WHERE state IN (" + strings.Join(placeholders, ", ") + ")"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY updated_at, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []TransferDTO{}
	for rows.Next() {
		var transfer TransferDTO
		if err := scanTransfer(rows, &transfer); err != nil {
			return nil, err
		}
		result = append(result, transfer)
	}
	return result, rows.Err()
}

// SQLStorageOpt is an option of SQL storage
type SQLStorageOpt func(s *sqlStorage)

// WithSQLDb will set an explicit db instance for a storage
func WithSQLDb(db *sql.DB) SQLStorageOpt {
	return func(s *sqlStorage) {
		s.db = db
	}
}

// NewSQLStorage returns an instance of a sql storage
func NewSQLStorage(opts ...SQLStorageOpt) (Storage, error) {
	storage := &sqlStorage{}
	for _, opt := range opts {
		opt(storage)
	}
	if storage.db == nil {
		return nil, errors.New("SQL db is required")
	}
	return storage, nil
}
