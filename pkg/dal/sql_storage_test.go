package dal

import (
	"context"
	"database/sql"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/stretchr/testify/assert"
)

func init() {
	rand.Seed(time.Now().Unix())
}

func setupStorage(t *testing.T) (Storage, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	s, err := NewSQLStorage(WithSQLDb(db))
	if err != nil {
		panic(err)
	}
	if err := s.Setup(context.Background()); err != nil {
		panic(err)
	}
	return s, func() { db.Close() }
}

func randomAccount() *AccountDTO {
	return &AccountDTO{
		ID:          "acc-" + faker.UUIDHyphenated(),
		Type:        "type-" + faker.Word() + strconv.Itoa(rand.Int()),
		Number:      strconv.Itoa(10000000 + rand.Intn(89999999)),
		SeedBalance: strconv.Itoa(rand.Intn(10000)) + ".50",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func randomTransaction(accountID string) *TransactionDTO {
	return &TransactionDTO{
		ID:           "trx-" + faker.UUIDHyphenated(),
		AccountID:    accountID,
		Amount:       "-" + strconv.Itoa(rand.Intn(1000)) + ".25",
		Fee:          "2.5",
		Kind:         "debit",
		Category:     faker.Word(),
		Description:  faker.Sentence(),
		Status:       "completed",
		BalanceAfter: strconv.Itoa(rand.Intn(1000)),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func assertSameTime(t *testing.T, want time.Time, got time.Time) {
	assert.True(t, want.Equal(got), "want %v, got %v", want, got)
}

func TestNewSQLStorage(t *testing.T) {
	_, err := NewSQLStorage()
	assert.EqualError(t, err, "SQL db is required")
}

func Test_sqlStorage_Accounts(t *testing.T) {
	type testCase struct {
		name   string
		setup  func(s Storage) []*AccountDTO
		assert func(t *testing.T, want []*AccountDTO, got []AccountDTO, err error)
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{
				name:  "empty",
				setup: func(s Storage) []*AccountDTO { return nil },
				assert: func(t *testing.T, want []*AccountDTO, got []AccountDTO, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Len(t, got, 0)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "save and list",
				setup: func(s Storage) []*AccountDTO {
					acc1 := randomAccount()
					acc2 := randomAccount()
					acc2.CreatedAt = acc1.CreatedAt.Add(time.Second)
					for _, acc := range []*AccountDTO{acc1, acc2} {
						if err := s.SaveAccount(context.Background(), acc); err != nil {
							panic(err)
						}
					}
					return []*AccountDTO{acc1, acc2}
				},
				assert: func(t *testing.T, want []*AccountDTO, got []AccountDTO, err error) {
					if !assert.NoError(t, err) || !assert.Len(t, got, len(want)) {
						return
					}
					for i, acc := range want {
						assertSameTime(t, acc.CreatedAt, got[i].CreatedAt)
						got[i].CreatedAt = acc.CreatedAt
						assert.Equal(t, *acc, got[i])
					}
				},
			}
		},
		func() testCase {
			return testCase{
				name: "update existing",
				setup: func(s Storage) []*AccountDTO {
					acc := randomAccount()
					if err := s.SaveAccount(context.Background(), acc); err != nil {
						panic(err)
					}
					updated := randomAccount()
					updated.ID = acc.ID
					updated.CreatedAt = acc.CreatedAt
					if err := s.SaveAccount(context.Background(), updated); err != nil {
						panic(err)
					}
					return []*AccountDTO{updated}
				},
				assert: func(t *testing.T, want []*AccountDTO, got []AccountDTO, err error) {
					if !assert.NoError(t, err) || !assert.Len(t, got, 1) {
						return
					}
					got[0].CreatedAt = want[0].CreatedAt
					assert.Equal(t, *want[0], got[0])
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			s, teardown := setupStorage(t)
			defer teardown()
			want := tt.setup(s)
			got, err := s.ListAccounts(context.Background())
			tt.assert(t, want, got, err)
		})
	}
}

func Test_sqlStorage_Transactions(t *testing.T) {
	type testCase struct {
		name string
		run  func(t *testing.T, s Storage)
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{
				name: "append and find",
				run: func(t *testing.T, s Storage) {
					trx := randomTransaction("acc-" + faker.Word())
					if !assert.NoError(t, s.AppendTransaction(context.Background(), trx)) {
						return
					}
					got, err := s.FindTransaction(context.Background(), trx.ID)
					if !assert.NoError(t, err) {
						return
					}
					assertSameTime(t, trx.CreatedAt, got.CreatedAt)
					got.CreatedAt = trx.CreatedAt
					assert.Equal(t, trx, got)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "find not existing",
				run: func(t *testing.T, s Storage) {
					_, err := s.FindTransaction(context.Background(), "trx-"+faker.UUIDHyphenated())
					assert.Equal(t, ErrNotFound, err)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "reject duplicate id",
				run: func(t *testing.T, s Storage) {
					trx := randomTransaction("acc-" + faker.Word())
					if !assert.NoError(t, s.AppendTransaction(context.Background(), trx)) {
						return
					}
					dup := randomTransaction(trx.AccountID)
					dup.ID = trx.ID
					assert.Equal(t, ErrDuplicateTransaction, s.AppendTransaction(context.Background(), dup))

					got, err := s.FindTransaction(context.Background(), trx.ID)
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, trx.Amount, got.Amount)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "load account transactions in append order",
				run: func(t *testing.T, s Storage) {
					accountID := "acc-" + faker.UUIDHyphenated()
					want := []string{}
					for i := 0; i < 5; i++ {
						trx := randomTransaction(accountID)
						if !assert.NoError(t, s.AppendTransaction(context.Background(), trx)) {
							return
						}
						want = append(want, trx.ID)
						other := randomTransaction("other-" + faker.Word())
						if !assert.NoError(t, s.AppendTransaction(context.Background(), other)) {
							return
						}
					}
					got, err := s.LoadTransactions(context.Background(), accountID)
					if !assert.NoError(t, err) {
						return
					}
					gotIDs := make([]string, 0, len(got))
					for _, trx := range got {
						gotIDs = append(gotIDs, trx.ID)
					}
					assert.Equal(t, want, gotIDs)
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			s, teardown := setupStorage(t)
			defer teardown()
			tt.run(t, s)
		})
	}
}

func Test_sqlStorage_Transfers(t *testing.T) {
	randomTransfer := func(state string) *TransferDTO {
		return &TransferDTO{
			ID:        faker.UUIDHyphenated(),
			State:     state,
			Payload:   []byte(`{"memo":"` + faker.Word() + `"}`),
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}
	type testCase struct {
		name string
		run  func(t *testing.T, s Storage)
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{
				name: "save and find",
				run: func(t *testing.T, s Storage) {
					transfer := randomTransfer("draft")
					if !assert.NoError(t, s.SaveTransfer(context.Background(), transfer)) {
						return
					}
					got, err := s.FindTransfer(context.Background(), transfer.ID)
					if !assert.NoError(t, err) {
						return
					}
					got.UpdatedAt = transfer.UpdatedAt
					assert.Equal(t, transfer, got)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "find not existing",
				run: func(t *testing.T, s Storage) {
					_, err := s.FindTransfer(context.Background(), faker.UUIDHyphenated())
					assert.Equal(t, ErrNotFound, err)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "overwrite snapshot",
				run: func(t *testing.T, s Storage) {
					transfer := randomTransfer("draft")
					if !assert.NoError(t, s.SaveTransfer(context.Background(), transfer)) {
						return
					}
					updated := randomTransfer("reviewed")
					updated.ID = transfer.ID
					if !assert.NoError(t, s.SaveTransfer(context.Background(), updated)) {
						return
					}
					got, err := s.FindTransfer(context.Background(), transfer.ID)
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, "reviewed", got.State)
					assert.Equal(t, updated.Payload, got.Payload)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "list by states",
				run: func(t *testing.T, s Storage) {
					draft := randomTransfer("draft")
					awaiting := randomTransfer("awaiting-authentication")
					committed := randomTransfer("committed")
					for _, transfer := range []*TransferDTO{draft, awaiting, committed} {
						if !assert.NoError(t, s.SaveTransfer(context.Background(), transfer)) {
							return
						}
					}
					got, err := s.ListTransfers(context.Background(), "draft", "awaiting-authentication")
					if !assert.NoError(t, err) {
						return
					}
					gotIDs := []string{}
					for _, transfer := range got {
						gotIDs = append(gotIDs, transfer.ID)
					}
					assert.ElementsMatch(t, []string{draft.ID, awaiting.ID}, gotIDs)

					all, err := s.ListTransfers(context.Background())
					if !assert.NoError(t, err) {
						return
					}
					assert.Len(t, all, 3)
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			s, teardown := setupStorage(t)
			defer teardown()
			tt.run(t, s)
		})
	}
}
