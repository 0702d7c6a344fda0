package transfers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/dal"
)

func newSQLRepository() (Repository, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		panic(err)
	}
	db.SetMaxOpenConns(1)
	storage, err := dal.NewSQLStorage(dal.WithSQLDb(db))
	if err != nil {
		panic(err)
	}
	if err := storage.Setup(context.Background()); err != nil {
		panic(err)
	}
	return NewSQLRepository(storage), func() { db.Close() }
}

func randomTransfer(state State) *Transfer {
	now := time.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(5 * time.Minute)
	input := validInput("acc-"+faker.UUIDHyphenated(), "100.25")
	fee := dec("1.5")
	input.Fee = &fee
	return &Transfer{
		ID:                 faker.UUIDHyphenated(),
		State:              state,
		Input:              input,
		Fee:                fee,
		Description:        "Transfer to " + input.RecipientName,
		Category:           DefaultCategory,
		ChallengeID:        faker.UUIDHyphenated(),
		ChallengeExpiresAt: &expiresAt,
		AttemptsLeft:       3,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestRepository(t *testing.T) {
	type testCase struct {
		name string
		repo func() (Repository, func())
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{name: "sql", repo: newSQLRepository}
		},
		func() testCase {
			return testCase{name: "memory", repo: func() (Repository, func()) {
				return NewMemoryRepository(), func() {}
			}}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("save and find", func(t *testing.T) {
				repo, done := tt.repo()
				defer done()
				want := randomTransfer(StateAwaitingAuthentication)
				if !assert.NoError(t, repo.Save(ctx, want)) {
					return
				}
				want.State = StateCommitted
				want.Result = &Result{TransactionID: want.ID, NewBalance: dec("10.5")}
				if !assert.NoError(t, repo.Save(ctx, want)) {
					return
				}
				got, err := repo.Find(ctx, want.ID)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, want.ID, got.ID)
				assert.Equal(t, StateCommitted, got.State)
				assert.Equal(t, want.Input.RecipientName, got.Input.RecipientName)
				assert.True(t, want.Input.Amount.Equal(got.Input.Amount))
				assert.True(t, want.Fee.Equal(got.Fee))
				assert.True(t, want.ChallengeExpiresAt.Equal(*got.ChallengeExpiresAt))
				if assert.NotNil(t, got.Result) {
					assert.True(t, dec("10.5").Equal(got.Result.NewBalance))
				}
			})

			t.Run("not found", func(t *testing.T) {
				repo, done := tt.repo()
				defer done()
				_, err := repo.Find(ctx, faker.UUIDHyphenated())
				assert.Equal(t, ErrTransferNotFound, errors.Cause(err))
			})

			t.Run("list active", func(t *testing.T) {
				repo, done := tt.repo()
				defer done()
				draft := randomTransfer(StateDraft)
				awaiting := randomTransfer(StateAwaitingAuthentication)
				awaiting.UpdatedAt = draft.UpdatedAt.Add(time.Second)
				for _, transfer := range []*Transfer{
					draft,
					randomTransfer(StateCommitted),
					awaiting,
					randomTransfer(StateFailed),
					randomTransfer(StateCancelled),
				} {
					if !assert.NoError(t, repo.Save(ctx, transfer)) {
						return
					}
				}
				got, err := repo.ListActive(ctx)
				if !assert.NoError(t, err) {
					return
				}
				ids := []string{}
				for _, transfer := range got {
					ids = append(ids, transfer.ID)
				}
				assert.Equal(t, []string{draft.ID, awaiting.ID}, ids)
			})
		})
	}
}
