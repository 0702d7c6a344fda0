package transfers

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is a state of a transfer workflow
type State string

const (
	// StateDraft is an initial state, fields may be changed
	StateDraft State = "draft"

	// StateReviewed all fields are valid
	StateReviewed State = "reviewed"

	// StateAwaitingAuthentication a one-time code has been issued
	StateAwaitingAuthentication State = "awaiting-authentication"

	// StateCommitted funds have been debited
	StateCommitted State = "committed"

	// StateFailed the transfer can not be completed
	StateFailed State = "failed"

	// StateCancelled the transfer has been cancelled by the caller
	StateCancelled State = "cancelled"
)

// IsTerminal is true for states that can not be left
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateFailed || s == StateCancelled
}

// ActiveStates are all non terminal states
var ActiveStates = []State{StateDraft, StateReviewed, StateAwaitingAuthentication}

// Timing is when the transfer should happen
type Timing string

const (
	// TimingImmediate transfer now
	TimingImmediate Timing = "immediate"

	// TimingScheduled transfer at a future date
	TimingScheduled Timing = "scheduled"

	// TimingRecurring repeating transfer
	TimingRecurring Timing = "recurring"
)

// DefaultCategory is a category of all transfer transactions
const DefaultCategory = "Transfers"

// Input holds fields of a transfer draft
type Input struct {
	FromAccountID          string           `json:"fromAccountId" validate:"required"`
	RecipientName          string           `json:"recipientName" validate:"required,min=2"`
	RecipientBank          string           `json:"recipientBank" validate:"required"`
	RecipientAccountNumber string           `json:"recipientAccountNumber" validate:"required,account_number"`
	Amount                 decimal.Decimal  `json:"amount"`
	Fee                    *decimal.Decimal `json:"fee,omitempty"`
	Timing                 Timing           `json:"timing" validate:"required,oneof=immediate scheduled recurring"`
	ScheduledAt            *time.Time       `json:"scheduledAt,omitempty"`
	Memo                   string           `json:"memo" validate:"max=100"`
	SaveRecipient          bool             `json:"saveRecipient"`
}

// Result is a result of a committed transfer
type Result struct {
	TransactionID string          `json:"transactionId"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

// Transfer is a snapshot of a transfer workflow
type Transfer struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	Input Input  `json:"input"`

	// Fee is the effective fee, input fee or the default one
	Fee         decimal.Decimal `json:"fee"`
	Description string          `json:"description"`
	Category    string          `json:"category"`

	ChallengeID        string     `json:"challengeId,omitempty"`
	ChallengeExpiresAt *time.Time `json:"challengeExpiresAt,omitempty"`
	AttemptsLeft       int        `json:"attemptsLeft"`

	// Authenticated is set once the code is verified so that a retry
	// after a ledger timeout does not need the code again
	Authenticated bool `json:"authenticated"`

	Result        *Result `json:"result,omitempty"`
	FailureReason string  `json:"failureReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Total is the amount that will be debited
func (t *Transfer) Total() decimal.Decimal {
	return t.Input.Amount.Add(t.Fee)
}

func (t *Transfer) copy() *Transfer {
	result := *t
	if t.Input.Fee != nil {
		fee := *t.Input.Fee
		result.Input.Fee = &fee
	}
	if t.Input.ScheduledAt != nil {
		scheduledAt := *t.Input.ScheduledAt
		result.Input.ScheduledAt = &scheduledAt
	}
	if t.ChallengeExpiresAt != nil {
		expiresAt := *t.ChallengeExpiresAt
		result.ChallengeExpiresAt = &expiresAt
	}
	if t.Result != nil {
		res := *t.Result
		result.Result = &res
	}
	return &result
}
