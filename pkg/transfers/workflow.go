package transfers

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/go-playground/validator.v9"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/otp"
)

// workflow drives a single transfer. Operations must be called with
// the mutex held, it is never held while waiting for a code
type workflow struct {
	mux sync.Mutex

	transfer *Transfer

	ledger     ledger.Ledger
	challenger otp.Challenger
	validate   *validator.Validate
	policy     otp.Policy
	defaultFee decimal.Decimal
	now        func() time.Time
}

func (w *workflow) snapshot() *Transfer {
	return w.transfer.copy()
}

func (w *workflow) transition(ctx context.Context, to State) {
	logger.
		WithData(diag.MsgData{"from": w.transfer.State, "to": to}).
		Info(ctx, "Transfer %v state changed", w.transfer.ID)
	w.transfer.State = to
	w.transfer.UpdatedAt = w.now()
}

func (w *workflow) applyInput(input Input) {
	t := w.transfer
	t.Input = input
	t.Fee = w.defaultFee
	if input.Fee != nil {
		t.Fee = *input.Fee
	}
	t.Description = input.Memo
	if t.Description == "" {
		t.Description = "Transfer to " + input.RecipientName
	}
	t.Category = DefaultCategory
}

func (w *workflow) clearChallenge() {
	w.transfer.ChallengeID = ""
	w.transfer.ChallengeExpiresAt = nil
	w.transfer.AttemptsLeft = 0
	w.transfer.Authenticated = false
}

func (w *workflow) update(ctx context.Context, input Input) error {
	state := w.transfer.State
	if state != StateDraft && state != StateReviewed {
		return invalidStateError("update", state)
	}
	w.applyInput(input)
	if state != StateDraft {
		w.transition(ctx, StateDraft)
	} else {
		w.transfer.UpdatedAt = w.now()
	}
	return nil
}

func (w *workflow) validateDraft(ctx context.Context) error {
	if w.transfer.State != StateDraft {
		return invalidStateError("validate", w.transfer.State)
	}
	fields, err := validateInput(w.validate, w.transfer.Input)
	if err != nil {
		return errors.Wrap(err, "Failed to validate transfer")
	}
	if fromID := w.transfer.Input.FromAccountID; fromID != "" {
		if _, err := w.ledger.GetAccount(ctx, fromID); err != nil {
			if errors.Cause(err) != ledger.ErrAccountNotFound {
				return errors.Wrapf(err, "Failed to get account %v", fromID)
			}
			fields = append(fields, FieldError{
				Field:   "fromAccountId",
				Rule:    "account_exists",
				Message: ruleMessage("account_exists", ""),
			})
		}
	}
	if len(fields) > 0 {
		return &Error{Category: CategoryValidation, Message: "Transfer is invalid", Fields: fields}
	}
	w.transition(ctx, StateReviewed)
	return nil
}

func (w *workflow) issueChallenge(ctx context.Context) error {
	challenge, err := w.challenger.Issue(ctx, w.transfer.Input.FromAccountID)
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to issue challenge for transfer %v", w.transfer.ID)
		return newError(CategoryTransient, "Failed to issue challenge")
	}
	expiresAt := challenge.ExpiresAt
	w.transfer.ChallengeID = challenge.ID
	w.transfer.ChallengeExpiresAt = &expiresAt
	return nil
}

func (w *workflow) requestAuthentication(ctx context.Context) error {
	t := w.transfer
	if t.State != StateReviewed {
		return invalidStateError("authenticate", t.State)
	}
	ok, err := w.ledger.CheckFunds(ctx, t.Input.FromAccountID, t.Total())
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to check funds of transfer %v", t.ID)
		return newError(CategoryTransient, "Failed to check funds")
	}
	if !ok {
		return newError(CategoryInsufficientFunds, "Insufficient funds to transfer %v", t.Total())
	}
	if err := w.issueChallenge(ctx); err != nil {
		return err
	}
	t.AttemptsLeft = w.policy.MaxAttempts
	t.Authenticated = false
	w.transition(ctx, StateAwaitingAuthentication)
	return nil
}

func (w *workflow) resendChallenge(ctx context.Context) error {
	t := w.transfer
	if t.State != StateAwaitingAuthentication || t.Authenticated {
		return invalidStateError("resend challenge of", t.State)
	}
	previous := t.ChallengeID
	if err := w.issueChallenge(ctx); err != nil {
		return err
	}
	w.challenger.Revoke(ctx, previous)
	t.UpdatedAt = w.now()
	return nil
}

func (w *workflow) fail(ctx context.Context, reason string) {
	w.transfer.FailureReason = reason
	w.transition(ctx, StateFailed)
}

func (w *workflow) verify(ctx context.Context, code string) error {
	t := w.transfer
	if t.State != StateAwaitingAuthentication {
		return invalidStateError("verify", t.State)
	}
	if !t.Authenticated {
		if err := w.checkCode(ctx, code); err != nil {
			return err
		}
		t.Authenticated = true
		t.UpdatedAt = w.now()
	}
	return w.commit(ctx)
}

func (w *workflow) checkCode(ctx context.Context, code string) error {
	t := w.transfer
	if t.ChallengeExpiresAt == nil || w.now().After(*t.ChallengeExpiresAt) {
		w.fail(ctx, "Challenge expired")
		return newError(CategoryAuthenticationFailed, "Challenge expired")
	}
	result, err := w.challenger.Verify(ctx, t.ChallengeID, code)
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to verify code of transfer %v", t.ID)
		return newError(CategoryTransient, "Failed to verify code")
	}
	switch result {
	case otp.ResultSuccess:
		return nil
	case otp.ResultInvalidCode:
		t.AttemptsLeft--
		t.UpdatedAt = w.now()
		if t.AttemptsLeft <= 0 {
			t.AttemptsLeft = 0
			w.fail(ctx, "Too many invalid codes")
		}
		return &Error{
			Category:     CategoryAuthenticationFailed,
			Message:      "Invalid code",
			AttemptsLeft: t.AttemptsLeft,
		}
	default:
		w.fail(ctx, "Challenge expired")
		return newError(CategoryAuthenticationFailed, "Challenge expired")
	}
}

func (w *workflow) commit(ctx context.Context) error {
	t := w.transfer
	record, err := w.ledger.ApplyTransfer(ctx, ledger.Debit{
		FromAccountID: t.Input.FromAccountID,
		Amount:        t.Input.Amount,
		Fee:           t.Fee,
		TransactionID: t.ID,
		Description:   t.Description,
		Category:      t.Category,
	})
	if err != nil {
		switch errors.Cause(err) {
		case ledger.ErrInsufficientFunds:
			w.clearChallenge()
			w.transition(ctx, StateReviewed)
			return newError(CategoryInsufficientFunds, "Insufficient funds to transfer %v", t.Total())
		case ledger.ErrLedgerTimeout:
			logger.WithError(err).Warn(ctx, "Ledger timeout, transfer %v may be retried", t.ID)
			return newError(CategoryTransient, "Ledger is busy, retry later")
		default:
			logger.WithError(err).Error(ctx, "Failed to apply transfer %v", t.ID)
			w.fail(ctx, err.Error())
			return newError(CategorySystem, "Failed to apply transfer")
		}
	}
	t.Result = &Result{TransactionID: record.ID, NewBalance: record.BalanceAfter}
	t.ChallengeID = ""
	t.ChallengeExpiresAt = nil
	w.transition(ctx, StateCommitted)
	return nil
}

func (w *workflow) cancel(ctx context.Context) error {
	if w.transfer.State.IsTerminal() {
		return invalidStateError("cancel", w.transfer.State)
	}
	if w.transfer.ChallengeID != "" {
		w.challenger.Revoke(ctx, w.transfer.ChallengeID)
		w.clearChallenge()
	}
	w.transition(ctx, StateCancelled)
	return nil
}
