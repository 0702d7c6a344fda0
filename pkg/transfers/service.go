// Package transfers drives funds transfers through review and step-up
// authentication before the ledger is debited.
package transfers

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/go-playground/validator.v9"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.transfers/pkg/otp"
)

var logger = diag.CreateLogger()

// DefaultFee is charged when a draft has no fee
var DefaultFee = decimal.RequireFromString("2.50")

// Service keeps transfer workflows addressable by id. Every operation returns
// the current snapshot, also when the operation itself failed
type Service interface {
	Create(ctx context.Context, input Input) (*Transfer, error)
	Get(ctx context.Context, id string) (*Transfer, error)
	Update(ctx context.Context, id string, input Input) (*Transfer, error)
	Validate(ctx context.Context, id string) (*Transfer, error)
	RequestAuthentication(ctx context.Context, id string) (*Transfer, error)
	ResendChallenge(ctx context.Context, id string) (*Transfer, error)
	Verify(ctx context.Context, id string, code string) (*Transfer, error)
	Cancel(ctx context.Context, id string) (*Transfer, error)

	// Restore loads non terminal transfers from the repository
	Restore(ctx context.Context) (int, error)
}

type service struct {
	ledger     ledger.Ledger
	challenger otp.Challenger
	repository Repository
	policy     otp.Policy
	defaultFee decimal.Decimal
	now        func() time.Time
	validate   *validator.Validate

	mux       sync.RWMutex
	workflows map[string]*workflow
}

func (s *service) newWorkflow(transfer *Transfer) *workflow {
	return &workflow{
		transfer:   transfer,
		ledger:     s.ledger,
		challenger: s.challenger,
		validate:   s.validate,
		policy:     s.policy,
		defaultFee: s.defaultFee,
		now:        s.now,
	}
}

func (s *service) save(ctx context.Context, w *workflow) *Transfer {
	snapshot := w.snapshot()
	if err := s.repository.Save(ctx, snapshot); err != nil {
		logger.WithError(err).Error(ctx, "Failed to save transfer %v snapshot", snapshot.ID)
	}
	return snapshot
}

func (s *service) Create(ctx context.Context, input Input) (*Transfer, error) {
	now := s.now()
	transfer := &Transfer{
		ID:        uuid.NewV4().String(),
		State:     StateDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w := s.newWorkflow(transfer)
	w.applyInput(input)
	ctx = diag.ContextWithTransferID(ctx, transfer.ID)
	if err := s.repository.Save(ctx, w.snapshot()); err != nil {
		return nil, errors.Wrapf(err, "Failed to save transfer %v", transfer.ID)
	}
	s.mux.Lock()
	s.workflows[transfer.ID] = w
	s.mux.Unlock()
	logger.WithData(diag.MsgData{"fromAccountId": input.FromAccountID}).Info(ctx, "Transfer %v created", transfer.ID)
	return w.snapshot(), nil
}

func (s *service) workflow(ctx context.Context, id string) (*workflow, error) {
	s.mux.RLock()
	w, ok := s.workflows[id]
	s.mux.RUnlock()
	if ok {
		return w, nil
	}
	transfer, err := s.repository.Find(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrTransferNotFound {
			return nil, newError(CategoryNotFound, "Transfer %v not found", id)
		}
		return nil, errors.Wrapf(err, "Failed to find transfer %v", id)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if w, ok := s.workflows[id]; ok {
		return w, nil
	}
	w = s.newWorkflow(transfer)
	s.workflows[id] = w
	return w, nil
}

func (s *service) run(ctx context.Context, id string, op func(ctx context.Context, w *workflow) error) (*Transfer, error) {
	ctx = diag.ContextWithTransferID(ctx, id)
	w, err := s.workflow(ctx, id)
	if err != nil {
		return nil, err
	}
	w.mux.Lock()
	defer w.mux.Unlock()
	opErr := op(ctx, w)
	return s.save(ctx, w), opErr
}

func (s *service) Get(ctx context.Context, id string) (*Transfer, error) {
	w, err := s.workflow(ctx, id)
	if err != nil {
		return nil, err
	}
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.snapshot(), nil
}

func (s *service) Update(ctx context.Context, id string, input Input) (*Transfer, error) {
	return s.run(ctx, id, func(ctx context.Context, w *workflow) error {
		return w.update(ctx, input)
	})
}

func (s *service) Validate(ctx context.Context, id string) (*Transfer, error) {
	return s.run(ctx, id, func(ctx context.Context, w *workflow) error {
		return w.validateDraft(ctx)
	})
}

func (s *service) RequestAuthentication(ctx context.Context, id string) (*Transfer, error) {
	return s.run(ctx, id, func(ctx context.Context, w *workflow) error {
		return w.requestAuthentication(ctx)
	})
}

func (s *service) ResendChallenge(ctx context.Context, id string) (*Transfer, error) {
	return s.run(ctx, id, func(ctx context.Context, w *workflow) error {
		return w.resendChallenge(ctx)
	})
}

func (s *service) Verify(ctx context.Context, id string, code string) (*Transfer, error) {
	return s.run(ctx, id, func(ctx context.Context, w *workflow) error {
		return w.verify(ctx, code)
	})
}

func (s *service) Cancel(ctx context.Context, id string) (*Transfer, error) {
	return s.run(ctx, id, func(ctx context.Context, w *workflow) error {
		return w.cancel(ctx)
	})
}

func (s *service) Restore(ctx context.Context) (int, error) {
	transfers, err := s.repository.ListActive(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "Failed to list active transfers")
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, transfer := range transfers {
		s.workflows[transfer.ID] = s.newWorkflow(transfer)
	}
	logger.Info(ctx, "Restored %v active transfers", len(transfers))
	return len(transfers), nil
}

// ServiceOpt is an option of the transfers service
type ServiceOpt func(s *service)

// WithLedger sets the ledger to apply transfers
func WithLedger(l ledger.Ledger) ServiceOpt {
	return func(s *service) {
		s.ledger = l
	}
}

// WithChallenger sets the challenger used for step-up authentication
func WithChallenger(challenger otp.Challenger) ServiceOpt {
	return func(s *service) {
		s.challenger = challenger
	}
}

// WithRepository sets the snapshots repository
func WithRepository(repository Repository) ServiceOpt {
	return func(s *service) {
		s.repository = repository
	}
}

// WithPolicy sets the authentication policy, only MaxAttempts is used
func WithPolicy(policy otp.Policy) ServiceOpt {
	return func(s *service) {
		s.policy = policy
	}
}

// WithDefaultFee sets a fee used when a draft has none
func WithDefaultFee(fee decimal.Decimal) ServiceOpt {
	return func(s *service) {
		s.defaultFee = fee
	}
}

// WithNow sets a function to get current time
func WithNow(now func() time.Time) ServiceOpt {
	return func(s *service) {
		s.now = now
	}
}

// NewService creates a transfers service. Ledger and challenger are required
func NewService(opts ...ServiceOpt) (Service, error) {
	s := &service{
		repository: NewMemoryRepository(),
		policy:     otp.DefaultPolicy,
		defaultFee: DefaultFee,
		now:        time.Now,
		workflows:  map[string]*workflow{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		return nil, errors.New("Ledger is required")
	}
	if s.challenger == nil {
		return nil, errors.New("Challenger is required")
	}
	s.validate = newInputValidator(s.now)
	return s, nil
}
