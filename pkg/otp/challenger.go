// Package otp issues and verifies one-time codes used for step-up authentication.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
)

//go:generate mockgen --destination=challenger_mock.go --package=otp . Challenger

var logger = diag.CreateLogger()

const codeUpperBound = 1000000

// VerifyResult is an outcome of a code verification
type VerifyResult string

const (
	// ResultSuccess the code matches
	ResultSuccess VerifyResult = "success"

	// ResultInvalidCode the code does not match
	ResultInvalidCode VerifyResult = "invalid-code"

	// ResultExpired the challenge is expired, consumed or unknown
	ResultExpired VerifyResult = "expired"
)

// Challenge is an issued one-time code challenge. The code itself is never exposed
type Challenge struct {
	ID            string
	Subject       string
	ExpiresAt     time.Time
	DeliveryProof string
}

// Policy controls challenges lifetime and retries
type Policy struct {
	MaxAttempts int
	TTL         time.Duration
}

// DefaultPolicy is used when no policy is provided
var DefaultPolicy = Policy{MaxAttempts: 3, TTL: 5 * time.Minute}

// Challenger issues and verifies one-time codes
type Challenger interface {
	Issue(ctx context.Context, subject string) (*Challenge, error)

	// Verify checks the code. Successfully verified challenges are consumed
	Verify(ctx context.Context, challengeID string, code string) (VerifyResult, error)

	// Revoke discards the challenge. Unknown ids are ignored
	Revoke(ctx context.Context, challengeID string)
}

type pendingChallenge struct {
	challenge Challenge
	codeHash  []byte
}

type challenger struct {
	policy       Policy
	deliverer    Deliverer
	generateCode func() (string, error)
	hashCost     int
	now          func() time.Time

	mux     sync.Mutex
	pending map[string]*pendingChallenge
}

func generateRandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeUpperBound))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (c *challenger) Issue(ctx context.Context, subject string) (*Challenge, error) {
	code, err := c.generateCode()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to generate code")
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), c.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to hash code")
	}
	challenge := Challenge{
		ID:        uuid.NewV4().String(),
		Subject:   subject,
		ExpiresAt: c.now().Add(c.policy.TTL),
	}
	proof, err := c.deliverer.Deliver(ctx, subject, code)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to deliver code of challenge %v", challenge.ID)
	}
	challenge.DeliveryProof = proof

	c.mux.Lock()
	defer c.mux.Unlock()
	c.purgeExpired()
	c.pending[challenge.ID] = &pendingChallenge{challenge: challenge, codeHash: codeHash}
	logger.Info(ctx, "Issued challenge %v for %v, expires at %v", challenge.ID, subject, challenge.ExpiresAt)
	return &challenge, nil
}

// purgeExpired must be called with the mutex held
func (c *challenger) purgeExpired() {
	now := c.now()
	for id, p := range c.pending {
		if now.After(p.challenge.ExpiresAt) {
			delete(c.pending, id)
		}
	}
}

func (c *challenger) Verify(ctx context.Context, challengeID string, code string) (VerifyResult, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	p, ok := c.pending[challengeID]
	if !ok {
		logger.Info(ctx, "Challenge %v is unknown or consumed", challengeID)
		return ResultExpired, nil
	}
	if c.now().After(p.challenge.ExpiresAt) {
		delete(c.pending, challengeID)
		logger.Info(ctx, "Challenge %v expired", challengeID)
		return ResultExpired, nil
	}
	if err := bcrypt.CompareHashAndPassword(p.codeHash, []byte(code)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			logger.Info(ctx, "Invalid code for challenge %v", challengeID)
			return ResultInvalidCode, nil
		}
		return "", errors.Wrapf(err, "Failed to verify challenge %v", challengeID)
	}
	delete(c.pending, challengeID)
	logger.Info(ctx, "Challenge %v verified", challengeID)
	return ResultSuccess, nil
}

func (c *challenger) Revoke(ctx context.Context, challengeID string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if _, ok := c.pending[challengeID]; ok {
		delete(c.pending, challengeID)
		logger.Info(ctx, "Challenge %v revoked", challengeID)
	}
}

// ChallengerOpt is an option of the challenger
type ChallengerOpt func(c *challenger)

// WithPolicy sets challenges policy
func WithPolicy(policy Policy) ChallengerOpt {
	return func(c *challenger) {
		c.policy = policy
	}
}

// WithDeliverer sets a deliverer of codes
func WithDeliverer(deliverer Deliverer) ChallengerOpt {
	return func(c *challenger) {
		c.deliverer = deliverer
	}
}

// WithFixedCode makes the challenger always issue a given code.
// For dev environments only
func WithFixedCode(code string) ChallengerOpt {
	return func(c *challenger) {
		c.generateCode = func() (string, error) { return code, nil }
	}
}

// WithHashCost sets bcrypt cost of stored codes
func WithHashCost(cost int) ChallengerOpt {
	return func(c *challenger) {
		c.hashCost = cost
	}
}

// WithNow sets a function to get current time
func WithNow(now func() time.Time) ChallengerOpt {
	return func(c *challenger) {
		c.now = now
	}
}

// NewChallenger creates an in-memory challenger
func NewChallenger(opts ...ChallengerOpt) Challenger {
	c := &challenger{
		policy:       DefaultPolicy,
		deliverer:    NewLogDeliverer(),
		generateCode: generateRandomCode,
		hashCost:     bcrypt.DefaultCost,
		now:          time.Now,
		pending:      map[string]*pendingChallenge{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
