package ledger

import (
	"context"
	"sync"
	"time"
)

// accountLock serializes mutations of a single account. The write slot is
// a buffered channel so that acquisition can give up after a bounded wait.
// Readers use the RW mutex that is only held for the in-memory update.
type accountLock struct {
	slot  chan struct{}
	state sync.RWMutex
}

func newAccountLock() *accountLock {
	return &accountLock{slot: make(chan struct{}, 1)}
}

func (l *accountLock) acquire(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case l.slot <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLedgerTimeout
	case <-ctx.Done():
		return ErrLedgerTimeout
	}
}

func (l *accountLock) release() {
	<-l.slot
}
