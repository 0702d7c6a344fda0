package testing

import (
	"sync"
	"time"
)

// MockNowService should be used for tests
type MockNowService struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns now value
func (svc *MockNowService) Now() time.Time {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.now
}

// SetNow set current now value
func (svc *MockNowService) SetNow(val time.Time) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.now = val
}

// Advance moves current now value forward
func (svc *MockNowService) Advance(d time.Duration) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.now = svc.now.Add(d)
}

// NewMockNowService returns an instance of a now service
func NewMockNowService(now time.Time) *MockNowService {
	return &MockNowService{now: now}
}
