// Package idempotency keeps track of applied operations so that an operation
// with the same key takes effect at most once.
package idempotency

import (
	"context"
	"errors"
	"sync"

	pkgErrors "github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
)

var logger = diag.CreateLogger()

// ErrDuplicate is returned by a Log when a record with the same key is already stored
var ErrDuplicate = errors.New("Duplicate idempotency key")

// Record is anything that can be identified by an idempotency key
type Record interface {
	IdempotencyKey() string
}

// Log is a durable storage of records
type Log interface {
	// Append stores the record. Must return ErrDuplicate if the key is taken
	Append(ctx context.Context, record Record) error

	Find(ctx context.Context, key string) (Record, bool, error)
}

// Store answers whether an operation has already been applied
type Store interface {
	Lookup(ctx context.Context, key string) (Record, bool, error)

	// RecordIfAbsent stores the record unless the key is known. If the key
	// is known the previously stored record is returned with existed=true
	RecordIfAbsent(ctx context.Context, record Record) (existed bool, stored Record, err error)
}

type store struct {
	log   Log
	mux   sync.RWMutex
	cache map[string]Record
}

func (s *store) cached(key string) (Record, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	record, ok := s.cache[key]
	return record, ok
}

func (s *store) remember(record Record) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.cache[record.IdempotencyKey()] = record
}

func (s *store) Lookup(ctx context.Context, key string) (Record, bool, error) {
	if record, ok := s.cached(key); ok {
		return record, true, nil
	}
	record, ok, err := s.log.Find(ctx, key)
	if err != nil {
		return nil, false, pkgErrors.Wrapf(err, "Failed to find record %v", key)
	}
	if ok {
		s.remember(record)
	}
	return record, ok, nil
}

func (s *store) RecordIfAbsent(ctx context.Context, record Record) (bool, Record, error) {
	key := record.IdempotencyKey()
	existing, ok, err := s.Lookup(ctx, key)
	if err != nil {
		return false, nil, err
	}
	if ok {
		return true, existing, nil
	}
	if err := s.log.Append(ctx, record); err != nil {
		if pkgErrors.Cause(err) != ErrDuplicate {
			return false, nil, pkgErrors.Wrapf(err, "Failed to append record %v", key)
		}
		logger.Info(ctx, "Record %v has been appended concurrently", key)
		existing, ok, err := s.log.Find(ctx, key)
		if err != nil {
			return false, nil, pkgErrors.Wrapf(err, "Failed to find record %v", key)
		}
		if !ok {
			return false, nil, pkgErrors.Errorf("Record %v reported as duplicate but not found", key)
		}
		s.remember(existing)
		return true, existing, nil
	}
	s.remember(record)
	return false, record, nil
}

// NewStore creates a store backed by a given log
func NewStore(log Log) Store {
	return &store{log: log, cache: map[string]Record{}}
}

type memoryLog struct {
	mux     sync.RWMutex
	records map[string]Record
}

func (l *memoryLog) Append(ctx context.Context, record Record) error {
	l.mux.Lock()
	defer l.mux.Unlock()
	if _, ok := l.records[record.IdempotencyKey()]; ok {
		return ErrDuplicate
	}
	l.records[record.IdempotencyKey()] = record
	return nil
}

func (l *memoryLog) Find(ctx context.Context, key string) (Record, bool, error) {
	l.mux.RLock()
	defer l.mux.RUnlock()
	record, ok := l.records[key]
	return record, ok, nil
}

// NewMemoryLog creates a non durable log
func NewMemoryLog() Log {
	return &memoryLog{records: map[string]Record{}}
}
