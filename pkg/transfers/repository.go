package transfers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/dal"
)

// ErrTransferNotFound is returned by repositories for unknown ids
var ErrTransferNotFound = errors.New("Transfer not found")

// Repository keeps transfer snapshots
type Repository interface {
	Save(ctx context.Context, transfer *Transfer) error
	Find(ctx context.Context, id string) (*Transfer, error)

	// ListActive returns transfers that are not in a terminal state
	ListActive(ctx context.Context) ([]*Transfer, error)
}

type sqlRepository struct {
	storage dal.Storage
}

func (r *sqlRepository) Save(ctx context.Context, transfer *Transfer) error {
	payload, err := json.Marshal(transfer)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal transfer %v", transfer.ID)
	}
	return r.storage.SaveTransfer(ctx, &dal.TransferDTO{
		ID:        transfer.ID,
		State:     string(transfer.State),
		Payload:   payload,
		UpdatedAt: transfer.UpdatedAt,
	})
}

func unmarshalTransfer(dto *dal.TransferDTO) (*Transfer, error) {
	var transfer Transfer
	if err := json.Unmarshal(dto.Payload, &transfer); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal transfer %v", dto.ID)
	}
	return &transfer, nil
}

func (r *sqlRepository) Find(ctx context.Context, id string) (*Transfer, error) {
	dto, err := r.storage.FindTransfer(ctx, id)
	if err != nil {
		if errors.Cause(err) == dal.ErrNotFound {
			return nil, errors.Wrapf(ErrTransferNotFound, "Transfer %v", id)
		}
		return nil, err
	}
	return unmarshalTransfer(dto)
}

func (r *sqlRepository) ListActive(ctx context.Context) ([]*Transfer, error) {
	states := make([]string, 0, len(ActiveStates))
	for _, s := range ActiveStates {
		states = append(states, string(s))
	}
	dtos, err := r.storage.ListTransfers(ctx, states...)
	if err != nil {
		return nil, err
	}
	result := make([]*Transfer, 0, len(dtos))
	for i := range dtos {
		transfer, err := unmarshalTransfer(&dtos[i])
		if err != nil {
			return nil, err
		}
		result = append(result, transfer)
	}
	return result, nil
}

// NewSQLRepository creates a repository that stores snapshots as json payload
func NewSQLRepository(storage dal.Storage) Repository {
	return &sqlRepository{storage: storage}
}

type memoryRepository struct {
	mux       sync.RWMutex
	transfers map[string]*Transfer
	order     []string
}

func (r *memoryRepository) Save(ctx context.Context, transfer *Transfer) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.transfers[transfer.ID]; !ok {
		r.order = append(r.order, transfer.ID)
	}
	r.transfers[transfer.ID] = transfer.copy()
	return nil
}

func (r *memoryRepository) Find(ctx context.Context, id string) (*Transfer, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	transfer, ok := r.transfers[id]
	if !ok {
		return nil, errors.Wrapf(ErrTransferNotFound, "Transfer %v", id)
	}
	return transfer.copy(), nil
}

func (r *memoryRepository) ListActive(ctx context.Context) ([]*Transfer, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	result := []*Transfer{}
	for _, id := range r.order {
		if transfer := r.transfers[id]; !transfer.State.IsTerminal() {
			result = append(result, transfer.copy())
		}
	}
	return result, nil
}

// NewMemoryRepository creates a repository that keeps snapshots in memory
func NewMemoryRepository() Repository {
	return &memoryRepository{transfers: map[string]*Transfer{}}
}
