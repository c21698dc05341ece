package inventory

import (
	"context"
	"sync"

	id "beredskap/pkg/domain"
	"beredskap/pkg/platform/sentinel"
)

// InMemory is the test and development inventory.
type InMemory struct {
	mu      sync.RWMutex
	batches map[id.BatchID]*Batch
	types   map[id.ProductTypeID]*ProductType
}

func NewInMemory() *InMemory {
	return &InMemory{
		batches: make(map[id.BatchID]*Batch),
		types:   make(map[id.ProductTypeID]*ProductType),
	}
}

// AddProductType registers a product type.
func (s *InMemory) AddProductType(pt *ProductType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *pt
	s.types[pt.ID] = &copied
}

// AddBatch registers a batch.
func (s *InMemory) AddBatch(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *b
	s.batches[b.ID] = &copied
}

func (s *InMemory) Batch(_ context.Context, batchID id.BatchID) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.batches[batchID]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) BatchesByIDs(_ context.Context, ids []id.BatchID) ([]*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Batch, 0, len(ids))
	for _, batchID := range ids {
		if b, ok := s.batches[batchID]; ok {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) ProductType(_ context.Context, typeID id.ProductTypeID) (*ProductType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pt, ok := s.types[typeID]; ok {
		copied := *pt
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ProductTypeExists(_ context.Context, typeID id.ProductTypeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[typeID]
	return ok, nil
}
