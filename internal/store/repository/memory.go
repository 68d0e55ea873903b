package repository

import (
	"context"
	"sync"
)

// MemoryRepo keeps records in process memory. It backs tests and the
// "memory" backend of the server.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]map[string]Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]map[string]Record)}
}

func (m *MemoryRepo) Get(ctx context.Context, db, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.store[db][id]; ok {
		return &r, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Put(ctx context.Context, rec *Record, prevRev string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.store[rec.DB]
	if !ok {
		docs = make(map[string]Record)
		m.store[rec.DB] = docs
	}
	var cur *Record
	if r, ok := docs[rec.ID]; ok {
		cur = &r
	}
	if err := CheckRev(cur, prevRev); err != nil {
		return err
	}
	docs[rec.ID] = *rec
	return nil
}
