package storage

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"ledgerd/internal/core"
)

// MemoryStore is the in-process backend. It is the default for local runs
// and the fixture for tests.
type MemoryStore struct {
	mu   sync.Mutex
	next map[core.Kind]int64
	recs map[core.Kind][]core.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		next: map[core.Kind]int64{},
		recs: map[core.Kind][]core.Transaction{},
	}
}

func (s *MemoryStore) Insert(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next[tx.Kind]++
	tx.ID = strconv.FormatInt(s.next[tx.Kind], 10)
	s.recs[tx.Kind] = append(s.recs[tx.Kind], tx)
	return tx, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, kind core.Kind, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transaction
	for _, tx := range s.recs[kind] {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	// Newest first; insertion order breaks CreatedAt ties.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteOwned(_ context.Context, kind core.Kind, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.recs[kind]
	for i, tx := range recs {
		if tx.ID == id && tx.OwnerID == ownerID {
			s.recs[kind] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Close() error { return nil }
