package codes

import (
	"context"
	"sync"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps codes in a mutex-guarded map. Redemption holds the
// write lock across the load and delete, which gives the exactly-once
// guarantee within a single process.
type InMemoryStore struct {
	codes map[string]*Authorization
	lock  sync.Mutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{codes: make(map[string]*Authorization)}
}

func (s *InMemoryStore) Save(_ context.Context, code string, auth *Authorization) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.codes[code] = auth
	return nil
}

func (s *InMemoryStore) Redeem(_ context.Context, code string) (*Authorization, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	auth, ok := s.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.codes, code)
	return auth, nil
}
