package refreshrepofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-oauth2-provider/granter/refresh"
)

var _ refresh.Store = (*FakeRefreshTokenStore)(nil)

type FakeRefreshTokenStore struct {
	tokens map[string]*refresh.StoredRefreshToken
	lock   sync.Mutex
}

func NewFakeRefreshTokenStore() *FakeRefreshTokenStore {
	return &FakeRefreshTokenStore{
		tokens: make(map[string]*refresh.StoredRefreshToken),
	}
}

func (s *FakeRefreshTokenStore) Save(_ context.Context, token *refresh.StoredRefreshToken) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tokens[token.Token] = token
	return nil
}

func (s *FakeRefreshTokenStore) Rotate(_ context.Context, token string) (*refresh.StoredRefreshToken, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	stored, ok := s.tokens[token]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	delete(s.tokens, token)
	return stored, nil
}

func (s *FakeRefreshTokenStore) Delete(_ context.Context, token string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.tokens[token]; !ok {
		return refresh.ErrNotFound
	}
	delete(s.tokens, token)
	return nil
}
