package fakeuserrepo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth2-provider/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users     map[string]*users.User
	usernames map[string]string // username to user id
	lock      sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:     make(map[string]*users.User),
		usernames: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.ID] = user
	ur.usernames[user.Username] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.usernames[username]
	if !ok {
		return errors.New("not found")
	}
	delete(ur.usernames, username)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.usernames[username]
	if !ok {
		return nil, errors.New("not found")
	}
	return ur.users[userID], nil
}

func (ur *FakeUserRepo) List(_ context.Context, offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		userList = append(userList, v)
	}
	sort.Slice(userList, func(i, j int) bool {
		return userList[i].ID < userList[j].ID
	})

	if offset >= len(userList) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(userList) {
		end = len(userList)
	}
	return userList[offset:end], nil
}

func (ur *FakeUserRepo) SetBlocked(ctx context.Context, username string, blocked bool) error {
	user, err := ur.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()
	user.Blocked = blocked
	return nil
}
