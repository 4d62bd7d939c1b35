package users

import "context"

type UserRepo interface {
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, username string) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	SetBlocked(ctx context.Context, username string, blocked bool) error
}
