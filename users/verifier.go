package users

import (
	"context"

	"github.com/pkg/errors"
)

// Verifier answers password-grant credential checks against a UserRepo.
type Verifier struct {
	repo UserRepo
}

func NewVerifier(repo UserRepo) (*Verifier, error) {
	if repo == nil {
		return nil, errors.New("[users.NewVerifier] nil user repo")
	}
	return &Verifier{repo: repo}, nil
}

// Verify returns the user's authorities when the credentials match. The
// error is deliberately the same for unknown users, bad passwords and
// blocked accounts.
func (v *Verifier) Verify(ctx context.Context, username, password string) ([]string, error) {
	user, err := v.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "[Verifier.Verify] GetByUsername")
	}
	if user.Blocked {
		return nil, errors.New("[Verifier.Verify] user is blocked")
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, errors.New("[Verifier.Verify] password mismatch")
	}
	return user.Authorities, nil
}
