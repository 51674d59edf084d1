// Package matching picks the next profile to show a user and walks back
// through the ones they already reacted to.
package matching

import (
	"context"
	"time"

	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/repository"
)

// Filter resolves the candidate pool of a user.
type Filter struct {
	users *repository.UserRepository
	now   func() time.Time
}

func NewFilter(users *repository.UserRepository, now func() time.Time) *Filter {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Filter{users: users, now: now}
}

// Candidates loads userID (which must be active) and returns it together with
// its eligible pool, ordered by id ascending.
func (f *Filter) Candidates(ctx context.Context, userID uint64) (*db.User, []db.User, error) {
	user, err := f.users.GetActive(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pool, err := f.users.Candidates(ctx, user, f.now())
	if err != nil {
		return nil, nil, err
	}
	return user, pool, nil
}
