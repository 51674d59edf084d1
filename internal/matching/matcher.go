package matching

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/repository"
)

// Candidate is a scored profile.
type Candidate struct {
	User  db.User
	Score float64
}

// Matcher combines the Filter with the scorer.
type Matcher struct {
	filter *Filter
	users  *repository.UserRepository
	now    func() time.Time
	log    *slog.Logger
}

// NewMatcher wires a matcher. now defaults to time.Now in UTC.
func NewMatcher(users *repository.UserRepository, now func() time.Time, log *slog.Logger) *Matcher {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{
		filter: NewFilter(users, now),
		users:  users,
		now:    now,
		log:    log,
	}
}

// BestMatch scores the whole pool of userID and returns the strict maximum.
//
// Behavior:
//   - Ties keep the first candidate seen; the pool is ordered by id, so the
//     lowest id wins.
//   - Fails with ErrNotFound when the pool is empty or every score is 0.
func (m *Matcher) BestMatch(ctx context.Context, userID uint64) (*Candidate, error) {
	user, pool, err := m.filter.Candidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	var best *Candidate
	for i := range pool {
		score := Score(user, &pool[i], now)
		if score <= 0 {
			continue
		}
		if best == nil || score > best.Score {
			best = &Candidate{User: pool[i], Score: score}
		}
	}

	m.log.Debug("best match scored", "user", userID, "pool", len(pool), "found", best != nil)

	if best == nil {
		return nil, fmt.Errorf("best match for %d: %w", userID, svcErr.ErrNotFound)
	}
	metrics.RecordBestMatchScore(best.Score)
	return best, nil
}

// Rewind returns the (n+1)-th most recently reacted-to active target of
// userID. Nothing is mutated; depth limits belong to the caller.
func (m *Matcher) Rewind(ctx context.Context, userID uint64, n int) (*db.User, error) {
	return m.users.NthLastReacted(ctx, userID, n)
}
