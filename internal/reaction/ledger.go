// Package reaction records likes and dislikes together with the reversible
// rating delta they apply to the target.
package reaction

import (
	"context"
	"log/slog"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/lock"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/rating"
	"github.com/oggyb/muzz-match/internal/repository"
)

// Outcome of a React call.
type Outcome string

const (
	Created   Outcome = "created"
	Unchanged Outcome = "unchanged"
	Reversed  Outcome = "reversed"
)

// Result is what React hands back to callers.
type Result struct {
	Reaction db.Reaction
	Outcome  Outcome
	// BecameMutual is set when the stored reaction is a like and the target
	// likes the actor back.
	BecameMutual bool
}

// Ledger owns every write to reactions and the target rating.
type Ledger struct {
	reactions *repository.ReactionRepository
	pairs     *lock.Keyed[[2]uint64]
	targets   *lock.Keyed[uint64]
	log       *slog.Logger
}

func NewLedger(reactions *repository.ReactionRepository, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		reactions: reactions,
		pairs:     lock.NewKeyed[[2]uint64](),
		targets:   lock.NewKeyed[uint64](),
		log:       log,
	}
}

// React records actor's decision about target.
//
// Behavior:
//   - No prior reaction: create it and apply the Elo delta to target.rating.
//   - Same type as stored: no-op, the stored row is returned.
//   - Different type: reverse the stored delta, apply the new one from the
//     reversed baseline and overwrite type and delta.
//   - Writers to the same target serialize on an in-process lock and on the
//     target row lock inside the transaction.
//   - A→B and B→A serialize on the unordered pair through the mutual check,
//     so of two crossing likes only the later one sees BecameMutual.
//   - Both users must be active (ErrNotFound otherwise).
func (l *Ledger) React(ctx context.Context, actorID, targetID uint64, typ db.ReactionType) (*Result, error) {
	if !typ.Valid() {
		return nil, svcErr.Invalid("unknown reaction type %q", typ)
	}
	if actorID == targetID {
		return nil, svcErr.Invalid("cannot react to yourself")
	}

	// pair before target, never the other way round
	low, high := db.PairKey(actorID, targetID)
	unlockPair := l.pairs.Lock([2]uint64{low, high})
	defer unlockPair()

	unlock := l.targets.Lock(targetID)
	defer unlock()

	outcome := Unchanged
	rc, err := l.reactions.Apply(ctx, actorID, targetID, func(existing *db.Reaction, actor, target db.User) *repository.Change {
		switch {
		case existing == nil:
			outcome = Created
			next := rating.Update(target.Rating, actor.Rating, typ)
			return &repository.Change{Type: typ, AddedRating: next - target.Rating, TargetRating: next}
		case existing.ReactionType == typ:
			outcome = Unchanged
			return nil
		default:
			outcome = Reversed
			baseline := target.Rating - existing.AddedRating
			next := rating.Update(baseline, actor.Rating, typ)
			return &repository.Change{Type: typ, AddedRating: next - baseline, TargetRating: next}
		}
	})
	if err != nil {
		return nil, err
	}

	mutual, err := l.IsMutual(ctx, rc)
	if err != nil {
		return nil, err
	}

	metrics.RecordReaction(string(typ), string(outcome))
	l.log.Debug("reaction applied",
		"actor", actorID, "target", targetID, "type", typ,
		"outcome", outcome, "added_rating", rc.AddedRating, "mutual", mutual)

	return &Result{Reaction: *rc, Outcome: outcome, BecameMutual: mutual}, nil
}

// IsMutual is true only for a like answered by a like in the other direction.
func (l *Ledger) IsMutual(ctx context.Context, rc *db.Reaction) (bool, error) {
	if rc.ReactionType != db.ReactionLike {
		return false, nil
	}
	return l.reactions.HasLiked(ctx, rc.ToUserID, rc.FromUserID)
}

// MarkNotified claims the one-time notification for rc. Only the call that
// flips the flag gets true; every later call is a silent no-op.
func (l *Ledger) MarkNotified(ctx context.Context, rc *db.Reaction) (bool, error) {
	if rc.IsMatchNotified {
		return false, nil
	}
	return l.reactions.MarkNotified(ctx, rc.FromUserID, rc.ToUserID)
}
