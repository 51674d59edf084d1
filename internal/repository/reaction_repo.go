package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// ReactionRepository provides data access methods for the Reaction model.
// It encapsulates all queries related to likes/dislikes between users.
type ReactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new repository bound to the given DB connection.
func NewReactionRepository(database *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: database}
}

// Get returns the reaction actor -> target.
func (r *ReactionRepository) Get(ctx context.Context, fromID, toID uint64) (*db.Reaction, error) {
	var rc db.Reaction
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		Take(&rc).Error
	if err != nil {
		return nil, svcErr.Storage("get reaction", err)
	}
	return &rc, nil
}

// Change is what an ApplyFunc wants written. A nil *Change means no-op.
type Change struct {
	Type         db.ReactionType
	AddedRating  int
	TargetRating int
}

// ApplyFunc inspects the current reaction (nil when absent) together with
// freshly read actor and target rows and decides the write.
type ApplyFunc func(existing *db.Reaction, actor, target db.User) *Change

// Apply runs a read-modify-write of the reaction actor -> target and the
// target's rating as one transaction.
//
// Behavior:
//   - The target row is read with SELECT ... FOR UPDATE so concurrent writers
//     touching the same target rating serialize (no-op on SQLite).
//   - Both users must be active, otherwise ErrNotFound.
//   - If fn returns nil the existing row is returned untouched. fn must
//     return a change when no row exists yet; a nil there rolls back with
//     ErrInvalidState.
//   - Returns the reaction as stored after the write.
func (r *ReactionRepository) Apply(ctx context.Context, actorID, targetID uint64, fn ApplyFunc) (*db.Reaction, error) {
	var out db.Reaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target db.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND active = ?", targetID, true).
			Take(&target).Error; err != nil {
			return err
		}

		var actor db.User
		if err := tx.Where("id = ? AND active = ?", actorID, true).Take(&actor).Error; err != nil {
			return err
		}

		var existing *db.Reaction
		var current db.Reaction
		err := tx.Where("from_user_id = ? AND to_user_id = ?", actorID, targetID).Take(&current).Error
		switch {
		case err == nil:
			existing = &current
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		change := fn(existing, actor, target)
		if change == nil {
			// nothing stored and nothing to store: fn broke its contract
			if existing == nil {
				return fmt.Errorf("apply func declined a first reaction %d->%d: %w", actorID, targetID, svcErr.ErrInvalidState)
			}
			out = current
			return nil
		}

		if existing == nil {
			created := db.Reaction{
				FromUserID:   actorID,
				ToUserID:     targetID,
				ReactionType: change.Type,
				AddedRating:  change.AddedRating,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&db.Reaction{}).
				Where("from_user_id = ? AND to_user_id = ?", actorID, targetID).
				Updates(map[string]any{
					"reaction_type": change.Type,
					"added_rating":  change.AddedRating,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&db.User{}).
			Where("id = ?", targetID).
			Update("rating", change.TargetRating).Error; err != nil {
			return err
		}

		return tx.Where("from_user_id = ? AND to_user_id = ?", actorID, targetID).Take(&out).Error
	})
	if err != nil {
		return nil, svcErr.Storage("apply reaction", err)
	}
	return &out, nil
}

// HasLiked checks whether an actor has liked a recipient.
//
// Behavior:
//   - Returns true if there exists a reaction row where from_user_id = X,
//     to_user_id = Y, and reaction_type = like.
//   - Used for mutual-like detection right after a like is written.
func (r *ReactionRepository) HasLiked(ctx context.Context, fromID, toID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Reaction{}).
		Where("from_user_id = ? AND to_user_id = ? AND reaction_type = ?", fromID, toID, db.ReactionLike).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Storage("has liked", err)
	}
	return count > 0, nil
}

// MarkNotified flips is_match_notified from false to true.
//
// Behavior:
//   - Conditional update; returns true only for the call that flipped it.
//   - Uses UpdateColumn so updated_at (rewind order) is not bumped.
func (r *ReactionRepository) MarkNotified(ctx context.Context, fromID, toID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Reaction{}).
		Where("from_user_id = ? AND to_user_id = ? AND is_match_notified = ?", fromID, toID, false).
		UpdateColumn("is_match_notified", true)
	if res.Error != nil {
		return false, svcErr.Storage("mark notified", res.Error)
	}
	return res.RowsAffected == 1, nil
}
