package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// UserRepository provides data access for profiles and the queries that pick
// other profiles relative to one user (candidate pool, likers, matches).
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get loads a user regardless of the active flag.
func (r *UserRepository) Get(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, svcErr.Storage("get user", err)
	}
	return &u, nil
}

// GetActive loads a user and fails with ErrNotFound if it is inactive.
func (r *UserRepository) GetActive(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&u).Error
	if err != nil {
		return nil, svcErr.Storage("get active user", err)
	}
	return &u, nil
}

// Create inserts a completed registration.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	if u.Rating == 0 {
		u.Rating = db.DefaultRating
	}
	return svcErr.Storage("create user", r.db.WithContext(ctx).Create(u).Error)
}

// Deactivate soft-removes a user; they drop out of every pool.
func (r *UserRepository) Deactivate(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return svcErr.Storage("deactivate user", res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.Storage("deactivate user", gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete hard-removes a user with their reactions, reports, chats (including
// the other member's membership and the message log) in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("from_user_id = ? OR to_user_id = ?", id, id).Delete(&db.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("from_user_id = ? OR to_user_id = ?", id, id).Delete(&db.Report{}).Error; err != nil {
			return err
		}

		chatIDs := tx.Model(&db.ChatMember{}).Select("chat_id").Where("user_id = ?", id)
		if err := tx.Where("chat_id IN (?)", chatIDs).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		// chats are removed before members so the member sub-query still resolves
		if err := tx.Where("user_low_id = ? OR user_high_id = ?", id, id).Delete(&db.Chat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id IN (?)", chatIDs).Delete(&db.ChatMember{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&db.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return svcErr.Storage("delete user", err)
}

// Candidates returns the pool of users eligible to be shown to u.
//
// Behavior:
//   - Excludes u itself and inactive users.
//   - Excludes anyone with a reaction between them and u, in either direction
//     and of either polarity.
//   - Excludes anyone with a report between them and u, in either direction.
//   - Applies u's inclusive age window (bounds evaluated at now).
//   - Gender matching is mutual, waived when either side prefers "both".
//   - Ordered by id ascending; the matcher relies on it for tie-breaks.
func (r *UserRepository) Candidates(ctx context.Context, u *db.User, now time.Time) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("users.id <> ? AND users.active = ?", u.ID, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM reactions rc
				WHERE (rc.from_user_id = ? AND rc.to_user_id = users.id)
				   OR (rc.from_user_id = users.id AND rc.to_user_id = ?)
			)`, u.ID, u.ID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM reports rp
				WHERE (rp.from_user_id = ? AND rp.to_user_id = users.id)
				   OR (rp.from_user_id = users.id AND rp.to_user_id = ?)
			)`, u.ID, u.ID)

	// age >= min  <=>  born on or before now-min years
	if u.MinAge != nil {
		query = query.Where("users.birth_date <= ?", now.AddDate(-*u.MinAge, 0, 0))
	}
	// age <= max  <=>  born after now-(max+1) years
	if u.MaxAge != nil {
		query = query.Where("users.birth_date > ?", now.AddDate(-(*u.MaxAge + 1), 0, 0))
	}

	if u.PreferredGender != db.GenderBoth {
		query = query.Where(
			"(users.preferred_gender = ? OR (users.gender = ? AND users.preferred_gender = ?))",
			db.GenderBoth, u.PreferredGender, u.Gender,
		)
	}

	var users []db.User
	if err := query.Order("users.id ASC").Find(&users).Error; err != nil {
		return nil, svcErr.Storage("candidates", err)
	}
	return users, nil
}

// NthLastReacted returns the target of the (n+1)-th most recently updated
// reaction authored by userID whose target is still active (n is 0-indexed).
// Nothing is mutated. Fails with ErrNotFound when history is shorter.
func (r *UserRepository) NthLastReacted(ctx context.Context, userID uint64, n int) (*db.User, error) {
	if n < 0 {
		return nil, svcErr.Invalid("rewind index must be >= 0")
	}

	var users []db.User
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Select("users.*").
		Joins("JOIN reactions rc ON rc.to_user_id = users.id").
		Where("rc.from_user_id = ? AND users.active = ?", userID, true).
		Order("rc.updated_at DESC, rc.to_user_id DESC").
		Offset(n).
		Limit(1).
		Find(&users).Error
	if err != nil {
		return nil, svcErr.Storage("nth last reacted", err)
	}
	if len(users) == 0 {
		return nil, svcErr.Storage("nth last reacted", gorm.ErrRecordNotFound)
	}
	return &users[0], nil
}

// Liker pairs a user with the time they liked the recipient.
type Liker struct {
	User    db.User
	LikedAt time.Time
}

// Likers returns active users who liked recipientID and whom the recipient
// has not reacted to yet, excluding reported pairs.
//
// Behavior:
//   - Ordered by like recency (updated_at DESC, from_user_id DESC).
//   - Supports cursor-based pagination via paginationToken.
func (r *UserRepository) Likers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]Liker, *string, error) {
	cursor, err := pagination.Decode(paginationToken)
	if err != nil {
		return nil, nil, svcErr.Invalid("%v", err)
	}

	query := r.likersQuery(ctx, recipientID).
		Select("rc.*").
		Order("rc.updated_at DESC, rc.from_user_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := cursor.Time()
		query = query.Where(
			"(rc.updated_at < ? OR (rc.updated_at = ? AND rc.from_user_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var reactions []db.Reaction
	if err := query.Find(&reactions).Error; err != nil {
		return nil, nil, svcErr.Storage("likers", err)
	}

	reactions, nextToken := pagination.Page(reactions, limit, func(rc db.Reaction) pagination.Cursor {
		return pagination.Cursor{ID: rc.FromUserID, At: rc.UpdatedAt.UnixNano()}
	})

	ids := make([]uint64, 0, len(reactions))
	for _, rc := range reactions {
		ids = append(ids, rc.FromUserID)
	}
	byID, err := r.byIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	likers := make([]Liker, 0, len(reactions))
	for _, rc := range reactions {
		if u, ok := byID[rc.FromUserID]; ok {
			likers = append(likers, Liker{User: u, LikedAt: rc.UpdatedAt})
		}
	}
	return likers, nextToken, nil
}

// CountLikers counts what Likers would list across all pages.
func (r *UserRepository) CountLikers(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, recipientID).Count(&count).Error; err != nil {
		return 0, svcErr.Storage("count likers", err)
	}
	return count, nil
}

func (r *UserRepository) likersQuery(ctx context.Context, recipientID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("reactions rc").
		Joins("JOIN users u ON u.id = rc.from_user_id AND u.active = ?", true).
		Where("rc.to_user_id = ? AND rc.reaction_type = ?", recipientID, db.ReactionLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM reactions mine
				WHERE mine.from_user_id = ? AND mine.to_user_id = rc.from_user_id
			)`, recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM reports rp
				WHERE (rp.from_user_id = ? AND rp.to_user_id = rc.from_user_id)
				   OR (rp.from_user_id = rc.from_user_id AND rp.to_user_id = ?)
			)`, recipientID, recipientID)
}

// Matches returns active users mutually liked with userID and not reported
// either way, most recent first.
func (r *UserRepository) Matches(ctx context.Context, userID uint64, limit, offset int) ([]db.User, error) {
	var users []db.User
	query := r.db.WithContext(ctx).
		Model(&db.User{}).
		Select("users.*").
		Joins("JOIN reactions mine ON mine.to_user_id = users.id AND mine.from_user_id = ? AND mine.reaction_type = ?", userID, db.ReactionLike).
		Joins("JOIN reactions theirs ON theirs.from_user_id = users.id AND theirs.to_user_id = ? AND theirs.reaction_type = ?", userID, db.ReactionLike).
		Where("users.active = ?", true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM reports rp
				WHERE (rp.from_user_id = ? AND rp.to_user_id = users.id)
				   OR (rp.from_user_id = users.id AND rp.to_user_id = ?)
			)`, userID, userID).
		Order("mine.updated_at DESC, users.id DESC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, svcErr.Storage("matches", err)
	}
	return users, nil
}

// CanWrite reports whether a and b may chat: both active, reciprocal likes and
// no report between them in either direction.
func (r *UserRepository) CanWrite(ctx context.Context, a, b uint64) (bool, error) {
	if a == b {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Joins("JOIN reactions mine ON mine.to_user_id = users.id AND mine.from_user_id = ? AND mine.reaction_type = ?", a, db.ReactionLike).
		Joins("JOIN reactions theirs ON theirs.from_user_id = users.id AND theirs.to_user_id = ? AND theirs.reaction_type = ?", a, db.ReactionLike).
		Joins("JOIN users me ON me.id = ? AND me.active = ?", a, true).
		Where("users.id = ? AND users.active = ?", b, true).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM reports rp
				WHERE (rp.from_user_id = ? AND rp.to_user_id = ?)
				   OR (rp.from_user_id = ? AND rp.to_user_id = ?)
			)`, a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Storage("can write", err)
	}
	return count > 0, nil
}

func (r *UserRepository) byIDs(ctx context.Context, ids []uint64) (map[uint64]db.User, error) {
	out := make(map[uint64]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, svcErr.Storage("users by ids", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
