package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// ChatRepository owns chats and their memberships.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// GetOrCreate returns the chat joining a and b, creating it with both member
// rows when absent.
//
// Behavior:
//   - The pair is normalized; (a, b) and (b, a) address the same chat.
//   - The insert uses ON CONFLICT DO NOTHING against the unique pair index;
//     a concurrent loser re-reads the winner's row instead of failing.
//   - created reports whether this call inserted the chat.
func (r *ChatRepository) GetOrCreate(ctx context.Context, a, b uint64) (chat *db.Chat, created bool, err error) {
	low, high := db.PairKey(a, b)

	if existing, err := r.ByUsers(ctx, low, high); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, svcErr.ErrNotFound) {
		return nil, false, err
	}

	var out db.Chat
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out = db.Chat{UserLowID: low, UserHighID: high}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&out)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			out = db.Chat{}
			return tx.Where("user_low_id = ? AND user_high_id = ?", low, high).Take(&out).Error
		}

		created = true
		members := []db.ChatMember{
			{ChatID: out.ID, UserID: low},
			{ChatID: out.ID, UserID: high},
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, false, svcErr.Storage("get or create chat", err)
	}
	return &out, created, nil
}

// ByUsers finds the chat joining a and b.
func (r *ChatRepository) ByUsers(ctx context.Context, a, b uint64) (*db.Chat, error) {
	low, high := db.PairKey(a, b)
	var chat db.Chat
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Take(&chat).Error
	if err != nil {
		return nil, svcErr.Storage("chat by users", err)
	}
	return &chat, nil
}

func (r *ChatRepository) ByID(ctx context.Context, id uint64) (*db.Chat, error) {
	var chat db.Chat
	if err := r.db.WithContext(ctx).First(&chat, id).Error; err != nil {
		return nil, svcErr.Storage("chat by id", err)
	}
	return &chat, nil
}

// Members lists the membership rows of a chat.
func (r *ChatRepository) Members(ctx context.Context, chatID uint64) ([]db.ChatMember, error) {
	var members []db.ChatMember
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("user_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, svcErr.Storage("chat members", err)
	}
	return members, nil
}

// ListForUser returns the chats userID is a member of, newest first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Select("chats.*").
		Joins("JOIN chat_members cm ON cm.chat_id = chats.id").
		Where("cm.user_id = ?", userID).
		Order("chats.id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, svcErr.Storage("list chats", err)
	}
	return chats, nil
}

// Delete removes a chat with its members and messages.
func (r *ChatRepository) Delete(ctx context.Context, chatID uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&db.ChatMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&db.Chat{}, chatID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return svcErr.Storage("delete chat", err)
}

// IsMember reports whether userID belongs to chatID.
func (r *ChatRepository) IsMember(ctx context.Context, chatID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Storage("is member", err)
	}
	return count > 0, nil
}
