package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// MessageRepository appends to and pages through chat logs.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create appends a message; the assigned id is its commit order.
func (r *MessageRepository) Create(ctx context.Context, chatID, userID uint64, text string) (*db.Message, error) {
	msg := db.Message{ChatID: chatID, UserID: userID, Text: text}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, svcErr.Storage("create message", err)
	}
	return &msg, nil
}

// List returns a page of a chat's messages, newest first.
//
// Behavior:
//   - Ordered by id DESC (reverse commit order).
//   - The cursor carries the last id seen; the next page is strictly older.
func (r *MessageRepository) List(
	ctx context.Context,
	chatID uint64,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	cursor, err := pagination.Decode(paginationToken)
	if err != nil {
		return nil, nil, svcErr.Invalid("%v", err)
	}

	query := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id DESC").
		Limit(limit + 1)
	if !cursor.IsZero() {
		query = query.Where("id < ?", cursor.ID)
	}

	var messages []db.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, svcErr.Storage("list messages", err)
	}

	messages, nextToken := pagination.Page(messages, limit, func(m db.Message) pagination.Cursor {
		return pagination.Cursor{ID: m.ID}
	})
	return messages, nextToken, nil
}
