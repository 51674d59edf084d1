// Package chat owns one-to-one chats between matched users and the delivery
// of their messages.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/lock"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/presence"
	"github.com/oggyb/muzz-match/internal/push"
	"github.com/oggyb/muzz-match/internal/repository"
)

// Pusher is the fire-and-forget side of push.Dispatcher.
type Pusher interface {
	Dispatch(push.Notification)
}

// Deps groups what a Gateway is built from.
type Deps struct {
	Users    *repository.UserRepository
	Chats    *repository.ChatRepository
	Messages *repository.MessageRepository
	Presence *presence.Registry
	Pusher   Pusher
	AppURL   string
	Log      *slog.Logger
}

type Gateway struct {
	users    *repository.UserRepository
	chats    *repository.ChatRepository
	messages *repository.MessageRepository
	presence *presence.Registry
	pusher   Pusher
	appURL   string
	log      *slog.Logger

	// held across persist + fan-out so delivery follows commit order
	chatLocks *lock.Keyed[uint64]
}

func NewGateway(d Deps) *Gateway {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		users:     d.Users,
		chats:     d.Chats,
		messages:  d.Messages,
		presence:  d.Presence,
		pusher:    d.Pusher,
		appURL:    strings.TrimRight(d.AppURL, "/"),
		log:       log,
		chatLocks: lock.NewKeyed[uint64](),
	}
}

// ChatLink is the deep link a push about author's messages opens.
func (g *Gateway) ChatLink(authorID uint64) string {
	return fmt.Sprintf("%s/users/%d/chat", g.appURL, authorID)
}

// GetOrCreate returns the single chat joining a and b.
//
// Behavior:
//   - Fails with ErrNotAuthorized unless a and b are mutually matched and
//     not reported either way.
//   - Concurrent callers converge on one row; only the creator fans out a
//     new_chat event to both members.
func (g *Gateway) GetOrCreate(ctx context.Context, a, b uint64) (*db.Chat, error) {
	if a == b {
		return nil, svcErr.Invalid("a chat needs two distinct users")
	}

	ok, err := g.users.CanWrite(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("chat %d-%d: %w", a, b, svcErr.ErrNotAuthorized)
	}

	chat, created, err := g.chats.GetOrCreate(ctx, a, b)
	if err != nil {
		return nil, err
	}

	if created {
		g.log.Info("chat created", "chat", chat.ID, "low", chat.UserLowID, "high", chat.UserHighID)
		ev := presence.Event{
			Type:      presence.EventNewChat,
			ChatID:    chat.ID,
			Members:   []uint64{chat.UserLowID, chat.UserHighID},
			CreatedAt: chat.CreatedAt,
		}
		g.presence.Deliver(chat.UserLowID, ev)
		g.presence.Deliver(chat.UserHighID, ev)
	}
	return chat, nil
}

// SendMessage appends text to chatID on behalf of authorID.
//
// Behavior:
//   - ErrNotAMember when the author is not in the chat, ErrNotAuthorized
//     when the pair was reported after the chat was opened.
//   - Every live session of every member gets the event, the author's other
//     sessions included.
//   - Each offline member other than the author gets one push.
func (g *Gateway) SendMessage(ctx context.Context, chatID, authorID uint64, text string) (*db.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, svcErr.Invalid("message text is empty")
	}

	members, err := g.memberIDs(ctx, chatID, authorID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m == authorID {
			continue
		}
		ok, err := g.users.CanWrite(ctx, authorID, m)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("chat %d: %w", chatID, svcErr.ErrNotAuthorized)
		}
	}

	author, err := g.users.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}

	unlock := g.chatLocks.Lock(chatID)
	defer unlock()

	msg, err := g.messages.Create(ctx, chatID, authorID, text)
	if err != nil {
		return nil, err
	}
	metrics.RecordMessage()

	ev := presence.Event{
		Type:      presence.EventNewMessage,
		ChatID:    chatID,
		AuthorID:  authorID,
		MessageID: msg.ID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
	for _, m := range members {
		if g.presence.Deliver(m, ev) > 0 || m == authorID {
			continue
		}
		g.pusher.Dispatch(push.Notification{
			UserID:   m,
			Message:  fmt.Sprintf("New message from %s", author.Name),
			DeepLink: g.ChatLink(authorID),
		})
	}

	g.log.Debug("message sent", "chat", chatID, "author", authorID, "message", msg.ID)
	return msg, nil
}

// memberIDs lists the chat's members after checking userID is one of them.
func (g *Gateway) memberIDs(ctx context.Context, chatID, userID uint64) ([]uint64, error) {
	if _, err := g.chats.ByID(ctx, chatID); err != nil {
		return nil, err
	}
	members, err := g.chats.Members(ctx, chatID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(members))
	isMember := false
	for _, m := range members {
		ids = append(ids, m.UserID)
		if m.UserID == userID {
			isMember = true
		}
	}
	if !isMember {
		return nil, fmt.Errorf("chat %d user %d: %w", chatID, userID, svcErr.ErrNotAMember)
	}
	return ids, nil
}

// ListChats returns the chats of userID, newest first.
func (g *Gateway) ListChats(ctx context.Context, userID uint64) ([]db.Chat, error) {
	return g.chats.ListForUser(ctx, userID)
}

// ListMessages pages through a chat, newest first. Members only.
func (g *Gateway) ListMessages(ctx context.Context, chatID, userID uint64, token *string, limit int) ([]db.Message, *string, error) {
	if _, err := g.memberIDs(ctx, chatID, userID); err != nil {
		return nil, nil, err
	}
	return g.messages.List(ctx, chatID, token, limit)
}

// DeleteChat removes a chat and its log. Members only.
func (g *Gateway) DeleteChat(ctx context.Context, chatID, userID uint64) error {
	if _, err := g.memberIDs(ctx, chatID, userID); err != nil {
		return err
	}
	unlock := g.chatLocks.Lock(chatID)
	defer unlock()
	if err := g.chats.Delete(ctx, chatID); err != nil {
		return err
	}
	g.log.Info("chat deleted", "chat", chatID, "by", userID)
	return nil
}
