// Package push delivers out-of-band notifications to users who have no live
// connection.
package push

import (
	"context"
	"log/slog"
)

// Notification is one push addressed to a user.
type Notification struct {
	UserID   uint64 `json:"user_id"`
	Message  string `json:"message"`
	DeepLink string `json:"deep_link"`
}

// Notifier hands a notification to the push provider.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier only logs; used when no broker is configured.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "push notification", "user", n.UserID, "message", n.Message, "link", n.DeepLink)
	return nil
}
