// Package pushtest provides a recording Notifier for tests.
package pushtest

import (
	"context"
	"sync"

	"github.com/oggyb/muzz-match/internal/push"
)

// Recorder keeps every notification it receives. Err, when set, is returned
// after recording.
type Recorder struct {
	mu   sync.Mutex
	sent []push.Notification
	Err  error
}

func (r *Recorder) Notify(_ context.Context, n push.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.Err
}

func (r *Recorder) Sent() []push.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]push.Notification(nil), r.sent...)
}

// For returns the notifications addressed to userID.
func (r *Recorder) For(userID uint64) []push.Notification {
	var out []push.Notification
	for _, n := range r.Sent() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
