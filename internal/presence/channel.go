package presence

import (
	"errors"
	"sync"
	"time"
)

// Event types fanned out to live connections.
const (
	EventNewMessage = "new_message"
	EventNewChat    = "new_chat"
	EventError      = "error"
)

// Event is one structured record pushed to a live connection. Error events
// only ever go back to the connection whose request failed.
type Event struct {
	Type      string    `json:"type"`
	ChatID    uint64    `json:"chat_id"`
	AuthorID  uint64    `json:"author_id,omitempty"`
	MessageID uint64    `json:"message_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Members   []uint64  `json:"members,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrChannelFull   = errors.New("presence: channel buffer full")
	ErrChannelClosed = errors.New("presence: channel closed")
)

// Channel is a live delivery endpoint. Send must not block.
type Channel interface {
	Send(Event) error
	Close() error
}

// Buffered is a Channel backed by a bounded Go channel; a transport pump
// drains Events().
type Buffered struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func NewBuffered(size int) *Buffered {
	return &Buffered{ch: make(chan Event, size)}
}

func (b *Buffered) Send(ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrChannelClosed
	}
	select {
	case b.ch <- ev:
		return nil
	default:
		return ErrChannelFull
	}
}

// Close is idempotent; Events() is closed after the buffered events drain.
func (b *Buffered) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
	return nil
}

func (b *Buffered) Events() <-chan Event {
	return b.ch
}
