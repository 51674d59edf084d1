package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/logger"
)

type fakeChannel struct {
	mu     sync.Mutex
	events []Event
	fail   error
	closed int
}

func (f *fakeChannel) Send(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeChannel) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func TestConnectDisconnect(t *testing.T) {
	r := NewRegistry(logger.Discard())
	assert.False(t, r.IsOnline(1))

	ch1, ch2 := &fakeChannel{}, &fakeChannel{}
	c1, err := r.Connect(1, ch1)
	require.NoError(t, err)
	c2, err := r.Connect(1, ch2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)

	assert.True(t, r.IsOnline(1))
	assert.Equal(t, 2, r.Connections(1))

	r.Disconnect(c1)
	assert.True(t, r.IsOnline(1))
	assert.Equal(t, 1, ch1.closed)

	r.Disconnect(c2)
	assert.False(t, r.IsOnline(1))
	assert.Equal(t, 0, r.Users(), "empty sets are dropped")

	// double disconnect is harmless
	r.Disconnect(c2)
	assert.Equal(t, 1, ch2.closed)
}

func TestDeliver_FansOutToEverySession(t *testing.T) {
	r := NewRegistry(logger.Discard())

	phone, laptop, other := &fakeChannel{}, &fakeChannel{}, &fakeChannel{}
	_, _ = r.Connect(1, phone)
	_, _ = r.Connect(1, laptop)
	_, _ = r.Connect(2, other)

	ev := Event{Type: EventNewMessage, ChatID: 9, AuthorID: 2, Text: "hi"}
	assert.Equal(t, 2, r.Deliver(1, ev))
	assert.Equal(t, []Event{ev}, phone.received())
	assert.Equal(t, []Event{ev}, laptop.received())
	assert.Empty(t, other.received())

	assert.Equal(t, 0, r.Deliver(3, ev), "offline user")
}

func TestDeliver_DropsFailingConnection(t *testing.T) {
	r := NewRegistry(logger.Discard())

	stuck := &fakeChannel{fail: ErrChannelFull}
	_, _ = r.Connect(1, stuck)

	assert.Equal(t, 0, r.Deliver(1, Event{Type: EventNewMessage}))
	assert.False(t, r.IsOnline(1))
	assert.Equal(t, 0, r.Users())
	assert.Equal(t, 1, stuck.closed)
}

func TestDeliver_PreservesOrderPerConnection(t *testing.T) {
	r := NewRegistry(logger.Discard())
	ch := &fakeChannel{}
	_, _ = r.Connect(1, ch)

	for i := uint64(1); i <= 50; i++ {
		r.Deliver(1, Event{Type: EventNewMessage, MessageID: i})
	}
	got := ch.received()
	require.Len(t, got, 50)
	for i, ev := range got {
		assert.Equal(t, uint64(i+1), ev.MessageID)
	}
}

func TestConcurrentConnectDisconnect(t *testing.T) {
	r := NewRegistry(logger.Discard())

	var wg sync.WaitGroup
	for u := uint64(1); u <= 5; u++ {
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(userID uint64) {
				defer wg.Done()
				c, err := r.Connect(userID, &fakeChannel{})
				if !assert.NoError(t, err) {
					return
				}
				r.Deliver(userID, Event{Type: EventNewMessage})
				_ = r.IsOnline(userID)
				r.Disconnect(c)
			}(u)
		}
	}
	wg.Wait()

	assert.Equal(t, 0, r.Users())
	for u := uint64(1); u <= 5; u++ {
		assert.False(t, r.IsOnline(u))
	}
}

func TestClose(t *testing.T) {
	r := NewRegistry(logger.Discard())
	a, b := &fakeChannel{}, &fakeChannel{}
	_, _ = r.Connect(1, a)
	_, _ = r.Connect(2, b)

	r.Close()
	r.Close()

	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
	assert.False(t, r.IsOnline(1))

	_, err := r.Connect(1, &fakeChannel{})
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestBuffered(t *testing.T) {
	b := NewBuffered(1)
	require.NoError(t, b.Send(Event{Type: EventNewChat}))
	assert.ErrorIs(t, b.Send(Event{Type: EventNewChat}), ErrChannelFull)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Send(Event{}), ErrChannelClosed)

	ev, ok := <-b.Events()
	assert.True(t, ok)
	assert.Equal(t, EventNewChat, ev.Type)
	_, ok = <-b.Events()
	assert.False(t, ok)
}
