package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/muzz-match/internal/metrics"
)

// Dispatcher fires notifications in the background. A failed push is logged
// and counted, never retried and never reported to the caller.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger

	mu     sync.Mutex // guards closed and wg.Add against Close
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(notifier Notifier, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{notifier: notifier, timeout: timeout, log: log}
}

// Dispatch returns immediately. The push runs on its own context so it
// outlives the request that triggered it. After Close it only logs.
func (d *Dispatcher) Dispatch(n Notification) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		metrics.RecordPush(metrics.PushFailed)
		d.log.Warn("push dropped, dispatcher closed", "user", n.UserID, "link", n.DeepLink)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.send(ctx, n); err != nil {
			metrics.RecordPush(metrics.PushFailed)
			d.log.Warn("push dispatch failed", "user", n.UserID, "link", n.DeepLink, "err", err)
			return
		}
		metrics.RecordPush(metrics.PushOK)
		d.log.Debug("push dispatched", "user", n.UserID, "link", n.DeepLink)
	}()
}

func (d *Dispatcher) send(ctx context.Context, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Notify(ctx, n)
}

// Wait blocks until in-flight dispatches finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further dispatches and waits for the in-flight ones like Wait.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return d.Wait(ctx)
}
