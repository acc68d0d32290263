package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("event publisher closed")
)

// Async hands events to a background worker so request handlers never wait
// on the broker. Events are dropped when the buffer is full.
type Async struct {
	inner   Publisher
	queue   chan Event
	timeout time.Duration
	logger  *zap.SugaredLogger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewAsync(inner Publisher, buffer int, logger *zap.SugaredLogger) *Async {
	a := &Async{
		inner:   inner,
		queue:   make(chan Event, buffer),
		timeout: 5 * time.Second,
		logger:  logger,
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.inner.Publish(ctx, ev); err != nil {
			a.logger.Warnw("failed to publish board event", "id", ev.ID, "kind", ev.Kind, "station", ev.Station, "error", err)
		}
		cancel()
	}
}

func (a *Async) Publish(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.logger.Warnw("dropping board event after close", "id", ev.ID, "station", ev.Station)
		return ErrClosed
	}

	select {
	case a.queue <- ev:
		return nil
	default:
		a.logger.Warnw("dropping board event", "id", ev.ID, "station", ev.Station)
		return ErrQueueFull
	}
}

// Close flushes queued events and closes the wrapped publisher. Later
// Publish calls return ErrClosed.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	return a.inner.Close()
}
