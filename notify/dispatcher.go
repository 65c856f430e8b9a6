package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering and per-send timeout.
type Config struct {
	BufferSize  int
	SendTimeout time.Duration
}

// Dispatcher hands notifications to a Sender on one background worker.
// Dispatch never blocks: when the buffer is full the notification is dropped.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration

	ch        chan Notification
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewDispatcher starts the worker. A nil sender yields a nil Dispatcher,
// which silently discards everything.
func NewDispatcher(sender Sender, cfg Config, logger *slog.Logger) *Dispatcher {
	if sender == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{
		sender:  sender,
		logger:  logger.With(slog.String("component", "notify")),
		timeout: cfg.SendTimeout,
		ch:      make(chan Notification, cfg.BufferSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for n := range d.ch {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sender panic: %v", r)
			}
		}()
		return d.sender.Send(ctx, n)
	}()
	if err != nil {
		d.failed.Add(1)
		d.logger.Warn("notification delivery failed",
			slog.String("kind", string(n.Kind)),
			slog.String("to", n.To),
			slog.Any("error", err),
		)
		return
	}
	d.sent.Add(1)
}

// Dispatch queues n for delivery.
func (d *Dispatcher) Dispatch(n Notification) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.ch <- n:
	default:
		d.dropped.Add(1)
		d.logger.Warn("notification dropped, buffer full",
			slog.String("kind", string(n.Kind)),
			slog.String("to", n.To),
		)
	}
}

// Close stops accepting notifications and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.ch)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) Sent() uint64 {
	if d == nil {
		return 0
	}
	return d.sent.Load()
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
