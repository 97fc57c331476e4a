// Package notify delivers voter confirmations outside the vote request path.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull   = errors.New("notification queue is full")
	ErrQueueClosed = errors.New("notification queue is closed")
)

// Message is a templated notification for a single recipient
type Message struct {
	Template string                 `json:"template"`
	To       string                 `json:"to"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Sender performs one delivery attempt
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Options struct {
	Workers     int
	Size        int
	MaxAttempts int
	// BaseBackoff doubles after every failed attempt
	BaseBackoff    time.Duration
	AttemptTimeout time.Duration
}

func (o *Options) withDefaults() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Size <= 0 {
		o.Size = 64
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 500 * time.Millisecond
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 10 * time.Second
	}
}

// Queue is a bounded buffer drained by a fixed worker pool
type Queue struct {
	sender Sender
	opts   Options
	logger *zap.Logger

	mu     sync.RWMutex
	tasks  chan Message
	closed bool
	group  *errgroup.Group
	cancel context.CancelFunc
}

func NewQueue(sender Sender, opts Options, logger *zap.Logger) *Queue {
	opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		sender: sender,
		opts:   opts,
		logger: logger,
		tasks:  make(chan Message, opts.Size),
	}
}

// Start launches the workers. They run until Stop is called or ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.group != nil || q.closed {
		return
	}

	ctx, q.cancel = context.WithCancel(ctx)
	q.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.group.Go(func() error {
			for {
				select {
				case msg, ok := <-q.tasks:
					if !ok {
						return nil
					}
					q.deliver(ctx, msg)
				case <-ctx.Done():
					return nil
				}
			}
		})
	}
	q.logger.Info("Notification workers started", zap.Int("workers", q.opts.Workers))
}

// Enqueue never blocks
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new messages and waits for queued ones until ctx expires
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	group, cancel := q.group, q.cancel
	q.mu.Unlock()

	if group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		cancel()
		q.logger.Info("Notification queue drained")
		return err
	case <-ctx.Done():
		cancel()
		q.logger.Warn("Notification queue stopped before draining", zap.Int("pending", len(q.tasks)))
		return ctx.Err()
	}
}

func (q *Queue) deliver(ctx context.Context, msg Message) {
	backoff := q.opts.BaseBackoff
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, q.opts.AttemptTimeout)
		err := q.sender.Send(attemptCtx, msg)
		cancel()
		if err == nil {
			q.logger.Debug("Notification sent",
				zap.String("template", msg.Template),
				zap.Int("attempt", attempt))
			return
		}

		if attempt >= q.opts.MaxAttempts {
			q.logger.Warn("Notification dropped after retries",
				zap.String("template", msg.Template),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return
		}

		q.logger.Debug("Notification attempt failed",
			zap.String("template", msg.Template),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			q.logger.Warn("Notification abandoned on shutdown", zap.String("template", msg.Template))
			return
		}
		backoff *= 2
	}
}
