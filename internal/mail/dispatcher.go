package mail

import (
	"context"
	"fmt"
	"time"

	"cleanservice/internal/metrics"

	"go.uber.org/zap"
)

// Enqueuer hands a message to a background worker.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, msg Message) error
}

// Mailer is what request handlers depend on.
type Mailer interface {
	Required(ctx context.Context, msg Message) error
	BestEffort(ctx context.Context, msg Message)
}

// Dispatcher applies the delivery policy of each operation:
// Required mail fails the caller, BestEffort mail never does.
type Dispatcher struct {
	sender  Sender
	queue   Enqueuer
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewDispatcher builds a dispatcher. queue may be nil, in which case best-effort
// mail is sent inline.
func NewDispatcher(sender Sender, queue Enqueuer, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sender:  sender,
		queue:   queue,
		log:     log,
		metrics: m,
		timeout: 15 * time.Second,
	}
}

// Required sends msg synchronously and returns the delivery error.
func (d *Dispatcher) Required(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sender.Send(ctx, msg.To, msg.Subject, msg.HTML); err != nil {
		d.metrics.EmailSent(string(msg.Kind), "failed")
		d.log.Error("required email failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return fmt.Errorf("send %s email: %w", msg.Kind, err)
	}
	d.metrics.EmailSent(string(msg.Kind), "sent")
	return nil
}

// BestEffort queues msg when a queue is configured and sends it inline
// otherwise. Failures are logged and counted.
func (d *Dispatcher) BestEffort(ctx context.Context, msg Message) {
	if msg.To == "" {
		return
	}
	// The request may finish before delivery does.
	ctx = context.WithoutCancel(ctx)

	if d.queue != nil {
		err := d.queue.EnqueueEmail(ctx, msg)
		if err == nil {
			d.metrics.EmailSent(string(msg.Kind), "queued")
			return
		}
		d.log.Warn("email enqueue failed, sending inline",
			zap.String("kind", string(msg.Kind)),
			zap.Error(err),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sender.Send(ctx, msg.To, msg.Subject, msg.HTML); err != nil {
		d.metrics.EmailSent(string(msg.Kind), "failed")
		d.log.Warn("best-effort email failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return
	}
	d.metrics.EmailSent(string(msg.Kind), "sent")
}
