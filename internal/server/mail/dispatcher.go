package mail

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/logging"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher sends messages on background goroutines so callers never
// wait on the transport. Every result is logged.
type Dispatcher struct {
	sender  Sender
	logger  logging.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(sender Sender, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		logger:  logger.With("module", "mail"),
		timeout: defaultSendTimeout,
	}
}

// Dispatch queues msg and returns immediately. The send outlives ctx's
// cancellation but keeps its values.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Error(ctx, "email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
			return
		}
		d.logger.Info(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	}()
}

// Wait blocks until all dispatched messages are done or ctx ends.
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
