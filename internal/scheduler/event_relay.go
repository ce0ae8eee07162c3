package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Relay is a long-running subscription that returns when it loses its connection
type Relay interface {
	Run(ctx context.Context) error
}

// EventRelay keeps a Relay running, restarting it with backoff until stopped
type EventRelay struct {
	relay      Relay
	logger     logger.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
	stopCh     chan struct{}
	done       chan struct{}
}

// NewEventRelay creates a new relay runner
func NewEventRelay(relay Relay, log logger.Logger) *EventRelay {
	return &EventRelay{
		relay:      relay,
		logger:     log,
		minBackoff: 250 * time.Millisecond,
		maxBackoff: 10 * time.Second,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the relay loop in the background
func (er *EventRelay) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-er.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		defer close(er.done)
		defer cancel()

		backoff := er.minBackoff
		for {
			err := er.relay.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				er.logger.Warn("auth event relay stopped, restarting",
					logger.Error(err),
					logger.Duration("backoff", backoff))
			}

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > er.maxBackoff {
				backoff = er.maxBackoff
			}
		}
	}()
}

// Stop cancels the relay and waits for the loop to exit
func (er *EventRelay) Stop() {
	close(er.stopCh)
	<-er.done
}
