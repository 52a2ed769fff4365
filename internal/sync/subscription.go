// Package sync keeps live, owner-scoped caches of patients, evolutions
// and source units consistent with the document store. Each synchronizer
// owns one collection: reads come from an in-memory snapshot that is
// re-materialized from the store whenever a change notification arrives
// on the owner's channel, and writes go straight through to the store
// without touching the snapshot (the next notification refreshes it).
package sync

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fisiotrack/clinic-api/pkg/messaging"
)

// Subscription is the handle for one live query. Closing it cancels the
// feed goroutine and blocks until it has stopped, so a stale callback
// can never overwrite a newer owner's cache after logout.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close cancels the live query and waits for its feed to drain.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// subscribe establishes a live query: an initial refresh, then one
// refresh per change notification, delivered in the order the broker
// emits them. A failed refresh is logged and the snapshot keeps its
// previous value until the next notification.
func subscribe(ctx context.Context, broker messaging.Broker, channel string, refresh func(context.Context) error, logger *zerolog.Logger) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := broker.Subscribe(ctx, channel)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := refresh(ctx); err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				if err := refresh(ctx); err != nil {
					logger.Error().Err(err).Str("channel", channel).Msg("refresh failed")
				}
			}
		}
	}()

	return &Subscription{cancel: cancel, done: done}, nil
}
