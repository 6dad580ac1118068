package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/betna-immo/betna/internal/broker"
)

// Subscription delivers the full result set of a query on C: once
// immediately, then after every change. A reader that falls behind
// only ever sees the latest snapshot. C is closed after Close.
type Subscription struct {
	C      <-chan []*Listing
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the subscription and waits for C to be closed.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Watch subscribes to q. The subscription ends when ctx is done or Close is called.
func (s *Service) Watch(ctx context.Context, q Query) (*Subscription, error) {
	if s.broker == nil {
		return nil, fmt.Errorf("watch: no broker configured")
	}

	// Subscribe before the first read so no change falls between the two.
	events, unsubscribe := s.broker.Subscribe(broker.TopicListings)

	initial, err := s.repo.List(ctx, q)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []*Listing, 1)
	out <- initial

	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
			}
			drain(events)

			snapshot, err := s.repo.List(ctx, q)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("watch: refreshing listings", "err", err)
				continue
			}
			offer(out, snapshot)
		}
	}()
	return sub, nil
}

// drain discards queued events; one re-read covers them all.
func drain(events <-chan broker.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// offer replaces any unread snapshot with the newer one.
func offer(out chan []*Listing, snapshot []*Listing) {
	for {
		select {
		case out <- snapshot:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
