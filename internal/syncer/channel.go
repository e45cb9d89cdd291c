// Package syncer keeps one entity store consistent with its remote
// collection: an initial bulk fetch followed by in-order application of the
// change-event stream.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/paglaumhub/reliefmap/internal/backend"
	"github.com/paglaumhub/reliefmap/internal/models"
	"github.com/paglaumhub/reliefmap/internal/observability"
	"github.com/paglaumhub/reliefmap/internal/store"
)

// ErrStreamDropped reports that the subscription terminated. The channel does
// not retry; Refresh is the remedy.
var ErrStreamDropped = errors.New("change stream dropped")

// Channel syncs one entity kind. Events are consumed by a single goroutine,
// which preserves arrival order within the kind.
type Channel[T models.Entity[T]] struct {
	kind    models.Kind
	svc     backend.Service[T]
	store   *store.Store[T]
	metrics *observability.Metrics
	onDrop  func(error)

	sub     *backend.Subscription[T]
	closing atomic.Bool
	wg      sync.WaitGroup
}

type Option[T models.Entity[T]] func(*Channel[T])

// WithOnDrop sets the callback invoked (from the consumer goroutine) when
// the subscription stream terminates.
func WithOnDrop[T models.Entity[T]](fn func(error)) Option[T] {
	return func(c *Channel[T]) { c.onDrop = fn }
}

func New[T models.Entity[T]](kind models.Kind, svc backend.Service[T], st *store.Store[T], metrics *observability.Metrics, opts ...Option[T]) *Channel[T] {
	c := &Channel[T]{
		kind:    kind,
		svc:     svc,
		store:   st,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open performs the bulk fetch, replaces the store contents, and starts
// consuming the change stream until ctx is cancelled or the stream drops.
func (c *Channel[T]) Open(ctx context.Context) error {
	recs, err := c.svc.SelectAll(ctx)
	if err != nil {
		return fmt.Errorf("initial fetch of %s failed: %w", c.kind, err)
	}
	c.store.ReplaceAll(recs)

	sub, err := c.svc.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to %s failed: %w", c.kind, err)
	}
	c.sub = sub

	c.wg.Add(1)
	go c.consume(ctx, sub)

	slog.Info("sync channel open", "kind", c.kind, "records", len(recs))
	return nil
}

func (c *Channel[T]) consume(ctx context.Context, sub *backend.Subscription[T]) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			sub.Close()
			return
		case ev, ok := <-sub.Events():
			if !ok {
				if c.closing.Load() {
					return
				}
				c.metrics.StreamDrops.WithLabelValues(string(c.kind)).Inc()
				slog.Warn("change stream dropped", "kind", c.kind)
				if c.onDrop != nil {
					c.onDrop(ErrStreamDropped)
				}
				return
			}
			c.apply(ev)
		}
	}
}

// apply maps one change event onto the store:
//
//	Insert  -> upsert (same-id arrivals replace in place, never duplicate)
//	Update  -> merge mutable fields by id; no-op when the id is absent
//	Delete  -> remove by id; no-op when already absent
func (c *Channel[T]) apply(ev models.ChangeEvent[T]) {
	if ev.Record.EntityID() == "" {
		c.metrics.MalformedEvents.WithLabelValues(string(c.kind)).Inc()
		slog.Warn("dropping malformed change event", "kind", c.kind, "op", ev.Op)
		return
	}

	switch ev.Op {
	case models.OpInsert:
		c.store.Upsert(ev.Record)
	case models.OpUpdate:
		c.store.Apply(ev.Record.EntityID(), func(cur T) T {
			return cur.MergeMutable(ev.Record)
		})
	case models.OpDelete:
		c.store.Delete(ev.Record.EntityID())
	default:
		c.metrics.MalformedEvents.WithLabelValues(string(c.kind)).Inc()
		slog.Warn("dropping change event with unknown op", "kind", c.kind, "op", ev.Op)
		return
	}

	c.metrics.EventsApplied.WithLabelValues(string(c.kind), string(ev.Op)).Inc()
}

// Refresh re-runs the bulk fetch and replaces the store contents. It is the
// canonical recovery from a dropped stream or suspected divergence.
func (c *Channel[T]) Refresh(ctx context.Context) error {
	recs, err := c.svc.SelectAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh of %s failed: %w", c.kind, err)
	}
	c.store.ReplaceAll(recs)
	c.metrics.SyncRefreshes.WithLabelValues(string(c.kind)).Inc()
	slog.Info("refreshed", "kind", c.kind, "records", len(recs))
	return nil
}

// Close releases the subscription and waits for the consumer to exit.
func (c *Channel[T]) Close() {
	c.closing.Store(true)
	if c.sub != nil {
		c.sub.Close()
	}
	c.wg.Wait()
}
