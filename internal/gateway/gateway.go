// Package gateway applies user mutations to the entity store before the
// backend confirms them, and reconciles the eventual confirmed state or
// rolls the optimistic change back.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/paglaumhub/reliefmap/internal/backend"
	"github.com/paglaumhub/reliefmap/internal/models"
	"github.com/paglaumhub/reliefmap/internal/observability"
	"github.com/paglaumhub/reliefmap/internal/store"
)

const defaultUndoWindow = 10 * time.Second

// CreateResult is delivered once the remote insert settles. On success
// Confirmed carries the authoritative record that replaced the placeholder.
type CreateResult[T any] struct {
	Confirmed T
	Err       error
}

// Gateway handles optimistic create/update/delete for one entity kind.
type Gateway[T models.Entity[T]] struct {
	kind       models.Kind
	svc        backend.Service[T]
	store      *store.Store[T]
	metrics    *observability.Metrics
	validate   *validator.Validate
	clock      clockwork.Clock
	undoWindow time.Duration

	mu   sync.Mutex
	undo *undoEntry[T]
}

type undoEntry[T any] struct {
	record    T
	expiresAt time.Time
}

type Option[T models.Entity[T]] func(*Gateway[T])

func WithClock[T models.Entity[T]](c clockwork.Clock) Option[T] {
	return func(g *Gateway[T]) { g.clock = c }
}

func WithUndoWindow[T models.Entity[T]](d time.Duration) Option[T] {
	return func(g *Gateway[T]) { g.undoWindow = d }
}

func New[T models.Entity[T]](kind models.Kind, svc backend.Service[T], st *store.Store[T], metrics *observability.Metrics, opts ...Option[T]) *Gateway[T] {
	g := &Gateway[T]{
		kind:       kind,
		svc:        svc,
		store:      st,
		metrics:    metrics,
		validate:   validator.New(),
		clock:      clockwork.NewRealClock(),
		undoWindow: defaultUndoWindow,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// localID returns a placeholder id, distinguishable from server-assigned
// ids and unique within the session.
func localID() string {
	return "local-" + uuid.NewString()
}

// Create validates rec, applies it to the store under a placeholder id, and
// issues the remote insert. The returned record is the pending placeholder
// as it is visible immediately; the channel delivers exactly one result.
//
// Success replaces the placeholder with the confirmed record in one store
// operation; whichever of this path and the sync-channel echo lands second
// collapses into an in-place replace, so one logical creation is never
// represented twice. Failure removes the placeholder.
func (g *Gateway[T]) Create(ctx context.Context, rec T) (T, <-chan CreateResult[T], error) {
	var zero T
	if err := g.validate.Struct(rec); err != nil {
		return zero, nil, fmt.Errorf("invalid %s payload: %w", g.kind, err)
	}

	pending := rec.WithID(localID()).WithCreatedAt(g.clock.Now()).WithPending(true)
	g.store.Upsert(pending)
	g.metrics.OptimisticCreates.WithLabelValues(string(g.kind)).Inc()

	done := make(chan CreateResult[T], 1)
	go func() {
		confirmed, err := g.svc.Insert(ctx, pending.WithPending(false))
		if err != nil {
			g.store.Delete(pending.EntityID())
			g.metrics.Rollbacks.WithLabelValues(string(g.kind), "create").Inc()
			slog.Warn("create rolled back", "kind", g.kind, "error", err)
			done <- CreateResult[T]{Err: fmt.Errorf("remote insert of %s failed: %w", g.kind, err)}
			return
		}

		g.store.Reconcile(pending.EntityID(), confirmed)
		g.metrics.Reconciliations.WithLabelValues(string(g.kind)).Inc()
		done <- CreateResult[T]{Confirmed: confirmed}
	}()

	return pending, done, nil
}

// UpdateStatus applies the new status immediately and issues the remote
// update. On remote failure the prior status is restored and the error is
// delivered on the returned channel.
func (g *Gateway[T]) UpdateStatus(ctx context.Context, id, status string) (<-chan error, error) {
	prev, ok := g.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", g.kind, id, backend.ErrNotFound)
	}

	g.store.Apply(id, func(cur T) T { return cur.WithStatus(status) })

	done := make(chan error, 1)
	go func() {
		if err := g.svc.Update(ctx, id, prev.WithStatus(status)); err != nil {
			g.store.Apply(id, func(cur T) T { return cur.WithStatus(prev.StatusValue()) })
			g.metrics.Rollbacks.WithLabelValues(string(g.kind), "update").Inc()
			slog.Warn("status update rolled back", "kind", g.kind, "id", id, "error", err)
			done <- fmt.Errorf("remote update of %s %s failed: %w", g.kind, id, err)
			return
		}
		done <- nil
	}()

	return done, nil
}

// Delete removes the record immediately, parks it in the undo buffer, and
// issues the remote delete. On remote failure the record is restored and the
// error delivered.
func (g *Gateway[T]) Delete(ctx context.Context, id string) (<-chan error, error) {
	removed, ok := g.store.Delete(id)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", g.kind, id, backend.ErrNotFound)
	}

	g.mu.Lock()
	g.undo = &undoEntry[T]{record: removed, expiresAt: g.clock.Now().Add(g.undoWindow)}
	g.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		if err := g.svc.Delete(ctx, id); err != nil {
			// Restore from the captured record, not the undo slot: a later
			// delete may have replaced the slot by now, and its entry must
			// survive for its own undo.
			g.discardUndo(id)
			g.store.Upsert(removed)
			g.metrics.Rollbacks.WithLabelValues(string(g.kind), "delete").Inc()
			slog.Warn("delete rolled back", "kind", g.kind, "id", id, "error", err)
			done <- fmt.Errorf("remote delete of %s %s failed: %w", g.kind, id, err)
			return
		}
		done <- nil
	}()

	return done, nil
}

// discardUndo drops the undo entry if it still refers to id. A record put
// back after a failed delete must not also be undoable.
func (g *Gateway[T]) discardUndo(id string) {
	g.mu.Lock()
	if g.undo != nil && g.undo.record.EntityID() == id {
		g.undo = nil
	}
	g.mu.Unlock()
}

// Undo restores the most recently deleted record if the undo window has not
// elapsed, re-inserting it remotely through the same reconciliation path as
// a fresh creation (the backend already committed the delete, so the restore
// gets a new authoritative id). Returns false when there is nothing to undo.
func (g *Gateway[T]) Undo(ctx context.Context) (<-chan CreateResult[T], bool) {
	g.mu.Lock()
	entry := g.undo
	g.undo = nil
	g.mu.Unlock()

	if entry == nil || g.clock.Now().After(entry.expiresAt) {
		return nil, false
	}

	restored := entry.record.WithPending(true)
	g.store.Upsert(restored)
	g.metrics.UndoRestores.WithLabelValues(string(g.kind)).Inc()

	done := make(chan CreateResult[T], 1)
	go func() {
		confirmed, err := g.svc.Insert(ctx, entry.record)
		if err != nil {
			g.store.Delete(restored.EntityID())
			done <- CreateResult[T]{Err: fmt.Errorf("remote re-insert of %s failed: %w", g.kind, err)}
			return
		}
		g.store.Reconcile(restored.EntityID(), confirmed)
		done <- CreateResult[T]{Confirmed: confirmed}
	}()

	return done, true
}
