// Package backend defines the contract of the remote data service that owns
// the entity collections, and ships a local sqlite implementation of it.
package backend

import (
	"context"
	"errors"
	"sync"

	"github.com/paglaumhub/reliefmap/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrClosed   = errors.New("backend closed")
)

// Service is one entity collection of the backend data store: bulk query,
// writes returning the confirmed state, and a change-event subscription.
// Insert assigns the authoritative id; Update touches mutable fields only.
type Service[T models.Entity[T]] interface {
	SelectAll(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, rec T) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context) (*Subscription[T], error)
}

// Subscription is a handle on a change-event stream. Events() is closed when
// the stream drops or the subscription is released; Close is idempotent and
// safe from any goroutine.
type Subscription[T any] struct {
	events  <-chan models.ChangeEvent[T]
	release func()
	once    sync.Once
}

func NewSubscription[T any](events <-chan models.ChangeEvent[T], release func()) *Subscription[T] {
	return &Subscription[T]{events: events, release: release}
}

func (s *Subscription[T]) Events() <-chan models.ChangeEvent[T] {
	return s.events
}

func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}
