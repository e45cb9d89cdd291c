package backend

import (
	"sync"
	"sync/atomic"

	"github.com/paglaumhub/reliefmap/internal/models"
)

// subscriberBuffer bounds how many undelivered events a subscriber may hold.
// Writers never block; a subscriber that falls further behind loses events
// and is expected to recover with a full refresh.
const subscriberBuffer = 64

// Broadcaster fans committed change events out to subscribers of one entity
// kind.
type Broadcaster[T any] struct {
	subscribers map[uint64]chan models.ChangeEvent[T]
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		subscribers: make(map[uint64]chan models.ChangeEvent[T]),
	}
}

func (b *Broadcaster[T]) Subscribe() (uint64, chan models.ChangeEvent[T]) {
	id := b.nextID.Add(1)
	ch := make(chan models.ChangeEvent[T], subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster[T]) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster[T]) Broadcast(ev models.ChangeEvent[T]) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing sync channels to observe a
// dropped stream and exit.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
