package backend

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/paglaumhub/reliefmap/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func insertEvent(id string) models.ChangeEvent[models.HelpRequest] {
	return models.ChangeEvent[models.HelpRequest]{
		Op:     models.OpInsert,
		Record: models.HelpRequest{ID: id, Need: "water", Urgency: models.UrgencyHigh},
	}
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster[models.HelpRequest]()

	id, ch := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	b.Unsubscribe(id)
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}

	// Channel should be closed
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed")
		}
	default:
		t.Error("channel should be closed and readable")
	}
}

func TestBroadcaster_Broadcast(t *testing.T) {
	b := NewBroadcaster[models.HelpRequest]()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	b.Broadcast(insertEvent("req_1"))

	select {
	case received := <-ch:
		if received.Record.ID != "req_1" {
			t.Errorf("expected ID req_1, got %s", received.Record.ID)
		}
		if received.Op != models.OpInsert {
			t.Errorf("expected op INSERT, got %s", received.Op)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast")
	}
}

func TestBroadcaster_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster[models.HelpRequest]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := b.Subscribe()
			time.Sleep(time.Millisecond)
			b.Unsubscribe(id)
		}()
	}

	wg.Wait()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after cleanup, got %d", b.SubscriberCount())
	}
}

func TestBroadcaster_ConcurrentBroadcast(t *testing.T) {
	b := NewBroadcaster[models.HelpRequest]()
	var wg sync.WaitGroup

	numSubscribers := 10
	ids := make([]uint64, numSubscribers)
	for i := 0; i < numSubscribers; i++ {
		ids[i], _ = b.Subscribe()
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Broadcast(insertEvent(fmt.Sprintf("req_%d", n)))
		}(i)
	}

	wg.Wait()

	for i := 0; i < numSubscribers; i++ {
		b.Unsubscribe(ids[i])
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster[models.HelpRequest]()

	var channels []chan models.ChangeEvent[models.HelpRequest]
	for i := 0; i < 5; i++ {
		_, ch := b.Subscribe()
		channels = append(channels, ch)
	}

	if b.SubscriberCount() != 5 {
		t.Errorf("expected 5 subscribers, got %d", b.SubscriberCount())
	}

	b.Close()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", b.SubscriberCount())
	}

	for i, ch := range channels {
		select {
		case _, ok := <-ch:
			if ok {
				t.Errorf("channel %d should be closed", i)
			}
		default:
			t.Errorf("channel %d should be closed and readable", i)
		}
	}
}

func TestBroadcaster_SlowSubscriber(t *testing.T) {
	b := NewBroadcaster[models.HelpRequest]()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	// Fill the buffer + 1 more
	for i := 0; i < subscriberBuffer+1; i++ {
		b.Broadcast(insertEvent(fmt.Sprintf("req_%d", i)))
	}

	// Should not block - the overflowing message is dropped
	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:

	if count != subscriberBuffer {
		t.Errorf("expected %d buffered messages, got %d", subscriberBuffer, count)
	}
}
