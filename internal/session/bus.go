package session

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Topic identifies a cross-component signal.
type Topic string

const (
	// TopicIdentityChanged fires when the identity mirror is rewritten or
	// erased, so other views resynchronize their copy.
	TopicIdentityChanged Topic = "identity.changed"
	// TopicCartChanged fires when the cart contents may have changed.
	TopicCartChanged Topic = "cart.changed"
)

// Event is a single broadcast on the bus.
type Event struct {
	Topic  Topic
	UserID string
}

// Bus is an in-process publish-subscribe channel for cross-component signals.
// Publishing never blocks: a subscriber that is not keeping up has the event
// dropped, since every signal only means "resynchronize" and the next one
// carries the same instruction.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*subscription
}

type subscription struct {
	topic Topic
	ch    chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*subscription)}
}

// Subscribe registers interest in a topic and returns the subscription ID and
// the event channel. The channel is closed by Unsubscribe.
func (b *Bus) Subscribe(topic Topic) (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription{topic: topic, ch: make(chan Event, 8)}
	b.subs[id] = sub
	return id, sub.ch
}

// Unsubscribe removes the subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)
}

// Publish broadcasts the event to every subscriber of its topic.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		if sub.topic != event.Topic {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			log.Printf("session bus: dropping %s event for slow subscriber %s", event.Topic, id)
		}
	}
}
