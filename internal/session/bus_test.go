package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"storefront/internal/session"
)

func TestMain(m *testing.M) {
	// database/sql keeps a lazy connection opener alive for the store tests.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := session.NewBus()

	id1, ch1 := bus.Subscribe(session.TopicIdentityChanged)
	id2, ch2 := bus.Subscribe(session.TopicIdentityChanged)
	idCart, chCart := bus.Subscribe(session.TopicCartChanged)
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)
	defer bus.Unsubscribe(idCart)

	bus.Publish(session.Event{Topic: session.TopicIdentityChanged, UserID: "u1"})

	assert.Equal(t, "u1", (<-ch1).UserID)
	assert.Equal(t, "u1", (<-ch2).UserID)
	// The cart subscriber hears nothing about identity changes.
	assert.Empty(t, chCart)
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := session.NewBus()

	id, ch := bus.Subscribe(session.TopicCartChanged)
	bus.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing twice is harmless.
	bus.Unsubscribe(id)

	// Publishing after unsubscribe reaches nobody and does not panic.
	bus.Publish(session.Event{Topic: session.TopicCartChanged, UserID: "u1"})
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := session.NewBus()

	id, ch := bus.Subscribe(session.TopicIdentityChanged)
	defer bus.Unsubscribe(id)

	// Flood well past the buffer; the slow subscriber has events dropped
	// instead of blocking the publisher.
	for i := 0; i < 100; i++ {
		bus.Publish(session.Event{Topic: session.TopicIdentityChanged, UserID: "u1"})
	}

	drained := 0
	for len(ch) > 0 {
		<-ch
		drained++
	}
	assert.Greater(t, drained, 0)
	assert.LessOrEqual(t, drained, 100)
}
