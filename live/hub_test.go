package live

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func nextEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case e, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubRegisterSendsConnectedFirst(t *testing.T) {
	hub := NewHub(4, quietLogger())
	sub := hub.Register(SubscribeOptions{})
	defer sub.Close()

	hub.Broadcast(Event{Topic: TopicOrders, Type: EventNewOrder, OrderID: "o1"})

	assert.Equal(t, EventConnected, nextEvent(t, sub).Type)
	assert.Equal(t, "o1", nextEvent(t, sub).OrderID)
	assert.Equal(t, 1, hub.Count())
}

func TestHubFiltersByTopicAndTable(t *testing.T) {
	hub := NewHub(8, quietLogger())
	staff := hub.Register(SubscribeOptions{Topics: []Topic{TopicPaymentRequests}})
	table := hub.Register(SubscribeOptions{Topics: []Topic{TopicOrders}, TableID: "t1"})
	defer staff.Close()
	defer table.Close()
	nextEvent(t, staff)
	nextEvent(t, table)

	hub.Broadcast(Event{Topic: TopicOrders, Type: EventNewOrder, TableID: "t2"})
	hub.Broadcast(Event{Topic: TopicOrders, Type: EventStatusUpdate, TableID: "t1"})
	hub.Broadcast(Event{Topic: TopicPaymentRequests, Type: EventPaymentRequest, TableID: "t1"})

	assert.Equal(t, EventStatusUpdate, nextEvent(t, table).Type)
	assert.Equal(t, EventPaymentRequest, nextEvent(t, staff).Type)
	assert.Len(t, table.Events(), 0)
	assert.Len(t, staff.Events(), 0)
}

func TestHubDropsStalledSubscriberOnly(t *testing.T) {
	hub := NewHub(2, quietLogger())
	slow := hub.Register(SubscribeOptions{})
	fast := hub.Register(SubscribeOptions{})
	nextEvent(t, fast)

	// slow still holds its connected event, so the second broadcast overflows it
	hub.Broadcast(Event{Topic: TopicOrders, Type: EventNewOrder, OrderID: "a"})
	nextEvent(t, fast)
	hub.Broadcast(Event{Topic: TopicOrders, Type: EventNewOrder, OrderID: "b"})

	assert.Equal(t, "b", nextEvent(t, fast).OrderID)
	assert.Equal(t, 1, hub.Count())

	var drained []Event
	for e := range slow.Events() {
		drained = append(drained, e)
	}
	assert.Len(t, drained, 2)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub(1, quietLogger())
	sub := hub.Register(SubscribeOptions{})

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 0, hub.Broadcast(Event{Topic: TopicOrders, Type: EventNewOrder}))
}

func TestHubCloseAllEndsEverySubscription(t *testing.T) {
	hub := NewHub(4, quietLogger())
	a := hub.Register(SubscribeOptions{})
	b := hub.Register(SubscribeOptions{Topics: []Topic{TopicPaymentRequests}})

	hub.CloseAll()
	assert.Equal(t, 0, hub.Count())

	for _, sub := range []*Subscription{a, b} {
		assert.Equal(t, EventConnected, nextEvent(t, sub).Type)
		_, ok := <-sub.Events()
		assert.False(t, ok)
		sub.Close()
	}
}
