package live

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/utils"
)

const defaultBufferSize = 64

// SubscribeOptions narrows what a subscription receives. Empty Topics means
// every topic; an empty TableID means every table.
type SubscribeOptions struct {
	Topics  []Topic
	TableID string
}

// Subscription is one open viewer stream.
type Subscription struct {
	id      uint64
	topics  map[Topic]bool
	tableID string
	events  chan Event
	hub     *Hub
	once    sync.Once
}

// Events is closed when the subscription is removed, either by Close or
// because the consumer fell too far behind.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() {
	s.hub.Unregister(s)
}

func (s *Subscription) matches(e Event) bool {
	if len(s.topics) > 0 && !s.topics[e.Topic] {
		return false
	}
	if s.tableID != "" && e.TableID != s.tableID {
		return false
	}
	return true
}

// Hub holds the subscriptions connected to this process.
type Hub struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	logger     logrus.FieldLogger
}

func NewHub(bufferSize int, logger logrus.FieldLogger) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Register adds a subscription and queues the connected event as its first
// message.
func (h *Hub) Register(opts SubscribeOptions) *Subscription {
	sub := &Subscription{
		topics:  make(map[Topic]bool, len(opts.Topics)),
		tableID: opts.TableID,
		events:  make(chan Event, h.bufferSize),
		hub:     h,
	}
	for _, t := range opts.Topics {
		sub.topics[t] = true
	}
	sub.events <- Event{Type: EventConnected, TableID: opts.TableID}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	h.mu.Unlock()

	utils.LiveSubscribers.Inc()
	return sub
}

func (h *Hub) Unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// remove must be called with h.mu held for writing.
func (h *Hub) remove(sub *Subscription) {
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	sub.once.Do(func() { close(sub.events) })
	utils.LiveSubscribers.Dec()
}

// Broadcast hands the event to every matching subscription without blocking.
// Subscriptions whose buffer is full are removed so one stalled viewer never
// holds up the rest. It returns the number of subscriptions reached.
func (h *Hub) Broadcast(e Event) int {
	var stalled []*Subscription
	delivered := 0

	h.mu.RLock()
	for _, sub := range h.subs {
		if !sub.matches(e) {
			continue
		}
		select {
		case sub.events <- e:
			delivered++
		default:
			stalled = append(stalled, sub)
		}
	}
	h.mu.RUnlock()

	if len(stalled) > 0 {
		h.mu.Lock()
		for _, sub := range stalled {
			h.remove(sub)
		}
		h.mu.Unlock()
		utils.SubscribersDroppedTotal.Add(float64(len(stalled)))
		h.logger.WithField("dropped", len(stalled)).Warn("Dropped slow live subscribers")
	}

	return delivered
}

// CloseAll ends every subscription. Viewers see their channel close and
// return, which lets the server drain streaming connections.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	n := len(h.subs)
	for _, sub := range h.subs {
		h.remove(sub)
	}
	h.mu.Unlock()

	if n > 0 {
		h.logger.WithField("subscribers", n).Info("Closed live subscribers")
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
