package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/utils"
)

const defaultBatchSize = 256

// Dispatcher publishes lifecycle events and delivers them to the viewers
// connected to this process. With an EventLog, events travel through the log
// and every process relays them to its own hub; without one they go straight
// to the local hub.
type Dispatcher struct {
	hub          *Hub
	log          EventLog
	logger       logrus.FieldLogger
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time

	mu      sync.Mutex
	cursors map[Topic]Cursor

	// relayMu serialises relays so an entry is broadcast once and in log order.
	relayMu sync.Mutex
}

func NewDispatcher(hub *Hub, log EventLog, pollInterval time.Duration, logger logrus.FieldLogger) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	return &Dispatcher{
		hub:          hub,
		log:          log,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    defaultBatchSize,
		now:          time.Now,
		cursors:      make(map[Topic]Cursor),
	}
}

func (d *Dispatcher) Hub() *Hub {
	return d.hub
}

// Publish never fails the caller: a log error is logged and the event is
// delivered to local viewers directly instead. Entries already in the log are
// relayed first so local viewers still see events in publish order. Viewers
// in other processes miss an event that never reached the log.
func (d *Dispatcher) Publish(ctx context.Context, e Event) {
	ctx, span := utils.StartSpan(ctx, "live.Publish")
	defer span.End()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Topic == "" {
		e.Topic = TopicOrders
	}
	if e.Timestamp == 0 {
		e.Timestamp = d.now().UnixMilli()
	}
	utils.EventsPublishedTotal.WithLabelValues(string(e.Topic), e.Type).Inc()

	if d.log == nil {
		d.hub.Broadcast(e)
		return
	}

	if _, err := d.log.Append(ctx, e); err != nil {
		utils.EventLogFailuresTotal.Inc()
		d.logger.WithError(err).WithFields(logrus.Fields{
			"topic": e.Topic,
			"type":  e.Type,
		}).Warn("Event log unavailable, delivering to local subscribers only")
		d.relayMu.Lock()
		d.relayLocked(ctx, e.Topic)
		d.hub.Broadcast(e)
		d.relayMu.Unlock()
	}
}

func (d *Dispatcher) Subscribe(opts SubscribeOptions) *Subscription {
	return d.hub.Register(opts)
}

// Prime positions the relay at the current tail of every topic so only
// events appended afterwards are relayed. Run primes lazily; calling Prime
// first makes the starting point deterministic.
func (d *Dispatcher) Prime(ctx context.Context) error {
	if d.log == nil {
		return nil
	}
	for _, topic := range Topics {
		if err := d.primeTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) primeTopic(ctx context.Context, topic Topic) error {
	d.mu.Lock()
	_, ok := d.cursors[topic]
	d.mu.Unlock()
	if ok {
		return nil
	}

	latest, err := d.log.Latest(ctx, topic)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if _, ok := d.cursors[topic]; !ok {
		d.cursors[topic] = latest
	}
	d.mu.Unlock()
	return nil
}

// Run relays log entries to the local hub until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.log == nil {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.logger.WithField("interval", d.pollInterval).Info("Live update relay started")
	for {
		for _, topic := range Topics {
			d.relay(ctx, topic)
		}

		select {
		case <-ctx.Done():
			d.logger.Info("Live update relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) relay(ctx context.Context, topic Topic) {
	d.relayMu.Lock()
	defer d.relayMu.Unlock()
	d.relayLocked(ctx, topic)
}

// relayLocked must be called with d.relayMu held.
func (d *Dispatcher) relayLocked(ctx context.Context, topic Topic) {
	if err := d.primeTopic(ctx, topic); err != nil {
		if ctx.Err() == nil {
			d.logger.WithError(err).WithField("topic", topic).Warn("Could not read event log tail")
		}
		return
	}

	for {
		d.mu.Lock()
		cursor := d.cursors[topic]
		d.mu.Unlock()

		entries, err := d.log.PollSince(ctx, topic, cursor, d.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				d.logger.WithError(err).WithField("topic", topic).Warn("Event log poll failed")
			}
			return
		}

		for _, entry := range entries {
			if entry.Event.Type == "" {
				d.logger.WithField("cursor", entry.Cursor).Warn("Skipping undecodable event log entry")
			} else {
				d.hub.Broadcast(entry.Event)
			}
			cursor = entry.Cursor
		}

		d.mu.Lock()
		d.cursors[topic] = cursor
		d.mu.Unlock()

		if len(entries) < d.batchSize {
			return
		}
	}
}
