package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const eventField = "event"

// RedisLog stores each topic in a Redis stream trimmed to roughly maxLen
// entries. Stream ids serve as cursors.
type RedisLog struct {
	client redis.UniversalClient
	prefix string
	maxLen int64
}

func NewRedisLog(client redis.UniversalClient, prefix string, maxLen int64) *RedisLog {
	if prefix == "" {
		prefix = "events"
	}
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &RedisLog{client: client, prefix: prefix, maxLen: maxLen}
}

func (l *RedisLog) key(topic Topic) string {
	return fmt.Sprintf("%s:%s", l.prefix, topic)
}

func (l *RedisLog) Append(ctx context.Context, e Event) (Cursor, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := l.client.XAdd(ctx, &redis.XAddArgs{
		Stream: l.key(e.Topic),
		MaxLen: l.maxLen,
		Approx: true,
		Values: map[string]interface{}{eventField: string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", l.key(e.Topic), err)
	}
	return Cursor(id), nil
}

func (l *RedisLog) PollSince(ctx context.Context, topic Topic, after Cursor, limit int) ([]Entry, error) {
	start := "-"
	count := int64(limit)
	if after != "" {
		// XRANGE is inclusive; fetch one extra and drop the cursor entry itself.
		start = string(after)
		count++
	}

	var msgs []redis.XMessage
	var err error
	if limit > 0 {
		msgs, err = l.client.XRangeN(ctx, l.key(topic), start, "+", count).Result()
	} else {
		msgs, err = l.client.XRange(ctx, l.key(topic), start, "+").Result()
	}
	if err != nil {
		return nil, fmt.Errorf("xrange %s: %w", l.key(topic), err)
	}

	out := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		if Cursor(msg.ID) == after {
			continue
		}
		raw, _ := msg.Values[eventField].(string)
		// Undecodable entries come back with a zero Event so the caller can
		// step over them.
		var e Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			e = Event{}
		}
		out = append(out, Entry{Cursor: Cursor(msg.ID), Event: e})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *RedisLog) Latest(ctx context.Context, topic Topic) (Cursor, error) {
	msgs, err := l.client.XRevRangeN(ctx, l.key(topic), "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("xrevrange %s: %w", l.key(topic), err)
	}
	if len(msgs) == 0 {
		return "", nil
	}
	return Cursor(msgs[0].ID), nil
}
