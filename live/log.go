package live

import (
	"context"
	"strconv"
	"sync"
)

// Cursor marks a position in a topic's log. Cursors of one topic compare in
// append order; the empty cursor sits before the first entry.
type Cursor string

type Entry struct {
	Cursor Cursor
	Event  Event
}

// EventLog is the shared, trimmed log the relay follows.
type EventLog interface {
	Append(ctx context.Context, e Event) (Cursor, error)
	// PollSince returns up to limit entries strictly after the cursor, oldest first.
	PollSince(ctx context.Context, topic Topic, after Cursor, limit int) ([]Entry, error)
	// Latest returns the cursor of the newest entry, or the empty cursor.
	Latest(ctx context.Context, topic Topic) (Cursor, error)
}

// MemoryLog keeps the last maxLen events per topic in process memory.
type MemoryLog struct {
	mu      sync.Mutex
	seq     uint64
	maxLen  int
	entries map[Topic][]memoryEntry
}

type memoryEntry struct {
	seq   uint64
	event Event
}

func NewMemoryLog(maxLen int) *MemoryLog {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &MemoryLog{maxLen: maxLen, entries: make(map[Topic][]memoryEntry)}
}

func (l *MemoryLog) Append(_ context.Context, e Event) (Cursor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	list := append(l.entries[e.Topic], memoryEntry{seq: l.seq, event: e})
	if over := len(list) - l.maxLen; over > 0 {
		list = append([]memoryEntry(nil), list[over:]...)
	}
	l.entries[e.Topic] = list
	return memoryCursor(l.seq), nil
}

func (l *MemoryLog) PollSince(_ context.Context, topic Topic, after Cursor, limit int) ([]Entry, error) {
	from, err := parseMemoryCursor(after)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, me := range l.entries[topic] {
		if me.seq <= from {
			continue
		}
		out = append(out, Entry{Cursor: memoryCursor(me.seq), Event: me.event})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *MemoryLog) Latest(_ context.Context, topic Topic) (Cursor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.entries[topic]
	if len(list) == 0 {
		return "", nil
	}
	return memoryCursor(list[len(list)-1].seq), nil
}

func memoryCursor(seq uint64) Cursor {
	return Cursor(strconv.FormatUint(seq, 10))
}

func parseMemoryCursor(c Cursor) (uint64, error) {
	if c == "" {
		return 0, nil
	}
	return strconv.ParseUint(string(c), 10, 64)
}
