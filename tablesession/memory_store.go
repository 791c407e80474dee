package tablesession

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a single-process Store used when no Redis is configured.
type MemoryStore struct {
	mu     sync.Mutex
	now    func() time.Time
	values map[string]memoryValue
}

type memoryValue struct {
	token    string
	count    int64
	session  Session
	expireAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, values: make(map[string]memoryValue)}
}

// get must be called with s.mu held.
func (s *MemoryStore) get(key string) (memoryValue, bool) {
	v, ok := s.values[key]
	if !ok {
		return memoryValue{}, false
	}
	if !v.expireAt.IsZero() && !s.now().Before(v.expireAt) {
		delete(s.values, key)
		return memoryValue{}, false
	}
	return v, true
}

func (s *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *MemoryStore) IncrAttempts(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := rateLimitKey(key)
	v, ok := s.get(k)
	if !ok {
		v = memoryValue{expireAt: s.expiry(window)}
	}
	v.count++
	s.values[k] = v
	return v.count, nil
}

func (s *MemoryStore) PermanentToken(_ context.Context, tableID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.get(permanentTokenKey(tableID))
	return v.token, nil
}

func (s *MemoryStore) SetPermanentToken(_ context.Context, tableID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[permanentTokenKey(tableID)] = memoryValue{token: token, expireAt: s.expiry(ttl)}
	return nil
}

func (s *MemoryStore) LoadSession(_ context.Context, tableID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(sessionKey(tableID))
	if !ok {
		return nil, nil
	}
	sess := v.session
	return &sess, nil
}

func (s *MemoryStore) SaveSession(_ context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[sessionKey(sess.TableID)] = memoryValue{session: *sess, expireAt: s.expiry(ttl)}
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, sessionKey(tableID))
	return nil
}
