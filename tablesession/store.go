package tablesession

import (
	"context"
	"time"
)

// Session binds a customer device to a table for a limited time.
type Session struct {
	TableID     string    `json:"tableId"`
	Token       string    `json:"token"`
	IP          string    `json:"ip"`
	CreatedAt   time.Time `json:"createdAt"`
	LastAccess  time.Time `json:"lastAccess"`
	AccessCount int64     `json:"accessCount"`
}

// Store keeps the guard's short-lived state. Missing records are reported as
// empty values, not errors.
type Store interface {
	// IncrAttempts counts an attempt for key inside a fixed window starting
	// at the first attempt and returns the running count.
	IncrAttempts(ctx context.Context, key string, window time.Duration) (int64, error)
	PermanentToken(ctx context.Context, tableID string) (string, error)
	SetPermanentToken(ctx context.Context, tableID, token string, ttl time.Duration) error
	LoadSession(ctx context.Context, tableID string) (*Session, error)
	SaveSession(ctx context.Context, s *Session, ttl time.Duration) error
	DeleteSession(ctx context.Context, tableID string) error
}

func rateLimitKey(ip string) string {
	return "rate_limit:" + ip
}

func permanentTokenKey(tableID string) string {
	return "table:" + tableID + ":permanent_token"
}

func sessionKey(tableID string) string {
	return "table:" + tableID + ":session"
}
