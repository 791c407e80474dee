package tablesession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
)

const tokenTypePermanent = "permanent"

var (
	ErrRateLimited     = errors.New("too many verification attempts")
	ErrTokenRequired   = errors.New("token is required")
	ErrInvalidToken    = errors.New("invalid table token")
	ErrTableNotFound   = errors.New("table not found")
	ErrSessionRequired = errors.New("no active table session")
)

// TableLookup resolves a table by id. A missing table is (nil, nil).
type TableLookup interface {
	FindTable(ctx context.Context, id string) (*models.Table, error)
}

type Config struct {
	Secret                []byte
	SessionTTL            time.Duration
	PermanentTokenTTL     time.Duration
	RateLimit             int64
	RateWindow            time.Duration
	SuspiciousAccessCount int64
}

func (c Config) withDefaults() Config {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 6 * time.Hour
	}
	if c.PermanentTokenTTL <= 0 {
		c.PermanentTokenTTL = 365 * 24 * time.Hour
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
	if c.RateWindow <= 0 {
		c.RateWindow = time.Minute
	}
	if c.SuspiciousAccessCount <= 0 {
		c.SuspiciousAccessCount = 100
	}
	return c
}

type TableClaims struct {
	TableID     string `json:"tableId"`
	TableNumber int    `json:"tableNumber"`
	Type        string `json:"type"`
	jwt.RegisteredClaims
}

// Guard issues table tokens and binds customer devices to tables.
type Guard struct {
	store  Store
	tables TableLookup
	cfg    Config
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewGuard(store Store, tables TableLookup, cfg Config, logger logrus.FieldLogger) *Guard {
	return &Guard{
		store:  store,
		tables: tables,
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// IssueToken signs a new permanent token for the table and makes it the only
// accepted one. Any session opened with the previous token ends.
func (g *Guard) IssueToken(ctx context.Context, tableID string) (string, error) {
	ctx, span := utils.StartSpan(ctx, "tablesession.IssueToken")
	defer span.End()

	table, err := g.tables.FindTable(ctx, tableID)
	if err != nil {
		return "", err
	}
	if table == nil {
		return "", ErrTableNotFound
	}

	claims := TableClaims{
		TableID:     table.ID,
		TableNumber: table.Number,
		Type:        tokenTypePermanent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(g.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign table token: %w", err)
	}

	if err := g.store.SetPermanentToken(ctx, table.ID, token, g.cfg.PermanentTokenTTL); err != nil {
		return "", err
	}
	if err := g.store.DeleteSession(ctx, table.ID); err != nil {
		return "", err
	}

	g.logger.WithField("tableId", table.ID).Info("Issued table token")
	return token, nil
}

// Verify checks a scanned table token for the client at ip and opens or
// refreshes the table session.
func (g *Guard) Verify(ctx context.Context, token, ip string) (*Session, error) {
	ctx, span := utils.StartSpan(ctx, "tablesession.Verify")
	defer span.End()

	attempts, err := g.store.IncrAttempts(ctx, ip, g.cfg.RateWindow)
	if err != nil {
		return nil, err
	}
	if attempts > g.cfg.RateLimit {
		utils.TableVerificationsTotal.WithLabelValues("rate_limited").Inc()
		g.logger.WithField("ip", ip).Warn("Table verification rate limit exceeded")
		return nil, ErrRateLimited
	}

	if token == "" {
		return nil, ErrTokenRequired
	}

	claims, err := g.parse(token)
	if err != nil {
		utils.TableVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	table, err := g.tables.FindTable(ctx, claims.TableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, ErrTableNotFound
	}

	current, err := g.store.PermanentToken(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	if current == "" || current != token {
		utils.TableVerificationsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidToken
	}

	now := g.now()
	sess, err := g.store.LoadSession(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Token != token {
		sess = &Session{TableID: table.ID, Token: token, CreatedAt: now}
	}
	sess.IP = ip
	sess.LastAccess = now
	sess.AccessCount++

	if err := g.store.SaveSession(ctx, sess, g.cfg.SessionTTL); err != nil {
		return nil, err
	}

	if sess.AccessCount > g.cfg.SuspiciousAccessCount {
		g.logger.WithFields(logrus.Fields{
			"tableId":     table.ID,
			"ip":          ip,
			"accessCount": sess.AccessCount,
		}).Warn("Suspicious table session activity")
	}

	utils.TableVerificationsTotal.WithLabelValues("ok").Inc()
	return sess, nil
}

// Authorize is the gate for table-scoped customer routes: the presented
// token must belong to the table's live session.
func (g *Guard) Authorize(ctx context.Context, tableID, token string) (*Session, error) {
	if tableID == "" || token == "" {
		return nil, ErrSessionRequired
	}
	sess, err := g.store.LoadSession(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Token != token {
		return nil, ErrSessionRequired
	}
	return sess, nil
}

func (g *Guard) Invalidate(ctx context.Context, tableID string) error {
	return g.store.DeleteSession(ctx, tableID)
}

func (g *Guard) parse(token string) (*TableClaims, error) {
	claims := &TableClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return g.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenTypePermanent || claims.TableID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
