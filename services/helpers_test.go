package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/bar-order-app/config"
	"github.com/yeremiapane/bar-order-app/database"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/models"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []live.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e live.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type fixture struct {
	db       *gorm.DB
	pub      *recordingPublisher
	orders   *OrderService
	payments *PaymentService
	tables   *TableService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.InitDB(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	pub := &recordingPublisher{}
	orders := NewOrderService(db, pub, quietLogger())
	return &fixture{
		db:       db,
		pub:      pub,
		orders:   orders,
		payments: NewPaymentService(db, orders, pub, quietLogger()),
		tables:   NewTableService(db, quietLogger()),
	}
}

func (f *fixture) table(t *testing.T, number int, status string) *models.Table {
	t.Helper()
	table := &models.Table{Number: number, Status: status}
	require.NoError(t, f.db.Create(table).Error)
	return table
}

func (f *fixture) drink(t *testing.T, name, price string, available bool) *models.Drink {
	t.Helper()
	drink := &models.Drink{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Category:    "Cocktails",
		IsAvailable: available,
	}
	require.NoError(t, f.db.Create(drink).Error)
	return drink
}

func (f *fixture) order(t *testing.T, tableID string, lines ...LineInput) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{TableID: tableID, Lines: lines})
	require.NoError(t, err)
	return order
}

func (f *fixture) setStatus(t *testing.T, orderID, status string) *models.Order {
	t.Helper()
	order, err := f.orders.UpdateOrder(context.Background(), orderID, UpdateOrderInput{Status: &status})
	require.NoError(t, err)
	return order
}

func (f *fixture) reloadTable(t *testing.T, id string) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, f.db.First(&table, "id = ?", id).Error)
	return table
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
