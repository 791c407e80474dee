package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/bar-order-app/config"
	"github.com/yeremiapane/bar-order-app/database"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/router"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/tablesession"
	"github.com/yeremiapane/bar-order-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "correct-horse"

type testApp struct {
	router     *gin.Engine
	db         *gorm.DB
	guard      *tablesession.Guard
	dispatcher *live.Dispatcher
	admin      models.User
	bartender  models.User
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-staff-secret")

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

	logger := quietLogger()
	hub := live.NewHub(16, logger)
	dispatcher := live.NewDispatcher(hub, nil, 0, logger)

	orders := services.NewOrderService(db, dispatcher, logger)
	payments := services.NewPaymentService(db, orders, dispatcher, logger)
	tables := services.NewTableService(db, logger)
	guard := tablesession.NewGuard(tablesession.NewMemoryStore(), tables, tablesession.Config{
		Secret: []byte("test-table-secret"),
	}, logger)

	app := &testApp{
		db:         db,
		guard:      guard,
		dispatcher: dispatcher,
		router: router.SetupRouter(router.Dependencies{
			DB:         db,
			Orders:     orders,
			Payments:   payments,
			Tables:     tables,
			Inventory:  services.NewInventoryService(db, logger),
			Stats:      services.NewStatsService(db),
			Guard:      guard,
			Dispatcher: dispatcher,
			SessionTTL: time.Hour,
			Heartbeat:  time.Hour,
		}),
	}
	app.admin = app.createUser(t, "admin@bar.test", models.RoleAdmin)
	app.bartender = app.createUser(t, "bartender@bar.test", models.RoleBartender)
	return app
}

func (a *testApp) createUser(t *testing.T, email, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Name: role, Email: email, Password: string(hash), Role: role}
	require.NoError(t, a.db.Create(&user).Error)
	return user
}

func (a *testApp) tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func (a *testApp) createTable(t *testing.T, number int) models.Table {
	t.Helper()
	table := models.Table{Number: number, Status: models.TableStatusAvailable}
	require.NoError(t, a.db.Create(&table).Error)
	return table
}

func (a *testApp) createDrink(t *testing.T, name, price string, available bool) models.Drink {
	t.Helper()
	drink := models.Drink{Name: name, Price: decimal.RequireFromString(price), Category: "Cocktails", IsAvailable: true}
	require.NoError(t, a.db.Create(&drink).Error)
	if !available {
		require.NoError(t, a.db.Model(&drink).Update("is_available", false).Error)
		drink.IsAvailable = false
	}
	return drink
}

// openSession issues and verifies a table token, returning the token that
// the gated table routes accept.
func (a *testApp) openSession(t *testing.T, table models.Table) string {
	t.Helper()
	token, err := a.guard.IssueToken(context.Background(), table.ID)
	require.NoError(t, err)
	w := a.do(t, http.MethodPost, "/api/tables/verify", map[string]string{"token": token}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}
