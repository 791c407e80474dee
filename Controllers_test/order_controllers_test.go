package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/bar-order-app/models"
)

func TestStaffCreateOrderUsesCataloguePrice(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 3)
	drink := app.createDrink(t, "Mojito", "6.00", true)

	w := app.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"tableId": table.ID,
		"items": []map[string]interface{}{
			{"drinkId": drink.ID, "quantity": 2, "price": "1.00"},
		},
	}, bearer(app.tokenFor(t, app.bartender)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	decode(t, w, &order)
	assert.Equal(t, "12.00", order.Total.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "6.00", order.Lines[0].Price.StringFixed(2))
}

func TestOrderLinesFieldAndItemsAlias(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 4)
	mojito := app.createDrink(t, "Mojito", "6.00", true)
	lager := app.createDrink(t, "Lager", "5.00", true)
	staff := bearer(app.tokenFor(t, app.bartender))

	w := app.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"tableId": table.ID,
		"lines":   []map[string]interface{}{{"drinkId": mojito.ID, "quantity": 2}},
	}, staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "12.00", order.Total.StringFixed(2))

	w = app.do(t, http.MethodPatch, "/api/orders/"+order.ID, map[string]interface{}{
		"lines": []map[string]interface{}{{"drinkId": lager.ID, "quantity": 3}},
	}, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, lager.ID, order.Lines[0].DrinkID)
	assert.Equal(t, "15.00", order.Total.StringFixed(2))

	w = app.do(t, http.MethodPatch, "/api/orders/"+order.ID, map[string]interface{}{
		"items": []map[string]interface{}{{"drinkId": mojito.ID, "quantity": 1}},
	}, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	assert.Equal(t, "6.00", order.Total.StringFixed(2))
}

func TestCreateOrderErrors(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 3)
	drink := app.createDrink(t, "Mojito", "6.00", true)
	staff := bearer(app.tokenFor(t, app.bartender))

	tests := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{
			name: "no items",
			body: map[string]interface{}{"tableId": table.ID, "items": []interface{}{}},
			code: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			body: map[string]interface{}{"tableId": table.ID, "items": []map[string]interface{}{{"drinkId": drink.ID, "quantity": 0}}},
			code: http.StatusBadRequest,
		},
		{
			name: "unknown drink",
			body: map[string]interface{}{"tableId": table.ID, "items": []map[string]interface{}{{"drinkId": "nope", "quantity": 1}}},
			code: http.StatusNotFound,
		},
		{
			name: "unknown table",
			body: map[string]interface{}{"tableId": "nope", "items": []map[string]interface{}{{"drinkId": drink.ID, "quantity": 1}}},
			code: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, http.MethodPost, "/api/orders", tt.body, staff)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 5)
	drink := app.createDrink(t, "Lager", "5.00", true)
	staff := bearer(app.tokenFor(t, app.bartender))

	w := app.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"tableId": table.ID,
		"items":   []map[string]interface{}{{"drinkId": drink.ID, "quantity": 1}},
	}, staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)

	for _, status := range []string{models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusCompleted} {
		w = app.do(t, http.MethodPatch, "/api/orders/"+order.ID, map[string]string{"status": status}, staff)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		decode(t, w, &order)
		assert.Equal(t, status, order.Status)
	}

	w = app.do(t, http.MethodPatch, "/api/orders/"+order.ID, map[string]string{"status": models.OrderStatusPending}, staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var reloaded models.Table
	require.NoError(t, app.db.First(&reloaded, "id = ?", table.ID).Error)
	assert.Equal(t, models.TableStatusAvailable, reloaded.Status)

	w = app.do(t, http.MethodPatch, "/api/orders/missing", map[string]string{"status": models.OrderStatusReady}, staff)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmCashPaymentTwice(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 2)
	drink := app.createDrink(t, "Lager", "5.00", true)
	staff := bearer(app.tokenFor(t, app.bartender))

	w := app.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"tableId": table.ID,
		"items":   []map[string]interface{}{{"drinkId": drink.ID, "quantity": 1}},
	}, staff)
	require.Equal(t, http.StatusCreated, w.Code)
	var order models.Order
	decode(t, w, &order)

	w = app.do(t, http.MethodPost, "/api/orders/"+order.ID+"/confirm-cash-payment", nil, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	require.NotNil(t, order.PaymentID)
	assert.Contains(t, *order.PaymentID, "CASH_")

	w = app.do(t, http.MethodPost, "/api/orders/"+order.ID+"/confirm-cash-payment", nil, staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/orders/"+order.ID+"/refund", nil, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	assert.Equal(t, models.PaymentStatusRefunded, order.PaymentStatus)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 4)
	drink := app.createDrink(t, "Lager", "5.00", true)
	staff := bearer(app.tokenFor(t, app.bartender))

	var ids []string
	for i := 0; i < 2; i++ {
		w := app.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
			"tableId": table.ID,
			"items":   []map[string]interface{}{{"drinkId": drink.ID, "quantity": 1}},
		}, staff)
		require.Equal(t, http.StatusCreated, w.Code)
		var order models.Order
		decode(t, w, &order)
		ids = append(ids, order.ID)
	}
	w := app.do(t, http.MethodPatch, "/api/orders/"+ids[0], map[string]string{"status": models.OrderStatusPreparing}, staff)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/orders?status=PREPARING", nil, staff)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Order
	decode(t, w, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, ids[0], orders[0].ID)

	w = app.do(t, http.MethodGet, "/api/orders/"+ids[1], nil, staff)
	require.Equal(t, http.StatusOK, w.Code)
}
