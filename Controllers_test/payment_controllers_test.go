package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/bar-order-app/models"
)

func TestPaymentRequestFlow(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 6)
	mojito := app.createDrink(t, "Mojito", "10.00", true)
	lager := app.createDrink(t, "Lager", "12.50", true)
	session := map[string]string{"X-Table-Token": app.openSession(t, table)}
	staff := bearer(app.tokenFor(t, app.bartender))

	w := app.do(t, http.MethodPost, "/api/tables/"+table.ID+"/payment-request", nil, session)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no active orders yet")

	for _, drink := range []models.Drink{mojito, lager} {
		w = app.do(t, http.MethodPost, "/api/tables/"+table.ID+"/orders", map[string]interface{}{
			"items": []map[string]interface{}{{"drinkId": drink.ID, "quantity": 1}},
		}, session)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w = app.do(t, http.MethodPost, "/api/tables/"+table.ID+"/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"drinkId": lager.ID, "quantity": 1}},
	}, session)
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodPost, "/api/tables/"+table.ID+"/payment-request", nil, session)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var req models.PaymentRequest
	decode(t, w, &req)
	assert.Equal(t, "35.00", req.Amount.StringFixed(2))
	assert.Equal(t, models.PaymentRequestPending, req.Status)

	w = app.do(t, http.MethodGet, "/api/payment-requests", nil, staff)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []models.PaymentRequest
	decode(t, w, &pending)
	require.Len(t, pending, 1)

	w = app.do(t, http.MethodPatch, "/api/payment-requests/"+req.ID, map[string]string{"status": "MAYBE"}, staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPatch, "/api/payment-requests/"+req.ID, map[string]string{"status": models.PaymentRequestConfirmed}, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &req)
	assert.Equal(t, models.PaymentRequestConfirmed, req.Status)

	w = app.do(t, http.MethodGet, "/api/tables/"+table.ID+"/orders", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	var active []models.Order
	decode(t, w, &active)
	assert.Empty(t, active)
}
