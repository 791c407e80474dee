package Controllers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/models"
)

// sseReader yields the decoded data frames of an event stream.
func sseReader(t *testing.T, resp *http.Response) <-chan live.Event {
	t.Helper()
	out := make(chan live.Event, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var e live.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
				continue
			}
			out <- e
		}
	}()
	return out
}

func nextEvent(t *testing.T, events <-chan live.Event) live.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "stream closed")
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return live.Event{}
	}
}

func TestOrderStreamDeliversNewOrders(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 1)
	drink := app.createDrink(t, "Mojito", "6.00", true)
	token := app.tokenFor(t, app.bartender)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/orders/events?token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := sseReader(t, resp)
	assert.Equal(t, live.EventConnected, nextEvent(t, events).Type)

	body, _ := json.Marshal(map[string]interface{}{
		"tableId": table.ID,
		"items":   []map[string]interface{}{{"drinkId": drink.ID, "quantity": 2}},
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/orders", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	created, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	created.Body.Close()
	require.Equal(t, http.StatusCreated, created.StatusCode)

	e := nextEvent(t, events)
	assert.Equal(t, live.EventNewOrder, e.Type)
	assert.Equal(t, table.ID, e.TableID)
	require.NotNil(t, e.Order)
	assert.Equal(t, "12.00", e.Order.Total.StringFixed(2))
}

func TestTableStreamOnlySeesItsTable(t *testing.T) {
	app := newTestApp(t)
	mine := app.createTable(t, 1)
	other := app.createTable(t, 2)
	drink := app.createDrink(t, "Lager", "5.00", true)
	session := app.openSession(t, mine)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tables/" + mine.ID + "/events?token=" + session)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := sseReader(t, resp)
	assert.Equal(t, live.EventConnected, nextEvent(t, events).Type)

	staff := bearer(app.tokenFor(t, app.bartender))
	for _, table := range []models.Table{other, mine} {
		w := app.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
			"tableId": table.ID,
			"items":   []map[string]interface{}{{"drinkId": drink.ID, "quantity": 1}},
		}, staff)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	e := nextEvent(t, events)
	assert.Equal(t, live.EventNewOrder, e.Type)
	assert.Equal(t, mine.ID, e.TableID)
}

func TestTableStreamRequiresSession(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 1)

	w := app.do(t, http.MethodGet, "/api/tables/"+table.ID+"/events", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLiveSocket(t *testing.T) {
	app := newTestApp(t)
	table := app.createTable(t, 1)
	drink := app.createDrink(t, "Lager", "5.00", true)
	token := app.tokenFor(t, app.bartender)

	srv := httptest.NewServer(app.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/bartender?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var e live.Event
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, live.EventConnected, e.Type)

	w := app.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"tableId": table.ID,
		"items":   []map[string]interface{}{{"drinkId": drink.ID, "quantity": 1}},
	}, bearer(token))
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, live.EventNewOrder, e.Type)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/admin?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServerShutdownEndsOpenStreams(t *testing.T) {
	app := newTestApp(t)
	token := app.tokenFor(t, app.bartender)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: app.router}
	srv.RegisterOnShutdown(app.dispatcher.Hub().CloseAll)
	go srv.Serve(ln)

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/orders/events?token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := sseReader(t, resp)
	assert.Equal(t, live.EventConnected, nextEvent(t, events).Type)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Less(t, time.Since(start), 4*time.Second)

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("stream still open after shutdown")
	}
	assert.Equal(t, 0, app.dispatcher.Hub().Count())
}
