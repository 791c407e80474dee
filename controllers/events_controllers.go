package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsController streams live order and payment request events over SSE
// and WebSocket.
type EventsController struct {
	Dispatcher *live.Dispatcher
	Heartbeat  time.Duration
}

func NewEventsController(dispatcher *live.Dispatcher, heartbeat time.Duration) *EventsController {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &EventsController{Dispatcher: dispatcher, Heartbeat: heartbeat}
}

// StreamOrders -> staff order board
func (ec *EventsController) StreamOrders(c *gin.Context) {
	ec.stream(c, live.SubscribeOptions{Topics: []live.Topic{live.TopicOrders}})
}

// StreamPaymentRequests -> staff payment request board
func (ec *EventsController) StreamPaymentRequests(c *gin.Context) {
	ec.stream(c, live.SubscribeOptions{Topics: []live.Topic{live.TopicPaymentRequests}})
}

// StreamTable -> a customer's own orders
func (ec *EventsController) StreamTable(c *gin.Context) {
	ec.stream(c, live.SubscribeOptions{
		Topics:  []live.Topic{live.TopicOrders},
		TableID: c.Param("tableId"),
	})
}

func (ec *EventsController) stream(c *gin.Context, opts live.SubscribeOptions) {
	sub := ec.Dispatcher.Subscribe(opts)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(ec.Heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-heartbeat.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case e, ok := <-sub.Events():
			if !ok {
				// dropped for falling behind or closed on shutdown; the client reconnects
				return false
			}
			payload, err := json.Marshal(e)
			if err != nil {
				utils.ErrLogger().WithError(err).Error("Failed to encode live event")
				return true
			}
			_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
			return err == nil
		}
	})
}

// LiveSocket -> WebSocket feed of every topic for staff screens
func (ec *EventsController) LiveSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrLogger().WithError(err).Error("WebSocket upgrade failed")
		return
	}
	defer ws.Close()

	sub := ec.Dispatcher.Subscribe(live.SubscribeOptions{})
	defer sub.Close()

	utils.Logger().WithField("role", c.GetString("role")).Info("Live socket connected")

	// The read loop only detects disconnects and answers pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case e, ok := <-sub.Events():
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "fell behind"))
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(e); err != nil {
				return
			}
		}
	}
}
