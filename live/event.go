package live

import "github.com/yeremiapane/bar-order-app/models"

type Topic string

const (
	TopicOrders          Topic = "orders"
	TopicPaymentRequests Topic = "payment-requests"
)

// Topics lists every topic the relay follows.
var Topics = []Topic{TopicOrders, TopicPaymentRequests}

// Event types
const (
	EventConnected        = "connected"
	EventNewOrder         = "new-order"
	EventStatusUpdate     = "status-update"
	EventPaymentUpdate    = "payment-update"
	EventPaymentConfirmed = "payment-confirmed"
	EventPaymentRequest   = "payment-request"
)

// Event is one lifecycle notification. Consumers apply the latest event per
// order id; the Order snapshot, when present, is canonical.
type Event struct {
	ID             string                 `json:"id,omitempty"`
	Topic          Topic                  `json:"topic,omitempty"`
	Type           string                 `json:"type"`
	OrderID        string                 `json:"orderId,omitempty"`
	TableID        string                 `json:"tableId,omitempty"`
	Status         string                 `json:"status,omitempty"`
	PaymentStatus  string                 `json:"paymentStatus,omitempty"`
	Order          *models.Order          `json:"order,omitempty"`
	PaymentRequest *models.PaymentRequest `json:"paymentRequest,omitempty"`
	Timestamp      int64                  `json:"timestamp,omitempty"`
}

// OrderEvent builds an event on the orders topic carrying a full snapshot.
func OrderEvent(eventType string, order *models.Order) Event {
	return Event{
		Topic:         TopicOrders,
		Type:          eventType,
		OrderID:       order.ID,
		TableID:       order.TableID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Order:         order,
	}
}

// PaymentRequestEvent builds an event on the payment request topic.
func PaymentRequestEvent(req *models.PaymentRequest) Event {
	return Event{
		Topic:          TopicPaymentRequests,
		Type:           EventPaymentRequest,
		TableID:        req.TableID,
		Status:         req.Status,
		PaymentRequest: req,
	}
}
