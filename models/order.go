package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Payment status
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// Payment method
const (
	PaymentMethodCash      = "CASH"
	PaymentMethodCard      = "CARD"
	PaymentMethodApplePay  = "APPLE_PAY"
	PaymentMethodGooglePay = "GOOGLE_PAY"
)

// orderStatusRank orders the kitchen pipeline. CANCELLED sits outside it.
var orderStatusRank = map[string]int{
	OrderStatusPending:   0,
	OrderStatusPreparing: 1,
	OrderStatusReady:     2,
	OrderStatusCompleted: 3,
}

var paymentMethods = map[string]bool{
	PaymentMethodCash:      true,
	PaymentMethodCard:      true,
	PaymentMethodApplePay:  true,
	PaymentMethodGooglePay: true,
}

type Order struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TableID         string          `gorm:"type:varchar(36);not null;index" json:"tableId"`
	Table           *Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	Lines           []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Status          string          `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	PaymentID       *string         `gorm:"type:varchar(100)" json:"paymentId,omitempty"`
	PaymentLast4    *string         `gorm:"type:varchar(4)" json:"paymentLast4,omitempty"`
	PaymentCardType *string         `gorm:"type:varchar(30)" json:"paymentCardType,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// RecalculateTotal sets Total to the sum of price x quantity over the lines.
func (o *Order) RecalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal())
	}
	o.Total = total
	return total
}

// IsActive reports whether the order still occupies its table.
func (o *Order) IsActive() bool {
	return !IsTerminalOrderStatus(o.Status)
}

func IsValidOrderStatus(status string) bool {
	_, ok := orderStatusRank[status]
	return ok || status == OrderStatusCancelled
}

func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

func IsValidPaymentMethod(method string) bool {
	return paymentMethods[method]
}

// CanTransition reports whether an order may move from one status to another.
// Forward moves along the pipeline may skip steps, CANCELLED is reachable from
// any non-terminal status and terminal statuses never change.
func CanTransition(from, to string) bool {
	if !IsValidOrderStatus(from) || !IsValidOrderStatus(to) {
		return false
	}
	if IsTerminalOrderStatus(from) {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return orderStatusRank[to] > orderStatusRank[from]
}

// ActiveOrderStatuses lists the statuses that keep a table occupied.
func ActiveOrderStatuses() []string {
	return []string{OrderStatusPending, OrderStatusPreparing, OrderStatusReady}
}
