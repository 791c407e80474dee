package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentRequestPending   = "PENDING"
	PaymentRequestConfirmed = "CONFIRMED"
	PaymentRequestRejected  = "REJECTED"
)

// PaymentRequest is a table asking staff to settle its open orders.
type PaymentRequest struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TableID   string          `gorm:"type:varchar(36);not null;index" json:"tableId"`
	Table     *Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status    string          `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (p *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
