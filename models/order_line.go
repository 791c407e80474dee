package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLine struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"orderId"`
	DrinkID   string          `gorm:"type:varchar(36);not null" json:"drinkId"`
	Drink     *Drink          `gorm:"foreignKey:DrinkID;constraint:OnDelete:RESTRICT" json:"drink,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Notes     *string         `gorm:"type:text" json:"notes,omitempty"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (l *OrderLine) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
