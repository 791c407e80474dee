package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AlertLowStock   = "LOW_STOCK"
	AlertOutOfStock = "OUT_OF_STOCK"
	AlertExpiring   = "EXPIRING"
)

type InventoryItem struct {
	ID          string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description *string          `gorm:"type:text" json:"description,omitempty"`
	Quantity    float64          `gorm:"not null" json:"quantity"`
	Unit        string           `gorm:"type:varchar(20);not null" json:"unit"`
	MinQuantity float64          `gorm:"not null" json:"minQuantity"`
	Category    string           `gorm:"type:varchar(100);not null" json:"category"`
	Supplier    *string          `gorm:"type:varchar(255)" json:"supplier,omitempty"`
	Price       *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price,omitempty"`
	Alerts      []InventoryAlert `gorm:"foreignKey:InventoryItemID;constraint:OnDelete:CASCADE" json:"alerts,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

type InventoryAlert struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	InventoryItemID string     `gorm:"type:varchar(36);not null;index" json:"inventoryItemId"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type"`
	Message         string     `gorm:"type:varchar(255);not null" json:"message"`
	IsResolved      bool       `gorm:"not null;index" json:"isResolved"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (a *InventoryAlert) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
