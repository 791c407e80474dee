package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TableStatusActive    = "ACTIVE"
	TableStatusAvailable = "AVAILABLE"
)

type Table struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Number    int       `gorm:"not null;uniqueIndex" json:"number"`
	Status    string    `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	Orders    []Order   `gorm:"foreignKey:TableID" json:"orders,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// assignID fills an empty primary key with a random UUID.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
