package database

import (
	"fmt"

	"github.com/yeremiapane/bar-order-app/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Drink{},
		&models.Order{},
		&models.OrderLine{},
		&models.PaymentRequest{},
		&models.InventoryItem{},
		&models.InventoryAlert{},
	)
	if err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}
	return nil
}
