package database

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	Tables        int
}

var defaultDrinks = []models.Drink{
	{Name: "Mojito", Description: "Rum, lime, mint and soda", Price: decimal.RequireFromString("9.50"), Category: "Cocktails", IsAvailable: true},
	{Name: "Old Fashioned", Description: "Bourbon, sugar and bitters", Price: decimal.RequireFromString("11.00"), Category: "Cocktails", IsAvailable: true},
	{Name: "Lager", Description: "Draught, 0.5l", Price: decimal.RequireFromString("5.00"), Category: "Beer", IsAvailable: true},
	{Name: "House Red", Description: "Glass, 175ml", Price: decimal.RequireFromString("7.00"), Category: "Wine", IsAvailable: true},
	{Name: "Lemonade", Description: "Fresh, non-alcoholic", Price: decimal.RequireFromString("3.50"), Category: "Soft Drinks", IsAvailable: true},
}

// Seed inserts an admin account, numbered tables and a starter menu when
// they are missing. It is safe to run on every start.
func Seed(db *gorm.DB, opts SeedOptions) error {
	if opts.AdminEmail != "" && opts.AdminPassword != "" {
		var admin models.User
		err := db.Where("email = ?", opts.AdminEmail).First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash admin password: %w", err)
			}
			admin = models.User{Name: "Admin", Email: opts.AdminEmail, Password: string(hash), Role: models.RoleAdmin}
			if err := db.Create(&admin).Error; err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}
			utils.Logger().Infof("Seeded admin user %s", opts.AdminEmail)
		} else if err != nil {
			return fmt.Errorf("failed to look up admin: %w", err)
		}
	}

	for n := 1; n <= opts.Tables; n++ {
		table := models.Table{Number: n, Status: models.TableStatusAvailable}
		if err := db.Where("number = ?", n).FirstOrCreate(&table).Error; err != nil {
			return fmt.Errorf("failed to seed table %d: %w", n, err)
		}
	}

	var drinks int64
	if err := db.Model(&models.Drink{}).Count(&drinks).Error; err != nil {
		return fmt.Errorf("failed to count drinks: %w", err)
	}
	if drinks == 0 {
		menu := make([]models.Drink, len(defaultDrinks))
		copy(menu, defaultDrinks)
		if err := db.Create(&menu).Error; err != nil {
			return fmt.Errorf("failed to seed drinks: %w", err)
		}
		utils.Logger().Infof("Seeded %d drinks", len(menu))
	}
	return nil
}
