package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/models"
	"gorm.io/gorm"
)

// InventoryService keeps stock levels and raises alerts at or below the
// minimum quantity.
type InventoryService struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

func NewInventoryService(db *gorm.DB, logger logrus.FieldLogger) *InventoryService {
	return &InventoryService{db: db, logger: logger}
}

func (s *InventoryService) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.WithContext(ctx).
		Preload("Alerts", "is_resolved = ?", false).
		Order("category ASC, name ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return items, nil
}

func (s *InventoryService) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	if item.Name == "" || item.Unit == "" || item.Category == "" {
		return invalidArgument("name, unit and category are required")
	}
	if item.Quantity < 0 || item.MinQuantity < 0 {
		return invalidArgument("quantities cannot be negative")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create inventory item: %w", err)
		}
		return s.checkThreshold(tx, item)
	})
}

func (s *InventoryService) SetQuantity(ctx context.Context, id string, quantity float64) (*models.InventoryItem, error) {
	if quantity < 0 {
		return nil, invalidArgument("quantity cannot be negative")
	}

	var item models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return lookupError(err, "inventory item", id)
		}
		if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
			return fmt.Errorf("failed to update quantity: %w", err)
		}
		item.Quantity = quantity
		return s.checkThreshold(tx, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// checkThreshold opens, retypes or resolves the item's alert.
func (s *InventoryService) checkThreshold(tx *gorm.DB, item *models.InventoryItem) error {
	var open []models.InventoryAlert
	if err := tx.Where("inventory_item_id = ? AND is_resolved = ?", item.ID, false).Find(&open).Error; err != nil {
		return fmt.Errorf("failed to load alerts: %w", err)
	}

	if item.Quantity > item.MinQuantity {
		if len(open) == 0 {
			return nil
		}
		now := time.Now()
		return tx.Model(&models.InventoryAlert{}).
			Where("inventory_item_id = ? AND is_resolved = ?", item.ID, false).
			Updates(map[string]interface{}{"is_resolved": true, "resolved_at": now}).Error
	}

	alertType := models.AlertLowStock
	message := fmt.Sprintf("%s is running low (%.2f %s left)", item.Name, item.Quantity, item.Unit)
	if item.Quantity <= 0 {
		alertType = models.AlertOutOfStock
		message = fmt.Sprintf("%s is out of stock", item.Name)
	}

	if len(open) > 0 {
		return tx.Model(&open[0]).Updates(map[string]interface{}{"type": alertType, "message": message}).Error
	}

	s.logger.WithFields(logrus.Fields{"itemId": item.ID, "type": alertType}).Warn("Inventory alert raised")
	return tx.Create(&models.InventoryAlert{
		InventoryItemID: item.ID,
		Type:            alertType,
		Message:         message,
	}).Error
}

func (s *InventoryService) OpenAlerts(ctx context.Context) ([]models.InventoryAlert, error) {
	var alerts []models.InventoryAlert
	if err := s.db.WithContext(ctx).Where("is_resolved = ?", false).Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

func (s *InventoryService) ResolveAlert(ctx context.Context, id string) (*models.InventoryAlert, error) {
	var alert models.InventoryAlert
	if err := s.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "alert", id)
	}
	if alert.IsResolved {
		return &alert, nil
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&alert).
		Updates(map[string]interface{}{"is_resolved": true, "resolved_at": now}).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	alert.IsResolved = true
	alert.ResolvedAt = &now
	return &alert, nil
}
