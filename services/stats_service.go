package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/bar-order-app/models"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalOrders            int64            `json:"totalOrders"`
	OrdersByStatus         map[string]int64 `json:"ordersByStatus"`
	PaidRevenue            decimal.Decimal  `json:"paidRevenue"`
	ActiveTables           int64            `json:"activeTables"`
	AvailableTables        int64            `json:"availableTables"`
	PendingPaymentRequests int64            `json:"pendingPaymentRequests"`
	OpenInventoryAlerts    int64            `json:"openInventoryAlerts"`
}

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{OrdersByStatus: map[string]int64{}, PaidRevenue: decimal.Zero}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	for _, r := range rows {
		stats.OrdersByStatus[r.Status] = r.Count
		stats.TotalOrders += r.Count
	}

	var paid []decimal.Decimal
	if err := db.Model(&models.Order{}).Where("payment_status = ?", models.PaymentStatusPaid).Pluck("total", &paid).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	for _, total := range paid {
		stats.PaidRevenue = stats.PaidRevenue.Add(total)
	}

	if err := db.Model(&models.Table{}).Where("status = ?", models.TableStatusActive).Count(&stats.ActiveTables).Error; err != nil {
		return nil, fmt.Errorf("failed to count tables: %w", err)
	}
	if err := db.Model(&models.Table{}).Where("status = ?", models.TableStatusAvailable).Count(&stats.AvailableTables).Error; err != nil {
		return nil, fmt.Errorf("failed to count tables: %w", err)
	}
	if err := db.Model(&models.PaymentRequest{}).Where("status = ?", models.PaymentRequestPending).Count(&stats.PendingPaymentRequests).Error; err != nil {
		return nil, fmt.Errorf("failed to count payment requests: %w", err)
	}
	if err := db.Model(&models.InventoryAlert{}).Where("is_resolved = ?", false).Count(&stats.OpenInventoryAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	return stats, nil
}
