package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
	"gorm.io/gorm"
)

// TableSummary is a table with the orders still open on it.
type TableSummary struct {
	models.Table
	ActiveOrders []models.Order  `json:"activeOrders"`
	TotalOwed    decimal.Decimal `json:"totalOwed"`
}

type TableService struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

func NewTableService(db *gorm.DB, logger logrus.FieldLogger) *TableService {
	return &TableService{db: db, logger: logger}
}

func (s *TableService) ListTables(ctx context.Context) ([]TableSummary, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).
		Preload("Orders", "status IN ?", models.ActiveOrderStatuses()).
		Order("number ASC").
		Find(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	out := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		sum := TableSummary{Table: t, ActiveOrders: t.Orders, TotalOwed: decimal.Zero}
		sum.Table.Orders = nil
		if sum.ActiveOrders == nil {
			sum.ActiveOrders = []models.Order{}
		}
		for _, o := range sum.ActiveOrders {
			if o.PaymentStatus != models.PaymentStatusPaid {
				sum.TotalOwed = sum.TotalOwed.Add(o.Total)
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *TableService) CreateTable(ctx context.Context, number int) (*models.Table, error) {
	if number <= 0 {
		return nil, invalidArgument("table number must be positive")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Table{}).Where("number = ?", number).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check table number: %w", err)
	}
	if existing > 0 {
		return nil, invalidArgument("table number %d already exists", number)
	}

	table := &models.Table{Number: number, Status: models.TableStatusActive}
	if err := s.db.WithContext(ctx).Create(table).Error; err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"tableId": table.ID, "number": number}).Info("Table created")
	return table, nil
}

// LookupByNumber returns the table with the given number, creating it on
// first use.
func (s *TableService) LookupByNumber(ctx context.Context, number int) (*models.Table, error) {
	ctx, span := utils.StartSpan(ctx, "TableService.LookupByNumber")
	defer span.End()

	if number <= 0 {
		return nil, invalidArgument("table number must be positive")
	}

	var table models.Table
	err := s.db.WithContext(ctx).Where("number = ?", number).First(&table).Error
	if err == nil {
		return &table, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up table %d: %w", number, err)
	}

	table = models.Table{Number: number, Status: models.TableStatusActive}
	if createErr := s.db.WithContext(ctx).Create(&table).Error; createErr != nil {
		// Another request may have created it first.
		var again models.Table
		if err := s.db.WithContext(ctx).Where("number = ?", number).First(&again).Error; err == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("failed to create table %d: %w", number, createErr)
	}
	s.logger.WithFields(logrus.Fields{"tableId": table.ID, "number": number}).Info("Table created on lookup")
	return &table, nil
}

func (s *TableService) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "table", id)
	}
	return &table, nil
}

// FindTable is GetTable for callers that treat a missing table as (nil, nil).
func (s *TableService) FindTable(ctx context.Context, id string) (*models.Table, error) {
	table, err := s.GetTable(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return table, err
}
