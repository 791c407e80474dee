package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
	"gorm.io/gorm"
)

// PaymentService handles order payments and table payment requests.
type PaymentService struct {
	db        *gorm.DB
	orders    *OrderService
	publisher Publisher
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewPaymentService(db *gorm.DB, orders *OrderService, publisher Publisher, logger logrus.FieldLogger) *PaymentService {
	return &PaymentService{
		db:        db,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ConfirmCashPayment marks an unpaid order as paid in cash.
func (s *PaymentService) ConfirmCashPayment(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, span := utils.StartSpan(ctx, "PaymentService.ConfirmCashPayment")
	defer span.End()

	now := s.now()
	paymentID := fmt.Sprintf("CASH_%d_%s", now.UnixMilli(), uuid.NewString()[:8])

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var order models.Order
	if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
		tx.Rollback()
		return nil, lookupError(err, "order", orderID)
	}

	switch order.PaymentStatus {
	case models.PaymentStatusPending:
	case models.PaymentStatusPaid:
		tx.Rollback()
		return nil, ErrAlreadyPaid
	default:
		tx.Rollback()
		return nil, invalidTransition("order %s payment is %s", orderID, order.PaymentStatus)
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"payment_method": models.PaymentMethodCash,
			"payment_id":     paymentID,
			"updated_at":     now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrAlreadyPaid
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	snapshot := s.orders.snapshot(ctx, &order)
	utils.PaymentsTotal.WithLabelValues("cash_confirmed").Inc()
	s.logger.WithFields(logrus.Fields{"orderId": orderID, "paymentId": paymentID}).Info("Cash payment confirmed")
	s.publisher.Publish(ctx, live.OrderEvent(live.EventPaymentUpdate, snapshot))
	return snapshot, nil
}

// Refund reverses a paid order.
func (s *PaymentService) Refund(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, span := utils.StartSpan(ctx, "PaymentService.Refund")
	defer span.End()

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var order models.Order
	if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
		tx.Rollback()
		return nil, lookupError(err, "order", orderID)
	}

	switch order.PaymentStatus {
	case models.PaymentStatusPaid:
	case models.PaymentStatusRefunded:
		tx.Rollback()
		return nil, ErrAlreadyRefunded
	default:
		tx.Rollback()
		return nil, ErrNotPaid
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusRefunded,
			"updated_at":     s.now(),
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to refund order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrNotPaid
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}

	snapshot := s.orders.snapshot(ctx, &order)
	utils.PaymentsTotal.WithLabelValues("refunded").Inc()
	s.logger.WithField("orderId", orderID).Info("Order refunded")
	s.publisher.Publish(ctx, live.OrderEvent(live.EventPaymentUpdate, snapshot))
	return snapshot, nil
}

// RequestPayment asks staff to settle every active order of the table.
func (s *PaymentService) RequestPayment(ctx context.Context, tableID string) (*models.PaymentRequest, error) {
	ctx, span := utils.StartSpan(ctx, "PaymentService.RequestPayment")
	defer span.End()

	req := &models.PaymentRequest{TableID: tableID, Status: models.PaymentRequestPending}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, "id = ?", tableID).Error; err != nil {
			return lookupError(err, "table", tableID)
		}

		var orders []models.Order
		if err := tx.Where("table_id = ? AND status IN ?", tableID, models.ActiveOrderStatuses()).
			Find(&orders).Error; err != nil {
			return fmt.Errorf("failed to load active orders: %w", err)
		}
		if len(orders) == 0 {
			return invalidArgument("table %d has no active orders", table.Number)
		}

		amount := decimal.Zero
		for _, o := range orders {
			amount = amount.Add(o.Total)
		}
		req.Amount = amount

		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("failed to create payment request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.PaymentRequestsTotal.WithLabelValues(models.PaymentRequestPending).Inc()
	s.logger.WithFields(logrus.Fields{
		"requestId": req.ID,
		"tableId":   tableID,
		"amount":    req.Amount.StringFixed(2),
	}).Info("Payment requested")
	s.publisher.Publish(ctx, live.PaymentRequestEvent(req))
	return req, nil
}

// ResolvePaymentRequest confirms or rejects a pending request. Confirming
// completes every active order of the table and frees the table.
func (s *PaymentService) ResolvePaymentRequest(ctx context.Context, id, status string) (*models.PaymentRequest, error) {
	ctx, span := utils.StartSpan(ctx, "PaymentService.ResolvePaymentRequest")
	defer span.End()

	if status != models.PaymentRequestConfirmed && status != models.PaymentRequestRejected {
		return nil, invalidArgument("status must be %s or %s", models.PaymentRequestConfirmed, models.PaymentRequestRejected)
	}

	var req models.PaymentRequest
	var completed []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", id).Error; err != nil {
			return lookupError(err, "payment request", id)
		}
		if req.Status != models.PaymentRequestPending {
			return invalidTransition("payment request %s is already %s", id, req.Status)
		}

		res := tx.Model(&models.PaymentRequest{}).
			Where("id = ? AND status = ?", id, models.PaymentRequestPending).
			Updates(map[string]interface{}{"status": status, "updated_at": s.now()})
		if res.Error != nil {
			return fmt.Errorf("failed to update payment request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidTransition("payment request %s changed concurrently", id)
		}
		req.Status = status

		if status != models.PaymentRequestConfirmed {
			return nil
		}

		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status IN ?", req.TableID, models.ActiveOrderStatuses()).
			Pluck("id", &completed).Error; err != nil {
			return fmt.Errorf("failed to load active orders: %w", err)
		}
		if len(completed) > 0 {
			if err := tx.Model(&models.Order{}).
				Where("id IN ?", completed).
				Updates(map[string]interface{}{"status": models.OrderStatusCompleted, "updated_at": s.now()}).Error; err != nil {
				return fmt.Errorf("failed to complete orders: %w", err)
			}
		}
		if err := tx.Model(&models.Table{}).Where("id = ?", req.TableID).
			Update("status", models.TableStatusAvailable).Error; err != nil {
			return fmt.Errorf("failed to release table: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.PaymentRequestsTotal.WithLabelValues(status).Inc()
	s.logger.WithFields(logrus.Fields{
		"requestId": id,
		"tableId":   req.TableID,
		"status":    status,
		"completed": len(completed),
	}).Info("Payment request resolved")

	for _, orderID := range completed {
		if order, err := s.orders.GetOrder(ctx, orderID); err == nil {
			s.publisher.Publish(ctx, live.OrderEvent(live.EventStatusUpdate, order))
		}
	}
	if status == models.PaymentRequestConfirmed {
		s.publisher.Publish(ctx, live.Event{
			Topic:   live.TopicOrders,
			Type:    live.EventPaymentConfirmed,
			TableID: req.TableID,
		})
	}
	s.publisher.Publish(ctx, live.PaymentRequestEvent(&req))
	return &req, nil
}

func (s *PaymentService) PendingRequests(ctx context.Context) ([]models.PaymentRequest, error) {
	var reqs []models.PaymentRequest
	err := s.db.WithContext(ctx).Preload("Table").
		Where("status = ?", models.PaymentRequestPending).
		Order("created_at ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment requests: %w", err)
	}
	return reqs, nil
}
