package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/models"
	"github.com/yeremiapane/bar-order-app/utils"
	"gorm.io/gorm"
)

type LineInput struct {
	DrinkID  string  `json:"drinkId"`
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes,omitempty"`
	// Price is what the client displayed. It is never used for billing.
	Price *decimal.Decimal `json:"price,omitempty"`
}

type PaymentDetails struct {
	Last4      string `json:"last4"`
	CardType   string `json:"cardType"`
	ExpiryDate string `json:"expiryDate"`
}

type CreateOrderInput struct {
	TableID        string          `json:"tableId"`
	Lines          []LineInput     `json:"lines"`
	PaymentMethod  string          `json:"paymentMethod"`
	PaymentDetails *PaymentDetails `json:"paymentDetails,omitempty"`
}

// UnmarshalJSON accepts "items" as an alias of "lines" for older clients.
func (in *CreateOrderInput) UnmarshalJSON(data []byte) error {
	type plain CreateOrderInput
	var raw struct {
		plain
		Items []LineInput `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = CreateOrderInput(raw.plain)
	if in.Lines == nil {
		in.Lines = raw.Items
	}
	return nil
}

// UpdateOrderInput changes the status, the lines, or both. A nil Lines
// leaves the lines alone.
type UpdateOrderInput struct {
	Status *string     `json:"status"`
	Lines  []LineInput `json:"lines"`
}

func (in *UpdateOrderInput) UnmarshalJSON(data []byte) error {
	type plain UpdateOrderInput
	var raw struct {
		plain
		Items []LineInput `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = UpdateOrderInput(raw.plain)
	if in.Lines == nil {
		in.Lines = raw.Items
	}
	return nil
}

type OrderFilter struct {
	Status  string
	TableID string
}

// OrderService is the only writer of orders and their lines.
type OrderService struct {
	db        *gorm.DB
	publisher Publisher
	logger    logrus.FieldLogger
}

func NewOrderService(db *gorm.DB, publisher Publisher, logger logrus.FieldLogger) *OrderService {
	return &OrderService{db: db, publisher: publisher, logger: logger}
}

func (in CreateOrderInput) validate() error {
	if in.TableID == "" {
		return invalidArgument("table id is required")
	}
	if len(in.Lines) == 0 {
		return invalidArgument("order lines are required")
	}
	if err := validateLines(in.Lines); err != nil {
		return err
	}
	if in.PaymentMethod != "" && !models.IsValidPaymentMethod(in.PaymentMethod) {
		return invalidArgument("unsupported payment method %q", in.PaymentMethod)
	}
	if d := in.PaymentDetails; d != nil && d.Last4 != "" {
		if len(d.Last4) != 4 {
			return invalidArgument("card suffix must have 4 digits")
		}
		for _, r := range d.Last4 {
			if r < '0' || r > '9' {
				return invalidArgument("card suffix must have 4 digits")
			}
		}
	}
	return nil
}

func validateLines(lines []LineInput) error {
	for _, l := range lines {
		if l.DrinkID == "" {
			return invalidArgument("drink id is required")
		}
		if l.Quantity <= 0 {
			return invalidArgument("quantity must be positive for drink %s", l.DrinkID)
		}
	}
	return nil
}

// CreateOrder records a new PENDING order for a table. Line prices come from
// the drink catalogue.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	ctx, span := utils.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	order := &models.Order{
		TableID:       in.TableID,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: in.PaymentMethod,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentMethodCash
	}
	if d := in.PaymentDetails; d != nil {
		if d.Last4 != "" {
			order.PaymentLast4 = &d.Last4
		}
		if d.CardType != "" {
			order.PaymentCardType = &d.CardType
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, "id = ?", in.TableID).Error; err != nil {
			return lookupError(err, "table", in.TableID)
		}

		lines, err := s.priceLines(tx, in.Lines)
		if err != nil {
			return err
		}
		order.Lines = lines
		order.RecalculateTotal()

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if table.Status != models.TableStatusActive {
			if err := tx.Model(&table).Update("status", models.TableStatusActive).Error; err != nil {
				return fmt.Errorf("failed to activate table: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot := s.snapshot(ctx, order)
	utils.OrdersCreatedTotal.Inc()
	s.logger.WithFields(logrus.Fields{
		"orderId": snapshot.ID,
		"tableId": snapshot.TableID,
		"total":   snapshot.Total.StringFixed(2),
	}).Info("Order created")
	s.publisher.Publish(ctx, live.OrderEvent(live.EventNewOrder, snapshot))
	return snapshot, nil
}

// priceLines builds order lines priced from the catalogue inside tx.
func (s *OrderService) priceLines(tx *gorm.DB, in []LineInput) ([]models.OrderLine, error) {
	ids := make([]string, 0, len(in))
	for _, l := range in {
		ids = append(ids, l.DrinkID)
	}

	var drinks []models.Drink
	if err := tx.Where("id IN ?", ids).Find(&drinks).Error; err != nil {
		return nil, fmt.Errorf("failed to load drinks: %w", err)
	}
	byID := make(map[string]models.Drink, len(drinks))
	for _, d := range drinks {
		byID[d.ID] = d
	}

	lines := make([]models.OrderLine, 0, len(in))
	for _, l := range in {
		drink, ok := byID[l.DrinkID]
		if !ok {
			return nil, fmt.Errorf("drink %s: %w", l.DrinkID, ErrNotFound)
		}
		if !drink.IsAvailable {
			return nil, invalidArgument("drink %s is not available", drink.Name)
		}
		if l.Price != nil && !l.Price.Equal(drink.Price) {
			s.logger.WithFields(logrus.Fields{
				"drinkId":     drink.ID,
				"clientPrice": l.Price.String(),
				"price":       drink.Price.String(),
			}).Warn("Client price differs from catalogue, using catalogue price")
		}
		lines = append(lines, models.OrderLine{
			DrinkID:  drink.ID,
			Quantity: l.Quantity,
			Notes:    l.Notes,
			Price:    drink.Price,
		})
	}
	return lines, nil
}

// UpdateOrder moves an order forward and/or replaces its lines. Lines can
// only change before preparation starts.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, in UpdateOrderInput) (*models.Order, error) {
	ctx, span := utils.StartSpan(ctx, "OrderService.UpdateOrder")
	defer span.End()

	if in.Status == nil && in.Lines == nil {
		return nil, invalidArgument("status or lines are required")
	}
	if in.Status != nil && !models.IsValidOrderStatus(*in.Status) {
		return nil, invalidArgument("unknown order status %q", *in.Status)
	}
	if in.Lines != nil {
		if len(in.Lines) == 0 {
			return nil, invalidArgument("order lines are required")
		}
		if err := validateLines(in.Lines); err != nil {
			return nil, err
		}
	}

	var order models.Order
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
			return lookupError(err, "order", id)
		}

		from := order.Status
		to := from
		if in.Status != nil && *in.Status != from {
			if !models.CanTransition(from, *in.Status) {
				return invalidTransition("order %s cannot move from %s to %s", id, from, *in.Status)
			}
			to = *in.Status
		}

		updates := map[string]interface{}{}
		if in.Lines != nil {
			if from != models.OrderStatusPending {
				return invalidTransition("lines of order %s can only change while %s", id, models.OrderStatusPending)
			}
			lines, err := s.priceLines(tx, in.Lines)
			if err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderLine{}).Error; err != nil {
				return fmt.Errorf("failed to remove order lines: %w", err)
			}
			for i := range lines {
				lines[i].OrderID = order.ID
			}
			if err := tx.Create(&lines).Error; err != nil {
				return fmt.Errorf("failed to create order lines: %w", err)
			}
			order.Lines = lines
			updates["total"] = order.RecalculateTotal()
		}
		if to != from {
			updates["status"] = to
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now()

		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidTransition("order %s changed concurrently", id)
		}
		order.Status = to
		changed = true

		if models.IsTerminalOrderStatus(to) {
			return releaseTableIfIdle(tx, order.TableID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot := s.snapshot(ctx, &order)
	if changed {
		utils.OrderTransitionsTotal.WithLabelValues(snapshot.Status).Inc()
		s.publisher.Publish(ctx, live.OrderEvent(live.EventStatusUpdate, snapshot))
	}
	return snapshot, nil
}

// releaseTableIfIdle marks the table AVAILABLE once it has no active orders.
func releaseTableIfIdle(tx *gorm.DB, tableID string) error {
	var active int64
	if err := tx.Model(&models.Order{}).
		Where("table_id = ? AND status IN ?", tableID, models.ActiveOrderStatuses()).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to count active orders: %w", err)
	}
	if active > 0 {
		return nil
	}
	if err := tx.Model(&models.Table{}).Where("id = ?", tableID).
		Update("status", models.TableStatusAvailable).Error; err != nil {
		return fmt.Errorf("failed to release table: %w", err)
	}
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := preloadOrder(s.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "order", id)
	}
	return &order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := preloadOrder(s.db.WithContext(ctx)).Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.TableID != "" {
		q = q.Where("table_id = ?", filter.TableID)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ActiveOrdersForTable is the reconciliation read for a table's viewers.
func (s *OrderService) ActiveOrdersForTable(ctx context.Context, tableID string) ([]models.Order, error) {
	var orders []models.Order
	err := preloadOrder(s.db.WithContext(ctx)).
		Where("table_id = ? AND status IN ?", tableID, models.ActiveOrderStatuses()).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list table orders: %w", err)
	}
	return orders, nil
}

// snapshot reloads the committed order. If the read fails the in-memory copy
// is returned so the caller still gets a result.
func (s *OrderService) snapshot(ctx context.Context, order *models.Order) *models.Order {
	fresh, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		s.logger.WithError(err).WithField("orderId", order.ID).Warn("Could not reload order snapshot")
		return order
	}
	return fresh
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines").Preload("Lines.Drink").Preload("Table")
}
