package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/application/dispatcher"
	"github.com/procurehq/purchase-flow/internal/application/port"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/event"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
	"github.com/procurehq/purchase-flow/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ErrOrderNotFound is returned when no order matches the given identifier
var ErrOrderNotFound = errors.New("order not found")

// ErrInvalidOrderInput is returned when a create request fails validation
var ErrInvalidOrderInput = errors.New("invalid order input")

// LineItemInput describes one line of a new or edited order
type LineItemInput struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// CreateOrderInput carries everything needed to open a draft order
type CreateOrderInput struct {
	SupplierID       string          `json:"supplier_id"`
	SupplierName     string          `json:"supplier_name"`
	Tax              decimal.Decimal `json:"tax"`
	ExpectedDelivery *time.Time      `json:"expected_delivery,omitempty"`
	CreatedBy        string          `json:"created_by"`
	Items            []LineItemInput `json:"items"`
}

// OrderService manages purchase order creation and retrieval
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*entity.PurchaseOrder, error)
	GetOrder(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetOrderByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error)
	ListOrders(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error)
	ListOrdersByStatus(ctx context.Context, status workflow.Status) ([]*entity.PurchaseOrder, error)
	GetAuditTrail(ctx context.Context, orderID string) ([]*entity.AuditRecord, error)
}

type orderServiceImpl struct {
	orderRepo  port.OrderRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo port.OrderRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) OrderService {
	return &orderServiceImpl{
		orderRepo:  orderRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		dispatcher: d,
		logger:     logger,
	}
}

// CreateOrder opens a new order in draft status. Totals are always derived
// from the line items, never taken from the caller.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, input CreateOrderInput) (*entity.PurchaseOrder, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	order := &entity.PurchaseOrder{
		ID:               uuid.NewString(),
		SupplierID:       input.SupplierID,
		SupplierName:     utils.SanitizeString(input.SupplierName),
		Tax:              input.Tax,
		Status:           workflow.StatusDraft,
		ExpectedDelivery: input.ExpectedDelivery,
		CreatedBy:        input.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for i, item := range input.Items {
		order.Items = append(order.Items, entity.LineItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: utils.SanitizeString(item.ProductName),
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			SortOrder:   i,
		})
	}
	order.RecomputeTotals()

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		number, err := s.nextOrderNumber(ctx, now.Year())
		if err != nil {
			return err
		}
		order.Number = number

		return s.orderRepo.Create(ctx, order)
	})
	if err != nil {
		s.logger.Error("Failed to create order", "error", err, "supplier_id", input.SupplierID)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("Order created",
		"order_id", order.ID,
		"number", order.Number,
		"total", order.Total.String(),
	)

	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeOrderCreated, order.ID, order.Number, map[string]interface{}{
		"status":     order.Status.String(),
		"total":      order.Total.String(),
		"created_by": order.CreatedBy,
	}))

	return order, nil
}

// validateCreateInput rejects obviously broken line items up front. Business
// rules like non-empty items before approval are enforced at transition time.
func validateCreateInput(input CreateOrderInput) error {
	for i, item := range input.Items {
		if err := utils.ValidateQuantity(item.Quantity); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrInvalidOrderInput, i, err)
		}
		if err := utils.ValidateUnitCost(item.UnitCost); err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrInvalidOrderInput, i, err)
		}
	}
	return nil
}

// nextOrderNumber produces the next sequential number for the year, formatted
// as PO-<year>-<seq>. Must run inside the creation transaction so concurrent
// creates cannot observe the same count.
func (s *orderServiceImpl) nextOrderNumber(ctx context.Context, year int) (string, error) {
	count, err := s.orderRepo.CountCreatedInYear(ctx, year)
	if err != nil {
		return "", fmt.Errorf("count orders for year %d: %w", year, err)
	}
	return fmt.Sprintf("PO-%d-%04d", year, count+1), nil
}

// GetOrder retrieves an order by ID
func (s *orderServiceImpl) GetOrder(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get order", "error", err, "order_id", id)
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNumber retrieves an order by its order number
func (s *orderServiceImpl) GetOrderByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error) {
	order, err := s.orderRepo.GetByNumber(ctx, number)
	if err != nil {
		s.logger.Error("Failed to get order by number", "error", err, "number", number)
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders retrieves orders newest first
func (s *orderServiceImpl) ListOrders(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list orders", "error", err)
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListOrdersByStatus retrieves every order currently in the given status
func (s *orderServiceImpl) ListOrdersByStatus(ctx context.Context, status workflow.Status) ([]*entity.PurchaseOrder, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOrderInput, status)
	}

	orders, err := s.orderRepo.ListByStatuses(ctx, []workflow.Status{status})
	if err != nil {
		s.logger.Error("Failed to list orders by status", "error", err, "status", status.String())
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	return orders, nil
}

// GetAuditTrail retrieves the full status history for an order
func (s *orderServiceImpl) GetAuditTrail(ctx context.Context, orderID string) ([]*entity.AuditRecord, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	records, err := s.auditRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to get audit trail", "error", err, "order_id", orderID)
		return nil, fmt.Errorf("get audit trail: %w", err)
	}
	return records, nil
}
