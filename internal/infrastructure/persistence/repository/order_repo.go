package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurehq/purchase-flow/internal/application/port"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
	"github.com/procurehq/purchase-flow/pkg/database"
)

// OrderRepository implements port.OrderRepository on SQLite
type OrderRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB, logger *zap.Logger) port.OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `id, number, supplier_id, supplier_name, subtotal, tax, total,
	status, expected_delivery, created_by, created_at, updated_at`

// Create persists a new order together with its line items
func (r *OrderRepository) Create(ctx context.Context, order *entity.PurchaseOrder) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		query := `
			INSERT INTO purchase_orders (` + orderColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := exec.ExecContext(ctx, query,
			order.ID,
			order.Number,
			order.SupplierID,
			order.SupplierName,
			order.Subtotal.String(),
			order.Tax.String(),
			order.Total.String(),
			order.Status.String(),
			order.ExpectedDelivery,
			order.CreatedBy,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create order", zap.String("number", order.Number), zap.Error(err))
			return fmt.Errorf("failed to create order: %w", err)
		}

		return r.insertItems(ctx, order.ID, order.Items)
	})
}

// GetByID retrieves an order with its line items
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByNumber retrieves an order by its order number
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, "number = ?", number)
}

func (r *OrderRepository) getOne(ctx context.Context, where string, arg interface{}) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE ` + where

	row := r.db.Executor(ctx).QueryRowContext(ctx, query, arg)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// Update persists header fields and replaces the line items
func (r *OrderRepository) Update(ctx context.Context, order *entity.PurchaseOrder) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		query := `
			UPDATE purchase_orders
			SET supplier_id = ?, supplier_name = ?, subtotal = ?, tax = ?, total = ?,
				expected_delivery = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := exec.ExecContext(ctx, query,
			order.SupplierID,
			order.SupplierName,
			order.Subtotal.String(),
			order.Tax.String(),
			order.Total.String(),
			order.ExpectedDelivery,
			order.UpdatedAt,
			order.ID,
		)
		if err != nil {
			r.logger.Error("Failed to update order", zap.String("id", order.ID), zap.Error(err))
			return fmt.Errorf("failed to update order: %w", err)
		}

		if _, err := exec.ExecContext(ctx, `DELETE FROM line_items WHERE order_id = ?`, order.ID); err != nil {
			return fmt.Errorf("failed to clear line items: %w", err)
		}

		return r.insertItems(ctx, order.ID, order.Items)
	})
}

// UpdateStatus moves an order between statuses with a compare-and-swap on the
// stored status. A zero row count means the order was missing or stale.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expected, next workflow.Status) error {
	query := `UPDATE purchase_orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		next.String(), time.Now().UTC(), id, expected.String())
	if err != nil {
		r.logger.Error("Failed to update order status",
			zap.String("id", id),
			zap.String("expected", expected.String()),
			zap.String("next", next.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return port.ErrStaleOrder
	}

	return nil
}

// List retrieves orders newest first with pagination
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	return r.collectOrders(ctx, rows)
}

// ListByStatuses retrieves every order currently in one of the given statuses
func (r *OrderRepository) ListByStatuses(ctx context.Context, statuses []workflow.Status) ([]*entity.PurchaseOrder, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE status IN (` + placeholders + `) ORDER BY created_at ASC`

	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = s.String()
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders by status", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders by status: %w", err)
	}
	defer rows.Close()

	return r.collectOrders(ctx, rows)
}

// CountCreatedInYear returns how many orders were created in the given year
func (r *OrderRepository) CountCreatedInYear(ctx context.Context, year int) (int64, error) {
	query := `SELECT COUNT(*) FROM purchase_orders WHERE strftime('%Y', created_at) = ?`

	var count int64
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, fmt.Sprintf("%04d", year)).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count orders", zap.Int("year", year), zap.Error(err))
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

func (r *OrderRepository) insertItems(ctx context.Context, orderID string, items []entity.LineItem) error {
	exec := r.db.Executor(ctx)
	query := `
		INSERT INTO line_items (id, order_id, product_id, product_name, sku,
			quantity, unit_cost, line_total, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, item := range items {
		_, err := exec.ExecContext(ctx, query,
			item.ID,
			orderID,
			item.ProductID,
			item.ProductName,
			item.SKU,
			item.Quantity,
			item.UnitCost.String(),
			item.LineTotal.String(),
			item.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]entity.LineItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, sku, quantity, unit_cost, line_total, sort_order
		FROM line_items
		WHERE order_id = ?
		ORDER BY sort_order ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	defer rows.Close()

	var items []entity.LineItem
	for rows.Next() {
		var item entity.LineItem
		var unitCost, lineTotal string

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.SKU,
			&item.Quantity,
			&unitCost,
			&lineTotal,
			&item.SortOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}

		if item.UnitCost, err = decimal.NewFromString(unitCost); err != nil {
			return nil, fmt.Errorf("invalid unit cost %q: %w", unitCost, err)
		}
		if item.LineTotal, err = decimal.NewFromString(lineTotal); err != nil {
			return nil, fmt.Errorf("invalid line total %q: %w", lineTotal, err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *OrderRepository) collectOrders(ctx context.Context, rows *sql.Rows) ([]*entity.PurchaseOrder, error) {
	var orders []*entity.PurchaseOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (*entity.PurchaseOrder, error) {
	var order entity.PurchaseOrder
	var subtotal, tax, total, status string
	var expectedDelivery sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.SupplierID,
		&order.SupplierName,
		&subtotal,
		&tax,
		&total,
		&status,
		&expectedDelivery,
		&order.CreatedBy,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("invalid subtotal %q: %w", subtotal, err)
	}
	if order.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("invalid tax %q: %w", tax, err)
	}
	if order.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total %q: %w", total, err)
	}
	order.Status = workflow.Status(status)
	if expectedDelivery.Valid {
		order.ExpectedDelivery = &expectedDelivery.Time
	}

	return &order, nil
}

// Verify interface compliance
var _ port.OrderRepository = (*OrderRepository)(nil)
