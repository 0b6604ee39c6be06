package port

import (
	"context"

	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

// OrderRepository defines persistence operations for PurchaseOrder
type OrderRepository interface {
	// Create persists a new order together with its line items
	Create(ctx context.Context, order *entity.PurchaseOrder) error

	// GetByID retrieves an order with its line items
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)

	// GetByNumber retrieves an order by its human-facing order number
	GetByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error)

	// Update persists header fields and replaces the line items
	Update(ctx context.Context, order *entity.PurchaseOrder) error

	// UpdateStatus moves an order from expected to next, guarded by a
	// compare-and-swap on the stored status. Returns ErrStaleOrder when the
	// stored status no longer matches expected.
	UpdateStatus(ctx context.Context, id string, expected, next workflow.Status) error

	// List retrieves orders newest first
	List(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error)

	// ListByStatuses retrieves every order currently in one of the given statuses
	ListByStatuses(ctx context.Context, statuses []workflow.Status) ([]*entity.PurchaseOrder, error)

	// CountCreatedInYear returns how many orders were created in the given
	// year, used for sequential order numbering
	CountCreatedInYear(ctx context.Context, year int) (int64, error)
}

// AuditRepository defines persistence operations for the order audit trail
type AuditRepository interface {
	// Create appends an audit record; records are never updated or deleted
	Create(ctx context.Context, record *entity.AuditRecord) error

	// GetByOrderID retrieves the full trail for an order, oldest first
	GetByOrderID(ctx context.Context, orderID string) ([]*entity.AuditRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
