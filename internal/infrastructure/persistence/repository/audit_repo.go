package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/procurehq/purchase-flow/internal/application/port"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/pkg/database"
)

// AuditRepository implements port.AuditRepository on SQLite. The trail is
// append-only; there are no update or delete paths.
type AuditRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit record
func (r *AuditRepository) Create(ctx context.Context, record *entity.AuditRecord) error {
	query := `
		INSERT INTO audit_records (order_id, actor_id, role, previous_status, new_status, reason, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		record.OrderID,
		record.ActorID,
		record.Role,
		record.PreviousStatus,
		record.NewStatus,
		record.Reason,
		record.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create audit record", zap.String("order_id", record.OrderID), zap.Error(err))
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByOrderID retrieves the full trail for an order, oldest first
func (r *AuditRepository) GetByOrderID(ctx context.Context, orderID string) ([]*entity.AuditRecord, error) {
	query := `
		SELECT id, order_id, actor_id, role, previous_status, new_status, reason, timestamp
		FROM audit_records
		WHERE order_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get audit trail", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	defer rows.Close()

	var records []*entity.AuditRecord
	for rows.Next() {
		var record entity.AuditRecord

		err := rows.Scan(
			&record.ID,
			&record.OrderID,
			&record.ActorID,
			&record.Role,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Reason,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
