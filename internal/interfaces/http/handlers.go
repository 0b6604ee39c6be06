package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/procurehq/purchase-flow/internal/application/port"
	"github.com/procurehq/purchase-flow/internal/application/service"
	"github.com/procurehq/purchase-flow/internal/domain/auth"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/queue"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
	"github.com/procurehq/purchase-flow/pkg/utils"
)

// QueueExporter writes a queue view to a downloadable file
type QueueExporter interface {
	Export(view *queue.View) (string, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	orderService      service.OrderService
	transitionService service.TransitionService
	queueService      service.QueueService
	exporter          QueueExporter
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	orderService service.OrderService,
	transitionService service.TransitionService,
	queueService service.QueueService,
	exporter QueueExporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		orderService:      orderService,
		transitionService: transitionService,
		queueService:      queueService,
		exporter:          exporter,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Identity headers set by the authenticating proxy in front of this service
const (
	headerUserID = "X-User-ID"
	headerRole   = "X-User-Role"
)

// caller extracts the acting user and role from the request headers
func caller(c *gin.Context) (string, auth.Role, bool) {
	actorID := strings.TrimSpace(c.GetHeader(headerUserID))
	role := auth.Role(strings.TrimSpace(c.GetHeader(headerRole)))
	if actorID == "" || role == "" {
		return "", "", false
	}
	return actorID, role, true
}

func unauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   "missing identity headers",
	})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListOrdersRequest represents query parameters for listing orders
type ListOrdersRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ListOrders handles GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	var orders []*entity.PurchaseOrder
	var err error
	if req.Status != "" {
		status := workflow.Status(req.Status)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "unknown status: " + req.Status,
			})
			return
		}
		orders, err = h.orderService.ListOrdersByStatus(c.Request.Context(), status)
	} else {
		orders, err = h.orderService.ListOrders(c.Request.Context(), req.Limit, req.Offset)
	}
	if err != nil {
		h.logger.Error("Failed to list orders", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    orders,
	})
}

// CreateOrder handles POST /api/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	actorID, _, ok := caller(c)
	if !ok {
		unauthenticated(c)
		return
	}

	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Error("Invalid order payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid order payload",
		})
		return
	}
	input.CreatedBy = actorID

	order, err := h.orderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrderInput) {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		h.logger.Error("Failed to create order", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to create order",
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    order,
	})
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id := c.Param("id")

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "order not found",
			})
			return
		}
		h.logger.Error("Failed to get order", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve order",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    order,
	})
}

// GetOrderByNumber handles GET /api/orders/number/:number
func (h *Handlers) GetOrderByNumber(c *gin.Context) {
	number := c.Param("number")
	if err := utils.ValidateOrderNumber(number); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	order, err := h.orderService.GetOrderByNumber(c.Request.Context(), number)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "order not found",
			})
			return
		}
		h.logger.Error("Failed to get order by number", "number", number, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve order",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    order,
	})
}

// TransitionRequest represents a status change request
type TransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
	Reason       string `json:"reason"`
}

// RequestTransition handles POST /api/orders/:id/transition
func (h *Handlers) RequestTransition(c *gin.Context) {
	actorID, role, ok := caller(c)
	if !ok {
		unauthenticated(c)
		return
	}

	id := c.Param("id")

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid transition payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid transition payload",
		})
		return
	}

	target := workflow.Status(req.TargetStatus)
	if !target.IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "unknown target status: " + req.TargetStatus,
		})
		return
	}

	if req.Reason != "" {
		if err := utils.ValidateReason(req.Reason); err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
	}

	result, err := h.transitionService.RequestTransition(c.Request.Context(), id, target, role, actorID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "order not found",
			})
		case errors.Is(err, port.ErrStaleOrder):
			c.JSON(http.StatusConflict, Response{
				Success: false,
				Error:   "order was modified concurrently, reload and retry",
			})
		default:
			h.logger.Error("Transition failed", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to apply transition",
			})
		}
		return
	}

	if !result.OK() {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Data:    result,
			Error:   "transition denied",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// GetAuditTrail handles GET /api/orders/:id/history
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	id := c.Param("id")

	records, err := h.orderService.GetAuditTrail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "order not found",
			})
			return
		}
		h.logger.Error("Failed to get audit trail", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve audit trail",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// QueueRequest represents query parameters for the approval queue
type QueueRequest struct {
	Search       string `form:"search"`
	DateRange    string `form:"date_range"`
	AmountBucket string `form:"amount_bucket"`
	SupplierID   string `form:"supplier_id"`
	SortBy       string `form:"sort_by"`
	SortDesc     bool   `form:"sort_desc"`
}

func (r QueueRequest) filters() queue.Filters {
	return queue.Filters{
		Search:       r.Search,
		DateRange:    queue.DateRange(r.DateRange),
		AmountBucket: queue.AmountBucket(r.AmountBucket),
		SupplierID:   r.SupplierID,
	}
}

func (r QueueRequest) sort() queue.Sort {
	return queue.Sort{
		Key:        queue.SortKey(r.SortBy),
		Descending: r.SortDesc,
	}
}

// GetQueue handles GET /api/approval-queue
func (h *Handlers) GetQueue(c *gin.Context) {
	_, role, ok := caller(c)
	if !ok {
		unauthenticated(c)
		return
	}

	var req QueueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	view, err := h.queueService.GetQueue(c.Request.Context(), role, req.filters(), req.sort())
	if err != nil {
		h.logger.Error("Failed to build approval queue", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to build approval queue",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    view,
	})
}

// BulkApproveRequest represents a bulk approval request
type BulkApproveRequest struct {
	OrderIDs []string `json:"order_ids" binding:"required,min=1"`
}

// BulkApprove handles POST /api/approval-queue/bulk-approve
func (h *Handlers) BulkApprove(c *gin.Context) {
	actorID, role, ok := caller(c)
	if !ok {
		unauthenticated(c)
		return
	}

	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "order_ids is required",
		})
		return
	}

	result, err := h.queueService.BulkApprove(c.Request.Context(), req.OrderIDs, role, actorID)
	if err != nil {
		h.logger.Error("Bulk approval failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "bulk approval failed",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// ExportQueue handles GET /api/approval-queue/export
func (h *Handlers) ExportQueue(c *gin.Context) {
	_, role, ok := caller(c)
	if !ok {
		unauthenticated(c)
		return
	}

	var req QueueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	view, err := h.queueService.GetQueue(c.Request.Context(), role, req.filters(), req.sort())
	if err != nil {
		h.logger.Error("Failed to build approval queue for export", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to build approval queue",
		})
		return
	}

	path, err := h.exporter.Export(view)
	if err != nil {
		h.logger.Error("Queue export failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "export failed",
		})
		return
	}

	c.FileAttachment(path, "approval-queue.xlsx")
}
