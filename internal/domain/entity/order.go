package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

// PurchaseOrder represents a purchase order and its lifecycle state
type PurchaseOrder struct {
	ID               string          `json:"id"`
	Number           string          `json:"number"`
	SupplierID       string          `json:"supplier_id"`
	SupplierName     string          `json:"supplier_name"`
	Items            []LineItem      `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	Status           workflow.Status `json:"status"`
	ExpectedDelivery *time.Time      `json:"expected_delivery,omitempty"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LineItem represents a single ordered product line
type LineItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
	SortOrder   int             `json:"sort_order"`
}

// RecomputeTotals recalculates line totals, subtotal, and total from the line
// items. Tax is kept as-is; total = subtotal + tax.
func (o *PurchaseOrder) RecomputeTotals() {
	subtotal := decimal.Zero
	for i := range o.Items {
		o.Items[i].LineTotal = o.Items[i].UnitCost.Mul(decimal.NewFromInt(o.Items[i].Quantity))
		subtotal = subtotal.Add(o.Items[i].LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.Tax)
}

// AgeDays returns the whole number of days since the order was created
func (o *PurchaseOrder) AgeDays(now time.Time) int {
	if now.Before(o.CreatedAt) {
		return 0
	}
	return int(now.Sub(o.CreatedAt).Hours() / 24)
}
