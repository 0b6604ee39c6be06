package queue

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procurehq/purchase-flow/internal/domain/auth"
	"github.com/procurehq/purchase-flow/internal/domain/entity"
	"github.com/procurehq/purchase-flow/internal/domain/workflow"
)

// Priority classifies how urgently an order awaiting approval needs attention
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// rank orders priorities for comparisons in tests and callers
var priorityRank = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// Rank returns a comparable weight for the priority, higher is more urgent
func (p Priority) Rank() int {
	return priorityRank[p]
}

// DateRange restricts the view by order creation time
type DateRange string

const (
	DateRangeAll    DateRange = "all"
	DateRangeToday  DateRange = "today"
	DateRange7Days  DateRange = "7d"
	DateRange30Days DateRange = "30d"
)

// AmountBucket restricts the view by order total
type AmountBucket string

const (
	AmountBucketAll    AmountBucket = "all"
	AmountBucketSmall  AmountBucket = "small"  // <= 10,000
	AmountBucketMedium AmountBucket = "medium" // 10,001 - 50,000
	AmountBucketLarge  AmountBucket = "large"  // > 50,000
)

// SortKey selects the ordering of queue entries
type SortKey string

const (
	SortByDate      SortKey = "date"
	SortByAmount    SortKey = "amount"
	SortBySupplier  SortKey = "supplier"
	SortByItemCount SortKey = "items"
)

// Filters narrows the queue view. Zero values mean "no restriction".
type Filters struct {
	Search       string
	DateRange    DateRange
	AmountBucket AmountBucket
	SupplierID   string
}

// Sort selects the key and direction for the view
type Sort struct {
	Key        SortKey
	Descending bool
}

// Entry is a purchase order annotated at read time with its computed
// priority and age. Entries are derived on every query, never stored.
type Entry struct {
	Order            entity.PurchaseOrder `json:"order"`
	Priority         Priority             `json:"priority"`
	DaysSinceCreated int                  `json:"days_since_created"`
}

// Stats aggregates the visible queue
type Stats struct {
	Count          int             `json:"count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	OverdueCount   int             `json:"overdue_count"`    // older than 3 days
	HighValueCount int             `json:"high_value_count"` // total above 50,000
}

// View is the filtered, prioritized, sorted queue for one role
type View struct {
	Entries []Entry `json:"entries"`
	Stats   Stats   `json:"stats"`
}

var (
	urgentAmount   = decimal.NewFromInt(100000)
	highAmount     = decimal.NewFromInt(50000)
	mediumAmount   = decimal.NewFromInt(10000)
	urgentAgeDays  = 7
	overdueAgeDays = 3
)

// PriorityFor computes the escalation level for an order awaiting approval.
// Age and amount escalate independently; either alone is sufficient.
func PriorityFor(order *entity.PurchaseOrder, now time.Time) Priority {
	age := order.AgeDays(now)
	switch {
	case age > urgentAgeDays || order.Total.GreaterThan(urgentAmount):
		return PriorityUrgent
	case age > overdueAgeDays || order.Total.GreaterThan(highAmount):
		return PriorityHigh
	case order.Total.GreaterThan(mediumAmount):
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// BuildView derives the approval queue for a role from a snapshot of orders.
// Only orders the role could actually approve are included. The computation is
// pure: identical inputs yield an identical view.
func BuildView(orders []entity.PurchaseOrder, role auth.Role, filters Filters, sortBy Sort, now time.Time) View {
	entries := make([]Entry, 0, len(orders))

	for _, order := range orders {
		if order.Status != workflow.StatusDraft && order.Status != workflow.StatusPendingApproval {
			continue
		}
		total := order.Total
		if !auth.Authorize(role, auth.ActionApprove, &order, &total).Allowed {
			continue
		}
		if !matchesSearch(&order, filters.Search) {
			continue
		}
		if !matchesDateRange(&order, filters.DateRange, now) {
			continue
		}
		if !matchesAmountBucket(&order, filters.AmountBucket) {
			continue
		}
		if filters.SupplierID != "" && order.SupplierID != filters.SupplierID {
			continue
		}

		entries = append(entries, Entry{
			Order:            order,
			Priority:         PriorityFor(&order, now),
			DaysSinceCreated: order.AgeDays(now),
		})
	}

	sortEntries(entries, sortBy)

	stats := Stats{TotalAmount: decimal.Zero}
	for _, e := range entries {
		stats.Count++
		stats.TotalAmount = stats.TotalAmount.Add(e.Order.Total)
		if e.DaysSinceCreated > overdueAgeDays {
			stats.OverdueCount++
		}
		if e.Order.Total.GreaterThan(highAmount) {
			stats.HighValueCount++
		}
	}

	return View{Entries: entries, Stats: stats}
}

// matchesSearch does a case-insensitive substring match against the order
// number, supplier name, and every line item's product name and SKU
func matchesSearch(order *entity.PurchaseOrder, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(order.Number), search) {
		return true
	}
	if strings.Contains(strings.ToLower(order.SupplierName), search) {
		return true
	}
	for _, item := range order.Items {
		if strings.Contains(strings.ToLower(item.ProductName), search) {
			return true
		}
		if strings.Contains(strings.ToLower(item.SKU), search) {
			return true
		}
	}
	return false
}

func matchesDateRange(order *entity.PurchaseOrder, dateRange DateRange, now time.Time) bool {
	switch dateRange {
	case DateRangeToday:
		y1, m1, d1 := order.CreatedAt.Local().Date()
		y2, m2, d2 := now.Local().Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case DateRange7Days:
		return now.Sub(order.CreatedAt) <= 7*24*time.Hour
	case DateRange30Days:
		return now.Sub(order.CreatedAt) <= 30*24*time.Hour
	default:
		return true
	}
}

func matchesAmountBucket(order *entity.PurchaseOrder, bucket AmountBucket) bool {
	switch bucket {
	case AmountBucketSmall:
		return order.Total.LessThanOrEqual(mediumAmount)
	case AmountBucketMedium:
		return order.Total.GreaterThan(mediumAmount) && order.Total.LessThanOrEqual(highAmount)
	case AmountBucketLarge:
		return order.Total.GreaterThan(highAmount)
	default:
		return true
	}
}

// sortEntries sorts in place with a stable sort so equal keys preserve their
// prior relative order
func sortEntries(entries []Entry, s Sort) {
	less := func(a, b *Entry) bool {
		switch s.Key {
		case SortByAmount:
			return a.Order.Total.LessThan(b.Order.Total)
		case SortBySupplier:
			return strings.ToLower(a.Order.SupplierName) < strings.ToLower(b.Order.SupplierName)
		case SortByItemCount:
			return len(a.Order.Items) < len(b.Order.Items)
		default:
			return a.Order.CreatedAt.Before(b.Order.CreatedAt)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if s.Descending {
			return less(&entries[j], &entries[i])
		}
		return less(&entries[i], &entries[j])
	})
}
