package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var orderNumberRegex = regexp.MustCompile(`^PO-\d{4}-\d{4}$`)

// ValidateOrderNumber validates the PO-<year>-<sequence> order number format
func ValidateOrderNumber(number string) error {
	if !orderNumberRegex.MatchString(number) {
		return fmt.Errorf("invalid order number format: %s", number)
	}
	return nil
}

// ValidateQuantity validates a line item quantity
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %d", quantity)
	}
	return nil
}

// ValidateUnitCost validates a line item unit cost
func ValidateUnitCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return fmt.Errorf("unit cost must not be negative: %s", cost.String())
	}
	return nil
}

// ValidateReason validates a user-supplied cancellation or closure reason
func ValidateReason(reason string) error {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return fmt.Errorf("reason must not be empty")
	}
	if len(trimmed) > 500 {
		return fmt.Errorf("reason exceeds 500 characters: %d", len(trimmed))
	}
	return nil
}

// SanitizeString removes control characters from user-supplied text
func SanitizeString(s string) string {
	sanitized := regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
	return sanitized
}
