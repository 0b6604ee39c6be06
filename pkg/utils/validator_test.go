package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateOrderNumber(t *testing.T) {
	tests := []struct {
		number  string
		wantErr bool
	}{
		{"PO-2026-0001", false},
		{"PO-2026-9999", false},
		{"PO-26-0001", true},
		{"PO-2026-1", true},
		{"po-2026-0001", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateOrderNumber(tt.number)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOrderNumber(%q) error = %v, wantErr %v", tt.number, err, tt.wantErr)
		}
	}
}

func TestValidateQuantity(t *testing.T) {
	if err := ValidateQuantity(1); err != nil {
		t.Errorf("ValidateQuantity(1) error = %v", err)
	}
	if err := ValidateQuantity(0); err == nil {
		t.Error("ValidateQuantity(0) should fail")
	}
	if err := ValidateQuantity(-3); err == nil {
		t.Error("ValidateQuantity(-3) should fail")
	}
}

func TestValidateUnitCost(t *testing.T) {
	if err := ValidateUnitCost(decimal.Zero); err != nil {
		t.Errorf("ValidateUnitCost(0) error = %v, zero cost items are allowed", err)
	}
	if err := ValidateUnitCost(decimal.NewFromInt(-1)); err == nil {
		t.Error("ValidateUnitCost(-1) should fail")
	}
}

func TestValidateReason(t *testing.T) {
	if err := ValidateReason("supplier discontinued the product"); err != nil {
		t.Errorf("ValidateReason() error = %v", err)
	}
	if err := ValidateReason("   "); err == nil {
		t.Error("whitespace-only reason should fail")
	}
	if err := ValidateReason(strings.Repeat("x", 501)); err == nil {
		t.Error("overlong reason should fail")
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("Acme\x00 Supplies\x1f")
	if got != "Acme Supplies" {
		t.Errorf("SanitizeString() = %q, want control characters stripped", got)
	}
}
