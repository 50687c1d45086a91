//go:build !integration

package valueobjects

import (
	"strings"
	"testing"
)

func TestNormalizeAmountMinorAcceptsDigitsOnly(t *testing.T) {
	normalized, appErr := NormalizeAmountMinor("  150000000 ")
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if normalized != "150000000" {
		t.Fatalf("expected trimmed value, got %q", normalized)
	}
}

func TestNormalizeAmountMinorRejectsNonInteger(t *testing.T) {
	for _, raw := range []string{"", "-1", "1.5", "0x10", "1e8", strings.Repeat("9", 79)} {
		if _, appErr := NormalizeAmountMinor(raw); appErr == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestFiatMinorAtFloorsRemainder(t *testing.T) {
	// 1.5 BTC at 100.00 fiat per BTC = 150.00 fiat
	got, appErr := FiatMinorAt("150000000", 10000, 8)
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if got != 15000 {
		t.Fatalf("expected 15000, got %d", got)
	}

	// 1 lamport at any sane rate floors to zero
	got, appErr = FiatMinorAt("1", 10000, 9)
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if got != 0 {
		t.Fatalf("expected floor to 0, got %d", got)
	}
}

func TestFiatMinorAtRejectsNegativeRate(t *testing.T) {
	if _, appErr := FiatMinorAt("100", -1, 8); appErr == nil {
		t.Fatalf("expected negative rate to be rejected")
	}
}

func TestFiatMinorAtOverflowSurfaces(t *testing.T) {
	_, appErr := FiatMinorAt(strings.Repeat("9", 30), 1000000, 0)
	if appErr == nil {
		t.Fatalf("expected overflow error")
	}
	if appErr.Code != "fiat_conversion_overflow" {
		t.Fatalf("expected fiat_conversion_overflow, got %s", appErr.Code)
	}
}
