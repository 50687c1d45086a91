package valueobjects

import (
	"math/big"
	"regexp"
	"strings"

	apperrors "paycore/internal/shared_kernel/errors"
)

var amountMinorPattern = regexp.MustCompile(`^[0-9]{1,78}$`)

// NormalizeAmountMinor validates a native-unit integer amount carried
// as a decimal string (satoshi, lamports, token minor units).
func NormalizeAmountMinor(raw string) (string, *apperrors.AppError) {
	value := strings.TrimSpace(raw)
	if !amountMinorPattern.MatchString(value) {
		return "", apperrors.NewValidation(
			"invalid_amount_minor",
			"amount must be an integer string with 1 to 78 digits",
			map[string]any{"field": "amount_native_minor"},
		)
	}

	return value, nil
}

// FiatMinorAt converts a native minor amount into fiat minor units at
// the given rate (fiat minor units per one whole native unit),
// flooring the remainder. Settlement value is captured with this at
// confirmation time, never at first sight.
func FiatMinorAt(amountNativeMinor string, rateFiatMinorPerUnit int64, decimals int) (int64, *apperrors.AppError) {
	normalized, appErr := NormalizeAmountMinor(amountNativeMinor)
	if appErr != nil {
		return 0, appErr
	}
	if rateFiatMinorPerUnit < 0 || decimals < 0 {
		return 0, apperrors.NewInternal(
			"fiat_conversion_invalid",
			"fiat conversion rate and decimals must be non-negative",
			map[string]any{"rate": rateFiatMinorPerUnit, "decimals": decimals},
		)
	}

	native, ok := new(big.Int).SetString(normalized, 10)
	if !ok {
		return 0, apperrors.NewInternal(
			"amount_minor_parse_failed",
			"failed to parse native amount",
			map[string]any{"amount_native_minor": amountNativeMinor},
		)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	product := new(big.Int).Mul(native, big.NewInt(rateFiatMinorPerUnit))
	quotient := new(big.Int).Quo(product, scale)
	if !quotient.IsInt64() {
		return 0, apperrors.NewInternal(
			"fiat_conversion_overflow",
			"fiat amount exceeds representable range",
			map[string]any{"amount_native_minor": amountNativeMinor},
		)
	}

	return quotient.Int64(), nil
}
