package portsout

import (
	"context"

	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

// FiatRateSource quotes fiat minor units per one whole native unit.
// Queried at confirmation time so deposits settle at confirmation
// value, not first-seen value.
type FiatRateSource interface {
	RateFiatMinorPerUnit(ctx context.Context, chain valueobjects.Chain) (int64, *apperrors.AppError)
}
