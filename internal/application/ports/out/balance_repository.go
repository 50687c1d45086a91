package portsout

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

// BalanceRepository owns the per-user accumulators. Credit and Debit
// are the only two mutation paths in the system; per-user row locks
// serialize concurrent callers.
type BalanceRepository interface {
	// Credit applies at most once per source_ref; a duplicate call is
	// reported with Applied=false and no accumulator change.
	Credit(ctx context.Context, command dto.CreditBalanceCommand) (dto.CreditBalanceOutput, *apperrors.AppError)

	// Debit increases consumed_total only when the resulting available
	// balance stays non-negative; otherwise it fails with an
	// insufficient_balance error and applies nothing.
	Debit(ctx context.Context, command dto.DebitBalanceCommand) (dto.DebitBalanceOutput, *apperrors.AppError)

	Get(ctx context.Context, userID string) (dto.BalanceSnapshot, *apperrors.AppError)
}
