package portsout

import (
	"context"
	"time"

	"paycore/internal/application/dto"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

type DepositLedgerRepository interface {
	// RecordObservations idempotently inserts new deposits, applies
	// monotonic confirmation updates, and advances the (chain, address)
	// watermark cursor in the same transaction. Re-observing a known
	// (chain, tx_id) is a no-op, not an error.
	RecordObservations(ctx context.Context, command dto.RecordObservationsCommand) (dto.RecordObservationsOutcome, *apperrors.AppError)

	// Cursor returns the persisted watermark for (chain, address);
	// empty string when the address has never been scanned.
	Cursor(ctx context.Context, chain valueobjects.Chain, address string) (string, *apperrors.AppError)

	ListConfirmable(ctx context.Context, chain valueobjects.Chain, threshold int64, limit int) ([]dto.ConfirmableDeposit, *apperrors.AppError)

	// Confirm transitions (chain, tx_id) pending -> confirmed exactly
	// once, captures the fiat value at the given rate, and applies the
	// balance credit in the same transaction keyed by
	// "chain:<chain>:<tx_id>". A repeated call reports Confirmed=false.
	Confirm(ctx context.Context, chain valueobjects.Chain, txID string, rateFiatMinorPerUnit int64, now time.Time) (dto.ConfirmDepositOutcome, *apperrors.AppError)

	// FlagMissingConfirmed marks confirmed deposits on the address
	// that are absent from the observed set while their last recorded
	// confirmation count is still below reobserveDepth — the depth up
	// to which the source keeps re-reporting transactions. Deposits at
	// or past that depth left the feed legitimately and are skipped.
	// Flag only: credited balance is never reverted automatically.
	FlagMissingConfirmed(ctx context.Context, chain valueobjects.Chain, address string, seenTxIDs []string, reobserveDepth int64, window time.Duration, now time.Time) (int, *apperrors.AppError)

	ListByUser(ctx context.Context, userID string) ([]dto.DepositResource, *apperrors.AppError)
}
