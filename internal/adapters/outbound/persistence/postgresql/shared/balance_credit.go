package shared

import (
	"context"
	"database/sql"
	"time"

	apperrors "paycore/internal/shared_kernel/errors"
)

// ApplyCredit is the single crediting path shared by deposit
// confirmation, processor webhooks, and manual credits. It records the
// source_ref in the dedupe table and bumps the user's credited
// accumulator inside the caller's transaction. A source_ref that was
// already applied leaves the accumulators untouched and reports
// applied=false.
func ApplyCredit(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	amountMinor int64,
	sourceRef string,
	now time.Time,
) (bool, *apperrors.AppError) {
	if amountMinor <= 0 {
		return false, apperrors.NewInternal(
			"credit_amount_not_positive",
			"credit amount must be positive",
			map[string]any{"amount_minor": amountMinor, "source_ref": sourceRef},
		)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO balance_credits (source_ref, user_id, amount_minor, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_ref) DO NOTHING
	`, sourceRef, userID, amountMinor, now.UTC())
	if err != nil {
		return false, apperrors.NewInternal(
			"balance_credit_insert_failed",
			"failed to record balance credit",
			map[string]any{"error": err.Error(), "source_ref": sourceRef},
		)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternal(
			"balance_credit_insert_failed",
			"failed to inspect balance credit insert",
			map[string]any{"error": err.Error(), "source_ref": sourceRef},
		)
	}
	if inserted == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, credited_total_minor, consumed_total_minor, updated_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			credited_total_minor = user_balances.credited_total_minor + EXCLUDED.credited_total_minor,
			updated_at = EXCLUDED.updated_at
	`, userID, amountMinor, now.UTC()); err != nil {
		return false, apperrors.NewInternal(
			"balance_accumulator_update_failed",
			"failed to update credited accumulator",
			map[string]any{"error": err.Error(), "user_id": userID},
		)
	}
	return true, nil
}

// AvailableBalance reads a user's accumulators inside the caller's
// transaction. Missing users read as zero.
func AvailableBalance(ctx context.Context, tx *sql.Tx, userID string) (int64, *apperrors.AppError) {
	var credited, consumed int64
	err := tx.QueryRowContext(ctx, `
		SELECT credited_total_minor, consumed_total_minor
		FROM user_balances
		WHERE user_id = $1
	`, userID).Scan(&credited, &consumed)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.NewInternal(
			"balance_read_failed",
			"failed to read user balance",
			map[string]any{"error": err.Error(), "user_id": userID},
		)
	}
	return credited - consumed, nil
}
