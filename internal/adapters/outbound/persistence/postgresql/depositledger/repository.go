package depositledger

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"paycore/internal/adapters/outbound/persistence/postgresql/shared"
	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ portsout.DepositLedgerRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// RecordObservations appends unseen (chain, tx_id) rows, raises
// confirmation counts monotonically on known rows, and advances the
// address watermark. All of it commits atomically so a crash can lose
// an entire batch but never the cursor ahead of its deposits.
func (r *Repository) RecordObservations(ctx context.Context, command dto.RecordObservationsCommand) (dto.RecordObservationsOutcome, *apperrors.AppError) {
	outcome := dto.RecordObservationsOutcome{}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return outcome, apperrors.NewInternal(
			"deposit_tx_begin_failed",
			"failed to start deposit transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, observation := range command.Observations {
		amount, appErr := valueobjects.NormalizeAmountMinor(observation.AmountNativeMinor)
		if appErr != nil {
			return outcome, appErr
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO deposits (
				id, chain, tx_id, user_id, address,
				amount_native_minor, confirmations, status, first_seen_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)
			ON CONFLICT (chain, tx_id) DO NOTHING
		`,
			uuid.NewString(),
			command.Chain.String(),
			observation.TxID,
			command.UserID,
			command.Address,
			amount,
			observation.Confirmations,
			command.Now.UTC(),
		)
		if err != nil {
			return outcome, apperrors.NewInternal(
				"deposit_insert_failed",
				"failed to insert deposit",
				map[string]any{"error": err.Error(), "tx_id": observation.TxID},
			)
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return outcome, apperrors.NewInternal(
				"deposit_insert_failed",
				"failed to inspect deposit insert",
				map[string]any{"error": err.Error(), "tx_id": observation.TxID},
			)
		}
		if inserted > 0 {
			outcome.Inserted++
			continue
		}

		// Known tx: confirmations only ever move up.
		updateResult, err := tx.ExecContext(ctx, `
			UPDATE deposits
			SET confirmations = $3
			WHERE chain = $1 AND tx_id = $2 AND confirmations < $3
		`, command.Chain.String(), observation.TxID, observation.Confirmations)
		if err != nil {
			return outcome, apperrors.NewInternal(
				"deposit_update_failed",
				"failed to update deposit confirmations",
				map[string]any{"error": err.Error(), "tx_id": observation.TxID},
			)
		}
		if updated, _ := updateResult.RowsAffected(); updated > 0 {
			outcome.Updated++
		}
	}

	if strings.TrimSpace(command.NextCursor) != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO watch_cursors (chain, address, cursor, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (chain, address) DO UPDATE SET
				cursor = EXCLUDED.cursor,
				updated_at = EXCLUDED.updated_at
		`, command.Chain.String(), command.Address, command.NextCursor, command.Now.UTC()); err != nil {
			return outcome, apperrors.NewInternal(
				"watch_cursor_update_failed",
				"failed to advance watch cursor",
				map[string]any{"error": err.Error(), "address": command.Address},
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return outcome, apperrors.NewInternal(
			"deposit_tx_commit_failed",
			"failed to commit deposit transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed = true

	if r.logger != nil && (outcome.Inserted > 0 || outcome.Updated > 0) {
		r.logger.Printf(
			"deposit observations recorded chain=%s address=%s inserted=%d updated=%d cursor=%s",
			command.Chain, command.Address, outcome.Inserted, outcome.Updated, command.NextCursor,
		)
	}
	return outcome, nil
}

func (r *Repository) Cursor(ctx context.Context, chain valueobjects.Chain, address string) (string, *apperrors.AppError) {
	var cursor string
	err := r.db.QueryRowContext(ctx, `
		SELECT cursor FROM watch_cursors WHERE chain = $1 AND address = $2
	`, chain.String(), address).Scan(&cursor)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewInternal(
			"watch_cursor_read_failed",
			"failed to read watch cursor",
			map[string]any{"error": err.Error(), "address": address},
		)
	}
	return cursor, nil
}

func (r *Repository) ListConfirmable(ctx context.Context, chain valueobjects.Chain, threshold int64, limit int) ([]dto.ConfirmableDeposit, *apperrors.AppError) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tx_id, user_id, amount_native_minor::text, confirmations
		FROM deposits
		WHERE chain = $1 AND status = 'pending' AND confirmations >= $2
		ORDER BY first_seen_at
		LIMIT $3
	`, chain.String(), threshold, limit)
	if err != nil {
		return nil, apperrors.NewInternal(
			"deposit_query_failed",
			"failed to list confirmable deposits",
			map[string]any{"error": err.Error(), "chain": chain.String()},
		)
	}
	defer rows.Close()

	var confirmable []dto.ConfirmableDeposit
	for rows.Next() {
		var deposit dto.ConfirmableDeposit
		if err := rows.Scan(&deposit.TxID, &deposit.UserID, &deposit.AmountNativeMinor, &deposit.Confirmations); err != nil {
			return nil, apperrors.NewInternal(
				"deposit_scan_failed",
				"failed to scan confirmable deposit",
				map[string]any{"error": err.Error()},
			)
		}
		confirmable = append(confirmable, deposit)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal(
			"deposit_query_failed",
			"failed to iterate confirmable deposits",
			map[string]any{"error": err.Error()},
		)
	}
	return confirmable, nil
}

// Confirm flips one pending deposit to confirmed and credits the user
// in the same transaction. The guarded UPDATE makes the transition
// single-shot under concurrent watchers; the credit dedupe key makes
// the money movement single-shot even across process restarts.
func (r *Repository) Confirm(ctx context.Context, chain valueobjects.Chain, txID string, rateFiatMinorPerUnit int64, now time.Time) (dto.ConfirmDepositOutcome, *apperrors.AppError) {
	outcome := dto.ConfirmDepositOutcome{}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return outcome, apperrors.NewInternal(
			"deposit_tx_begin_failed",
			"failed to start confirmation transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var userID, amountNativeMinor string
	err = tx.QueryRowContext(ctx, `
		UPDATE deposits
		SET status = 'confirmed', confirmed_at = $3
		WHERE chain = $1 AND tx_id = $2 AND status = 'pending'
		RETURNING user_id, amount_native_minor::text
	`, chain.String(), txID, now.UTC()).Scan(&userID, &amountNativeMinor)
	if err == sql.ErrNoRows {
		// Already confirmed by a concurrent cycle.
		if commitErr := tx.Commit(); commitErr == nil {
			committed = true
		}
		return dto.ConfirmDepositOutcome{Confirmed: false}, nil
	}
	if err != nil {
		return outcome, apperrors.NewInternal(
			"deposit_confirm_failed",
			"failed to confirm deposit",
			map[string]any{"error": err.Error(), "tx_id": txID},
		)
	}

	fiatMinor, appErr := valueobjects.FiatMinorAt(amountNativeMinor, rateFiatMinorPerUnit, chain.Decimals())
	if appErr != nil {
		return outcome, appErr
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE deposits SET fiat_amount_minor = $3 WHERE chain = $1 AND tx_id = $2
	`, chain.String(), txID, fiatMinor); err != nil {
		return outcome, apperrors.NewInternal(
			"deposit_confirm_failed",
			"failed to capture fiat value",
			map[string]any{"error": err.Error(), "tx_id": txID},
		)
	}

	if fiatMinor > 0 {
		sourceRef := "chain:" + chain.String() + ":" + txID
		if _, appErr := shared.ApplyCredit(ctx, tx, userID, fiatMinor, sourceRef, now); appErr != nil {
			return outcome, appErr
		}
	}

	if err := tx.Commit(); err != nil {
		return outcome, apperrors.NewInternal(
			"deposit_tx_commit_failed",
			"failed to commit confirmation transaction",
			map[string]any{"error": err.Error(), "tx_id": txID},
		)
	}
	committed = true

	if r.logger != nil {
		r.logger.Printf(
			"deposit confirmed chain=%s tx_id=%s user_id=%s fiat_minor=%d",
			chain, txID, userID, fiatMinor,
		)
	}
	return dto.ConfirmDepositOutcome{Confirmed: true, FiatAmountMinor: fiatMinor}, nil
}

// FlagMissingConfirmed marks confirmed deposits on the address whose
// transactions vanished from the observed set while still inside the
// source's re-observe span. Sources report a transaction until its
// depth passes the cursor lag, and that final depth is recorded in
// the same transaction that advances the cursor, so a confirmed row
// with confirmations still below reobserveDepth must keep appearing;
// its absence means the chain dropped it. Rows at or past the depth
// aged out of the feed normally and are left alone. The flag is an
// operator signal; credited balance stays as it is.
func (r *Repository) FlagMissingConfirmed(ctx context.Context, chain valueobjects.Chain, address string, seenTxIDs []string, reobserveDepth int64, window time.Duration, now time.Time) (int, *apperrors.AppError) {
	horizon := now.Add(-window).UTC()

	seen := seenTxIDs
	if seen == nil {
		seen = []string{}
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE deposits
		SET anomaly = 'missing_after_confirm'
		WHERE chain = $1
		  AND address = $2
		  AND status = 'confirmed'
		  AND anomaly IS NULL
		  AND confirmations < $3
		  AND confirmed_at >= $4
		  AND NOT (tx_id = ANY($5))
	`, chain.String(), address, reobserveDepth, horizon, seen)
	if err != nil {
		return 0, apperrors.NewInternal(
			"deposit_anomaly_flag_failed",
			"failed to flag missing confirmed deposits",
			map[string]any{"error": err.Error(), "address": address},
		)
	}
	flagged, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternal(
			"deposit_anomaly_flag_failed",
			"failed to inspect anomaly flag update",
			map[string]any{"error": err.Error(), "address": address},
		)
	}

	if r.logger != nil && flagged > 0 {
		r.logger.Printf(
			"confirmed deposits missing from chain view chain=%s address=%s flagged=%d",
			chain, address, flagged,
		)
	}
	return int(flagged), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]dto.DepositResource, *apperrors.AppError) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chain, tx_id, amount_native_minor::text, fiat_amount_minor,
		       confirmations, status, first_seen_at, confirmed_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY first_seen_at DESC
	`, userID)
	if err != nil {
		return nil, apperrors.NewInternal(
			"deposit_query_failed",
			"failed to list user deposits",
			map[string]any{"error": err.Error(), "user_id": userID},
		)
	}
	defer rows.Close()

	var deposits []dto.DepositResource
	for rows.Next() {
		var resource dto.DepositResource
		var chain string
		var fiatMinor sql.NullInt64
		var confirmedAt sql.NullTime
		if err := rows.Scan(
			&resource.ID,
			&chain,
			&resource.TxID,
			&resource.AmountNativeMinor,
			&fiatMinor,
			&resource.Confirmations,
			&resource.Status,
			&resource.FirstSeenAt,
			&confirmedAt,
		); err != nil {
			return nil, apperrors.NewInternal(
				"deposit_scan_failed",
				"failed to scan deposit row",
				map[string]any{"error": err.Error()},
			)
		}
		resource.Chain = valueobjects.Chain(chain)
		if fiatMinor.Valid {
			value := fiatMinor.Int64
			resource.FiatAmountMinor = &value
		}
		if confirmedAt.Valid {
			confirmed := confirmedAt.Time
			resource.ConfirmedAt = &confirmed
		}
		deposits = append(deposits, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal(
			"deposit_query_failed",
			"failed to iterate user deposits",
			map[string]any{"error": err.Error(), "user_id": userID},
		)
	}
	return deposits, nil
}
