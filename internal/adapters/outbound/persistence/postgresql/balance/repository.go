package balance

import (
	"context"
	"database/sql"
	"log"
	"time"

	"paycore/internal/adapters/outbound/persistence/postgresql/shared"
	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	apperrors "paycore/internal/shared_kernel/errors"
)

type Repository struct {
	db      *sql.DB
	logger  *log.Logger
	nowFunc func() time.Time
}

var _ portsout.BalanceRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	return &Repository{db: db, logger: logger, nowFunc: time.Now}
}

func (r *Repository) Credit(ctx context.Context, command dto.CreditBalanceCommand) (dto.CreditBalanceOutput, *apperrors.AppError) {
	output := dto.CreditBalanceOutput{}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return output, apperrors.NewInternal(
			"balance_tx_begin_failed",
			"failed to start credit transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	applied, appErr := shared.ApplyCredit(ctx, tx, command.UserID, command.AmountMinor, command.SourceRef, r.nowFunc())
	if appErr != nil {
		return output, appErr
	}
	available, appErr := shared.AvailableBalance(ctx, tx, command.UserID)
	if appErr != nil {
		return output, appErr
	}

	if err := tx.Commit(); err != nil {
		return output, apperrors.NewInternal(
			"balance_tx_commit_failed",
			"failed to commit credit transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed = true

	if r.logger != nil && applied {
		r.logger.Printf(
			"balance credited user_id=%s amount_minor=%d source_ref=%s available=%d",
			command.UserID, command.AmountMinor, command.SourceRef, available,
		)
	}
	return dto.CreditBalanceOutput{Applied: applied, AvailableBalanceMinor: available}, nil
}

// Debit raises consumed_total only when the guarded UPDATE can keep
// available non-negative. Concurrent debits serialize on the user row,
// so the invariant holds without an explicit lock.
func (r *Repository) Debit(ctx context.Context, command dto.DebitBalanceCommand) (dto.DebitBalanceOutput, *apperrors.AppError) {
	output := dto.DebitBalanceOutput{}

	var credited, consumed int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE user_balances
		SET consumed_total_minor = consumed_total_minor + $2,
		    updated_at = $3
		WHERE user_id = $1
		  AND credited_total_minor - consumed_total_minor >= $2
		RETURNING credited_total_minor, consumed_total_minor
	`, command.UserID, command.AmountMinor, r.nowFunc().UTC()).Scan(&credited, &consumed)
	if err == sql.ErrNoRows {
		return output, apperrors.NewInsufficientBalance(
			"insufficient_balance",
			"available balance does not cover the debit",
			map[string]any{"user_id": command.UserID, "amount_minor": command.AmountMinor},
		)
	}
	if err != nil {
		return output, apperrors.NewInternal(
			"balance_debit_failed",
			"failed to apply debit",
			map[string]any{"error": err.Error(), "user_id": command.UserID},
		)
	}

	available := credited - consumed
	if r.logger != nil {
		r.logger.Printf(
			"balance debited user_id=%s amount_minor=%d available=%d",
			command.UserID, command.AmountMinor, available,
		)
	}
	return dto.DebitBalanceOutput{AvailableBalanceMinor: available}, nil
}

func (r *Repository) Get(ctx context.Context, userID string) (dto.BalanceSnapshot, *apperrors.AppError) {
	snapshot := dto.BalanceSnapshot{UserID: userID}

	err := r.db.QueryRowContext(ctx, `
		SELECT credited_total_minor, consumed_total_minor
		FROM user_balances
		WHERE user_id = $1
	`, userID).Scan(&snapshot.CreditedTotalMinor, &snapshot.ConsumedTotalMinor)
	if err == sql.ErrNoRows {
		// Users with no history read as zero balances.
		return snapshot, nil
	}
	if err != nil {
		return dto.BalanceSnapshot{}, apperrors.NewInternal(
			"balance_read_failed",
			"failed to read user balance",
			map[string]any{"error": err.Error(), "user_id": userID},
		)
	}

	snapshot.AvailableBalanceMinor = snapshot.CreditedTotalMinor - snapshot.ConsumedTotalMinor
	return snapshot, nil
}
