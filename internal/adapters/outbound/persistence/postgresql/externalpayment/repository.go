package externalpayment

import (
	"context"
	"database/sql"
	"log"
	"time"

	"paycore/internal/adapters/outbound/persistence/postgresql/shared"
	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	"paycore/internal/domain/entities"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ portsout.ExternalPaymentRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreatePending(ctx context.Context, payment entities.ExternalPayment) *apperrors.AppError {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO external_payments (
			id, user_id, processor_payment_id, expected_fiat_amount_minor,
			status, payment_target, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		payment.ID,
		payment.UserID,
		payment.ProcessorPaymentID,
		payment.ExpectedFiatAmountMinor,
		payment.Status.String(),
		payment.PaymentTarget,
		payment.CreatedAt.UTC(),
		payment.ExpiresAt.UTC(),
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return apperrors.NewConflict(
				"processor_payment_id_exists",
				"an invoice with this processor payment id already exists",
				map[string]any{"processor_payment_id": payment.ProcessorPaymentID},
			)
		}
		return apperrors.NewInternal(
			"external_payment_insert_failed",
			"failed to insert external payment",
			map[string]any{"error": err.Error(), "processor_payment_id": payment.ProcessorPaymentID},
		)
	}

	if r.logger != nil {
		r.logger.Printf(
			"external payment created id=%s user_id=%s processor_payment_id=%s amount_minor=%d",
			payment.ID, payment.UserID, payment.ProcessorPaymentID, payment.ExpectedFiatAmountMinor,
		)
	}
	return nil
}

// MarkPaid moves pending -> paid and credits the user inside one
// transaction. Only signature-checked webhooks reach this path, so the
// terminal transition also records signature_verified. A replayed
// webhook finds the row already terminal and changes nothing.
func (r *Repository) MarkPaid(ctx context.Context, processorPaymentID string, receivedFiatMinor int64, now time.Time) (dto.MarkPaidOutcome, *apperrors.AppError) {
	outcome := dto.MarkPaidOutcome{}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return outcome, apperrors.NewInternal(
			"external_payment_tx_begin_failed",
			"failed to start payment transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var userID string
	var expectedFiatMinor int64
	err = tx.QueryRowContext(ctx, `
		UPDATE external_payments
		SET status = 'paid', paid_at = $2, signature_verified = TRUE
		WHERE processor_payment_id = $1 AND status = 'pending'
		RETURNING user_id, expected_fiat_amount_minor
	`, processorPaymentID, now.UTC()).Scan(&userID, &expectedFiatMinor)
	if err == sql.ErrNoRows {
		appErr := r.classifyNonPending(ctx, tx, processorPaymentID, &outcome)
		if appErr != nil {
			return dto.MarkPaidOutcome{}, appErr
		}
		if commitErr := tx.Commit(); commitErr == nil {
			committed = true
		}
		return outcome, nil
	}
	if err != nil {
		return outcome, apperrors.NewInternal(
			"external_payment_update_failed",
			"failed to mark payment paid",
			map[string]any{"error": err.Error(), "processor_payment_id": processorPaymentID},
		)
	}

	creditMinor := receivedFiatMinor
	if creditMinor <= 0 {
		creditMinor = expectedFiatMinor
	}
	if _, appErr := shared.ApplyCredit(ctx, tx, userID, creditMinor, "payment:"+processorPaymentID, now); appErr != nil {
		return outcome, appErr
	}

	if err := tx.Commit(); err != nil {
		return outcome, apperrors.NewInternal(
			"external_payment_tx_commit_failed",
			"failed to commit payment transaction",
			map[string]any{"error": err.Error(), "processor_payment_id": processorPaymentID},
		)
	}
	committed = true

	if r.logger != nil {
		r.logger.Printf(
			"external payment paid processor_payment_id=%s user_id=%s credited_minor=%d",
			processorPaymentID, userID, creditMinor,
		)
	}
	return dto.MarkPaidOutcome{Applied: true, UserID: userID, CreditedMinor: creditMinor}, nil
}

func (r *Repository) MarkExpired(ctx context.Context, processorPaymentID string, now time.Time) (dto.MarkExpiredOutcome, *apperrors.AppError) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE external_payments
		SET status = 'expired', signature_verified = TRUE
		WHERE processor_payment_id = $1 AND status = 'pending'
	`, processorPaymentID)
	if err != nil {
		return dto.MarkExpiredOutcome{}, apperrors.NewInternal(
			"external_payment_update_failed",
			"failed to mark payment expired",
			map[string]any{"error": err.Error(), "processor_payment_id": processorPaymentID},
		)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return dto.MarkExpiredOutcome{}, apperrors.NewInternal(
			"external_payment_update_failed",
			"failed to inspect expiry update",
			map[string]any{"error": err.Error(), "processor_payment_id": processorPaymentID},
		)
	}
	if updated == 0 {
		if _, appErr := r.FindByProcessorPaymentID(ctx, processorPaymentID); appErr != nil {
			return dto.MarkExpiredOutcome{}, appErr
		}
		return dto.MarkExpiredOutcome{AlreadyTerminal: true}, nil
	}

	if r.logger != nil {
		r.logger.Printf("external payment expired processor_payment_id=%s", processorPaymentID)
	}
	return dto.MarkExpiredOutcome{Applied: true}, nil
}

func (r *Repository) FindByProcessorPaymentID(ctx context.Context, processorPaymentID string) (entities.ExternalPayment, *apperrors.AppError) {
	var payment entities.ExternalPayment
	var status string
	var paidAt sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, processor_payment_id, expected_fiat_amount_minor,
		       status, payment_target, signature_verified, created_at, expires_at, paid_at
		FROM external_payments
		WHERE processor_payment_id = $1
	`, processorPaymentID).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.ProcessorPaymentID,
		&payment.ExpectedFiatAmountMinor,
		&status,
		&payment.PaymentTarget,
		&payment.SignatureVerified,
		&payment.CreatedAt,
		&payment.ExpiresAt,
		&paidAt,
	)
	if err == sql.ErrNoRows {
		return entities.ExternalPayment{}, apperrors.NewNotFound(
			"external_payment_not_found",
			"no invoice matches the processor payment id",
			map[string]any{"processor_payment_id": processorPaymentID},
		)
	}
	if err != nil {
		return entities.ExternalPayment{}, apperrors.NewInternal(
			"external_payment_read_failed",
			"failed to read external payment",
			map[string]any{"error": err.Error(), "processor_payment_id": processorPaymentID},
		)
	}

	payment.Status = valueobjects.ExternalPaymentStatus(status)
	if paidAt.Valid {
		paid := paidAt.Time
		payment.PaidAt = &paid
	}
	return payment, nil
}

func (r *Repository) classifyNonPending(ctx context.Context, tx *sql.Tx, processorPaymentID string, outcome *dto.MarkPaidOutcome) *apperrors.AppError {
	var status, userID string
	err := tx.QueryRowContext(ctx, `
		SELECT status, user_id FROM external_payments WHERE processor_payment_id = $1
	`, processorPaymentID).Scan(&status, &userID)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFound(
			"external_payment_not_found",
			"no invoice matches the processor payment id",
			map[string]any{"processor_payment_id": processorPaymentID},
		)
	}
	if err != nil {
		return apperrors.NewInternal(
			"external_payment_read_failed",
			"failed to read external payment",
			map[string]any{"error": err.Error(), "processor_payment_id": processorPaymentID},
		)
	}

	outcome.AlreadyTerminal = true
	outcome.UserID = userID
	return nil
}
