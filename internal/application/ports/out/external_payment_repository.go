package portsout

import (
	"context"
	"time"

	"paycore/internal/application/dto"
	"paycore/internal/domain/entities"
	apperrors "paycore/internal/shared_kernel/errors"
)

type ExternalPaymentRepository interface {
	CreatePending(ctx context.Context, payment entities.ExternalPayment) *apperrors.AppError

	// MarkPaid transitions the payment to paid exactly once and applies
	// the balance credit keyed by "payment:<processor_payment_id>" in
	// the same transaction. Terminal payments report AlreadyTerminal.
	MarkPaid(ctx context.Context, processorPaymentID string, receivedFiatMinor int64, now time.Time) (dto.MarkPaidOutcome, *apperrors.AppError)

	MarkExpired(ctx context.Context, processorPaymentID string, now time.Time) (dto.MarkExpiredOutcome, *apperrors.AppError)

	FindByProcessorPaymentID(ctx context.Context, processorPaymentID string) (entities.ExternalPayment, *apperrors.AppError)
}
