package entities

import (
	"time"

	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

// ExternalPayment is an invoice issued through the third-party
// processor. ProcessorPaymentID is unique; status only moves toward a
// terminal state and crediting happens at most once per id.
type ExternalPayment struct {
	ID                      string
	UserID                  string
	ProcessorPaymentID      string
	ExpectedFiatAmountMinor int64
	Status                  valueobjects.ExternalPaymentStatus
	SignatureVerified       bool
	PaymentTarget           string
	CreatedAt               time.Time
	ExpiresAt               time.Time
	PaidAt                  *time.Time
}

type NewExternalPaymentInput struct {
	ID                      string
	UserID                  string
	ProcessorPaymentID      string
	ExpectedFiatAmountMinor int64
	PaymentTarget           string
	CreatedAt               time.Time
	ExpiresAt               time.Time
}

func NewPendingExternalPayment(input NewExternalPaymentInput) (ExternalPayment, *apperrors.AppError) {
	if input.ID == "" {
		return ExternalPayment{}, apperrors.NewInternal(
			"external_payment_id_missing",
			"external payment id is required",
			nil,
		)
	}
	if input.UserID == "" {
		return ExternalPayment{}, apperrors.NewValidation(
			"external_payment_user_id_missing",
			"external payment user id is required",
			nil,
		)
	}
	if input.ProcessorPaymentID == "" {
		return ExternalPayment{}, apperrors.NewInternal(
			"processor_payment_id_missing",
			"processor payment id is required",
			nil,
		)
	}
	if input.ExpectedFiatAmountMinor <= 0 {
		return ExternalPayment{}, apperrors.NewValidation(
			"invalid_request",
			"expected fiat amount must be positive",
			map[string]any{"field": "expected_fiat_amount_minor"},
		)
	}
	if !input.ExpiresAt.After(input.CreatedAt) {
		return ExternalPayment{}, apperrors.NewValidation(
			"invalid_request",
			"expires_at must be greater than created_at",
			map[string]any{"field": "expires_at"},
		)
	}

	return ExternalPayment{
		ID:                      input.ID,
		UserID:                  input.UserID,
		ProcessorPaymentID:      input.ProcessorPaymentID,
		ExpectedFiatAmountMinor: input.ExpectedFiatAmountMinor,
		Status:                  valueobjects.NewPendingExternalPaymentStatus(),
		PaymentTarget:           input.PaymentTarget,
		CreatedAt:               input.CreatedAt.UTC(),
		ExpiresAt:               input.ExpiresAt.UTC(),
	}, nil
}
