package valueobjects

import apperrors "paycore/internal/shared_kernel/errors"

type ExternalPaymentStatus string

const (
	ExternalPaymentStatusPending ExternalPaymentStatus = "pending"
	ExternalPaymentStatusPaid    ExternalPaymentStatus = "paid"
	ExternalPaymentStatusExpired ExternalPaymentStatus = "expired"
)

func NewPendingExternalPaymentStatus() ExternalPaymentStatus {
	return ExternalPaymentStatusPending
}

func ParseExternalPaymentStatus(raw string) (ExternalPaymentStatus, *apperrors.AppError) {
	switch raw {
	case string(ExternalPaymentStatusPending):
		return ExternalPaymentStatusPending, nil
	case string(ExternalPaymentStatusPaid):
		return ExternalPaymentStatusPaid, nil
	case string(ExternalPaymentStatusExpired):
		return ExternalPaymentStatusExpired, nil
	default:
		return "", apperrors.NewInternal(
			"external_payment_status_invalid",
			"external payment status is invalid",
			map[string]any{"status": raw},
		)
	}
}

func (s ExternalPaymentStatus) Terminal() bool {
	return s == ExternalPaymentStatusPaid || s == ExternalPaymentStatusExpired
}

// CanTransitionTo allows only pending -> paid and pending -> expired;
// terminal states never move again.
func (s ExternalPaymentStatus) CanTransitionTo(next ExternalPaymentStatus) bool {
	return s == ExternalPaymentStatusPending && next.Terminal()
}

func (s ExternalPaymentStatus) String() string {
	return string(s)
}
