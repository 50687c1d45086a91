package valueobjects

import apperrors "paycore/internal/shared_kernel/errors"

type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusConfirmed DepositStatus = "confirmed"
)

func NewPendingDepositStatus() DepositStatus {
	return DepositStatusPending
}

func ParseDepositStatus(raw string) (DepositStatus, *apperrors.AppError) {
	switch raw {
	case string(DepositStatusPending):
		return DepositStatusPending, nil
	case string(DepositStatusConfirmed):
		return DepositStatusConfirmed, nil
	default:
		return "", apperrors.NewInternal(
			"deposit_status_invalid",
			"deposit status is invalid",
			map[string]any{"status": raw},
		)
	}
}

// CanTransitionTo enforces the one-way pending -> confirmed lifecycle.
func (s DepositStatus) CanTransitionTo(next DepositStatus) bool {
	return s == DepositStatusPending && next == DepositStatusConfirmed
}

func (s DepositStatus) String() string {
	return string(s)
}
