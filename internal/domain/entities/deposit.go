package entities

import (
	"time"

	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

// Deposit is the append-only record of an on-chain transfer to one of
// our derived addresses. (Chain, TxID) is globally unique, status only
// ever moves pending -> confirmed, and confirmations never decrease.
type Deposit struct {
	ID                string
	Chain             valueobjects.Chain
	TxID              string
	UserID            string
	Address           string
	AmountNativeMinor string
	FiatAmountMinor   *int64
	Confirmations     int64
	Status            valueobjects.DepositStatus
	FirstSeenAt       time.Time
	ConfirmedAt       *time.Time
}

type NewDepositInput struct {
	ID                string
	Chain             valueobjects.Chain
	TxID              string
	UserID            string
	Address           string
	AmountNativeMinor string
	Confirmations     int64
	FirstSeenAt       time.Time
}

func NewPendingDeposit(input NewDepositInput) (Deposit, *apperrors.AppError) {
	if input.ID == "" {
		return Deposit{}, apperrors.NewInternal(
			"deposit_id_missing",
			"deposit id is required",
			nil,
		)
	}
	if input.TxID == "" {
		return Deposit{}, apperrors.NewValidation(
			"deposit_tx_id_missing",
			"deposit transaction id is required",
			nil,
		)
	}
	if input.UserID == "" {
		return Deposit{}, apperrors.NewInternal(
			"deposit_user_id_missing",
			"deposit user id is required",
			nil,
		)
	}
	if input.Confirmations < 0 {
		return Deposit{}, apperrors.NewValidation(
			"deposit_confirmations_invalid",
			"confirmations must be non-negative",
			map[string]any{"confirmations": input.Confirmations},
		)
	}

	amount, appErr := valueobjects.NormalizeAmountMinor(input.AmountNativeMinor)
	if appErr != nil {
		return Deposit{}, appErr
	}

	return Deposit{
		ID:                input.ID,
		Chain:             input.Chain,
		TxID:              input.TxID,
		UserID:            input.UserID,
		Address:           input.Address,
		AmountNativeMinor: amount,
		Confirmations:     input.Confirmations,
		Status:            valueobjects.NewPendingDepositStatus(),
		FirstSeenAt:       input.FirstSeenAt.UTC(),
	}, nil
}
