package dto

import (
	"context"
	"time"

	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

type AllocateDepositAddressCommand struct {
	UserID string
	Chain  string
}

type DepositAddressResource struct {
	UserID       string             `json:"user_id"`
	Chain        valueobjects.Chain `json:"chain"`
	Address      string             `json:"address"`
	AccountIndex int64              `json:"account_index"`
	CreatedAt    time.Time          `json:"created_at"`
}

type AllocateDepositAddressOutput struct {
	Resource DepositAddressResource
	Reused   bool
}

type DepositAddress struct {
	UserID       string
	Chain        valueobjects.Chain
	Address      string
	AccountIndex int64
	CreatedAt    time.Time
}

// DeriveDepositAddressFunc resolves the address for a freshly
// allocated account index while the allocation row is still locked.
type DeriveDepositAddressFunc func(ctx context.Context, chain valueobjects.Chain, accountIndex int64) (string, *apperrors.AppError)
