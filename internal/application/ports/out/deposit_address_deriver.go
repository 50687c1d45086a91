package portsout

import (
	"context"

	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

// DepositAddressDeriver generates the receiving address for a chain
// and account index. Pure and deterministic: identical inputs always
// yield the identical address, and the derivation secret never leaves
// the implementation.
type DepositAddressDeriver interface {
	Derive(ctx context.Context, chain valueobjects.Chain, accountIndex int64) (string, *apperrors.AppError)
}
