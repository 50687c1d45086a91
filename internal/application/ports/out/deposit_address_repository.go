package portsout

import (
	"context"

	"paycore/internal/application/dto"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

type DepositAddressRepository interface {
	// AllocateOrGet returns the existing address for (user, chain) or
	// allocates the chain's next account index, resolves the address
	// through derive while the allocation row is locked, and persists
	// the mapping.
	AllocateOrGet(ctx context.Context, userID string, chain valueobjects.Chain, derive dto.DeriveDepositAddressFunc) (dto.DepositAddress, bool, *apperrors.AppError)

	ListByChain(ctx context.Context, chain valueobjects.Chain) ([]dto.DepositAddress, *apperrors.AppError)
}
