package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type AllocateDepositAddressUseCase interface {
	Execute(ctx context.Context, command dto.AllocateDepositAddressCommand) (dto.AllocateDepositAddressOutput, *apperrors.AppError)
}
