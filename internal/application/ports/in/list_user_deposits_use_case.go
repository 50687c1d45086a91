package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type ListUserDepositsUseCase interface {
	Execute(ctx context.Context, command dto.ListUserDepositsCommand) (dto.ListUserDepositsOutput, *apperrors.AppError)
}
