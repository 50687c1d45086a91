package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type GetBalanceUseCase interface {
	Execute(ctx context.Context, command dto.GetBalanceCommand) (dto.BalanceSnapshot, *apperrors.AppError)
}
