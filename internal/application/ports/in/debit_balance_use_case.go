package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type DebitBalanceUseCase interface {
	Execute(ctx context.Context, command dto.DebitBalanceCommand) (dto.DebitBalanceOutput, *apperrors.AppError)
}
