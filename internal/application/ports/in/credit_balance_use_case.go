package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type CreditBalanceUseCase interface {
	Execute(ctx context.Context, command dto.CreditBalanceCommand) (dto.CreditBalanceOutput, *apperrors.AppError)
}
