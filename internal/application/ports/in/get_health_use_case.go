package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type GetHealthUseCase interface {
	Execute(ctx context.Context) (dto.HealthOutput, *apperrors.AppError)
}
