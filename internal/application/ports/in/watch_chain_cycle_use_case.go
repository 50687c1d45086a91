package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type WatchChainCycleUseCase interface {
	Execute(ctx context.Context, command dto.WatchChainCycleCommand) (dto.WatchChainCycleOutput, *apperrors.AppError)
}
