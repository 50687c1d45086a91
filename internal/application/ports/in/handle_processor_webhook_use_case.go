package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type HandleProcessorWebhookUseCase interface {
	Execute(ctx context.Context, command dto.HandleProcessorWebhookCommand) (dto.HandleProcessorWebhookOutput, *apperrors.AppError)
}
