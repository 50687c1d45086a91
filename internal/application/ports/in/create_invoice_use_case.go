package portsin

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type CreateInvoiceUseCase interface {
	Execute(ctx context.Context, command dto.CreateInvoiceCommand) (dto.CreateInvoiceOutput, *apperrors.AppError)
}
