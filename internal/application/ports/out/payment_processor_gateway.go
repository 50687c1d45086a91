package portsout

import (
	"context"

	"paycore/internal/application/dto"
	apperrors "paycore/internal/shared_kernel/errors"
)

type PaymentProcessorGateway interface {
	CreateInvoice(ctx context.Context, input dto.CreateProcessorInvoiceInput) (dto.ProcessorInvoice, *apperrors.AppError)
}
