package use_cases

import (
	"context"
	"strings"
	"time"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	portsout "paycore/internal/application/ports/out"
	"paycore/internal/domain/entities"
	apperrors "paycore/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

const defaultInvoiceTTL = 30 * time.Minute

type createInvoiceUseCase struct {
	processor  portsout.PaymentProcessorGateway
	payments   portsout.ExternalPaymentRepository
	clock      Clock
	invoiceTTL time.Duration
}

func NewCreateInvoiceUseCase(
	processor portsout.PaymentProcessorGateway,
	payments portsout.ExternalPaymentRepository,
	clock Clock,
	invoiceTTL time.Duration,
) portsin.CreateInvoiceUseCase {
	if invoiceTTL <= 0 {
		invoiceTTL = defaultInvoiceTTL
	}
	return &createInvoiceUseCase{
		processor:  processor,
		payments:   payments,
		clock:      clock,
		invoiceTTL: invoiceTTL,
	}
}

func (u *createInvoiceUseCase) Execute(
	ctx context.Context,
	command dto.CreateInvoiceCommand,
) (dto.CreateInvoiceOutput, *apperrors.AppError) {
	if u.processor == nil || u.payments == nil || u.clock == nil {
		return dto.CreateInvoiceOutput{}, apperrors.NewInternal(
			"invoice_dependencies_missing",
			"processor gateway, payment repository, and clock are required",
			nil,
		)
	}

	userID := strings.TrimSpace(command.UserID)
	if userID == "" {
		return dto.CreateInvoiceOutput{}, apperrors.NewValidation(
			"user_id_missing",
			"user id is required",
			map[string]any{"field": "user_id"},
		)
	}
	if command.RequestedFiatAmountMinor <= 0 {
		return dto.CreateInvoiceOutput{}, apperrors.NewValidation(
			"invalid_request",
			"requested fiat amount must be positive",
			map[string]any{"field": "requested_fiat_amount_minor"},
		)
	}

	referenceID := "inv_" + uuid.NewString()
	invoice, appErr := u.processor.CreateInvoice(ctx, dto.CreateProcessorInvoiceInput{
		ReferenceID:     referenceID,
		UserID:          userID,
		FiatAmountMinor: command.RequestedFiatAmountMinor,
	})
	if appErr != nil {
		return dto.CreateInvoiceOutput{}, appErr
	}

	now := u.clock.NowUTC()
	expiresAt := invoice.ExpiresAt
	if !expiresAt.After(now) {
		// processors are not required to price an expiry in; fall back
		// to the configured invoice lifetime
		expiresAt = now.Add(u.invoiceTTL)
	}
	payment, appErr := entities.NewPendingExternalPayment(entities.NewExternalPaymentInput{
		ID:                      referenceID,
		UserID:                  userID,
		ProcessorPaymentID:      invoice.ProcessorPaymentID,
		ExpectedFiatAmountMinor: command.RequestedFiatAmountMinor,
		PaymentTarget:           invoice.PaymentTarget,
		CreatedAt:               now,
		ExpiresAt:               expiresAt,
	})
	if appErr != nil {
		return dto.CreateInvoiceOutput{}, appErr
	}

	if appErr := u.payments.CreatePending(ctx, payment); appErr != nil {
		return dto.CreateInvoiceOutput{}, appErr
	}

	return dto.CreateInvoiceOutput{
		Resource: dto.InvoiceResource{
			ID:                      payment.ID,
			UserID:                  payment.UserID,
			ProcessorPaymentID:      payment.ProcessorPaymentID,
			ExpectedFiatAmountMinor: payment.ExpectedFiatAmountMinor,
			Status:                  payment.Status.String(),
			PaymentTarget:           payment.PaymentTarget,
			CreatedAt:               payment.CreatedAt,
			ExpiresAt:               payment.ExpiresAt,
		},
	}, nil
}
