package use_cases

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

const signaturePrefix = "sha256="

type processorWebhookPayload struct {
	ProcessorPaymentID string `json:"processor_payment_id"`
	Status             string `json:"status"`
	Amount             int64  `json:"amount"`
}

type handleProcessorWebhookUseCase struct {
	payments   portsout.ExternalPaymentRepository
	hmacSecret string
}

func NewHandleProcessorWebhookUseCase(
	payments portsout.ExternalPaymentRepository,
	hmacSecret string,
) portsin.HandleProcessorWebhookUseCase {
	return &handleProcessorWebhookUseCase{
		payments:   payments,
		hmacSecret: strings.TrimSpace(hmacSecret),
	}
}

// Execute validates the webhook signature before any state is touched,
// then applies the status transition idempotently. Processor retries
// and replays of a terminal payment resolve as accepted no-ops.
func (u *handleProcessorWebhookUseCase) Execute(
	ctx context.Context,
	command dto.HandleProcessorWebhookCommand,
) (dto.HandleProcessorWebhookOutput, *apperrors.AppError) {
	if u.payments == nil {
		return dto.HandleProcessorWebhookOutput{}, apperrors.NewInternal(
			"external_payment_repository_missing",
			"external payment repository is required",
			nil,
		)
	}
	if u.hmacSecret == "" {
		return dto.HandleProcessorWebhookOutput{}, apperrors.NewInternal(
			"webhook_hmac_secret_missing",
			"webhook hmac secret is not configured",
			nil,
		)
	}

	if appErr := u.verifySignature(command.Payload, command.SignatureHeader); appErr != nil {
		return dto.HandleProcessorWebhookOutput{}, appErr
	}

	payload := processorWebhookPayload{}
	if err := json.Unmarshal(command.Payload, &payload); err != nil {
		return dto.HandleProcessorWebhookOutput{}, apperrors.NewValidation(
			"webhook_payload_invalid",
			"webhook payload is not valid JSON",
			map[string]any{"error": err.Error()},
		)
	}

	processorPaymentID := strings.TrimSpace(payload.ProcessorPaymentID)
	if processorPaymentID == "" {
		return dto.HandleProcessorWebhookOutput{}, apperrors.NewValidation(
			"processor_payment_id_missing",
			"processor payment id is required",
			map[string]any{"field": "processor_payment_id"},
		)
	}

	status, appErr := valueobjects.ParseExternalPaymentStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
	if appErr != nil || !status.Terminal() {
		return dto.HandleProcessorWebhookOutput{}, apperrors.NewValidation(
			"webhook_status_invalid",
			"webhook status must be paid or expired",
			map[string]any{"status": payload.Status},
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = time.Now().UTC()
	}

	output := dto.HandleProcessorWebhookOutput{
		ProcessorPaymentID: processorPaymentID,
		Status:             status.String(),
	}

	switch status {
	case valueobjects.ExternalPaymentStatusPaid:
		if payload.Amount <= 0 {
			return dto.HandleProcessorWebhookOutput{}, apperrors.NewValidation(
				"webhook_amount_invalid",
				"paid webhook amount must be positive",
				map[string]any{"amount": payload.Amount},
			)
		}
		outcome, appErr := u.payments.MarkPaid(ctx, processorPaymentID, payload.Amount, now)
		if appErr != nil {
			return dto.HandleProcessorWebhookOutput{}, appErr
		}
		output.Applied = outcome.Applied
		output.AlreadyTerminal = outcome.AlreadyTerminal
		output.CreditedMinor = outcome.CreditedMinor
	case valueobjects.ExternalPaymentStatusExpired:
		outcome, appErr := u.payments.MarkExpired(ctx, processorPaymentID, now)
		if appErr != nil {
			return dto.HandleProcessorWebhookOutput{}, appErr
		}
		output.Applied = outcome.Applied
		output.AlreadyTerminal = outcome.AlreadyTerminal
	}

	return output, nil
}

func (u *handleProcessorWebhookUseCase) verifySignature(payload []byte, header string) *apperrors.AppError {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return apperrors.NewUnauthorized(
			"webhook_signature_missing",
			"webhook signature header is required",
			nil,
		)
	}

	provided := strings.TrimPrefix(trimmed, signaturePrefix)
	decoded, err := hex.DecodeString(provided)
	if err != nil {
		return apperrors.NewUnauthorized(
			"webhook_signature_invalid",
			"webhook signature is not valid hex",
			nil,
		)
	}

	mac := hmac.New(sha256.New, []byte(u.hmacSecret))
	_, _ = mac.Write(payload)
	if !hmac.Equal(decoded, mac.Sum(nil)) {
		return apperrors.NewUnauthorized(
			"webhook_signature_mismatch",
			"webhook signature does not match payload",
			nil,
		)
	}

	return nil
}
