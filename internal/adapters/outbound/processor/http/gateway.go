package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	apperrors "paycore/internal/shared_kernel/errors"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBodyBytes  = 1024
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Gateway calls the external payment processor to open hosted
// invoices. Status changes come back asynchronously through the
// processor webhook, never through this gateway.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *nethttp.Client
}

var _ portsout.PaymentProcessorGateway = (*Gateway)(nil)

func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Gateway{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  &nethttp.Client{Timeout: timeout},
	}
}

type createInvoiceRequest struct {
	ReferenceID     string `json:"reference_id"`
	UserID          string `json:"user_id"`
	FiatAmountMinor int64  `json:"fiat_amount_minor"`
}

type createInvoiceResponse struct {
	PaymentID     string    `json:"payment_id"`
	PaymentTarget string    `json:"payment_target"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (g *Gateway) CreateInvoice(ctx context.Context, input dto.CreateProcessorInvoiceInput) (dto.ProcessorInvoice, *apperrors.AppError) {
	if g == nil || g.client == nil {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_gateway_not_configured",
			"payment processor gateway is not configured",
			nil,
		)
	}
	if g.baseURL == "" {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_url_missing",
			"payment processor base url is missing",
			nil,
		)
	}
	if g.apiKey == "" {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_api_key_missing",
			"payment processor api key is missing",
			nil,
		)
	}
	if strings.TrimSpace(input.ReferenceID) == "" {
		return dto.ProcessorInvoice{}, apperrors.NewValidation(
			"reference_id_missing",
			"invoice reference id is required",
			nil,
		)
	}
	if input.FiatAmountMinor <= 0 {
		return dto.ProcessorInvoice{}, apperrors.NewValidation(
			"amount_not_positive",
			"invoice amount must be positive",
			map[string]any{"fiat_amount_minor": input.FiatAmountMinor},
		)
	}

	body, err := json.Marshal(createInvoiceRequest{
		ReferenceID:     input.ReferenceID,
		UserID:          input.UserID,
		FiatAmountMinor: input.FiatAmountMinor,
	})
	if err != nil {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_request_encode_failed",
			"failed to encode invoice request",
			map[string]any{"error": err.Error()},
		)
	}

	request, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, g.baseURL+"/v1/invoices", bytes.NewReader(body))
	if err != nil {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_request_build_failed",
			"failed to build invoice request",
			map[string]any{"error": err.Error()},
		)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+g.apiKey)
	request.Header.Set("Idempotency-Key", input.ReferenceID)

	response, err := g.client.Do(request)
	if err != nil {
		return dto.ProcessorInvoice{}, apperrors.NewTransient(
			"processor_unreachable",
			"failed to reach payment processor",
			map[string]any{"error": err.Error()},
		)
	}
	defer response.Body.Close()

	if response.StatusCode == nethttp.StatusTooManyRequests || response.StatusCode >= 500 {
		return dto.ProcessorInvoice{}, apperrors.NewTransient(
			"processor_unavailable",
			"payment processor returned a retriable status",
			map[string]any{
				"status_code": response.StatusCode,
				"body":        previewBody(response.Body),
			},
		)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_rejected_invoice",
			"payment processor rejected the invoice",
			map[string]any{
				"status_code": response.StatusCode,
				"body":        previewBody(response.Body),
			},
		)
	}

	var decoded createInvoiceResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_response_decode_failed",
			"failed to decode invoice response",
			map[string]any{"error": err.Error()},
		)
	}
	if strings.TrimSpace(decoded.PaymentID) == "" {
		return dto.ProcessorInvoice{}, apperrors.NewInternal(
			"processor_payment_id_missing",
			"payment processor response is missing the payment id",
			nil,
		)
	}

	return dto.ProcessorInvoice{
		ProcessorPaymentID: decoded.PaymentID,
		PaymentTarget:      decoded.PaymentTarget,
		ExpiresAt:          decoded.ExpiresAt.UTC(),
	}, nil
}

func previewBody(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
