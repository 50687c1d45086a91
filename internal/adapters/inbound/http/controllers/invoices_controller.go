package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	apperrors "paycore/internal/shared_kernel/errors"
)

type InvoicesController struct {
	createUseCase portsin.CreateInvoiceUseCase
	logger        *log.Logger
}

type createInvoicePayload struct {
	UserID          string `json:"user_id"`
	FiatAmountMinor int64  `json:"fiat_amount_minor"`
}

func NewInvoicesController(createUseCase portsin.CreateInvoiceUseCase, logger *log.Logger) *InvoicesController {
	return &InvoicesController{
		createUseCase: createUseCase,
		logger:        logger,
	}
}

func (c *InvoicesController) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	payload, appErr := parseCreateInvoicePayload(r.Body)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.createUseCase.Execute(r.Context(), dto.CreateInvoiceCommand{
		UserID:                   payload.UserID,
		RequestedFiatAmountMinor: payload.FiatAmountMinor,
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/invoices method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusCreated, output.Resource)
}

func parseCreateInvoicePayload(body io.ReadCloser) (createInvoicePayload, *apperrors.AppError) {
	defer body.Close()

	var payload createInvoicePayload
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return createInvoicePayload{}, apperrors.NewValidation(
			"invalid_request_body",
			"request body must be valid JSON",
			map[string]any{"error": err.Error()},
		)
	}
	return payload, nil
}
