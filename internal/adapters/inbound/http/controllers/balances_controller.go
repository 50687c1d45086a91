package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	"paycore/internal/infrastructure/metrics"
	apperrors "paycore/internal/shared_kernel/errors"
)

type BalancesController struct {
	getUseCase    portsin.GetBalanceUseCase
	debitUseCase  portsin.DebitBalanceUseCase
	creditUseCase portsin.CreditBalanceUseCase
	metrics       *metrics.Metrics
	logger        *log.Logger
}

type debitPayload struct {
	AmountMinor int64 `json:"amount_minor"`
}

type debitResponse struct {
	UserID                string `json:"user_id"`
	DebitedAmountMinor    int64  `json:"debited_amount_minor"`
	AvailableBalanceMinor int64  `json:"available_balance_minor"`
}

type creditPayload struct {
	AmountMinor int64  `json:"amount_minor"`
	SourceRef   string `json:"source_ref"`
}

type creditResponse struct {
	UserID                string `json:"user_id"`
	Applied               bool   `json:"applied"`
	AvailableBalanceMinor int64  `json:"available_balance_minor"`
}

func NewBalancesController(
	getUseCase portsin.GetBalanceUseCase,
	debitUseCase portsin.DebitBalanceUseCase,
	creditUseCase portsin.CreditBalanceUseCase,
	collector *metrics.Metrics,
	logger *log.Logger,
) *BalancesController {
	return &BalancesController{
		getUseCase:    getUseCase,
		debitUseCase:  debitUseCase,
		creditUseCase: creditUseCase,
		metrics:       collector,
		logger:        logger,
	}
}

func (c *BalancesController) GetBalance(w http.ResponseWriter, r *http.Request) {
	snapshot, appErr := c.getUseCase.Execute(r.Context(), dto.GetBalanceCommand{
		UserID: r.PathValue("id"),
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/users/{id}/balance method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (c *BalancesController) CreateDebit(w http.ResponseWriter, r *http.Request) {
	payload, appErr := parseDebitPayload(r.Body)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	userID := r.PathValue("id")
	output, appErr := c.debitUseCase.Execute(r.Context(), dto.DebitBalanceCommand{
		UserID:      userID,
		AmountMinor: payload.AmountMinor,
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/users/{id}/debits method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	if c.metrics != nil {
		c.metrics.DebitsAppliedTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, debitResponse{
		UserID:                userID,
		DebitedAmountMinor:    payload.AmountMinor,
		AvailableBalanceMinor: output.AvailableBalanceMinor,
	})
}

// CreateCredit is the operator adjustment path. Callers supply their
// own source_ref so retries of the same adjustment apply at most once.
func (c *BalancesController) CreateCredit(w http.ResponseWriter, r *http.Request) {
	payload, appErr := parseCreditPayload(r.Body)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	userID := r.PathValue("id")
	output, appErr := c.creditUseCase.Execute(r.Context(), dto.CreditBalanceCommand{
		UserID:      userID,
		AmountMinor: payload.AmountMinor,
		SourceRef:   payload.SourceRef,
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/users/{id}/credits method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	status := http.StatusCreated
	if !output.Applied {
		status = http.StatusOK
	}
	if c.metrics != nil && output.Applied {
		c.metrics.CreditsAppliedTotal.Inc()
	}
	writeJSON(w, status, creditResponse{
		UserID:                userID,
		Applied:               output.Applied,
		AvailableBalanceMinor: output.AvailableBalanceMinor,
	})
}

func parseDebitPayload(body io.ReadCloser) (debitPayload, *apperrors.AppError) {
	defer body.Close()

	var payload debitPayload
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return debitPayload{}, apperrors.NewValidation(
			"invalid_request_body",
			"request body must be valid JSON",
			map[string]any{"error": err.Error()},
		)
	}
	return payload, nil
}

func parseCreditPayload(body io.ReadCloser) (creditPayload, *apperrors.AppError) {
	defer body.Close()

	var payload creditPayload
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return creditPayload{}, apperrors.NewValidation(
			"invalid_request_body",
			"request body must be valid JSON",
			map[string]any{"error": err.Error()},
		)
	}
	return payload, nil
}
