package controllers

import (
	"io"
	"log"
	"net/http"
	"time"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	"paycore/internal/infrastructure/metrics"
	apperrors "paycore/internal/shared_kernel/errors"
)

const (
	headerProcessorSignature = "X-Processor-Signature"
	maxWebhookBodyBytes      = 64 * 1024
)

type WebhooksController struct {
	handleUseCase portsin.HandleProcessorWebhookUseCase
	metrics       *metrics.Metrics
	logger        *log.Logger
}

func NewWebhooksController(
	handleUseCase portsin.HandleProcessorWebhookUseCase,
	collector *metrics.Metrics,
	logger *log.Logger,
) *WebhooksController {
	return &WebhooksController{
		handleUseCase: handleUseCase,
		metrics:       collector,
		logger:        logger,
	}
}

// HandleProcessorWebhook verifies the delivery signature over the raw
// body before anything else; a bad signature is rejected with 401 and
// no state change. Replays of terminal payments come back 200 so the
// processor stops retrying.
func (c *WebhooksController) HandleProcessorWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		c.countEvent("read_failed")
		writeAppError(w, apperrors.NewValidation(
			"webhook_body_unreadable",
			"failed to read webhook body",
			nil,
		))
		return
	}
	defer r.Body.Close()

	output, appErr := c.handleUseCase.Execute(r.Context(), dto.HandleProcessorWebhookCommand{
		Payload:         body,
		SignatureHeader: r.Header.Get(headerProcessorSignature),
		Now:             time.Now().UTC(),
	})
	if appErr != nil {
		c.countEvent(string(appErr.Type))
		c.logger.Printf("request error path=/v1/webhooks/processor method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	switch {
	case output.Applied:
		c.countEvent("applied")
		if c.metrics != nil && output.CreditedMinor > 0 {
			c.metrics.CreditsAppliedTotal.Inc()
		}
	case output.AlreadyTerminal:
		c.countEvent("replayed")
	default:
		c.countEvent("accepted")
	}
	writeJSON(w, http.StatusOK, output)
}

func (c *WebhooksController) countEvent(result string) {
	if c.metrics != nil {
		c.metrics.WebhookEventsTotal.WithLabelValues(result).Inc()
	}
}
