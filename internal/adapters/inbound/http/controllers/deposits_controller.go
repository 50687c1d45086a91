package controllers

import (
	"log"
	"net/http"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
)

type DepositsController struct {
	listUseCase portsin.ListUserDepositsUseCase
	logger      *log.Logger
}

func NewDepositsController(listUseCase portsin.ListUserDepositsUseCase, logger *log.Logger) *DepositsController {
	return &DepositsController{
		listUseCase: listUseCase,
		logger:      logger,
	}
}

func (c *DepositsController) ListUserDeposits(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.listUseCase.Execute(r.Context(), dto.ListUserDepositsCommand{
		UserID: r.PathValue("id"),
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/users/{id}/deposits method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
