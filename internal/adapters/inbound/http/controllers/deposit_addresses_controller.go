package controllers

import (
	"log"
	"net/http"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
)

type DepositAddressesController struct {
	allocateUseCase portsin.AllocateDepositAddressUseCase
	logger          *log.Logger
}

func NewDepositAddressesController(
	allocateUseCase portsin.AllocateDepositAddressUseCase,
	logger *log.Logger,
) *DepositAddressesController {
	return &DepositAddressesController{
		allocateUseCase: allocateUseCase,
		logger:          logger,
	}
}

// AllocateDepositAddress is idempotent per (user, chain): the first
// call allocates, every later call returns the same address with 200.
func (c *DepositAddressesController) AllocateDepositAddress(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.allocateUseCase.Execute(r.Context(), dto.AllocateDepositAddressCommand{
		UserID: r.PathValue("id"),
		Chain:  r.PathValue("chain"),
	})
	if appErr != nil {
		c.logger.Printf("request error path=/v1/users/{id}/deposit-addresses/{chain} method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	status := http.StatusCreated
	if output.Reused {
		status = http.StatusOK
	}
	writeJSON(w, status, output.Resource)
}
