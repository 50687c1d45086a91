package use_cases

import (
	"context"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	apperrors "paycore/internal/shared_kernel/errors"
)

type getHealthUseCase struct{}

func NewGetHealthUseCase() portsin.GetHealthUseCase {
	return &getHealthUseCase{}
}

func (u *getHealthUseCase) Execute(_ context.Context) (dto.HealthOutput, *apperrors.AppError) {
	return dto.HealthOutput{Status: "healthy"}, nil
}
