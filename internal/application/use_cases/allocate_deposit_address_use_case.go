package use_cases

import (
	"context"
	"strings"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

type allocateDepositAddressUseCase struct {
	addresses portsout.DepositAddressRepository
	deriver   portsout.DepositAddressDeriver
}

func NewAllocateDepositAddressUseCase(
	addresses portsout.DepositAddressRepository,
	deriver portsout.DepositAddressDeriver,
) portsin.AllocateDepositAddressUseCase {
	return &allocateDepositAddressUseCase{addresses: addresses, deriver: deriver}
}

func (u *allocateDepositAddressUseCase) Execute(
	ctx context.Context,
	command dto.AllocateDepositAddressCommand,
) (dto.AllocateDepositAddressOutput, *apperrors.AppError) {
	if u.addresses == nil || u.deriver == nil {
		return dto.AllocateDepositAddressOutput{}, apperrors.NewInternal(
			"deposit_address_dependencies_missing",
			"deposit address repository and deriver are required",
			nil,
		)
	}

	userID := strings.TrimSpace(command.UserID)
	if userID == "" {
		return dto.AllocateDepositAddressOutput{}, apperrors.NewValidation(
			"user_id_missing",
			"user id is required",
			map[string]any{"field": "user_id"},
		)
	}

	chain, appErr := valueobjects.ParseChain(command.Chain)
	if appErr != nil {
		return dto.AllocateDepositAddressOutput{}, appErr
	}

	allocated, reused, appErr := u.addresses.AllocateOrGet(ctx, userID, chain, u.deriver.Derive)
	if appErr != nil {
		return dto.AllocateDepositAddressOutput{}, appErr
	}

	return dto.AllocateDepositAddressOutput{
		Resource: dto.DepositAddressResource{
			UserID:       allocated.UserID,
			Chain:        allocated.Chain,
			Address:      allocated.Address,
			AccountIndex: allocated.AccountIndex,
			CreatedAt:    allocated.CreatedAt,
		},
		Reused: reused,
	}, nil
}
