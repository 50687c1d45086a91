package use_cases

import (
	"context"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	portsout "paycore/internal/application/ports/out"
	apperrors "paycore/internal/shared_kernel/errors"
)

type listUserDepositsUseCase struct {
	ledger portsout.DepositLedgerRepository
}

func NewListUserDepositsUseCase(ledger portsout.DepositLedgerRepository) portsin.ListUserDepositsUseCase {
	return &listUserDepositsUseCase{ledger: ledger}
}

func (u *listUserDepositsUseCase) Execute(
	ctx context.Context,
	command dto.ListUserDepositsCommand,
) (dto.ListUserDepositsOutput, *apperrors.AppError) {
	userID, appErr := requireUserID(command.UserID)
	if appErr != nil {
		return dto.ListUserDepositsOutput{}, appErr
	}

	deposits, appErr := u.ledger.ListByUser(ctx, userID)
	if appErr != nil {
		return dto.ListUserDepositsOutput{}, appErr
	}

	if deposits == nil {
		deposits = []dto.DepositResource{}
	}

	return dto.ListUserDepositsOutput{Deposits: deposits}, nil
}
