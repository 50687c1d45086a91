package use_cases

import (
	"context"
	"strings"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	portsout "paycore/internal/application/ports/out"
	apperrors "paycore/internal/shared_kernel/errors"
)

type getBalanceUseCase struct {
	balances portsout.BalanceRepository
}

func NewGetBalanceUseCase(balances portsout.BalanceRepository) portsin.GetBalanceUseCase {
	return &getBalanceUseCase{balances: balances}
}

func (u *getBalanceUseCase) Execute(
	ctx context.Context,
	command dto.GetBalanceCommand,
) (dto.BalanceSnapshot, *apperrors.AppError) {
	userID, appErr := requireUserID(command.UserID)
	if appErr != nil {
		return dto.BalanceSnapshot{}, appErr
	}

	return u.balances.Get(ctx, userID)
}

type creditBalanceUseCase struct {
	balances portsout.BalanceRepository
}

func NewCreditBalanceUseCase(balances portsout.BalanceRepository) portsin.CreditBalanceUseCase {
	return &creditBalanceUseCase{balances: balances}
}

func (u *creditBalanceUseCase) Execute(
	ctx context.Context,
	command dto.CreditBalanceCommand,
) (dto.CreditBalanceOutput, *apperrors.AppError) {
	userID, appErr := requireUserID(command.UserID)
	if appErr != nil {
		return dto.CreditBalanceOutput{}, appErr
	}
	if command.AmountMinor <= 0 {
		return dto.CreditBalanceOutput{}, apperrors.NewValidation(
			"credit_amount_invalid",
			"credit amount must be positive",
			map[string]any{"amount_minor": command.AmountMinor},
		)
	}
	sourceRef := strings.TrimSpace(command.SourceRef)
	if sourceRef == "" {
		return dto.CreditBalanceOutput{}, apperrors.NewValidation(
			"source_ref_missing",
			"credit source reference is required",
			map[string]any{"field": "source_ref"},
		)
	}

	return u.balances.Credit(ctx, dto.CreditBalanceCommand{
		UserID:      userID,
		AmountMinor: command.AmountMinor,
		SourceRef:   sourceRef,
	})
}

type debitBalanceUseCase struct {
	balances portsout.BalanceRepository
}

func NewDebitBalanceUseCase(balances portsout.BalanceRepository) portsin.DebitBalanceUseCase {
	return &debitBalanceUseCase{balances: balances}
}

func (u *debitBalanceUseCase) Execute(
	ctx context.Context,
	command dto.DebitBalanceCommand,
) (dto.DebitBalanceOutput, *apperrors.AppError) {
	userID, appErr := requireUserID(command.UserID)
	if appErr != nil {
		return dto.DebitBalanceOutput{}, appErr
	}
	if command.AmountMinor <= 0 {
		return dto.DebitBalanceOutput{}, apperrors.NewValidation(
			"debit_amount_invalid",
			"debit amount must be positive",
			map[string]any{"amount_minor": command.AmountMinor},
		)
	}

	return u.balances.Debit(ctx, dto.DebitBalanceCommand{
		UserID:      userID,
		AmountMinor: command.AmountMinor,
	})
}

func requireUserID(raw string) (string, *apperrors.AppError) {
	userID := strings.TrimSpace(raw)
	if userID == "" {
		return "", apperrors.NewValidation(
			"user_id_missing",
			"user id is required",
			map[string]any{"field": "user_id"},
		)
	}

	return userID, nil
}
