//go:build !integration

package use_cases

import (
	"context"
	"fmt"
	"time"

	"paycore/internal/application/dto"
	"paycore/internal/domain/entities"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) NowUTC() time.Time {
	return c.now.UTC()
}

type fakeChainActivitySource struct {
	chain    valueobjects.Chain
	pages    map[string]dto.ChainActivityPage
	fetchErr *apperrors.AppError
	calls    int
}

func (s *fakeChainActivitySource) Chain() valueobjects.Chain {
	return s.chain
}

func (s *fakeChainActivitySource) FetchSince(_ context.Context, address string, _ string) (dto.ChainActivityPage, *apperrors.AppError) {
	s.calls++
	if s.fetchErr != nil {
		return dto.ChainActivityPage{}, s.fetchErr
	}
	return s.pages[address], nil
}

type recordedCall struct {
	command dto.RecordObservationsCommand
}

type confirmedCall struct {
	txID string
	rate int64
}

type flagCall struct {
	seen  []string
	depth int64
}

type fakeDepositLedgerRepository struct {
	cursors      map[string]string
	recorded     []recordedCall
	confirmables []dto.ConfirmableDeposit
	confirmed    []confirmedCall
	confirmedSet map[string]bool
	flaggedCount int
	flagCalls    []flagCall
	userDeposits []dto.DepositResource
	recordErr    *apperrors.AppError
}

func (r *fakeDepositLedgerRepository) RecordObservations(_ context.Context, command dto.RecordObservationsCommand) (dto.RecordObservationsOutcome, *apperrors.AppError) {
	if r.recordErr != nil {
		return dto.RecordObservationsOutcome{}, r.recordErr
	}
	r.recorded = append(r.recorded, recordedCall{command: command})
	if r.cursors == nil {
		r.cursors = map[string]string{}
	}
	r.cursors[cursorKey(command.Chain, command.Address)] = command.NextCursor
	return dto.RecordObservationsOutcome{Inserted: len(command.Observations)}, nil
}

func (r *fakeDepositLedgerRepository) Cursor(_ context.Context, chain valueobjects.Chain, address string) (string, *apperrors.AppError) {
	return r.cursors[cursorKey(chain, address)], nil
}

func (r *fakeDepositLedgerRepository) ListConfirmable(_ context.Context, _ valueobjects.Chain, _ int64, _ int) ([]dto.ConfirmableDeposit, *apperrors.AppError) {
	return r.confirmables, nil
}

func (r *fakeDepositLedgerRepository) Confirm(_ context.Context, _ valueobjects.Chain, txID string, rate int64, _ time.Time) (dto.ConfirmDepositOutcome, *apperrors.AppError) {
	if r.confirmedSet == nil {
		r.confirmedSet = map[string]bool{}
	}
	if r.confirmedSet[txID] {
		return dto.ConfirmDepositOutcome{Confirmed: false}, nil
	}
	r.confirmedSet[txID] = true
	r.confirmed = append(r.confirmed, confirmedCall{txID: txID, rate: rate})
	return dto.ConfirmDepositOutcome{Confirmed: true, FiatAmountMinor: rate}, nil
}

func (r *fakeDepositLedgerRepository) FlagMissingConfirmed(_ context.Context, _ valueobjects.Chain, _ string, seen []string, depth int64, _ time.Duration, _ time.Time) (int, *apperrors.AppError) {
	r.flagCalls = append(r.flagCalls, flagCall{seen: seen, depth: depth})
	return r.flaggedCount, nil
}

func (r *fakeDepositLedgerRepository) ListByUser(_ context.Context, _ string) ([]dto.DepositResource, *apperrors.AppError) {
	return r.userDeposits, nil
}

func cursorKey(chain valueobjects.Chain, address string) string {
	return fmt.Sprintf("%s|%s", chain, address)
}

type fakeDepositAddressRepository struct {
	byChain    map[valueobjects.Chain][]dto.DepositAddress
	existing   map[string]dto.DepositAddress
	nextIndex  int64
	allocCalls int
}

func (r *fakeDepositAddressRepository) AllocateOrGet(ctx context.Context, userID string, chain valueobjects.Chain, derive dto.DeriveDepositAddressFunc) (dto.DepositAddress, bool, *apperrors.AppError) {
	r.allocCalls++
	key := userID + "|" + chain.String()
	if existing, ok := r.existing[key]; ok {
		return existing, true, nil
	}

	index := r.nextIndex
	r.nextIndex++
	address, appErr := derive(ctx, chain, index)
	if appErr != nil {
		return dto.DepositAddress{}, false, appErr
	}

	allocated := dto.DepositAddress{
		UserID:       userID,
		Chain:        chain,
		Address:      address,
		AccountIndex: index,
		CreatedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if r.existing == nil {
		r.existing = map[string]dto.DepositAddress{}
	}
	r.existing[key] = allocated
	return allocated, false, nil
}

func (r *fakeDepositAddressRepository) ListByChain(_ context.Context, chain valueobjects.Chain) ([]dto.DepositAddress, *apperrors.AppError) {
	return r.byChain[chain], nil
}

type fakeDeriver struct {
	calls int
}

func (d *fakeDeriver) Derive(_ context.Context, chain valueobjects.Chain, accountIndex int64) (string, *apperrors.AppError) {
	d.calls++
	return fmt.Sprintf("%s-addr-%d", chain, accountIndex), nil
}

type fakeFiatRateSource struct {
	rate    int64
	rateErr *apperrors.AppError
	calls   int
}

func (s *fakeFiatRateSource) RateFiatMinorPerUnit(_ context.Context, _ valueobjects.Chain) (int64, *apperrors.AppError) {
	s.calls++
	if s.rateErr != nil {
		return 0, s.rateErr
	}
	return s.rate, nil
}

type fakeBalanceRepository struct {
	credits  map[string]dto.CreditBalanceCommand
	credited int64
	consumed int64
	debitErr *apperrors.AppError
}

func (r *fakeBalanceRepository) Credit(_ context.Context, command dto.CreditBalanceCommand) (dto.CreditBalanceOutput, *apperrors.AppError) {
	if r.credits == nil {
		r.credits = map[string]dto.CreditBalanceCommand{}
	}
	if _, exists := r.credits[command.SourceRef]; exists {
		return dto.CreditBalanceOutput{Applied: false, AvailableBalanceMinor: r.credited - r.consumed}, nil
	}
	r.credits[command.SourceRef] = command
	r.credited += command.AmountMinor
	return dto.CreditBalanceOutput{Applied: true, AvailableBalanceMinor: r.credited - r.consumed}, nil
}

func (r *fakeBalanceRepository) Debit(_ context.Context, command dto.DebitBalanceCommand) (dto.DebitBalanceOutput, *apperrors.AppError) {
	if r.debitErr != nil {
		return dto.DebitBalanceOutput{}, r.debitErr
	}
	if r.credited-r.consumed < command.AmountMinor {
		return dto.DebitBalanceOutput{}, apperrors.NewInsufficientBalance(
			"insufficient_balance",
			"available balance is lower than the requested debit",
			nil,
		)
	}
	r.consumed += command.AmountMinor
	return dto.DebitBalanceOutput{AvailableBalanceMinor: r.credited - r.consumed}, nil
}

func (r *fakeBalanceRepository) Get(_ context.Context, userID string) (dto.BalanceSnapshot, *apperrors.AppError) {
	return dto.BalanceSnapshot{
		UserID:                userID,
		CreditedTotalMinor:    r.credited,
		ConsumedTotalMinor:    r.consumed,
		AvailableBalanceMinor: r.credited - r.consumed,
	}, nil
}

type fakeExternalPaymentRepository struct {
	created     []entities.ExternalPayment
	payments    map[string]*entities.ExternalPayment
	paidCredits map[string]int64
}

func (r *fakeExternalPaymentRepository) CreatePending(_ context.Context, payment entities.ExternalPayment) *apperrors.AppError {
	r.created = append(r.created, payment)
	if r.payments == nil {
		r.payments = map[string]*entities.ExternalPayment{}
	}
	stored := payment
	r.payments[payment.ProcessorPaymentID] = &stored
	return nil
}

func (r *fakeExternalPaymentRepository) MarkPaid(_ context.Context, processorPaymentID string, receivedFiatMinor int64, now time.Time) (dto.MarkPaidOutcome, *apperrors.AppError) {
	payment, exists := r.payments[processorPaymentID]
	if !exists {
		return dto.MarkPaidOutcome{}, apperrors.NewNotFound(
			"external_payment_not_found",
			"external payment is unknown",
			map[string]any{"processor_payment_id": processorPaymentID},
		)
	}
	if payment.Status.Terminal() {
		return dto.MarkPaidOutcome{AlreadyTerminal: true, UserID: payment.UserID}, nil
	}
	payment.Status = valueobjects.ExternalPaymentStatusPaid
	paidAt := now
	payment.PaidAt = &paidAt
	if r.paidCredits == nil {
		r.paidCredits = map[string]int64{}
	}
	r.paidCredits["payment:"+processorPaymentID] = receivedFiatMinor
	return dto.MarkPaidOutcome{Applied: true, UserID: payment.UserID, CreditedMinor: receivedFiatMinor}, nil
}

func (r *fakeExternalPaymentRepository) MarkExpired(_ context.Context, processorPaymentID string, _ time.Time) (dto.MarkExpiredOutcome, *apperrors.AppError) {
	payment, exists := r.payments[processorPaymentID]
	if !exists {
		return dto.MarkExpiredOutcome{}, apperrors.NewNotFound(
			"external_payment_not_found",
			"external payment is unknown",
			map[string]any{"processor_payment_id": processorPaymentID},
		)
	}
	if payment.Status.Terminal() {
		return dto.MarkExpiredOutcome{AlreadyTerminal: true}, nil
	}
	payment.Status = valueobjects.ExternalPaymentStatusExpired
	return dto.MarkExpiredOutcome{Applied: true}, nil
}

func (r *fakeExternalPaymentRepository) FindByProcessorPaymentID(_ context.Context, processorPaymentID string) (entities.ExternalPayment, *apperrors.AppError) {
	payment, exists := r.payments[processorPaymentID]
	if !exists {
		return entities.ExternalPayment{}, apperrors.NewNotFound(
			"external_payment_not_found",
			"external payment is unknown",
			nil,
		)
	}
	return *payment, nil
}

type fakeProcessorGateway struct {
	invoice   dto.ProcessorInvoice
	createErr *apperrors.AppError
	calls     int
}

func (g *fakeProcessorGateway) CreateInvoice(_ context.Context, _ dto.CreateProcessorInvoiceInput) (dto.ProcessorInvoice, *apperrors.AppError) {
	g.calls++
	if g.createErr != nil {
		return dto.ProcessorInvoice{}, g.createErr
	}
	return g.invoice, nil
}
