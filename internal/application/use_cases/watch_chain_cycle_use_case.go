package use_cases

import (
	"context"
	"time"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	portsout "paycore/internal/application/ports/out"
	"paycore/internal/domain/policies"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

const defaultConfirmBatchSize = 100

type watchChainCycleUseCase struct {
	sources          map[valueobjects.Chain]portsout.ChainActivitySource
	addresses        portsout.DepositAddressRepository
	ledger           portsout.DepositLedgerRepository
	rates            portsout.FiatRateSource
	policy           policies.ConfirmationPolicy
	reorgWindow      time.Duration
	confirmBatchSize int
}

func NewWatchChainCycleUseCase(
	sources map[valueobjects.Chain]portsout.ChainActivitySource,
	addresses portsout.DepositAddressRepository,
	ledger portsout.DepositLedgerRepository,
	rates portsout.FiatRateSource,
	policy policies.ConfirmationPolicy,
	reorgWindow time.Duration,
	confirmBatchSize int,
) portsin.WatchChainCycleUseCase {
	if confirmBatchSize <= 0 {
		confirmBatchSize = defaultConfirmBatchSize
	}

	return &watchChainCycleUseCase{
		sources:          sources,
		addresses:        addresses,
		ledger:           ledger,
		rates:            rates,
		policy:           policy,
		reorgWindow:      reorgWindow,
		confirmBatchSize: confirmBatchSize,
	}
}

// Execute runs one poll cycle for a single chain: observe activity on
// every known address, persist observations together with the cursor
// they gate, then confirm every pending deposit past the chain's
// threshold at the fiat rate quoted this cycle. Failures stay inside
// this chain; the worker retries with backoff.
func (u *watchChainCycleUseCase) Execute(
	ctx context.Context,
	command dto.WatchChainCycleCommand,
) (dto.WatchChainCycleOutput, *apperrors.AppError) {
	if u.addresses == nil || u.ledger == nil || u.rates == nil {
		return dto.WatchChainCycleOutput{}, apperrors.NewInternal(
			"watch_cycle_dependencies_missing",
			"address repository, deposit ledger, and rate source are required",
			nil,
		)
	}

	source, exists := u.sources[command.Chain]
	if !exists || source == nil {
		return dto.WatchChainCycleOutput{}, apperrors.NewValidation(
			"unsupported_chain",
			"no activity source registered for chain",
			map[string]any{"chain": command.Chain.String()},
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = time.Now().UTC()
	}

	addresses, appErr := u.addresses.ListByChain(ctx, command.Chain)
	if appErr != nil {
		return dto.WatchChainCycleOutput{}, appErr
	}

	output := dto.WatchChainCycleOutput{AddressesScanned: len(addresses)}
	var lastFetchErr *apperrors.AppError

	for _, address := range addresses {
		cursor, appErr := u.ledger.Cursor(ctx, command.Chain, address.Address)
		if appErr != nil {
			return output, appErr
		}

		page, fetchErr := source.FetchSince(ctx, address.Address, cursor)
		if fetchErr != nil {
			// Cursor stays where it was: nothing observed, nothing lost.
			output.Errors++
			lastFetchErr = fetchErr
			continue
		}

		output.Observed += len(page.Observations)
		outcome, appErr := u.ledger.RecordObservations(ctx, dto.RecordObservationsCommand{
			Chain:        command.Chain,
			Address:      address.Address,
			UserID:       address.UserID,
			Observations: page.Observations,
			NextCursor:   page.NextCursor,
			Now:          now,
		})
		if appErr != nil {
			return output, appErr
		}
		output.Inserted += outcome.Inserted
		output.Updated += outcome.Updated

		if u.reorgWindow > 0 {
			seen := make([]string, 0, len(page.Observations))
			for _, observation := range page.Observations {
				seen = append(seen, observation.TxID)
			}
			flagged, appErr := u.ledger.FlagMissingConfirmed(ctx, command.Chain, address.Address, seen, u.policy.ReobserveDepth(command.Chain), u.reorgWindow, now)
			if appErr != nil {
				return output, appErr
			}
			output.Anomalies += flagged
		}
	}

	if lastFetchErr != nil && output.Errors == len(addresses) && len(addresses) > 0 {
		// Every address failed: treat the whole cycle as a provider
		// outage so the worker backs off.
		return output, lastFetchErr
	}

	confirmables, appErr := u.ledger.ListConfirmable(ctx, command.Chain, u.policy.Threshold(command.Chain), u.confirmBatchSize)
	if appErr != nil {
		return output, appErr
	}
	if len(confirmables) == 0 {
		return output, nil
	}

	// One quote per cycle; settlement value is the rate at confirmation
	// time. A transient quote failure leaves deposits pending for the
	// next cycle, observations above are already durable.
	rate, rateErr := u.rates.RateFiatMinorPerUnit(ctx, command.Chain)
	if rateErr != nil {
		return output, rateErr
	}

	for _, confirmable := range confirmables {
		result, appErr := u.ledger.Confirm(ctx, command.Chain, confirmable.TxID, rate, now)
		if appErr != nil {
			return output, appErr
		}
		if result.Confirmed {
			output.Confirmed++
			output.CreditedMinor += result.FiatAmountMinor
			if result.FiatAmountMinor > 0 {
				output.CreditsApplied++
			}
		}
	}

	return output, nil
}
