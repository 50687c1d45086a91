//go:build !integration

package use_cases

import (
	"context"
	"testing"
	"time"

	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	"paycore/internal/domain/policies"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

func newWatchFixture(source *fakeChainActivitySource, addresses *fakeDepositAddressRepository, ledger *fakeDepositLedgerRepository, rates *fakeFiatRateSource) *watchChainCycleUseCase {
	useCase := NewWatchChainCycleUseCase(
		map[valueobjects.Chain]portsout.ChainActivitySource{source.chain: source},
		addresses,
		ledger,
		rates,
		policies.NewConfirmationPolicy(nil),
		time.Hour,
		50,
	)
	return useCase.(*watchChainCycleUseCase)
}

func TestWatchChainCycleRecordsObservationsAndAdvancesCursor(t *testing.T) {
	source := &fakeChainActivitySource{
		chain: valueobjects.ChainBTC,
		pages: map[string]dto.ChainActivityPage{
			"addr-1": {
				Observations: []dto.ChainObservation{
					{TxID: "t1", Address: "addr-1", AmountNativeMinor: "100000", Confirmations: 0},
				},
				NextCursor: "850001",
			},
		},
	}
	addresses := &fakeDepositAddressRepository{
		byChain: map[valueobjects.Chain][]dto.DepositAddress{
			valueobjects.ChainBTC: {{UserID: "u1", Chain: valueobjects.ChainBTC, Address: "addr-1"}},
		},
	}
	ledger := &fakeDepositLedgerRepository{}
	rates := &fakeFiatRateSource{rate: 6_000_000}

	useCase := newWatchFixture(source, addresses, ledger, rates)
	output, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{
		Chain: valueobjects.ChainBTC,
		Now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}

	if output.Observed != 1 || output.Inserted != 1 {
		t.Fatalf("expected one observed and inserted deposit, got %+v", output)
	}
	if len(ledger.recorded) != 1 {
		t.Fatalf("expected one record call, got %d", len(ledger.recorded))
	}
	if ledger.recorded[0].command.NextCursor != "850001" {
		t.Fatalf("expected cursor advanced with the write, got %q", ledger.recorded[0].command.NextCursor)
	}
	if ledger.recorded[0].command.UserID != "u1" {
		t.Fatalf("expected observation attributed to u1, got %q", ledger.recorded[0].command.UserID)
	}
	if rates.calls != 0 {
		t.Fatalf("expected no rate quote without confirmable deposits, got %d calls", rates.calls)
	}
}

func TestWatchChainCycleConfirmsAtThresholdWithCycleRate(t *testing.T) {
	source := &fakeChainActivitySource{chain: valueobjects.ChainBTC, pages: map[string]dto.ChainActivityPage{}}
	addresses := &fakeDepositAddressRepository{
		byChain: map[valueobjects.Chain][]dto.DepositAddress{
			valueobjects.ChainBTC: {{UserID: "u1", Chain: valueobjects.ChainBTC, Address: "addr-1"}},
		},
	}
	ledger := &fakeDepositLedgerRepository{
		confirmables: []dto.ConfirmableDeposit{
			{TxID: "t1", UserID: "u1", AmountNativeMinor: "100000", Confirmations: 2},
			{TxID: "t2", UserID: "u2", AmountNativeMinor: "250000", Confirmations: 5},
		},
	}
	rates := &fakeFiatRateSource{rate: 6_000_000}

	useCase := newWatchFixture(source, addresses, ledger, rates)
	output, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{Chain: valueobjects.ChainBTC})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}

	if output.Confirmed != 2 {
		t.Fatalf("expected two confirmations, got %d", output.Confirmed)
	}
	if rates.calls != 1 {
		t.Fatalf("expected a single rate quote per cycle, got %d", rates.calls)
	}
	for _, call := range ledger.confirmed {
		if call.rate != 6_000_000 {
			t.Fatalf("expected confirmation at cycle rate, got %d", call.rate)
		}
	}
}

func TestWatchChainCycleConfirmTwiceCreditsOnce(t *testing.T) {
	source := &fakeChainActivitySource{chain: valueobjects.ChainBTC, pages: map[string]dto.ChainActivityPage{}}
	addresses := &fakeDepositAddressRepository{
		byChain: map[valueobjects.Chain][]dto.DepositAddress{
			valueobjects.ChainBTC: {{UserID: "u1", Chain: valueobjects.ChainBTC, Address: "addr-1"}},
		},
	}
	ledger := &fakeDepositLedgerRepository{
		confirmables: []dto.ConfirmableDeposit{
			{TxID: "t1", UserID: "u1", AmountNativeMinor: "100000", Confirmations: 3},
		},
	}
	rates := &fakeFiatRateSource{rate: 6_000_000}

	useCase := newWatchFixture(source, addresses, ledger, rates)
	first, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{Chain: valueobjects.ChainBTC})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	second, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{Chain: valueobjects.ChainBTC})
	if appErr != nil {
		t.Fatalf("expected no error on re-observation, got %+v", appErr)
	}

	if first.Confirmed != 1 {
		t.Fatalf("expected first cycle to confirm, got %d", first.Confirmed)
	}
	if second.Confirmed != 0 {
		t.Fatalf("expected replayed confirm to be a no-op, got %d", second.Confirmed)
	}
	if len(ledger.confirmed) != 1 {
		t.Fatalf("expected exactly one confirm, got %d", len(ledger.confirmed))
	}
}

func TestWatchChainCycleProviderFailureLeavesCursorUntouched(t *testing.T) {
	source := &fakeChainActivitySource{
		chain: valueobjects.ChainBTC,
		fetchErr: apperrors.NewTransient(
			"chain_provider_unavailable",
			"provider timed out",
			nil,
		),
	}
	addresses := &fakeDepositAddressRepository{
		byChain: map[valueobjects.Chain][]dto.DepositAddress{
			valueobjects.ChainBTC: {{UserID: "u1", Chain: valueobjects.ChainBTC, Address: "addr-1"}},
		},
	}
	ledger := &fakeDepositLedgerRepository{cursors: map[string]string{cursorKey(valueobjects.ChainBTC, "addr-1"): "850000"}}
	rates := &fakeFiatRateSource{rate: 6_000_000}

	useCase := newWatchFixture(source, addresses, ledger, rates)
	output, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{Chain: valueobjects.ChainBTC})
	if appErr == nil {
		t.Fatalf("expected transient error when every address fetch fails")
	}
	if !appErr.Retriable() {
		t.Fatalf("expected retriable error, got type %s", appErr.Type)
	}
	if output.Errors != 1 {
		t.Fatalf("expected one fetch error, got %d", output.Errors)
	}
	if len(ledger.recorded) != 0 {
		t.Fatalf("expected no writes on failure, got %d", len(ledger.recorded))
	}
	if ledger.cursors[cursorKey(valueobjects.ChainBTC, "addr-1")] != "850000" {
		t.Fatalf("expected cursor untouched on failure")
	}
}

func TestWatchChainCycleUnknownChainRejected(t *testing.T) {
	source := &fakeChainActivitySource{chain: valueobjects.ChainBTC}
	useCase := newWatchFixture(source, &fakeDepositAddressRepository{}, &fakeDepositLedgerRepository{}, &fakeFiatRateSource{})

	_, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{Chain: valueobjects.ChainSOL})
	if appErr == nil {
		t.Fatalf("expected unsupported_chain error")
	}
	if appErr.Code != "unsupported_chain" {
		t.Fatalf("expected unsupported_chain, got %s", appErr.Code)
	}
}

func TestWatchChainCycleRateFailureKeepsDepositsPending(t *testing.T) {
	source := &fakeChainActivitySource{chain: valueobjects.ChainBTC, pages: map[string]dto.ChainActivityPage{}}
	addresses := &fakeDepositAddressRepository{
		byChain: map[valueobjects.Chain][]dto.DepositAddress{
			valueobjects.ChainBTC: {{UserID: "u1", Chain: valueobjects.ChainBTC, Address: "addr-1"}},
		},
	}
	ledger := &fakeDepositLedgerRepository{
		confirmables: []dto.ConfirmableDeposit{{TxID: "t1", UserID: "u1", AmountNativeMinor: "100000", Confirmations: 4}},
	}
	rates := &fakeFiatRateSource{rateErr: apperrors.NewTransient("rate_provider_unavailable", "quote failed", nil)}

	useCase := newWatchFixture(source, addresses, ledger, rates)
	output, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{Chain: valueobjects.ChainBTC})
	if appErr == nil {
		t.Fatalf("expected rate failure to surface")
	}
	if output.Confirmed != 0 || len(ledger.confirmed) != 0 {
		t.Fatalf("expected no confirmation without a rate, got %+v", output)
	}
}

func TestWatchChainCycleFlagsWithinReobserveDepthOnly(t *testing.T) {
	source := &fakeChainActivitySource{
		chain: valueobjects.ChainBTC,
		pages: map[string]dto.ChainActivityPage{
			"addr-1": {
				Observations: []dto.ChainObservation{
					{TxID: "t1", Address: "addr-1", AmountNativeMinor: "100000", Confirmations: 2},
				},
				NextCursor: "850001",
			},
		},
	}
	addresses := &fakeDepositAddressRepository{
		byChain: map[valueobjects.Chain][]dto.DepositAddress{
			valueobjects.ChainBTC: {{UserID: "u1", Chain: valueobjects.ChainBTC, Address: "addr-1"}},
		},
	}
	ledger := &fakeDepositLedgerRepository{}
	rates := &fakeFiatRateSource{rate: 6_000_000}

	useCase := newWatchFixture(source, addresses, ledger, rates)
	_, appErr := useCase.Execute(context.Background(), dto.WatchChainCycleCommand{
		Chain: valueobjects.ChainBTC,
		Now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}

	if len(ledger.flagCalls) != 1 {
		t.Fatalf("expected one flag pass, got %d", len(ledger.flagCalls))
	}
	call := ledger.flagCalls[0]
	if len(call.seen) != 1 || call.seen[0] != "t1" {
		t.Fatalf("expected observed tx ids forwarded, got %v", call.seen)
	}
	// The depth bound is what keeps deposits that aged out of the
	// source's feed from being flagged: with the btc threshold of 2
	// the cursor trails by 4, so only confirmed deposits last seen
	// shallower than 4 are expected back.
	policy := policies.NewConfirmationPolicy(nil)
	if want := policy.ReobserveDepth(valueobjects.ChainBTC); call.depth != want {
		t.Fatalf("expected re-observe depth %d, got %d", want, call.depth)
	}
	if call.depth <= policy.Threshold(valueobjects.ChainBTC) {
		t.Fatalf("re-observe depth %d must exceed the confirmation threshold", call.depth)
	}
}
