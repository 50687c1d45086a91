package dto

import (
	"time"

	valueobjects "paycore/internal/domain/value_objects"
)

type WatchChainCycleCommand struct {
	Chain valueobjects.Chain
	Now   time.Time
}

type WatchChainCycleOutput struct {
	AddressesScanned int
	Observed         int
	Inserted         int
	Updated          int
	Confirmed        int
	CreditsApplied   int
	CreditedMinor    int64
	Anomalies        int
	Errors           int
}

// ChainObservation is one qualifying transfer reported by a chain's
// activity source.
type ChainObservation struct {
	TxID              string
	Address           string
	AmountNativeMinor string
	Confirmations     int64
}

type ChainActivityPage struct {
	Observations []ChainObservation
	NextCursor   string
}

type RecordObservationsCommand struct {
	Chain        valueobjects.Chain
	Address      string
	UserID       string
	Observations []ChainObservation
	NextCursor   string
	Now          time.Time
}

type RecordObservationsOutcome struct {
	Inserted int
	Updated  int
}

type ConfirmableDeposit struct {
	TxID              string
	UserID            string
	AmountNativeMinor string
	Confirmations     int64
}

type ConfirmDepositOutcome struct {
	Confirmed       bool
	FiatAmountMinor int64
}

type DepositResource struct {
	ID                string             `json:"id"`
	Chain             valueobjects.Chain `json:"chain"`
	TxID              string             `json:"tx_id"`
	AmountNativeMinor string             `json:"amount_native_minor"`
	FiatAmountMinor   *int64             `json:"fiat_amount_minor,omitempty"`
	Confirmations     int64              `json:"confirmations"`
	Status            string             `json:"status"`
	FirstSeenAt       time.Time          `json:"first_seen_at"`
	ConfirmedAt       *time.Time         `json:"confirmed_at,omitempty"`
}

type ListUserDepositsCommand struct {
	UserID string
}

type ListUserDepositsOutput struct {
	Deposits []DepositResource `json:"deposits"`
}
