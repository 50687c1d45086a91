package tron

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"paycore/internal/adapters/outbound/chain/shared"
	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

const (
	// Tron produces blocks on a fixed three second schedule.
	blockIntervalMillis = 3000

	defaultCursorLagBlocks = 20
	defaultPageSize        = 100
)

type Config struct {
	Client          shared.Config
	TokenContract   string
	CursorLagBlocks int64
	PageSize        int
}

// Source reads TRC-20 transfers from a TronGrid-compatible REST API.
// The transfer listing carries block timestamps rather than heights,
// so the cursor is a millisecond timestamp and depth is derived from
// the fixed block interval.
type Source struct {
	client        *shared.Client
	tokenContract string
	cursorLag     int64
	pageSize      int
}

var _ portsout.ChainActivitySource = (*Source)(nil)

func NewSource(cfg Config) (*Source, *apperrors.AppError) {
	tokenContract := strings.TrimSpace(cfg.TokenContract)
	if tokenContract == "" {
		return nil, apperrors.NewInternal(
			"tron_token_contract_missing",
			"token contract is required",
			nil,
		)
	}
	cursorLag := cfg.CursorLagBlocks
	if cursorLag <= 0 {
		cursorLag = defaultCursorLagBlocks
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Source{
		client:        shared.NewClient(cfg.Client),
		tokenContract: tokenContract,
		cursorLag:     cursorLag,
		pageSize:      pageSize,
	}, nil
}

func (s *Source) Chain() valueobjects.Chain {
	return valueobjects.ChainUSDTTRC20
}

type tronTransfer struct {
	TransactionID  string `json:"transaction_id"`
	BlockTimestamp int64  `json:"block_timestamp"`
	To             string `json:"to"`
	Value          string `json:"value"`
	TokenInfo      struct {
		Address string `json:"address"`
	} `json:"token_info"`
}

type tronTransferPage struct {
	Data []tronTransfer `json:"data"`
}

type tronNowBlock struct {
	BlockHeader struct {
		RawData struct {
			Timestamp int64 `json:"timestamp"`
		} `json:"raw_data"`
	} `json:"block_header"`
}

func (s *Source) FetchSince(ctx context.Context, address string, cursor string) (dto.ChainActivityPage, *apperrors.AppError) {
	address = strings.TrimSpace(address)
	if address == "" {
		return dto.ChainActivityPage{}, apperrors.NewValidation(
			"address_missing",
			"address is required",
			nil,
		)
	}
	cursorMillis, appErr := parseCursorMillis(cursor)
	if appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	var now tronNowBlock
	if appErr := s.client.PostJSON(ctx, "wallet/getnowblock", map[string]any{}, &now); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}
	tipMillis := now.BlockHeader.RawData.Timestamp
	if tipMillis <= 0 {
		return dto.ChainActivityPage{}, apperrors.NewInternal(
			"provider_response_decode_failed",
			"provider returned an empty block timestamp",
			nil,
		)
	}

	path := fmt.Sprintf(
		"v1/accounts/%s/transactions/trc20?contract_address=%s&only_to=true&limit=%d&min_timestamp=%d",
		url.PathEscape(address),
		url.QueryEscape(s.tokenContract),
		s.pageSize,
		cursorMillis,
	)
	var page tronTransferPage
	if appErr := s.client.GetJSON(ctx, path, &page); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	observations := make([]dto.ChainObservation, 0, len(page.Data))
	for _, transfer := range page.Data {
		if !strings.EqualFold(transfer.To, address) {
			continue
		}
		if transfer.TokenInfo.Address != "" && !strings.EqualFold(transfer.TokenInfo.Address, s.tokenContract) {
			continue
		}
		amount := strings.TrimSpace(transfer.Value)
		if amount == "" || amount == "0" {
			continue
		}

		confirmations := int64(0)
		if tipMillis > transfer.BlockTimestamp {
			confirmations = (tipMillis-transfer.BlockTimestamp)/blockIntervalMillis + 1
		}
		observations = append(observations, dto.ChainObservation{
			TxID:              transfer.TransactionID,
			Address:           address,
			AmountNativeMinor: amount,
			Confirmations:     confirmations,
		})
	}

	nextCursor := tipMillis - s.cursorLag*blockIntervalMillis
	if nextCursor < cursorMillis {
		nextCursor = cursorMillis
	}
	return dto.ChainActivityPage{
		Observations: observations,
		NextCursor:   strconv.FormatInt(nextCursor, 10),
	}, nil
}

func parseCursorMillis(cursor string) (int64, *apperrors.AppError) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return 0, nil
	}
	millis, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || millis < 0 {
		return 0, apperrors.NewInternal(
			"cursor_malformed",
			"stored cursor is not a millisecond timestamp",
			map[string]any{"cursor": cursor},
		)
	}
	return millis, nil
}
