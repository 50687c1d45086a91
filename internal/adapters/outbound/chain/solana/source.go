package solana

import (
	"context"
	"strconv"
	"strings"

	"paycore/internal/adapters/outbound/chain/shared"
	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

const (
	defaultCursorLagSlots = 32
	defaultPageSize       = 100
)

type Config struct {
	Client         shared.Config
	CursorLagSlots int64
	PageSize       int
}

// Source reads native SOL transfers over Solana JSON-RPC. The cursor
// is the newest signature whose slot is at least CursorLagSlots behind
// the tip, so shallow transactions keep being re-observed until their
// depth qualifies.
type Source struct {
	client    *shared.Client
	cursorLag int64
	pageSize  int
}

var _ portsout.ChainActivitySource = (*Source)(nil)

func NewSource(cfg Config) *Source {
	cursorLag := cfg.CursorLagSlots
	if cursorLag <= 0 {
		cursorLag = defaultCursorLagSlots
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Source{
		client:    shared.NewClient(cfg.Client),
		cursorLag: cursorLag,
		pageSize:  pageSize,
	}
}

func (s *Source) Chain() valueobjects.Chain {
	return valueobjects.ChainSOL
}

type signatureInfo struct {
	Signature string `json:"signature"`
	Slot      int64  `json:"slot"`
	Err       any    `json:"err"`
}

type transactionDetail struct {
	Meta *struct {
		Err          any     `json:"err"`
		PreBalances  []int64 `json:"preBalances"`
		PostBalances []int64 `json:"postBalances"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys []string `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
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

	var tipSlot int64
	if appErr := s.client.CallRPC(ctx, "getSlot", []any{map[string]any{"commitment": "confirmed"}}, &tipSlot); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	listOptions := map[string]any{
		"limit":      s.pageSize,
		"commitment": "confirmed",
	}
	if cursor = strings.TrimSpace(cursor); cursor != "" {
		listOptions["until"] = cursor
	}
	var signatures []signatureInfo
	if appErr := s.client.CallRPC(ctx, "getSignaturesForAddress", []any{address, listOptions}, &signatures); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	observations := make([]dto.ChainObservation, 0, len(signatures))
	nextCursor := cursor
	// Newest first; walk oldest to newest so the ledger records
	// arrivals in chain order.
	for i := len(signatures) - 1; i >= 0; i-- {
		info := signatures[i]
		if info.Err != nil {
			continue
		}

		confirmations := int64(0)
		if tipSlot >= info.Slot {
			confirmations = tipSlot - info.Slot + 1
		}
		if confirmations >= s.cursorLag {
			nextCursor = info.Signature
		}

		received, appErr := s.lamportsReceived(ctx, info.Signature, address)
		if appErr != nil {
			return dto.ChainActivityPage{}, appErr
		}
		if received <= 0 {
			continue
		}

		observations = append(observations, dto.ChainObservation{
			TxID:              info.Signature,
			Address:           address,
			AmountNativeMinor: strconv.FormatInt(received, 10),
			Confirmations:     confirmations,
		})
	}

	return dto.ChainActivityPage{
		Observations: observations,
		NextCursor:   nextCursor,
	}, nil
}

func (s *Source) lamportsReceived(ctx context.Context, signature string, address string) (int64, *apperrors.AppError) {
	var detail transactionDetail
	options := map[string]any{
		"encoding":                       "json",
		"commitment":                     "confirmed",
		"maxSupportedTransactionVersion": 0,
	}
	if appErr := s.client.CallRPC(ctx, "getTransaction", []any{signature, options}, &detail); appErr != nil {
		return 0, appErr
	}
	if detail.Meta == nil || detail.Meta.Err != nil {
		return 0, nil
	}

	for index, key := range detail.Transaction.Message.AccountKeys {
		if key != address {
			continue
		}
		if index >= len(detail.Meta.PreBalances) || index >= len(detail.Meta.PostBalances) {
			return 0, apperrors.NewInternal(
				"provider_response_decode_failed",
				"transaction balances do not cover the account index",
				map[string]any{"signature": signature, "index": index},
			)
		}
		return detail.Meta.PostBalances[index] - detail.Meta.PreBalances[index], nil
	}
	return 0, nil
}
