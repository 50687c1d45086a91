package esplora

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

const defaultCursorLagBlocks = 6

type Config struct {
	Chain           valueobjects.Chain
	Client          shared.Config
	CursorLagBlocks int64
}

// Source reads UTXO-chain activity from an Esplora-compatible block
// explorer API. It serves both bitcoin and litecoin; the two differ
// only in endpoint and address format.
type Source struct {
	chain     valueobjects.Chain
	client    *shared.Client
	cursorLag int64
}

var _ portsout.ChainActivitySource = (*Source)(nil)

func NewSource(cfg Config) (*Source, *apperrors.AppError) {
	if cfg.Chain != valueobjects.ChainBTC && cfg.Chain != valueobjects.ChainLTC {
		return nil, apperrors.NewInternal(
			"esplora_chain_unsupported",
			"esplora source only serves utxo chains",
			map[string]any{"chain": cfg.Chain.String()},
		)
	}
	cursorLag := cfg.CursorLagBlocks
	if cursorLag <= 0 {
		cursorLag = defaultCursorLagBlocks
	}

	return &Source{
		chain:     cfg.Chain,
		client:    shared.NewClient(cfg.Client),
		cursorLag: cursorLag,
	}, nil
}

func (s *Source) Chain() valueobjects.Chain {
	return s.chain
}

type esploraTxStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
}

type esploraVout struct {
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

type esploraTx struct {
	TxID   string          `json:"txid"`
	Status esploraTxStatus `json:"status"`
	Vout   []esploraVout   `json:"vout"`
}

// FetchSince reports transfers to address that landed after the cursor
// block height, plus anything still in the mempool. The returned
// cursor trails the chain tip so freshly mined transactions are seen
// again until they qualify for confirmation.
func (s *Source) FetchSince(ctx context.Context, address string, cursor string) (dto.ChainActivityPage, *apperrors.AppError) {
	address = strings.TrimSpace(address)
	if address == "" {
		return dto.ChainActivityPage{}, apperrors.NewValidation(
			"address_missing",
			"address is required",
			nil,
		)
	}
	cursorHeight, appErr := parseCursorHeight(cursor)
	if appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	var tipHeight int64
	if appErr := s.client.GetJSON(ctx, "blocks/tip/height", &tipHeight); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	var txs []esploraTx
	path := fmt.Sprintf("address/%s/txs", url.PathEscape(address))
	if appErr := s.client.GetJSON(ctx, path, &txs); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	observations := make([]dto.ChainObservation, 0, len(txs))
	for _, tx := range txs {
		if tx.Status.Confirmed && tx.Status.BlockHeight <= cursorHeight {
			continue
		}
		received := int64(0)
		for _, vout := range tx.Vout {
			if vout.ScriptPubKeyAddress == address {
				received += vout.Value
			}
		}
		if received <= 0 {
			continue
		}

		confirmations := int64(0)
		if tx.Status.Confirmed && tipHeight >= tx.Status.BlockHeight {
			confirmations = tipHeight - tx.Status.BlockHeight + 1
		}
		observations = append(observations, dto.ChainObservation{
			TxID:              tx.TxID,
			Address:           address,
			AmountNativeMinor: strconv.FormatInt(received, 10),
			Confirmations:     confirmations,
		})
	}

	nextCursor := tipHeight - s.cursorLag
	if nextCursor < cursorHeight {
		nextCursor = cursorHeight
	}
	return dto.ChainActivityPage{
		Observations: observations,
		NextCursor:   strconv.FormatInt(nextCursor, 10),
	}, nil
}

func parseCursorHeight(cursor string) (int64, *apperrors.AppError) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return 0, nil
	}
	height, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || height < 0 {
		return 0, apperrors.NewInternal(
			"cursor_malformed",
			"stored cursor is not a block height",
			map[string]any{"cursor": cursor},
		)
	}
	return height, nil
}
