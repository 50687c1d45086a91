package evm

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"paycore/internal/adapters/outbound/chain/shared"
	"paycore/internal/application/dto"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

const (
	// keccak256("Transfer(address,address,uint256)")
	transferEventTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

	defaultCursorLagBlocks = 12
	defaultLookbackBlocks  = 5000
)

type Config struct {
	Chain           valueobjects.Chain
	Client          shared.Config
	TokenContract   string
	CursorLagBlocks int64
	LookbackBlocks  int64
}

// Source reads ERC-20 Transfer events for one token contract over
// JSON-RPC. The cursor is the last fully scanned block height.
type Source struct {
	chain         valueobjects.Chain
	client        *shared.Client
	tokenContract string
	cursorLag     int64
	lookback      int64
}

var _ portsout.ChainActivitySource = (*Source)(nil)

func NewSource(cfg Config) (*Source, *apperrors.AppError) {
	if cfg.Chain != valueobjects.ChainUSDTERC20 && cfg.Chain != valueobjects.ChainUSDCERC20 {
		return nil, apperrors.NewInternal(
			"evm_chain_unsupported",
			"evm source only serves erc-20 token chains",
			map[string]any{"chain": cfg.Chain.String()},
		)
	}
	tokenContract := strings.ToLower(strings.TrimSpace(cfg.TokenContract))
	if !strings.HasPrefix(tokenContract, "0x") || len(tokenContract) != 42 {
		return nil, apperrors.NewInternal(
			"evm_token_contract_invalid",
			"token contract must be a 0x-prefixed 20-byte address",
			map[string]any{"token_contract": cfg.TokenContract},
		)
	}
	cursorLag := cfg.CursorLagBlocks
	if cursorLag <= 0 {
		cursorLag = defaultCursorLagBlocks
	}
	lookback := cfg.LookbackBlocks
	if lookback <= 0 {
		lookback = defaultLookbackBlocks
	}

	return &Source{
		chain:         cfg.Chain,
		client:        shared.NewClient(cfg.Client),
		tokenContract: tokenContract,
		cursorLag:     cursorLag,
		lookback:      lookback,
	}, nil
}

func (s *Source) Chain() valueobjects.Chain {
	return s.chain
}

type evmLog struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	Data            string `json:"data"`
	Removed         bool   `json:"removed"`
}

func (s *Source) FetchSince(ctx context.Context, address string, cursor string) (dto.ChainActivityPage, *apperrors.AppError) {
	address = strings.ToLower(strings.TrimSpace(address))
	if !strings.HasPrefix(address, "0x") || len(address) != 42 {
		return dto.ChainActivityPage{}, apperrors.NewValidation(
			"address_invalid",
			"address must be a 0x-prefixed 20-byte address",
			map[string]any{"address": address},
		)
	}
	cursorHeight, appErr := parseCursorHeight(cursor)
	if appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	var tipHex string
	if appErr := s.client.CallRPC(ctx, "eth_blockNumber", nil, &tipHex); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}
	tipHeight, appErr := parseHexQuantity(tipHex)
	if appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	fromBlock := cursorHeight + 1
	if cursorHeight == 0 {
		fromBlock = tipHeight - s.lookback
		if fromBlock < 0 {
			fromBlock = 0
		}
	}

	var logs []evmLog
	filter := map[string]any{
		"fromBlock": hexQuantity(fromBlock),
		"toBlock":   "latest",
		"address":   s.tokenContract,
		"topics": []any{
			transferEventTopic,
			nil,
			recipientTopic(address),
		},
	}
	if appErr := s.client.CallRPC(ctx, "eth_getLogs", []any{filter}, &logs); appErr != nil {
		return dto.ChainActivityPage{}, appErr
	}

	observations := make([]dto.ChainObservation, 0, len(logs))
	for _, entry := range logs {
		if entry.Removed {
			continue
		}
		blockHeight, appErr := parseHexQuantity(entry.BlockNumber)
		if appErr != nil {
			return dto.ChainActivityPage{}, appErr
		}
		amount, appErr := parseHexAmount(entry.Data)
		if appErr != nil {
			return dto.ChainActivityPage{}, appErr
		}
		if amount.Sign() <= 0 {
			continue
		}

		confirmations := int64(0)
		if tipHeight >= blockHeight {
			confirmations = tipHeight - blockHeight + 1
		}
		observations = append(observations, dto.ChainObservation{
			TxID:              strings.ToLower(entry.TransactionHash),
			Address:           address,
			AmountNativeMinor: amount.String(),
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

func parseHexQuantity(raw string) (int64, *apperrors.AppError) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		return 0, apperrors.NewInternal(
			"provider_response_decode_failed",
			"provider returned an empty hex quantity",
			nil,
		)
	}
	value, err := strconv.ParseInt(trimmed, 16, 64)
	if err != nil {
		return 0, apperrors.NewInternal(
			"provider_response_decode_failed",
			"provider returned a malformed hex quantity",
			map[string]any{"value": raw},
		)
	}
	return value, nil
}

func parseHexAmount(raw string) (*big.Int, *apperrors.AppError) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		trimmed = "0"
	}
	amount, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, apperrors.NewInternal(
			"provider_response_decode_failed",
			"provider returned a malformed transfer amount",
			map[string]any{"value": raw},
		)
	}
	return amount, nil
}

func hexQuantity(value int64) string {
	return fmt.Sprintf("0x%x", value)
}

// recipientTopic left-pads an address to the 32-byte topic encoding
// used for indexed event arguments.
func recipientTopic(address string) string {
	return "0x" + strings.Repeat("0", 24) + strings.TrimPrefix(address, "0x")
}
