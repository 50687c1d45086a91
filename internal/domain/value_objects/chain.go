package valueobjects

import (
	"strings"

	apperrors "paycore/internal/shared_kernel/errors"
)

// Chain is the closed set of networks the engine watches. Adding a
// chain means adding a variant here plus an activity source adapter,
// not branching logic elsewhere.
type Chain string

const (
	ChainBTC       Chain = "btc"
	ChainLTC       Chain = "ltc"
	ChainSOL       Chain = "sol"
	ChainUSDTTRC20 Chain = "usdt_trc20"
	ChainUSDTERC20 Chain = "usdt_erc20"
	ChainUSDCERC20 Chain = "usdc_erc20"
)

var allChains = []Chain{
	ChainBTC,
	ChainLTC,
	ChainSOL,
	ChainUSDTTRC20,
	ChainUSDTERC20,
	ChainUSDCERC20,
}

// Native minor-unit decimals per chain (satoshi, litoshi, lamports,
// token minor units).
var chainDecimals = map[Chain]int{
	ChainBTC:       8,
	ChainLTC:       8,
	ChainSOL:       9,
	ChainUSDTTRC20: 6,
	ChainUSDTERC20: 6,
	ChainUSDCERC20: 6,
}

func AllChains() []Chain {
	out := make([]Chain, len(allChains))
	copy(out, allChains)
	return out
}

func ParseChain(raw string) (Chain, *apperrors.AppError) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, chain := range allChains {
		if normalized == string(chain) {
			return chain, nil
		}
	}

	return "", apperrors.NewValidation(
		"unsupported_chain",
		"chain is not in the supported set",
		map[string]any{"chain": raw},
	)
}

func (c Chain) String() string {
	return string(c)
}

func (c Chain) Decimals() int {
	decimals, exists := chainDecimals[c]
	if !exists {
		return 0
	}
	return decimals
}
