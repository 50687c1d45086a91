//go:build !integration

package deterministic

import (
	"context"
	"strings"
	"testing"

	valueobjects "paycore/internal/domain/value_objects"
)

const testSecretHex = "8f6c1efea3b0d6e80b7a1f2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60"

func newTestDeriver(t *testing.T) *Deriver {
	t.Helper()

	deriver, appErr := NewDeriver(testSecretHex)
	if appErr != nil {
		t.Fatalf("NewDeriver() error = %v", appErr)
	}
	return deriver
}

func TestNewDeriverRejectsBadSecret(t *testing.T) {
	if _, appErr := NewDeriver("not-hex"); appErr == nil {
		t.Fatal("expected error for non-hex secret")
	}
	if _, appErr := NewDeriver("abcd"); appErr == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	deriver := newTestDeriver(t)
	ctx := context.Background()

	for _, chain := range valueobjects.AllChains() {
		first, appErr := deriver.Derive(ctx, chain, 7)
		if appErr != nil {
			t.Fatalf("Derive(%s) error = %v", chain, appErr)
		}
		second, appErr := deriver.Derive(ctx, chain, 7)
		if appErr != nil {
			t.Fatalf("Derive(%s) error = %v", chain, appErr)
		}
		if first != second {
			t.Errorf("Derive(%s, 7) not deterministic: %q vs %q", chain, first, second)
		}
	}
}

func TestDeriveDistinctIndexesDoNotCollide(t *testing.T) {
	deriver := newTestDeriver(t)
	ctx := context.Background()

	for _, chain := range valueobjects.AllChains() {
		seen := make(map[string]int64)
		for index := int64(0); index < 50; index++ {
			address, appErr := deriver.Derive(ctx, chain, index)
			if appErr != nil {
				t.Fatalf("Derive(%s, %d) error = %v", chain, index, appErr)
			}
			if prev, ok := seen[address]; ok {
				t.Fatalf("Derive(%s) collision between indexes %d and %d: %s", chain, prev, index, address)
			}
			seen[address] = index
		}
	}
}

func TestDeriveAddressFormats(t *testing.T) {
	deriver := newTestDeriver(t)
	ctx := context.Background()

	tests := []struct {
		chain  valueobjects.Chain
		prefix string
	}{
		{valueobjects.ChainBTC, "bc1"},
		{valueobjects.ChainLTC, "ltc1"},
		{valueobjects.ChainUSDTTRC20, "T"},
		{valueobjects.ChainUSDTERC20, "0x"},
		{valueobjects.ChainUSDCERC20, "0x"},
	}

	for _, tt := range tests {
		address, appErr := deriver.Derive(ctx, tt.chain, 0)
		if appErr != nil {
			t.Fatalf("Derive(%s) error = %v", tt.chain, appErr)
		}
		if !strings.HasPrefix(address, tt.prefix) {
			t.Errorf("Derive(%s) = %q, want prefix %q", tt.chain, address, tt.prefix)
		}
	}

	evmAddr, appErr := deriver.Derive(ctx, valueobjects.ChainUSDTERC20, 0)
	if appErr != nil {
		t.Fatalf("Derive(usdt_erc20) error = %v", appErr)
	}
	if len(evmAddr) != 42 {
		t.Errorf("evm address length = %d, want 42", len(evmAddr))
	}

	solAddr, appErr := deriver.Derive(ctx, valueobjects.ChainSOL, 0)
	if appErr != nil {
		t.Fatalf("Derive(sol) error = %v", appErr)
	}
	if len(solAddr) < 32 || len(solAddr) > 44 {
		t.Errorf("sol address length = %d, want base58 of 32 bytes", len(solAddr))
	}
}

func TestDeriveRejectsNegativeIndex(t *testing.T) {
	deriver := newTestDeriver(t)

	if _, appErr := deriver.Derive(context.Background(), valueobjects.ChainBTC, -1); appErr == nil {
		t.Fatal("expected error for negative account index")
	}
}
