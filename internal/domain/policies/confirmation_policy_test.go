//go:build !integration

package policies

import (
	"testing"

	valueobjects "paycore/internal/domain/value_objects"
)

func TestConfirmationPolicyDefaults(t *testing.T) {
	policy := NewConfirmationPolicy(nil)

	cases := map[valueobjects.Chain]int64{
		valueobjects.ChainBTC:       2,
		valueobjects.ChainLTC:       4,
		valueobjects.ChainSOL:       32,
		valueobjects.ChainUSDTTRC20: 20,
		valueobjects.ChainUSDTERC20: 12,
		valueobjects.ChainUSDCERC20: 12,
	}
	for chain, want := range cases {
		if got := policy.Threshold(chain); got != want {
			t.Fatalf("chain %s: expected threshold %d, got %d", chain, want, got)
		}
	}
}

func TestConfirmationPolicyOverrides(t *testing.T) {
	policy := NewConfirmationPolicy(map[valueobjects.Chain]int64{
		valueobjects.ChainBTC: 6,
	})

	if got := policy.Threshold(valueobjects.ChainBTC); got != 6 {
		t.Fatalf("expected overridden threshold 6, got %d", got)
	}
	if got := policy.Threshold(valueobjects.ChainLTC); got != 4 {
		t.Fatalf("expected default threshold 4, got %d", got)
	}
}

func TestConfirmationPolicyQualifies(t *testing.T) {
	policy := NewConfirmationPolicy(nil)

	if policy.Qualifies(valueobjects.ChainBTC, 1) {
		t.Fatalf("1 confirmation must not qualify for btc")
	}
	if !policy.Qualifies(valueobjects.ChainBTC, 2) {
		t.Fatalf("2 confirmations must qualify for btc")
	}
	if !policy.Qualifies(valueobjects.ChainSOL, 40) {
		t.Fatalf("40 confirmations must qualify for sol")
	}
}

func TestConfirmationPolicyReobserveDepthExceedsThreshold(t *testing.T) {
	policy := NewConfirmationPolicy(map[valueobjects.Chain]int64{
		valueobjects.ChainBTC: 6,
	})

	for _, chain := range valueobjects.AllChains() {
		threshold := policy.Threshold(chain)
		depth := policy.ReobserveDepth(chain)
		if depth != 2*threshold {
			t.Fatalf("chain %s: expected depth %d, got %d", chain, 2*threshold, depth)
		}
		if depth <= threshold {
			t.Fatalf("chain %s: re-observe depth must exceed the threshold", chain)
		}
	}
}
