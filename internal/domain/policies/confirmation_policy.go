package policies

import valueobjects "paycore/internal/domain/value_objects"

// Conservative defaults per chain; operational tuning happens through
// configuration, these only backstop missing values.
var defaultConfirmationThresholds = map[valueobjects.Chain]int64{
	valueobjects.ChainBTC:       2,
	valueobjects.ChainLTC:       4,
	valueobjects.ChainSOL:       32,
	valueobjects.ChainUSDTTRC20: 20,
	valueobjects.ChainUSDTERC20: 12,
	valueobjects.ChainUSDCERC20: 12,
}

// ConfirmationPolicy is the sole gate for transitioning a deposit to
// confirmed: a deposit qualifies once its confirmation count reaches
// the chain's threshold.
type ConfirmationPolicy struct {
	thresholds map[valueobjects.Chain]int64
}

func NewConfirmationPolicy(overrides map[valueobjects.Chain]int64) ConfirmationPolicy {
	thresholds := make(map[valueobjects.Chain]int64, len(defaultConfirmationThresholds))
	for chain, threshold := range defaultConfirmationThresholds {
		thresholds[chain] = threshold
	}
	for chain, threshold := range overrides {
		if threshold > 0 {
			thresholds[chain] = threshold
		}
	}

	return ConfirmationPolicy{thresholds: thresholds}
}

func (p ConfirmationPolicy) Threshold(chain valueobjects.Chain) int64 {
	threshold, exists := p.thresholds[chain]
	if !exists || threshold <= 0 {
		return 1
	}
	return threshold
}

func (p ConfirmationPolicy) Qualifies(chain valueobjects.Chain, confirmations int64) bool {
	return confirmations >= p.Threshold(chain)
}

// ReobserveDepth is how far the watch cursor trails the chain tip. It
// is deeper than the confirmation threshold so a confirmed deposit
// stays in the source's feed for a while after confirming; a confirmed
// deposit that vanishes from the feed before reaching this depth is a
// reorg signal, one that ages past it left the feed legitimately.
func (p ConfirmationPolicy) ReobserveDepth(chain valueobjects.Chain) int64 {
	return 2 * p.Threshold(chain)
}
