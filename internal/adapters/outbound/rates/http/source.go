package http

import (
	"context"
	"sync"
	"time"

	"paycore/internal/adapters/outbound/chain/shared"
	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"
)

const defaultCacheTTL = 30 * time.Second

type Config struct {
	Client   shared.Config
	CacheTTL time.Duration
}

// Source quotes fiat minor units per whole native unit from a rate
// provider. Quotes are cached briefly so several chains confirming in
// the same window do not fan out into provider calls.
type Source struct {
	client   *shared.Client
	cacheTTL time.Duration

	mu      sync.Mutex
	cached  map[valueobjects.Chain]cachedRate
	nowFunc func() time.Time
}

type cachedRate struct {
	rate      int64
	fetchedAt time.Time
}

var _ portsout.FiatRateSource = (*Source)(nil)

func NewSource(cfg Config) *Source {
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Source{
		client:   shared.NewClient(cfg.Client),
		cacheTTL: cacheTTL,
		cached:   make(map[valueobjects.Chain]cachedRate),
		nowFunc:  time.Now,
	}
}

type rateResponse struct {
	FiatMinorPerUnit int64 `json:"fiat_minor_per_unit"`
}

func (s *Source) RateFiatMinorPerUnit(ctx context.Context, chain valueobjects.Chain) (int64, *apperrors.AppError) {
	now := s.nowFunc()

	s.mu.Lock()
	if entry, ok := s.cached[chain]; ok && now.Sub(entry.fetchedAt) < s.cacheTTL {
		s.mu.Unlock()
		return entry.rate, nil
	}
	s.mu.Unlock()

	var response rateResponse
	if appErr := s.client.GetJSON(ctx, "v1/rates/"+chain.String(), &response); appErr != nil {
		return 0, appErr
	}
	if response.FiatMinorPerUnit <= 0 {
		return 0, apperrors.NewTransient(
			"rate_quote_invalid",
			"rate provider returned a non-positive quote",
			map[string]any{"chain": chain.String(), "rate": response.FiatMinorPerUnit},
		)
	}

	s.mu.Lock()
	s.cached[chain] = cachedRate{rate: response.FiatMinorPerUnit, fetchedAt: now}
	s.mu.Unlock()

	return response.FiatMinorPerUnit, nil
}
