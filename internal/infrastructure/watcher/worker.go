package watcher

import (
	"context"
	"log"
	"math/rand"
	"time"

	"paycore/internal/application/dto"
	portsin "paycore/internal/application/ports/in"
	valueobjects "paycore/internal/domain/value_objects"
	"paycore/internal/infrastructure/metrics"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
	cycleTimeout        = 2 * time.Minute
)

// Worker drives the watch cycle for one chain. Transient provider
// failures back off exponentially with jitter; everything else logs
// and waits for the next tick.
type Worker struct {
	chain        valueobjects.Chain
	pollInterval time.Duration
	useCase      portsin.WatchChainCycleUseCase
	metrics      *metrics.Metrics
	logger       *log.Logger
}

func NewWorker(
	chain valueobjects.Chain,
	pollInterval time.Duration,
	useCase portsin.WatchChainCycleUseCase,
	collector *metrics.Metrics,
	logger *log.Logger,
) *Worker {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Worker{
		chain:        chain,
		pollInterval: pollInterval,
		useCase:      useCase,
		metrics:      collector,
		logger:       logger,
	}
}

func (w *Worker) Start(ctx context.Context) {
	if w == nil || w.useCase == nil {
		return
	}

	w.logf("chain watcher started chain=%s poll_interval=%s", w.chain, w.pollInterval)

	backoff := time.Duration(0)
	w.runCycle(ctx, &backoff)

	timer := time.NewTimer(w.nextDelay(backoff))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logf("chain watcher stopped chain=%s", w.chain)
			return
		case <-timer.C:
			w.runCycle(ctx, &backoff)
			timer.Reset(w.nextDelay(backoff))
		}
	}
}

func (w *Worker) runCycle(ctx context.Context, backoff *time.Duration) {
	// A cycle that already started runs to completion even during
	// shutdown; killing it mid-transaction would leave the deposit
	// writes and the cursor advance out of step. The timeout still
	// bounds how long shutdown can be held up.
	cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cycleTimeout)
	defer cancel()

	startedAt := time.Now().UTC()
	output, appErr := w.useCase.Execute(cycleCtx, dto.WatchChainCycleCommand{
		Chain: w.chain,
		Now:   startedAt,
	})
	latency := time.Since(startedAt)

	if w.metrics != nil {
		w.metrics.WatchCycleDuration.WithLabelValues(w.chain.String()).Observe(latency.Seconds())
	}

	if appErr != nil {
		if w.metrics != nil {
			w.metrics.WatchCycleErrorsTotal.WithLabelValues(w.chain.String()).Inc()
		}
		if appErr.Retriable() {
			*backoff = nextBackoff(*backoff)
		}
		w.logf(
			"watch cycle failed chain=%s code=%s message=%s retriable=%t backoff=%s",
			w.chain, appErr.Code, appErr.Message, appErr.Retriable(), *backoff,
		)
		return
	}

	*backoff = 0
	if w.metrics != nil {
		w.metrics.WatchCyclesTotal.WithLabelValues(w.chain.String()).Inc()
		w.metrics.DepositsObservedTotal.WithLabelValues(w.chain.String()).Add(float64(output.Inserted))
		w.metrics.DepositsConfirmed.WithLabelValues(w.chain.String()).Add(float64(output.Confirmed))
		w.metrics.CreditsAppliedTotal.Add(float64(output.CreditsApplied))
		w.metrics.AnomaliesFlaggedTotal.WithLabelValues(w.chain.String()).Add(float64(output.Anomalies))
	}

	w.logf(
		"watch cycle completed chain=%s addresses=%d observed=%d inserted=%d updated=%d confirmed=%d credited_minor=%d anomalies=%d errors=%d latency_ms=%d",
		w.chain,
		output.AddressesScanned,
		output.Observed,
		output.Inserted,
		output.Updated,
		output.Confirmed,
		output.CreditedMinor,
		output.Anomalies,
		output.Errors,
		latency.Milliseconds(),
	)
}

func (w *Worker) nextDelay(backoff time.Duration) time.Duration {
	if backoff <= 0 {
		return w.pollInterval
	}
	// Up to 25% jitter keeps chains from thundering on a shared
	// provider after an outage.
	jitter := time.Duration(rand.Int63n(int64(backoff)/4 + 1))
	return backoff + jitter
}

func nextBackoff(current time.Duration) time.Duration {
	if current <= 0 {
		return 10 * time.Second
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (w *Worker) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}
