package signals

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/aristath/etfscope/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of symbols processed concurrently when none is configured
const DefaultWorkers = 4

// Aggregator runs the per-symbol builders over every stored symbol and pivots the
// results into date-indexed maps
type Aggregator struct {
	store   domain.SeriesStore
	workers int
	log     zerolog.Logger
}

// NewAggregator creates an aggregator reading from store with the given worker count
func NewAggregator(store domain.SeriesStore, workers int, log zerolog.Logger) *Aggregator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Aggregator{
		store:   store,
		workers: workers,
		log:     log.With().Str("service", "signals").Logger(),
	}
}

// ComputeDailyDetail returns date -> symbol -> daily record for every stored symbol.
// Symbols that fail to load or build are logged and left out.
func (a *Aggregator) ComputeDailyDetail(ctx context.Context) (domain.DateIndexed[domain.DerivedRecord], error) {
	timer := utils.NewTimer("daily_detail", a.log)

	results, err := forEachSymbol(ctx, a, "daily_detail", BuildDailyDetail)
	if err != nil {
		return nil, err
	}

	out := make(domain.DateIndexed[domain.DerivedRecord])
	for _, records := range results {
		out.Merge(records)
	}

	a.log.Info().
		Int("symbols", len(results)).
		Int("dates", len(out)).
		Dur("duration_ms", timer.Stop()).
		Msg("Computed daily detail")

	return out, nil
}

// ComputeMonthlyChart returns month -> symbol -> chart record together with the raw
// close range of every symbol that produced records
func (a *Aggregator) ComputeMonthlyChart(ctx context.Context) (*domain.ChartResult, error) {
	timer := utils.NewTimer("monthly_chart", a.log)

	results, err := forEachSymbol(ctx, a, "monthly_chart", BuildMonthlyChart)
	if err != nil {
		return nil, err
	}

	out := &domain.ChartResult{
		Data:   make(domain.DateIndexed[domain.ChartRecord]),
		MinMax: make(map[string]domain.MinMax, len(results)),
	}
	for symbol, chart := range results {
		out.Data.Merge(chart.Records)
		out.MinMax[symbol] = chart.MinMax
	}

	a.log.Info().
		Int("symbols", len(results)).
		Int("months", len(out.Data)).
		Dur("duration_ms", timer.Stop()).
		Msg("Computed monthly chart")

	return out, nil
}

// forEachSymbol loads and builds every stored symbol on a bounded worker pool.
// Each worker writes only its own slot; results are collected after all finish.
// Per-symbol failures are logged and skipped; only cancellation aborts the run.
func forEachSymbol[T any](
	ctx context.Context,
	a *Aggregator,
	view string,
	build func(*domain.RawSeries) (T, error),
) (map[string]T, error) {
	symbols, err := a.store.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, symbol := range symbols {
		g.Go(func() error {
			series, err := a.store.Load(gctx, symbol)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.log.Error().Err(err).Str("symbol", symbol).Str("view", view).Msg("Failed to load series")
				return nil
			}

			value, err := build(series)
			if err != nil {
				event := a.log.Error()
				if errors.Is(err, domain.ErrMissingData) || errors.Is(err, domain.ErrInvalidWindow) {
					event = a.log.Warn()
				}
				event.Err(err).Str("symbol", symbol).Str("view", view).Msg("Skipping symbol")
				return nil
			}

			slots[i] = slot{value: value, ok: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(map[string]T, len(symbols))
	for i, s := range slots {
		if s.ok {
			results[symbols[i]] = s.value
		}
	}
	return results, nil
}
