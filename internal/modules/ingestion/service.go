// Package ingestion fetches ETF histories from the market data source and stores them.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSave is returned when a fetched history cannot be written to the store
	ErrSave = errors.New("save failed")

	// ErrMetadata is returned when ETF metadata cannot be stored
	ErrMetadata = errors.New("metadata update failed")
)

// MetadataRepository stores ETF metadata
type MetadataRepository interface {
	Upsert(ctx context.Context, info domain.ETFInfo) error
	Get(ctx context.Context, symbol string) (*domain.ETFInfo, error)
}

// SeriesStorage is the read-write view of the price store used by ingestion
type SeriesStorage interface {
	domain.SeriesStore
	domain.SeriesWriter
}

// Service adds new ETFs and refreshes stored ones
type Service struct {
	fetcher  domain.MarketDataFetcher
	store    SeriesStorage
	metadata MetadataRepository
	workers  int
	log      zerolog.Logger
}

// NewService creates a new ingestion service
func NewService(
	fetcher domain.MarketDataFetcher,
	store SeriesStorage,
	metadata MetadataRepository,
	workers int,
	log zerolog.Logger,
) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		fetcher:  fetcher,
		store:    store,
		metadata: metadata,
		workers:  workers,
		log:      log.With().Str("service", "ingestion").Logger(),
	}
}

// AddETF fetches the full history of symbol, replaces its stored series and
// records its metadata. A failed profile lookup is logged and does not fail the add.
func (s *Service) AddETF(ctx context.Context, symbol string) (*domain.ETFInfo, error) {
	symbol, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	log := s.log.With().Str("symbol", symbol).Logger()

	points, err := s.fetcher.FetchHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no data for %s", domain.ErrNotFound, symbol)
	}
	log.Info().Int("rows", len(points)).Msg("Fetched historical data")

	if err := s.store.Save(ctx, symbol, points); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSave, err)
	}

	info := domain.ETFInfo{
		Symbol:    symbol,
		Rows:      len(points),
		FirstDate: points[0].Date.Format(domain.DateLayout),
		LastDate:  points[len(points)-1].Date.Format(domain.DateLayout),
		UpdatedAt: time.Now().UTC(),
	}
	s.applyProfile(ctx, &info, log)

	if err := s.metadata.Upsert(ctx, info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadata, err)
	}

	log.Info().Str("sector", info.Sector).Msg("ETF added")
	return &info, nil
}

// applyProfile fills descriptive fields from the source, falling back to what was
// stored before
func (s *Service) applyProfile(ctx context.Context, info *domain.ETFInfo, log zerolog.Logger) {
	profile, err := s.fetcher.FetchProfile(ctx, info.Symbol)
	if err == nil {
		info.Name = profile.Name
		info.Sector = profile.Sector
		info.QuoteType = profile.QuoteType
		return
	}
	log.Warn().Err(err).Msg("Failed to fetch profile")

	previous, err := s.metadata.Get(ctx, info.Symbol)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read stored metadata")
		return
	}
	if previous != nil {
		info.Name = previous.Name
		info.Sector = previous.Sector
		info.SectorSize = previous.SectorSize
		info.QuoteType = previous.QuoteType
	}
}

// RefreshReport summarizes one RefreshAll run
type RefreshReport struct {
	RunID     string        `json:"run_id"`
	Succeeded []string      `json:"succeeded"`
	Failed    []string      `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// RefreshAll re-ingests every stored symbol. Per-symbol failures are logged and
// reported; only cancellation or a listing failure fails the run.
func (s *Service) RefreshAll(ctx context.Context) (*RefreshReport, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()

	symbols, err := s.store.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	log.Info().Int("symbols", len(symbols)).Msg("Refresh started")

	ok := make([]bool, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, symbol := range symbols {
		g.Go(func() error {
			if _, err := s.AddETF(gctx, symbol); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Error().Err(err).Str("symbol", symbol).Msg("Failed to refresh ETF")
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &RefreshReport{
		RunID:     runID,
		Succeeded: []string{},
		Failed:    []string{},
		Duration:  time.Since(start),
	}
	for i, symbol := range symbols {
		if ok[i] {
			report.Succeeded = append(report.Succeeded, symbol)
		} else {
			report.Failed = append(report.Failed, symbol)
		}
	}

	log.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Dur("duration_ms", report.Duration).
		Msg("Refresh completed")

	return report, nil
}
