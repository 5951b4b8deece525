// Package yahoo fetches ETF price history and profile data from Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// HistoryPeriod is the range requested when fetching a symbol's history
const HistoryPeriod = "max"

// UnknownSector is reported when the source has no sector for a fund
const UnknownSector = "N/A"

// Client implements domain.MarketDataFetcher using go-yfinance
type Client struct {
	bars    func(symbol string) ([]models.Bar, error)
	profile func(symbol string) (*domain.Profile, error)
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		bars:    fetchBars,
		profile: fetchProfile,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// FetchHistory returns the full daily close history of symbol, oldest first.
// Bars without a usable close are dropped; one point is kept per trading day.
func (c *Client) FetchHistory(ctx context.Context, symbol string) ([]domain.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	bars, err := c.bars(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: history for %s: %v", domain.ErrFetch, symbol, err)
	}

	byDay := make(map[time.Time]float64, len(bars))
	for _, bar := range bars {
		if bar.Close <= 0 || math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) {
			continue
		}
		byDay[tradingDay(bar.Date)] = bar.Close
	}

	points := make([]domain.PricePoint, 0, len(byDay))
	for date, closeValue := range byDay {
		points = append(points, domain.PricePoint{Date: date, Close: closeValue})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	c.log.Info().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Int("points", len(points)).
		Dur("duration_ms", time.Since(start)).
		Msg("Fetched price history")

	return points, nil
}

// FetchProfile returns the name, sector and quote type of symbol.
// The sector falls back to UnknownSector.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := c.profile(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: profile for %s: %v", domain.ErrFetch, symbol, err)
	}
	profile.Symbol = symbol
	if strings.TrimSpace(profile.Sector) == "" {
		profile.Sector = UnknownSector
	}
	return profile, nil
}

// tradingDay keeps the calendar day of the bar in the exchange's own time zone
func tradingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fetchBars(symbol string) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     HistoryPeriod,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}
	return bars, nil
}

func fetchProfile(symbol string) (*domain.Profile, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get info: %w", err)
	}

	return profileFromInfo(info), nil
}

// profileFromInfo maps the quote summary onto a Profile. The industry is not a
// substitute for a missing sector.
func profileFromInfo(info *models.Info) *domain.Profile {
	name := info.LongName
	if name == "" {
		name = info.ShortName
	}
	return &domain.Profile{
		Name:      name,
		Sector:    info.Sector,
		QuoteType: info.QuoteType,
	}
}
