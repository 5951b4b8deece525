package domain

import "context"

// SeriesStore lists and loads stored per-symbol price histories
type SeriesStore interface {
	// ListSymbols returns every symbol with stored data, sorted
	ListSymbols(ctx context.Context) ([]string, error)

	// Load returns the stored rows of a symbol ordered by date ascending.
	// Returns ErrNotFound when the symbol has no stored data.
	Load(ctx context.Context, symbol string) (*RawSeries, error)
}

// SeriesWriter persists a symbol's full history, replacing what was stored
type SeriesWriter interface {
	Save(ctx context.Context, symbol string, points []PricePoint) error
}

// MarketDataFetcher retrieves history and descriptive data from an external source.
// Used by the ingestion path only.
type MarketDataFetcher interface {
	// FetchHistory returns the full daily close history, ordered by date ascending
	FetchHistory(ctx context.Context, symbol string) ([]PricePoint, error)

	// FetchProfile returns descriptive data such as the sector
	FetchProfile(ctx context.Context, symbol string) (*Profile, error)
}
