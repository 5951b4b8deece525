// Package etfinfo stores descriptive metadata about tracked ETFs.
package etfinfo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/rs/zerolog"
)

// UnknownValue fills metadata the source did not report
const UnknownValue = "N/A"

const etfColumns = `symbol, name, sector, sector_size, quote_type, row_count, first_date, last_date, updated_at`

// Repository handles ETF metadata database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ETF metadata repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "etfinfo").Logger(),
	}
}

// Upsert inserts or replaces the metadata of info.Symbol.
// Empty sector fields are stored as N/A; UpdatedAt defaults to now.
func (r *Repository) Upsert(ctx context.Context, info domain.ETFInfo) error {
	if info.Sector == "" {
		info.Sector = UnknownValue
	}
	if info.SectorSize == "" {
		info.SectorSize = UnknownValue
	}
	if info.UpdatedAt.IsZero() {
		info.UpdatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO etfs (`+etfColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			sector_size = excluded.sector_size,
			quote_type = excluded.quote_type,
			row_count = excluded.row_count,
			first_date = excluded.first_date,
			last_date = excluded.last_date,
			updated_at = excluded.updated_at
	`,
		info.Symbol,
		info.Name,
		info.Sector,
		info.SectorSize,
		info.QuoteType,
		info.Rows,
		info.FirstDate,
		info.LastDate,
		info.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ETF %s: %w", info.Symbol, err)
	}

	r.log.Debug().Str("symbol", info.Symbol).Str("sector", info.Sector).Msg("ETF metadata stored")
	return nil
}

// Get returns the metadata of symbol, or nil when it is not stored
func (r *Repository) Get(ctx context.Context, symbol string) (*domain.ETFInfo, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+etfColumns+" FROM etfs WHERE symbol = ?", symbol)

	info, err := scanETF(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ETF %s: %w", symbol, err)
	}
	return info, nil
}

// List returns the metadata of every stored ETF ordered by symbol
func (r *Repository) List(ctx context.Context) ([]domain.ETFInfo, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+etfColumns+" FROM etfs ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to list ETFs: %w", err)
	}
	defer rows.Close()

	var out []domain.ETFInfo
	for rows.Next() {
		info, err := scanETF(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ETF: %w", err)
		}
		out = append(out, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ETFs: %w", err)
	}
	return out, nil
}

// Delete removes the metadata of symbol. Deleting a missing symbol is not an error.
func (r *Repository) Delete(ctx context.Context, symbol string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM etfs WHERE symbol = ?", symbol); err != nil {
		return fmt.Errorf("failed to delete ETF %s: %w", symbol, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanETF(s scanner) (*domain.ETFInfo, error) {
	var info domain.ETFInfo
	var updatedAt int64
	err := s.Scan(
		&info.Symbol,
		&info.Name,
		&info.Sector,
		&info.SectorSize,
		&info.QuoteType,
		&info.Rows,
		&info.FirstDate,
		&info.LastDate,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	info.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &info, nil
}
