// Package prices stores per-symbol daily close histories as CSV files.
package prices

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/etfscope/internal/domain"
	"github.com/aristath/etfscope/pkg/formulas"
	"github.com/rs/zerolog"
)

const csvExt = ".csv"

// Stored closes keep three decimals
const closeDecimals = 3

// dateLayouts are the date forms accepted in the Date column. Timestamps carrying a
// zone are converted to UTC before the day is taken.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// CSVStore keeps one <SYMBOL>.csv file per symbol with a Date,Close header
type CSVStore struct {
	dir string
	log zerolog.Logger
}

// NewCSVStore creates a store rooted at dir
func NewCSVStore(dir string, log zerolog.Logger) *CSVStore {
	return &CSVStore{
		dir: dir,
		log: log.With().Str("store", "csv").Logger(),
	}
}

// Dir returns the directory holding the CSV files
func (s *CSVStore) Dir() string {
	return s.dir
}

// ListSymbols returns the symbols of every CSV file in the store, sorted
func (s *CSVStore) ListSymbols(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	symbols := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, csvExt) || strings.HasPrefix(name, ".") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, csvExt))
	}
	sort.Strings(symbols)

	return symbols, ctx.Err()
}

// Load reads a symbol's file. Rows with an unparseable date are skipped; rows with
// a missing or non-numeric close are kept with a nil Close so callers can see the
// full series. Rows are returned sorted by date ascending.
func (s *CSVStore) Load(ctx context.Context, symbol string) (*domain.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.path(symbol)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no stored data for %s", domain.ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := s.readRows(file, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	return &domain.RawSeries{Symbol: symbol, Rows: rows}, nil
}

func (s *CSVStore) readRows(r io.Reader, symbol string) ([]domain.PriceRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.PriceRow{}, nil
	}
	if err != nil {
		return nil, err
	}

	dateCol, closeCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "Date":
			dateCol = i
		case "Close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("header must contain Date and Close columns, got %v", header)
	}

	var rows []domain.PriceRow
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateCol >= len(record) {
			skipped++
			continue
		}

		date, ok := parseDate(record[dateCol])
		if !ok {
			skipped++
			continue
		}

		row := domain.PriceRow{Date: date}
		if closeCol < len(record) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[closeCol]), 64); err == nil {
				row.Close = &v
			}
		}
		rows = append(rows, row)
	}

	if skipped > 0 {
		s.log.Debug().Str("symbol", symbol).Int("skipped", skipped).Msg("Skipped rows with unparseable dates")
	}

	return rows, nil
}

// Save replaces a symbol's file with points. The file is written to a temporary
// name and renamed so readers never see a partial file.
func (s *CSVStore) Save(ctx context.Context, symbol string, points []domain.PricePoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(symbol)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+symbol+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	writer := csv.NewWriter(tmp)
	if err := writer.Write([]string{"Date", "Close"}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range points {
		record := []string{
			p.Date.UTC().Format(domain.DateLayout),
			strconv.FormatFloat(formulas.Round(p.Close, closeDecimals), 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	s.log.Debug().Str("symbol", symbol).Int("rows", len(points)).Str("path", path).Msg("Saved price history")
	return nil
}

// path resolves the file of a symbol, refusing labels that would leave the directory
func (s *CSVStore) path(symbol string) (string, error) {
	if symbol == "" || symbol != filepath.Base(symbol) || strings.HasPrefix(symbol, ".") ||
		strings.ContainsAny(symbol, `/\`) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSymbol, symbol)
	}
	return filepath.Join(s.dir, symbol+csvExt), nil
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			u := t.UTC()
			return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
