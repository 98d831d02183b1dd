package broker

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"etfbot/pkg/types"
)

// CSVSource reads daily close prices from one CSV file per symbol
// (<dataDir>/<symbol>.csv), so backtests can run without broker access.
// Accepted date formats: 2006-01-02 or RFC3339.
type CSVSource struct {
	dataDir string
}

// NewCSVSource creates a source rooted at dataDir.
func NewCSVSource(dataDir string) *CSVSource {
	return &CSVSource{dataDir: dataDir}
}

// HistoricalPrices loads and filters the per-symbol files to [start, end].
func (s *CSVSource) HistoricalPrices(_ context.Context, symbols []string, start, end time.Time) (map[string][]types.PriceBar, error) {
	result := make(map[string][]types.PriceBar, len(symbols))
	for _, symbol := range symbols {
		bars, err := s.loadSymbol(symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", symbol, err)
		}
		result[symbol] = bars
	}
	return result, nil
}

func (s *CSVSource) loadSymbol(symbol string, start, end time.Time) ([]types.PriceBar, error) {
	path := filepath.Join(s.dataDir, symbol+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	dateCol, closeCol, err := parseHeader(records[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var bars []types.PriceBar
	for _, row := range records[1:] {
		if len(row) <= dateCol || len(row) <= closeCol {
			continue
		}
		date, err := parseDate(row[dateCol])
		if err != nil {
			continue // skip malformed rows, same as header junk
		}
		close, err := strconv.ParseFloat(row[closeCol], 64)
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		bars = append(bars, types.PriceBar{Date: date, Close: close})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// parseHeader locates the date and close columns, case-insensitively.
// An adjusted close column wins over a raw close column when both exist.
func parseHeader(header []string) (dateCol, closeCol int, err error) {
	dateCol, closeCol = -1, -1
	rawClose := -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date", "timestamp":
			dateCol = i
		case "close":
			rawClose = i
		case "adj close", "adj_close", "adjclose":
			closeCol = i
		}
	}
	if closeCol == -1 {
		closeCol = rawClose
	}
	if dateCol == -1 || closeCol == -1 {
		return 0, 0, fmt.Errorf("header missing date or close column: %v", header)
	}
	return dateCol, closeCol, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
