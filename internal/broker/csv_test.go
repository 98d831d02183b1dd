package broker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, dir, symbol, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVSourceLoadsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "VTI", `Date,Open,High,Low,Close,Volume
2023-01-03,100,101,99,100.5,1000
2023-01-04,100.5,102,100,101.25,1200
2023-01-05,101.25,103,101,102.0,900
`)

	source := NewCSVSource(dir)
	prices, err := source.HistoricalPrices(context.Background(), []string{"VTI"},
		time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("HistoricalPrices() error = %v", err)
	}
	bars := prices["VTI"]
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2 (range filtered)", len(bars))
	}
	if bars[0].Close != 101.25 || bars[1].Close != 102.0 {
		t.Errorf("closes = %v, %v, want 101.25, 102.0", bars[0].Close, bars[1].Close)
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Error("bars not sorted by date")
	}
}

func TestCSVSourcePrefersAdjustedClose(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BND", `Date,Close,Adj Close
2023-01-03,80.0,78.5
`)

	prices, err := NewCSVSource(dir).HistoricalPrices(context.Background(), []string{"BND"},
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("HistoricalPrices() error = %v", err)
	}
	if got := prices["BND"][0].Close; got != 78.5 {
		t.Errorf("close = %v, want adjusted close 78.5", got)
	}
}

func TestCSVSourceSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "VOO", `Date,Close
2023-01-03,400.0
not-a-date,401.0
2023-01-04,n/a
2023-01-05,402.0
`)

	prices, err := NewCSVSource(dir).HistoricalPrices(context.Background(), []string{"VOO"},
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("HistoricalPrices() error = %v", err)
	}
	if len(prices["VOO"]) != 2 {
		t.Errorf("got %d bars, want 2 valid rows", len(prices["VOO"]))
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	source := NewCSVSource(t.TempDir())
	_, err := source.HistoricalPrices(context.Background(), []string{"NOPE"},
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for missing symbol file")
	}
}

func TestCSVSourceMissingHeader(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BAD", "Foo,Bar\n1,2\n")
	_, err := NewCSVSource(dir).HistoricalPrices(context.Background(), []string{"BAD"},
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for unusable header")
	}
}
