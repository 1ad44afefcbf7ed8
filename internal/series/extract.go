package series

import (
	"errors"
	"fmt"
	"math"

	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
)

// ErrSymbolNotFound is returned when a multi-symbol batch has no table for the symbol.
var ErrSymbolNotFound = errors.New("symbol not in batch")

// Extract returns the cleaned bars for symbol. It never fails: an absent
// symbol or an unreadable table gives an empty result, and callers must check
// the length before deriving metrics.
func Extract(batch model.RawBatch, symbol string) []model.PriceBar {
	bars, err := ExtractStrict(batch, symbol)
	if err != nil {
		return nil
	}
	return bars
}

// ExtractStrict is Extract with the reason for an empty result.
func ExtractStrict(batch model.RawBatch, symbol string) ([]model.PriceBar, error) {
	table, ok := batch.Lookup(symbol)
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	closes := table.Columns[model.ColumnClose]
	open := table.Columns[model.ColumnOpen]
	high := table.Columns[model.ColumnHigh]
	low := table.Columns[model.ColumnLow]
	volume := table.Columns[model.ColumnVolume]

	bars := make([]model.PriceBar, 0, table.Len())
	for i, ts := range table.Index {
		c := closes[i]
		if !c.Valid || math.IsNaN(c.Float64) {
			continue // holiday or provider gap
		}
		bars = append(bars, model.PriceBar{
			Date:   ts,
			Open:   cell(open, i),
			High:   cell(high, i),
			Low:    cell(low, i),
			Close:  c.Float64,
			Volume: cell(volume, i),
		})
	}
	return bars, nil
}

// Closes returns the close prices of bars in order.
func Closes(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// cell reads row i of an optional column. Absent columns and NaN read as missing.
func cell(col []null.Float, i int) null.Float {
	if col == nil {
		return null.Float{}
	}
	v := col[i]
	if v.Valid && math.IsNaN(v.Float64) {
		return null.Float{}
	}
	return v
}
