package collector

import (
	"context"
	"time"

	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without a table in Tables get a synthetic series when Bars > 0.
type MockFetcher struct {
	Tables map[string]model.Table
	Bars   int
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBatch(_ context.Context, symbols []string, _ string) (model.RawBatch, error) {
	if m.Err != nil {
		return model.EmptyBatch(), m.Err
	}
	tables := make(map[string]model.Table)
	for i, sym := range symbols {
		if t, ok := m.Tables[sym]; ok {
			tables[sym] = t
			continue
		}
		if m.Bars > 0 {
			tables[sym] = GenerateTable(100*float64(i+1), m.Bars)
		}
	}
	if len(symbols) == 1 {
		if t, ok := tables[symbols[0]]; ok {
			return model.SingleSeries(t), nil
		}
		return model.EmptyBatch(), nil
	}
	return model.MultiSeries(tables), nil
}

// GenerateTable builds count daily bars ending yesterday, drifting upward
// from basePrice.
func GenerateTable(basePrice float64, count int) model.Table {
	index := make([]time.Time, count)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	open := make([]null.Float, count)
	high := make([]null.Float, count)
	low := make([]null.Float, count)
	closes := make([]null.Float, count)
	volume := make([]null.Float, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		index[i] = today.AddDate(0, 0, -(count - i))
		open[i] = null.FloatFrom(p * 0.999)
		high[i] = null.FloatFrom(p * 1.005)
		low[i] = null.FloatFrom(p * 0.995)
		closes[i] = null.FloatFrom(p)
		volume[i] = null.FloatFrom(1000000)
	}
	t := model.NewTable(index)
	t.Columns[model.ColumnOpen] = open
	t.Columns[model.ColumnHigh] = high
	t.Columns[model.ColumnLow] = low
	t.Columns[model.ColumnClose] = closes
	t.Columns[model.ColumnVolume] = volume
	return t
}
