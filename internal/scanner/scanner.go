package scanner

import (
	"errors"
	"fmt"
	"sort"

	"TradeTerminal/internal/calculator"
	"TradeTerminal/internal/logger"
	"TradeTerminal/internal/model"
	"TradeTerminal/internal/series"

	"go.uber.org/zap"
)

// SkipReason says why an instrument produced no scanner row.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipMissingSymbol    SkipReason = "missing_symbol"
	SkipInsufficientData SkipReason = "insufficient_data"
	SkipMalformed        SkipReason = "malformed_table"
	SkipPanic            SkipReason = "panic"
)

// Result is the outcome for one catalog instrument: a row, or a skip reason.
type Result struct {
	Sector     string
	Instrument string
	Symbol     string
	Row        *model.ScannerRow
	Skip       SkipReason
	Err        error
}

// OK reports whether the instrument produced a row.
func (r Result) OK() bool { return r.Row != nil }

// Measure extracts symbol's closes from batch and computes the latest change.
func Measure(batch model.RawBatch, symbol string) (model.Change, SkipReason, error) {
	bars, err := series.ExtractStrict(batch, symbol)
	if err != nil {
		return model.Change{}, classify(err), err
	}
	ch, err := calculator.LatestChange(series.Closes(bars))
	if err != nil {
		return model.Change{}, SkipInsufficientData, fmt.Errorf("%s: %w", symbol, err)
	}
	return ch, SkipNone, nil
}

func classify(err error) SkipReason {
	switch {
	case errors.Is(err, series.ErrSymbolNotFound):
		return SkipMissingSymbol
	case errors.Is(err, model.ErrMalformedTable):
		return SkipMalformed
	default:
		return SkipInsufficientData
	}
}

// Evaluate runs every instrument of sectors against batch, in declaration
// order. One instrument failing never affects the others.
func Evaluate(sectors []model.Sector, batch model.RawBatch) []Result {
	var results []Result
	for _, s := range sectors {
		for _, inst := range s.Instruments {
			r := evaluateOne(s.Name, inst, batch)
			if !r.OK() {
				logger.Debug("scanner skipped instrument",
					zap.String("sector", r.Sector),
					zap.String("instrument", r.Instrument),
					zap.String("reason", string(r.Skip)),
					zap.Error(r.Err))
			}
			results = append(results, r)
		}
	}
	return results
}

func evaluateOne(sector string, inst model.Instrument, batch model.RawBatch) (r Result) {
	r = Result{Sector: sector, Instrument: inst.Name, Symbol: inst.Symbol}
	defer func() {
		if p := recover(); p != nil {
			r.Row = nil
			r.Skip = SkipPanic
			r.Err = fmt.Errorf("%s: %v", inst.Symbol, p)
		}
	}()

	ch, reason, err := Measure(batch, inst.Symbol)
	if err != nil {
		r.Skip = reason
		r.Err = err
		return r
	}
	r.Row = &model.ScannerRow{
		Sector:     sector,
		Instrument: inst.Name,
		Symbol:     inst.Symbol,
		Price:      ch.Latest,
		ChangePct:  ch.ChangePct,
	}
	return r
}

// Scan returns the scanner rows for every instrument with enough data.
func Scan(sectors []model.Sector, batch model.RawBatch) []model.ScannerRow {
	return Rows(Evaluate(sectors, batch))
}

// Rows keeps the successful results.
func Rows(results []Result) []model.ScannerRow {
	rows := make([]model.ScannerRow, 0, len(results))
	for _, r := range results {
		if r.OK() {
			rows = append(rows, *r.Row)
		}
	}
	return rows
}

// Skipped keeps the failed results.
func Skipped(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// SortByChange returns a copy of rows ordered by change percent. Ties keep
// catalog order.
func SortByChange(rows []model.ScannerRow, desc bool) []model.ScannerRow {
	out := append([]model.ScannerRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].ChangePct > out[j].ChangePct
		}
		return out[i].ChangePct < out[j].ChangePct
	})
	return out
}
