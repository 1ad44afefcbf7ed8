package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// Column names used by the batch provider.
const (
	ColumnOpen   = "Open"
	ColumnHigh   = "High"
	ColumnLow    = "Low"
	ColumnClose  = "Close"
	ColumnVolume = "Volume"
)

// ErrMalformedTable marks a sub-table whose schema cannot be read as daily bars.
var ErrMalformedTable = errors.New("malformed table")

// Table is a columnar set of daily bars indexed by trading date.
type Table struct {
	Index   []time.Time
	Columns map[string][]null.Float
}

// NewTable creates an empty table over the given date index.
func NewTable(index []time.Time) Table {
	return Table{Index: index, Columns: make(map[string][]null.Float)}
}

// Len returns the number of rows in the index.
func (t Table) Len() int { return len(t.Index) }

// Column returns the named column, if present.
func (t Table) Column(name string) ([]null.Float, bool) {
	col, ok := t.Columns[name]
	return col, ok
}

// Validate checks that the table carries a Close column and that every
// column is aligned with the index.
func (t Table) Validate() error {
	if _, ok := t.Columns[ColumnClose]; !ok {
		return fmt.Errorf("%w: no %s column", ErrMalformedTable, ColumnClose)
	}
	for name, col := range t.Columns {
		if len(col) != len(t.Index) {
			return fmt.Errorf("%w: column %s has %d rows, index has %d", ErrMalformedTable, name, len(col), len(t.Index))
		}
	}
	return nil
}

// dateLayouts are accepted for the "index" field of a JSON table.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// UnmarshalJSON decodes {"index": [...], "<Column>": [...], ...}.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode table: %w", err)
	}
	idx, ok := raw["index"]
	if !ok {
		return fmt.Errorf("%w: no index", ErrMalformedTable)
	}
	var dates []string
	if err := json.Unmarshal(idx, &dates); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	index := make([]time.Time, len(dates))
	for i, d := range dates {
		ts, err := parseDate(d)
		if err != nil {
			return err
		}
		index[i] = ts
	}

	out := NewTable(index)
	for name, msg := range raw {
		if name == "index" {
			continue
		}
		var col []null.Float
		if err := json.Unmarshal(msg, &col); err != nil {
			return fmt.Errorf("decode column %s: %w", name, err)
		}
		out.Columns[name] = col
	}
	*t = out
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad date %q", ErrMalformedTable, s)
}

// BatchShape tells which form the provider returned.
type BatchShape int

const (
	// ShapeMulti is a symbol-keyed set of tables.
	ShapeMulti BatchShape = iota
	// ShapeSingle is one flat table, returned when exactly one symbol was requested.
	ShapeSingle
)

func (s BatchShape) String() string {
	if s == ShapeSingle {
		return "single"
	}
	return "multi"
}

// RawBatch is the result of a batch price-history fetch. The zero value is an
// empty multi-symbol batch.
type RawBatch struct {
	shape  BatchShape
	single Table
	multi  map[string]Table
}

// SingleSeries wraps a flat table.
func SingleSeries(t Table) RawBatch {
	return RawBatch{shape: ShapeSingle, single: t}
}

// MultiSeries wraps a symbol-keyed set of tables.
func MultiSeries(tables map[string]Table) RawBatch {
	m := make(map[string]Table, len(tables))
	for sym, t := range tables {
		m[sym] = t
	}
	return RawBatch{shape: ShapeMulti, multi: m}
}

// EmptyBatch is what a failed fetch degrades to.
func EmptyBatch() RawBatch { return RawBatch{} }

// Shape reports the resolved shape.
func (b RawBatch) Shape() BatchShape { return b.shape }

// Lookup returns the table holding symbol's bars. A single-series batch
// answers every lookup with its one table.
func (b RawBatch) Lookup(symbol string) (Table, bool) {
	if b.shape == ShapeSingle {
		return b.single, true
	}
	t, ok := b.multi[symbol]
	return t, ok
}

// Symbols lists the keys of a multi-series batch in sorted order.
func (b RawBatch) Symbols() []string {
	syms := make([]string, 0, len(b.multi))
	for s := range b.multi {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// Empty reports whether the batch holds no tables.
func (b RawBatch) Empty() bool {
	return b.shape == ShapeMulti && len(b.multi) == 0
}

// DecodeBatch parses a JSON batch and resolves its shape once: an object with
// an "index" key is a single table, anything else is keyed by symbol. A
// sub-table that cannot be decoded is kept as an empty table so downstream
// consumers can skip that symbol alone.
func DecodeBatch(data []byte) (RawBatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return EmptyBatch(), fmt.Errorf("decode batch: %w", err)
	}
	if _, ok := raw["index"]; ok {
		var t Table
		if err := json.Unmarshal(data, &t); err != nil {
			return EmptyBatch(), err
		}
		return SingleSeries(t), nil
	}

	tables := make(map[string]Table, len(raw))
	for sym, msg := range raw {
		var t Table
		if err := json.Unmarshal(msg, &t); err != nil {
			tables[sym] = Table{}
			continue
		}
		tables[sym] = t
	}
	return MultiSeries(tables), nil
}
