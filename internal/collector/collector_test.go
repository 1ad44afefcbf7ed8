package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"TradeTerminal/internal/catalog"
	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
)

const testCatalog = `
sectors:
  - name: Metals
    instruments:
      - {name: Copper, symbol: HG=F}
      - {name: Gold, symbol: GC=F}
  - name: Forex
    instruments:
      - {name: USD/JPY, symbol: JPY=X}
macro:
  - {name: Volatility, symbol: ^VIX}
sourcing:
  Copper:
    - {country: Chile, tag: Top Producer, note: Largest reserves.}
`

func testCollector(t *testing.T, f Fetcher) *Collector {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("catalog.Parse: %v", err)
	}
	c := NewCollector(f, cat, nil, Params{Range: "1y", Style: StyleLine, ShowMA: null.BoolFrom(true), MAPeriod: 10})
	c.now = func() time.Time { return time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC) }
	return c
}

func closesTable(closes ...float64) model.Table {
	index := make([]time.Time, len(closes))
	col := make([]null.Float, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range closes {
		index[i] = start.AddDate(0, 0, i)
		col[i] = null.FloatFrom(v)
	}
	t := model.NewTable(index)
	t.Columns[model.ColumnClose] = col
	return t
}

func TestResolveDefaults(t *testing.T) {
	c := testCollector(t, &MockFetcher{})
	p, err := c.Resolve(Params{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Sector != "Metals" || p.Asset != "Copper" {
		t.Errorf("selection = %s/%s, want Metals/Copper", p.Sector, p.Asset)
	}
	if p.Range != "1y" || p.Style != StyleLine || p.MAPeriod != 10 {
		t.Errorf("defaults not applied: %+v", p)
	}
}

func TestResolveShowMA(t *testing.T) {
	tests := []struct {
		name     string
		defaults null.Bool
		in       null.Bool
		want     bool
	}{
		{"unset uses default on", null.BoolFrom(true), null.Bool{}, true},
		{"unset uses default off", null.BoolFrom(false), null.Bool{}, false},
		{"unset without default", null.Bool{}, null.Bool{}, true},
		{"explicit off wins", null.BoolFrom(true), null.BoolFrom(false), false},
		{"explicit on wins", null.BoolFrom(false), null.BoolFrom(true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCollector(t, &MockFetcher{})
			c.Defaults.ShowMA = tt.defaults
			p, err := c.Resolve(Params{ShowMA: tt.in})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !p.ShowMA.Valid || p.ShowMA.Bool != tt.want {
				t.Errorf("ShowMA = %v, want %v", p.ShowMA, tt.want)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	c := testCollector(t, &MockFetcher{})
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"unknown sector", Params{Sector: "Energy"}, ErrUnknownSector},
		{"asset in other sector", Params{Sector: "Forex", Asset: "Gold"}, ErrUnknownInstrument},
		{"bad range", Params{Range: "10y"}, ErrInvalidParams},
		{"bad period", Params{MAPeriod: 15}, ErrInvalidParams},
		{"bad style", Params{Style: "bars"}, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Resolve(tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildSnapshot(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	f := &MockFetcher{Tables: map[string]model.Table{
		"HG=F": closesTable(closes...),
		"GC=F": closesTable(50),
		"^VIX": closesTable(20, 22),
	}}
	c := testCollector(t, f)

	snap, err := c.Build(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.ID == "" {
		t.Error("snapshot id should be set")
	}
	if snap.ProviderError != "" {
		t.Errorf("unexpected provider error %q", snap.ProviderError)
	}

	if snap.Chart == nil {
		t.Fatal("chart should be present")
	}
	if snap.Chart.LatestPrice != 129 {
		t.Errorf("latest price = %v, want 129", snap.Chart.LatestPrice)
	}
	if len(snap.Chart.MovingAverage) != 21 {
		t.Errorf("MA points = %d, want 21", len(snap.Chart.MovingAverage))
	}

	if len(snap.Scanner) != 1 || snap.Scanner[0].Instrument != "Copper" {
		t.Fatalf("scanner = %+v, want only Copper", snap.Scanner)
	}
	if len(snap.Skipped) != 2 {
		t.Errorf("skipped = %+v, want Gold and USD/JPY", snap.Skipped)
	}

	if len(snap.Macro) != 1 || snap.Macro[0].ChangePct != 10 {
		t.Errorf("macro = %+v, want VIX +10%%", snap.Macro)
	}
	if !snap.Sourcing.Indexed || snap.Sourcing.Records[0].Country != "Chile" {
		t.Errorf("sourcing = %+v", snap.Sourcing)
	}
}

func TestBuildMAHiddenWhenTooShort(t *testing.T) {
	f := &MockFetcher{Tables: map[string]model.Table{
		"HG=F": closesTable(1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
	}}
	c := testCollector(t, f)
	snap, err := c.Build(context.Background(), Params{MAPeriod: 10})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Chart == nil {
		t.Fatal("chart should be present")
	}
	if snap.Chart.MovingAverage != nil {
		t.Error("MA overlay requires more bars than the period")
	}
}

func TestBuildMAHiddenOnRequest(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	f := &MockFetcher{Tables: map[string]model.Table{"HG=F": closesTable(closes...)}}
	c := testCollector(t, f)

	snap, err := c.Build(context.Background(), Params{ShowMA: null.BoolFrom(false)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Chart == nil {
		t.Fatal("chart should be present")
	}
	if snap.Chart.MovingAverage != nil || snap.Chart.MAPeriod != 0 {
		t.Errorf("overlay should be off, got %d points", len(snap.Chart.MovingAverage))
	}
}

func TestBuildProviderFailure(t *testing.T) {
	c := testCollector(t, &MockFetcher{Err: errors.New("network down")})
	snap, err := c.Build(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.ProviderError == "" {
		t.Error("provider error should be reported")
	}
	if snap.Chart != nil || len(snap.Scanner) != 0 || len(snap.Macro) != 0 {
		t.Error("failed fetch should leave every view empty")
	}
	if len(snap.Notices) == 0 {
		t.Error("expected notices")
	}
	if len(snap.Skipped) != 3 {
		t.Errorf("skipped = %d, want 3", len(snap.Skipped))
	}
}

func TestChartSingleSymbol(t *testing.T) {
	f := &MockFetcher{Tables: map[string]model.Table{"JPY=X": closesTable(150, 151)}}
	c := testCollector(t, f)
	view, err := c.Chart(context.Background(), Params{Sector: "Forex", Asset: "USD/JPY"})
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if view.Symbol != "JPY=X" || len(view.Bars) != 2 {
		t.Errorf("view = %+v", view)
	}
}

func TestQuote(t *testing.T) {
	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 10
	}
	closes[11] = 11
	f := &MockFetcher{Tables: map[string]model.Table{"GC=F": closesTable(closes...)}}
	c := testCollector(t, f)

	q, err := c.Quote(context.Background(), "gold")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Entry.Sector != "Metals" || q.Change.Latest != 11 {
		t.Errorf("quote = %+v", q)
	}
	if !q.MA.Valid {
		t.Error("expected MA with 12 closes and period 10")
	}

	if _, err := c.Quote(context.Background(), "Unobtainium"); !errors.Is(err, ErrUnknownInstrument) {
		t.Errorf("err = %v, want ErrUnknownInstrument", err)
	}
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	data := `{"HG=F":{"index":["2024-01-02","2024-01-03"],"Close":[4.0,4.2]},"GC=F":{"bad":1}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c := testCollector(t, NewFileFetcher(path))
	snap, err := c.Build(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Scanner) != 1 || snap.Scanner[0].Symbol != "HG=F" {
		t.Errorf("scanner = %+v", snap.Scanner)
	}

	missing := NewFileFetcher(filepath.Join(t.TempDir(), "none.json"))
	if _, err := missing.FetchBatch(context.Background(), nil, "1y"); err == nil {
		t.Error("expected error for missing file")
	}
}
