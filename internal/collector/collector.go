package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeTerminal/internal/calculator"
	"TradeTerminal/internal/catalog"
	"TradeTerminal/internal/config"
	"TradeTerminal/internal/logger"
	"TradeTerminal/internal/model"
	"TradeTerminal/internal/scanner"
	"TradeTerminal/internal/series"
	"TradeTerminal/internal/tradecal"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"go.uber.org/zap"
)

// ChartStyle selects how the price trace is drawn.
type ChartStyle string

const (
	StyleLine   ChartStyle = "line"
	StyleCandle ChartStyle = "candle"
)

var (
	ErrUnknownSector     = errors.New("unknown sector")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrInvalidParams     = errors.New("invalid parameters")
)

// Params are the dashboard controls. A null ShowMA means the default.
type Params struct {
	Sector   string     `json:"sector"`
	Asset    string     `json:"asset"`
	Range    string     `json:"range"`
	Style    ChartStyle `json:"style"`
	ShowMA   null.Bool  `json:"show_ma"`
	MAPeriod int        `json:"ma_period"`
}

// ChartView is the main chart for the selected instrument.
type ChartView struct {
	Sector          string           `json:"sector"`
	Instrument      string           `json:"instrument"`
	Symbol          string           `json:"symbol"`
	Style           ChartStyle       `json:"style"`
	Bars            []model.PriceBar `json:"bars"`
	LatestPrice     float64          `json:"latest_price"`
	MAPeriod        int              `json:"ma_period,omitempty"`
	MovingAverage   []model.MAPoint  `json:"moving_average,omitempty"`
	MissingSessions int              `json:"missing_sessions"`
}

// SkipEntry records a scanner instrument that produced no row.
type SkipEntry struct {
	Sector     string `json:"sector"`
	Instrument string `json:"instrument"`
	Symbol     string `json:"symbol"`
	Reason     string `json:"reason"`
	Error      string `json:"error,omitempty"`
}

// Snapshot is one full dashboard render.
type Snapshot struct {
	ID            string               `json:"id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Params        Params               `json:"params"`
	Chart         *ChartView           `json:"chart"`
	Macro         []model.MacroTick    `json:"macro"`
	Sourcing      catalog.SourcingView `json:"sourcing"`
	Scanner       []model.ScannerRow   `json:"scanner"`
	Skipped       []SkipEntry          `json:"skipped,omitempty"`
	Notices       []string             `json:"notices,omitempty"`
	ProviderError string               `json:"provider_error,omitempty"`
}

// Collector turns provider batches into dashboard views.
type Collector struct {
	Fetcher  Fetcher
	Catalog  *catalog.Catalog
	Calendar *tradecal.Calendar
	Defaults Params

	now func() time.Time
}

// NewCollector creates a new Collector. cal may be nil.
func NewCollector(fetcher Fetcher, cat *catalog.Catalog, cal *tradecal.Calendar, defaults Params) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Catalog:  cat,
		Calendar: cal,
		Defaults: defaults,
		now:      time.Now,
	}
}

// DefaultParams derives the dashboard defaults from configuration.
func DefaultParams(cfg *config.Config) Params {
	return Params{
		Range:    cfg.Dashboard.Range,
		Style:    ChartStyle(cfg.Dashboard.ChartStyle),
		ShowMA:   null.BoolFrom(!cfg.Dashboard.HideMA),
		MAPeriod: cfg.Dashboard.MAPeriod,
	}
}

// Resolve fills empty fields from the defaults and the catalog, then
// validates the result. An empty sector selects the first sector; an empty
// asset selects the first instrument of the sector. The overlay is shown
// unless the request or the defaults turn it off.
func (c *Collector) Resolve(p Params) (Params, error) {
	if p.Range == "" {
		p.Range = c.Defaults.Range
	}
	if p.Style == "" {
		p.Style = c.Defaults.Style
	}
	if p.MAPeriod == 0 {
		p.MAPeriod = c.Defaults.MAPeriod
	}
	if !p.ShowMA.Valid {
		p.ShowMA = c.Defaults.ShowMA
	}
	if !p.ShowMA.Valid {
		p.ShowMA = null.BoolFrom(true)
	}
	if p.Sector == "" {
		p.Sector = c.Catalog.Sectors[0].Name
	}
	sec, ok := c.Catalog.Sector(p.Sector)
	if !ok {
		return p, fmt.Errorf("%w: %q", ErrUnknownSector, p.Sector)
	}
	if p.Asset == "" {
		p.Asset = sec.Instruments[0].Name
	}
	if _, ok := c.Catalog.Lookup(p.Sector, p.Asset); !ok {
		return p, fmt.Errorf("%w: %q in %q", ErrUnknownInstrument, p.Asset, p.Sector)
	}
	if err := config.ValidateRange(p.Range); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := config.ValidateMAPeriod(p.MAPeriod); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.Style != StyleLine && p.Style != StyleCandle {
		return p, fmt.Errorf("%w: style must be line or candle, got %q", ErrInvalidParams, p.Style)
	}
	return p, nil
}

// Build renders the whole dashboard. Provider failures never fail the build:
// they degrade to an empty batch and are reported through Notices and
// ProviderError.
func (c *Collector) Build(ctx context.Context, p Params) (*Snapshot, error) {
	p, err := c.Resolve(p)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: c.now().UTC(),
		Params:      p,
		Sourcing:    c.Catalog.Sourcing(p.Asset),
	}

	assets := c.fetch(ctx, c.Catalog.Symbols(), p.Range, snap)
	inst, _ := c.Catalog.Lookup(p.Sector, p.Asset)
	snap.Chart = c.chartView(assets, p, inst)
	if snap.Chart == nil {
		snap.Notices = append(snap.Notices, fmt.Sprintf("Data unavailable for %s", p.Asset))
	}
	c.fillScanner(snap, assets)

	vitals := c.fetch(ctx, c.Catalog.MacroSymbols(), p.Range, snap)
	snap.Macro = c.macroTicks(vitals)

	logger.Debug("snapshot built",
		zap.String("id", snap.ID),
		zap.Int("rows", len(snap.Scanner)),
		zap.Int("skipped", len(snap.Skipped)),
		zap.Int("macro", len(snap.Macro)))
	return snap, nil
}

// Chart fetches only the selected instrument.
func (c *Collector) Chart(ctx context.Context, p Params) (*ChartView, error) {
	p, err := c.Resolve(p)
	if err != nil {
		return nil, err
	}
	inst, _ := c.Catalog.Lookup(p.Sector, p.Asset)
	batch, err := c.Fetcher.FetchBatch(ctx, []string{inst.Symbol}, p.Range)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", inst.Symbol, err)
	}
	view := c.chartView(batch, p, inst)
	if view == nil {
		return nil, fmt.Errorf("%s: %w", p.Asset, calculator.ErrInsufficientData)
	}
	return view, nil
}

// Macro fetches the macro vitals over period.
func (c *Collector) Macro(ctx context.Context, period string) ([]model.MacroTick, error) {
	batch, err := c.Fetcher.FetchBatch(ctx, c.Catalog.MacroSymbols(), period)
	if err != nil {
		return nil, fmt.Errorf("fetch macro: %w", err)
	}
	return c.macroTicks(batch), nil
}

// Scanner fetches every catalog instrument over period and evaluates it.
func (c *Collector) Scanner(ctx context.Context, period string) ([]scanner.Result, error) {
	batch, err := c.Fetcher.FetchBatch(ctx, c.Catalog.Symbols(), period)
	if err != nil {
		return nil, fmt.Errorf("fetch scanner: %w", err)
	}
	return scanner.Evaluate(c.Catalog.Sectors, batch), nil
}

// Quote is a single-instrument reading used by chat commands.
type Quote struct {
	Entry    catalog.Entry
	Change   model.Change
	MAPeriod int
	MA       null.Float
}

// Quote fetches one instrument by name and measures its latest change plus
// the moving average over the configured period.
func (c *Collector) Quote(ctx context.Context, name string) (*Quote, error) {
	entry, ok := c.Catalog.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstrument, name)
	}
	sym := entry.Instrument.Symbol
	batch, err := c.Fetcher.FetchBatch(ctx, []string{sym}, c.Defaults.Range)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sym, err)
	}
	bars, err := series.ExtractStrict(batch, sym)
	if err != nil {
		return nil, err
	}
	closes := series.Closes(bars)
	ch, err := calculator.LatestChange(closes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Instrument.Name, err)
	}
	q := &Quote{Entry: entry, Change: ch, MAPeriod: c.Defaults.MAPeriod}
	if ma, err := calculator.CalculateSMA(closes, c.Defaults.MAPeriod); err == nil {
		q.MA = null.FloatFrom(ma)
	}
	return q, nil
}

func (c *Collector) fetch(ctx context.Context, symbols []string, period string, snap *Snapshot) model.RawBatch {
	batch, err := c.Fetcher.FetchBatch(ctx, symbols, period)
	if err != nil {
		logger.Warn("provider fetch failed",
			zap.String("provider", c.Fetcher.Name()),
			zap.Int("symbols", len(symbols)),
			zap.Error(err))
		if snap.ProviderError == "" {
			snap.ProviderError = err.Error()
			snap.Notices = append(snap.Notices, "Market data provider unavailable")
		}
		return model.EmptyBatch()
	}
	return batch
}

func (c *Collector) chartView(batch model.RawBatch, p Params, inst model.Instrument) *ChartView {
	bars := series.Extract(batch, inst.Symbol)
	if len(bars) == 0 {
		return nil
	}
	view := &ChartView{
		Sector:      p.Sector,
		Instrument:  inst.Name,
		Symbol:      inst.Symbol,
		Style:       p.Style,
		Bars:        bars,
		LatestPrice: bars[len(bars)-1].Close,
	}
	if p.ShowMA.Bool && len(bars) > p.MAPeriod {
		ma, err := calculator.MovingAverage(series.Closes(bars), p.MAPeriod)
		if err == nil && calculator.HasDefined(ma) {
			view.MAPeriod = p.MAPeriod
			view.MovingAverage = calculator.AlignMovingAverage(bars, ma)
		}
	}
	if c.Calendar != nil {
		dates := make([]time.Time, len(bars))
		for i, b := range bars {
			dates[i] = b.Date
		}
		view.MissingSessions = c.Calendar.MissingSessions(dates)
	}
	return view
}

func (c *Collector) fillScanner(snap *Snapshot, batch model.RawBatch) {
	results := scanner.Evaluate(c.Catalog.Sectors, batch)
	snap.Scanner = scanner.Rows(results)
	for _, r := range scanner.Skipped(results) {
		e := SkipEntry{
			Sector:     r.Sector,
			Instrument: r.Instrument,
			Symbol:     r.Symbol,
			Reason:     string(r.Skip),
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		snap.Skipped = append(snap.Skipped, e)
	}
}

func (c *Collector) macroTicks(batch model.RawBatch) []model.MacroTick {
	var out []model.MacroTick
	for _, m := range c.Catalog.Macro {
		ch, _, err := scanner.Measure(batch, m.Symbol)
		if err != nil {
			continue
		}
		out = append(out, model.MacroTick{Name: m.Name, Symbol: m.Symbol, Change: ch})
	}
	return out
}
