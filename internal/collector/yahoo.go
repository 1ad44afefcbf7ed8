package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"TradeTerminal/internal/logger"
	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API, one
// request per symbol.
type YahooFetcher struct {
	Client      *http.Client
	BaseURL     string
	Concurrency int
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration, concurrency int) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		BaseURL:     baseURL,
		Concurrency: concurrency,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
// Pointers distinguish null cells from zero prices.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchBatch fetches every symbol concurrently. Symbols that fail are left out
// of the batch; the call only fails when nothing could be fetched.
func (f *YahooFetcher) FetchBatch(ctx context.Context, symbols []string, period string) (model.RawBatch, error) {
	if len(symbols) == 0 {
		return model.EmptyBatch(), nil
	}

	var (
		mu       sync.Mutex
		tables   = make(map[string]model.Table, len(symbols))
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.Concurrency)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			t, err := f.fetchChart(gctx, sym, "1d", period)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("yahoo fetch failed", zap.String("symbol", sym), zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			tables[sym] = t
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return model.EmptyBatch(), err
	}
	if len(tables) == 0 {
		return model.EmptyBatch(), fmt.Errorf("all %d fetches failed: %w", len(symbols), firstErr)
	}
	logger.Debug("yahoo batch fetched", zap.Int("ok", len(tables)), zap.Int("requested", len(symbols)))

	if len(symbols) == 1 {
		return model.SingleSeries(tables[symbols[0]]), nil
	}
	return model.MultiSeries(tables), nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (model.Table, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Table{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Table{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Table{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Table{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.Table{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return model.Table{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.Table{}, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.Table{}, fmt.Errorf("yahoo: no quote data")
	}
	quote := result.Indicators.Quote[0]
	columns := map[string][]*float64{
		model.ColumnOpen:   quote.Open,
		model.ColumnHigh:   quote.High,
		model.ColumnLow:    quote.Low,
		model.ColumnClose:  quote.Close,
		model.ColumnVolume: quote.Volume,
	}
	return buildTable(result.Timestamp, columns), nil
}

// buildTable turns parallel timestamp/value arrays into a chronologically
// ordered table. Misaligned columns are passed through unsorted so that
// validation downstream reports the table as malformed.
func buildTable(timestamps []int64, columns map[string][]*float64) model.Table {
	order := make([]int, len(timestamps))
	for i := range order {
		order[i] = i
	}
	aligned := true
	for _, col := range columns {
		if col != nil && len(col) != len(timestamps) {
			aligned = false
		}
	}
	if aligned {
		sort.SliceStable(order, func(a, b int) bool { return timestamps[order[a]] < timestamps[order[b]] })
	}

	index := make([]time.Time, len(order))
	for i, o := range order {
		index[i] = time.Unix(timestamps[o], 0).UTC()
	}
	t := model.NewTable(index)
	for name, col := range columns {
		if col == nil {
			continue
		}
		out := make([]null.Float, len(col))
		for i := range col {
			src := i
			if aligned {
				src = order[i]
			}
			out[i] = null.FloatFromPtr(col[src])
		}
		t.Columns[name] = out
	}
	return t
}
