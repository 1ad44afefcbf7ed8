package collector

import (
	"context"

	"TradeTerminal/internal/model"
)

// Fetcher retrieves daily price history for a set of symbols. Requesting one
// symbol yields a single-series batch; more yield a multi-series batch.
type Fetcher interface {
	FetchBatch(ctx context.Context, symbols []string, period string) (model.RawBatch, error)
	Name() string
}
