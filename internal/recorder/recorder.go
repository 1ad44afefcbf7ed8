package recorder

import (
	"time"

	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
)

// ScanRecord holds one scanner run.
type ScanRecord struct {
	ID            string
	Timestamp     time.Time
	Range         string
	Provider      string
	ProviderError string
	Rows          []model.ScannerRow
	Skipped       int
}

// RunSummary is a stored scanner run without its rows.
type RunSummary struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Range         string    `json:"range"`
	Provider      string    `json:"provider"`
	ProviderError string    `json:"provider_error,omitempty"`
	RowCount      int       `json:"row_count"`
	Skipped       int       `json:"skipped"`
}

// PricePoint is a recorded scanner reading for one instrument. ChangePct is
// null when the reading had no finite change.
type PricePoint struct {
	Timestamp time.Time  `json:"timestamp"`
	Price     float64    `json:"price"`
	ChangePct null.Float `json:"change_pct"`
}

// Recorder persists scanner history for analysis.
type Recorder interface {
	RecordScan(rec *ScanRecord) error
	RecentRuns(limit int) ([]RunSummary, error)
	InstrumentHistory(symbol string, limit int) ([]PricePoint, error)
	Close() error
}
