package calculator

import (
	"errors"

	"TradeTerminal/internal/model"
)

// ErrInsufficientData means the series is too short to produce the metric.
// Callers skip the metric; they never substitute a default.
var ErrInsufficientData = errors.New("insufficient data")

// LatestChange compares the last two closes. A zero previous close is not
// special-cased and yields an IEEE Inf or NaN.
func LatestChange(closes []float64) (model.Change, error) {
	if len(closes) < 2 {
		return model.Change{}, ErrInsufficientData
	}
	latest := closes[len(closes)-1]
	previous := closes[len(closes)-2]
	return model.Change{
		Latest:    latest,
		Previous:  previous,
		ChangePct: (latest - previous) / previous * 100,
	}, nil
}
