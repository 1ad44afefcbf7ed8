package calculator

import (
	"errors"

	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"
)

// ErrInvalidWindow is returned for a moving-average window below 1.
var ErrInvalidWindow = errors.New("window must be >= 1")

// MovingAverage computes the trailing simple moving average of closes. The
// result is aligned with closes: entry i holds the mean of closes[i-window+1..i]
// and the first window-1 entries are null. When there are fewer than window
// closes every entry is null.
func MovingAverage(closes []float64, window int) ([]null.Float, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	out := make([]null.Float, len(closes))
	if len(closes) < window {
		return out, nil
	}
	sma := talib.Sma(closes, window)
	for i := window - 1; i < len(closes); i++ {
		out[i] = null.FloatFrom(sma[i])
	}
	return out, nil
}

// HasDefined reports whether an aligned average has at least one point to draw.
func HasDefined(ma []null.Float) bool {
	for _, v := range ma {
		if v.Valid {
			return true
		}
	}
	return false
}

// AlignMovingAverage pairs the defined entries of ma with the dates of bars.
func AlignMovingAverage(bars []model.PriceBar, ma []null.Float) []model.MAPoint {
	n := len(bars)
	if len(ma) < n {
		n = len(ma)
	}
	var points []model.MAPoint
	for i := 0; i < n; i++ {
		if !ma[i].Valid {
			continue
		}
		points = append(points, model.MAPoint{Date: bars[i].Date, Value: ma[i].Float64})
	}
	return points
}

// CalculateSMA computes the simple moving average of the most recent period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidWindow
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}
