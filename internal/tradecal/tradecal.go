package tradecal

import (
	"strings"
	"time"

	"TradeTerminal/internal/logger"

	"github.com/scmhub/calendar"
	"go.uber.org/zap"
)

// Calendar answers trading-day questions for one exchange.
type Calendar struct {
	MIC      string
	cal      *calendar.Calendar
	fallback bool
	loc      *time.Location
}

// New loads the exchange calendar for mic (ISO 10383, e.g. "xnys"). Unknown
// codes fall back to NYSE, and if that fails too to a plain Mon-Fri week.
func New(mic string) *Calendar {
	mic = strings.ToLower(mic)
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != "xnys" {
		logger.Warn("unknown exchange calendar, using xnys", zap.String("mic", mic))
		mic = "xnys"
		cal = calendar.GetCalendar(mic)
	}
	if cal == nil {
		logger.Warn("no exchange calendar available, using Mon-Fri fallback")
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		return &Calendar{MIC: mic, fallback: true, loc: loc}
	}
	return &Calendar{MIC: mic, cal: cal, loc: cal.Loc}
}

// Location is the exchange time zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// IsTradingDay reports whether the exchange holds a session on t's local date.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	t = c.localDate(t)
	if c.fallback {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return c.cal.IsBusinessDay(t)
}

// MissingSessions counts trading days in [from, to] that have no entry in
// dates. Dates are compared by calendar day in the exchange time zone.
func (c *Calendar) MissingSessions(dates []time.Time) int {
	if len(dates) < 2 {
		return 0
	}
	have := make(map[string]bool, len(dates))
	first, last := c.localDate(dates[0]), c.localDate(dates[0])
	for _, d := range dates {
		ld := c.localDate(d)
		have[ld.Format("2006-01-02")] = true
		if ld.Before(first) {
			first = ld
		}
		if ld.After(last) {
			last = ld
		}
	}

	missing := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if have[d.Format("2006-01-02")] {
			continue
		}
		if c.IsTradingDay(d) {
			missing++
		}
	}
	return missing
}

// localDate truncates t to midday of its calendar date in the exchange zone,
// so session checks never straddle midnight.
func (c *Calendar) localDate(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, c.loc)
}
