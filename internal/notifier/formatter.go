package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"TradeTerminal/internal/catalog"
	"TradeTerminal/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// FormatPrice renders a price with thousands separators and two decimals.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return humanize.FormatFloat("#,###.##", v)
}

// FormatChangePct renders a signed percentage with two decimals, e.g. +1.25%.
func FormatChangePct(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return "n/a"
	}
	s := decimal.NewFromFloat(pct).StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

func trend(pct float64) string {
	switch {
	case pct > 0:
		return "🟢"
	case pct < 0:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatScannerDigest formats scanner rows grouped by sector, in row order.
func FormatScannerDigest(rows []model.ScannerRow, skipped int, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Market Scanner</b> | %s\n", at.Format("2006-01-02 15:04")))

	if len(rows) == 0 {
		b.WriteString("\nNo market data available.\n")
	}
	sector := ""
	for _, r := range rows {
		if r.Sector != sector {
			sector = r.Sector
			b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(sector)))
		}
		b.WriteString(fmt.Sprintf("%s %s: %s (%s)\n",
			trend(r.ChangePct), html.EscapeString(r.Instrument),
			FormatPrice(r.Price), FormatChangePct(r.ChangePct)))
	}
	if skipped > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d instruments without data\n", skipped))
	}
	return b.String()
}

// FormatMacro formats the macro vitals panel.
func FormatMacro(ticks []model.MacroTick) string {
	if len(ticks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("🌐 <b>Macro</b>\n")
	for _, t := range ticks {
		b.WriteString(fmt.Sprintf("  %s: %s (%s)\n",
			html.EscapeString(t.Name), FormatPrice(t.Latest), FormatChangePct(t.ChangePct)))
	}
	return b.String()
}

// FormatQuote formats a single-instrument reading.
func FormatQuote(name, symbol string, ch model.Change, ma null.Float, period int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> (%s)\n", trend(ch.ChangePct), html.EscapeString(name), html.EscapeString(symbol)))
	b.WriteString(fmt.Sprintf("Price: %s\n", FormatPrice(ch.Latest)))
	b.WriteString(fmt.Sprintf("Prev close: %s\n", FormatPrice(ch.Previous)))
	b.WriteString(fmt.Sprintf("Change: %s\n", FormatChangePct(ch.ChangePct)))
	if ma.Valid {
		dev := (ch.Latest - ma.Float64) / ma.Float64 * 100
		b.WriteString(fmt.Sprintf("MA%d: %s (%s)\n", period, FormatPrice(ma.Float64), FormatChangePct(dev)))
	} else {
		b.WriteString(fmt.Sprintf("MA%d: not enough history\n", period))
	}
	return b.String()
}

// FormatSourcing formats the sourcing card for an instrument.
func FormatSourcing(view catalog.SourcingView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Sourcing intel: %s</b>\n", html.EscapeString(view.Instrument)))
	if !view.Indexed {
		b.WriteString("<i>Not yet indexed.</i>\n")
	}
	for _, r := range view.Records {
		b.WriteString("\n")
		if r.Tag != "" {
			b.WriteString(fmt.Sprintf("<b>%s</b> [%s]\n", html.EscapeString(r.Country), html.EscapeString(r.Tag)))
		} else {
			b.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(r.Country)))
		}
		b.WriteString(html.EscapeString(r.Note) + "\n")
	}
	return b.String()
}

// FormatHelp returns available bot commands.
func FormatHelp() string {
	return "🤖 <b>Trade Terminal</b>\n\n" +
		"/scan - market scanner\n" +
		"/quote &lt;instrument&gt; - latest price and change\n" +
		"/sourcing &lt;instrument&gt; - sourcing hubs\n" +
		"/help - this message"
}

// FormatError formats an error notification.
func FormatError(context string, err error) string {
	return fmt.Sprintf("❌ <b>Error</b>: %s\n%s", html.EscapeString(context), html.EscapeString(err.Error()))
}
