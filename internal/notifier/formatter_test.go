package notifier

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"TradeTerminal/internal/catalog"
	"TradeTerminal/internal/model"

	"github.com/guregu/null/v6"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{4.5, "4.50"},
		{1234.567, "1,234.57"},
		{2345678.1, "2,345,678.10"},
		{math.NaN(), "n/a"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatChangePct(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.2345, "+1.23%"},
		{-0.5, "-0.50%"},
		{0, "+0.00%"},
		{10, "+10.00%"},
		{math.Inf(1), "n/a"},
	}
	for _, tt := range tests {
		if got := FormatChangePct(tt.in); got != tt.want {
			t.Errorf("FormatChangePct(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatScannerDigest(t *testing.T) {
	rows := []model.ScannerRow{
		{Sector: "Metals", Instrument: "Copper", Price: 4.5, ChangePct: 1.25},
		{Sector: "Metals", Instrument: "Gold", Price: 2300, ChangePct: -0.4},
		{Sector: "Forex", Instrument: "USD/JPY", Price: 157.1, ChangePct: 0},
	}
	msg := FormatScannerDigest(rows, 2, time.Date(2024, 6, 14, 22, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"2024-06-14 22:00",
		"<b>Metals</b>",
		"🟢 Copper: 4.50 (+1.25%)",
		"🔴 Gold: 2,300.00 (-0.40%)",
		"USD/JPY: 157.10 (+0.00%)",
		"2 instruments without data",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}
	if strings.Count(msg, "<b>Metals</b>") != 1 {
		t.Error("sector header should appear once")
	}
}

func TestFormatScannerDigestEmpty(t *testing.T) {
	msg := FormatScannerDigest(nil, 0, time.Now())
	if !strings.Contains(msg, "No market data") {
		t.Errorf("empty digest = %q", msg)
	}
}

func TestFormatQuote(t *testing.T) {
	ch := model.Change{Latest: 110, Previous: 100, ChangePct: 10}
	msg := FormatQuote("Gold", "GC=F", ch, null.FloatFrom(100), 50)
	if !strings.Contains(msg, "MA50: 100.00 (+10.00%)") {
		t.Errorf("quote missing MA deviation:\n%s", msg)
	}

	msg = FormatQuote("Gold", "GC=F", ch, null.Float{}, 200)
	if !strings.Contains(msg, "MA200: not enough history") {
		t.Errorf("quote missing MA notice:\n%s", msg)
	}
}

func TestFormatSourcing(t *testing.T) {
	cat := catalog.Default()

	msg := FormatSourcing(cat.Sourcing("Copper"))
	if !strings.Contains(msg, "Chile") || strings.Contains(msg, "Not yet indexed") {
		t.Errorf("indexed sourcing:\n%s", msg)
	}

	msg = FormatSourcing(cat.Sourcing("Cocoa"))
	if !strings.Contains(msg, "Not yet indexed") || !strings.Contains(msg, "Global Spot Market") {
		t.Errorf("fallback sourcing:\n%s", msg)
	}
}

func TestFormatErrorEscapes(t *testing.T) {
	msg := FormatError("scan", errors.New("bad <tag>"))
	if !strings.Contains(msg, "bad &lt;tag&gt;") {
		t.Errorf("error not escaped: %q", msg)
	}
}
