package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	var names []string
	for _, s := range c.Sectors {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, ","); got != "Industrial Metals,Precious Metals,Agriculture,Forex" {
		t.Errorf("sectors = %s", got)
	}
	if n := len(c.Symbols()); n != 21 {
		t.Errorf("symbols = %d, want 21", n)
	}
	if got := c.MacroSymbols(); len(got) != 4 || got[3] != "^VIX" {
		t.Errorf("macro symbols = %v", got)
	}
	inst, ok := c.Lookup("Precious Metals", "Gold")
	if !ok || inst.Symbol != "GC=F" {
		t.Errorf("Lookup(Gold) = %+v, %v", inst, ok)
	}
	if _, ok := c.Lookup("Forex", "Gold"); ok {
		t.Error("Gold is not in Forex")
	}
}

func TestFind(t *testing.T) {
	c := Default()
	e, ok := c.Find("nickel (proxy)")
	if !ok || e.Sector != "Industrial Metals" || e.Instrument.Symbol != "VALE" {
		t.Errorf("Find = %+v, %v", e, ok)
	}
	if _, ok := c.Find("Unobtainium"); ok {
		t.Error("unknown instrument found")
	}
}

func TestSourcing(t *testing.T) {
	c := Default()

	v := c.Sourcing("Lithium (ETF)")
	if !v.Indexed || len(v.Records) != 5 || v.Records[0].Country != "Australia" {
		t.Errorf("lithium sourcing = %+v", v)
	}

	v = c.Sourcing("Cocoa")
	if v.Indexed {
		t.Error("Cocoa should not be indexed")
	}
	if len(v.Records) != 1 || v.Records[0] != FallbackSourcing {
		t.Errorf("fallback = %+v", v.Records)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no sectors", "macro: []", "no sectors"},
		{"empty instruments", "sectors: [{name: A, instruments: []}]", "no instruments"},
		{"duplicate instrument", "sectors: [{name: A, instruments: [{name: X, symbol: X1}, {name: X, symbol: X2}]}]", "duplicate instrument"},
		{"duplicate sector", "sectors: [{name: A, instruments: [{name: X, symbol: X1}]}, {name: A, instruments: [{name: Y, symbol: Y1}]}]", "duplicate sector"},
		{"missing symbol", "sectors: [{name: A, instruments: [{name: X}]}]", "name and symbol"},
		{"bad macro", "sectors: [{name: A, instruments: [{name: X, symbol: X1}]}]\nmacro: [{name: V}]", "macro"},
		{"bad yaml", "sectors: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSameNameInTwoSectors(t *testing.T) {
	c, err := Parse([]byte("sectors: [{name: A, instruments: [{name: X, symbol: X1}]}, {name: B, instruments: [{name: X, symbol: X2}]}]"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if inst, _ := c.Lookup("B", "X"); inst.Symbol != "X2" {
		t.Errorf("Lookup(B, X) = %+v", inst)
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || len(c.Sectors) != 4 {
		t.Fatalf("Load(\"\") = %v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "sectors:\n  - name: Energy\n    instruments:\n      - {name: WTI, symbol: CL=F}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Sectors[0].Name != "Energy" || len(c.Macro) != 0 {
		t.Errorf("catalog = %+v", c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
