package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"TradeTerminal/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the read-only instrument configuration: the sector tree, the
// macro vitals and the static sourcing knowledge base.
type Catalog struct {
	Sectors   []model.Sector                    `yaml:"sectors"`
	Macro     []model.Instrument                `yaml:"macro"`
	Knowledge map[string][]model.SourcingRecord `yaml:"sourcing"`
}

// Entry is an instrument together with its sector name.
type Entry struct {
	Sector     string
	Instrument model.Instrument
}

// SourcingView is the sourcing lookup result for one instrument.
type SourcingView struct {
	Instrument string                 `json:"instrument"`
	Indexed    bool                   `json:"indexed"`
	Records    []model.SourcingRecord `json:"records"`
}

// FallbackSourcing is served for instruments missing from the knowledge base.
var FallbackSourcing = model.SourcingRecord{
	Country: "Global Spot Market",
	Note:    "Most liquid sourcing is via major exchanges (LME, COMEX, CBOT).",
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks names and symbols; instrument names must be unique within a sector.
func (c *Catalog) Validate() error {
	if len(c.Sectors) == 0 {
		return fmt.Errorf("catalog has no sectors")
	}
	seenSector := make(map[string]bool)
	for _, s := range c.Sectors {
		if s.Name == "" {
			return fmt.Errorf("sector with empty name")
		}
		if seenSector[s.Name] {
			return fmt.Errorf("duplicate sector %q", s.Name)
		}
		seenSector[s.Name] = true
		if len(s.Instruments) == 0 {
			return fmt.Errorf("sector %q has no instruments", s.Name)
		}
		seen := make(map[string]bool)
		for _, inst := range s.Instruments {
			if inst.Name == "" || inst.Symbol == "" {
				return fmt.Errorf("sector %q: instrument needs name and symbol", s.Name)
			}
			if seen[inst.Name] {
				return fmt.Errorf("sector %q: duplicate instrument %q", s.Name, inst.Name)
			}
			seen[inst.Name] = true
		}
	}
	for _, m := range c.Macro {
		if m.Name == "" || m.Symbol == "" {
			return fmt.Errorf("macro vital needs name and symbol")
		}
	}
	return nil
}

// Entries flattens the sector tree in declaration order.
func (c *Catalog) Entries() []Entry {
	var out []Entry
	for _, s := range c.Sectors {
		for _, inst := range s.Instruments {
			out = append(out, Entry{Sector: s.Name, Instrument: inst})
		}
	}
	return out
}

// Symbols lists every instrument symbol once, in declaration order.
func (c *Catalog) Symbols() []string {
	return uniqueSymbols(c.Entries())
}

// MacroSymbols lists the macro vital symbols in declaration order.
func (c *Catalog) MacroSymbols() []string {
	var entries []Entry
	for _, m := range c.Macro {
		entries = append(entries, Entry{Instrument: m})
	}
	return uniqueSymbols(entries)
}

func uniqueSymbols(entries []Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if seen[e.Instrument.Symbol] {
			continue
		}
		seen[e.Instrument.Symbol] = true
		out = append(out, e.Instrument.Symbol)
	}
	return out
}

// Sector returns the named sector.
func (c *Catalog) Sector(name string) (model.Sector, bool) {
	for _, s := range c.Sectors {
		if s.Name == name {
			return s, true
		}
	}
	return model.Sector{}, false
}

// Lookup returns the instrument named name inside sector.
func (c *Catalog) Lookup(sector, name string) (model.Instrument, bool) {
	s, ok := c.Sector(sector)
	if !ok {
		return model.Instrument{}, false
	}
	for _, inst := range s.Instruments {
		if inst.Name == name {
			return inst, true
		}
	}
	return model.Instrument{}, false
}

// Find searches every sector for an instrument, ignoring case. The first
// match in declaration order wins.
func (c *Catalog) Find(name string) (Entry, bool) {
	for _, e := range c.Entries() {
		if strings.EqualFold(e.Instrument.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Sourcing returns the sourcing hubs for an instrument, or the generic spot
// market record when the knowledge base has none.
func (c *Catalog) Sourcing(name string) SourcingView {
	if recs, ok := c.Knowledge[name]; ok && len(recs) > 0 {
		return SourcingView{Instrument: name, Indexed: true, Records: recs}
	}
	return SourcingView{Instrument: name, Records: []model.SourcingRecord{FallbackSourcing}}
}
