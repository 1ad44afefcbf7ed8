package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// Change is the latest close compared with the prior valid close.
type Change struct {
	Latest    float64 `json:"latest"`
	Previous  float64 `json:"previous"`
	ChangePct float64 `json:"change_pct"`
}

// MarshalJSON writes non-finite values, such as the change from a zero
// previous close, as null.
func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.encoded())
}

type changeJSON struct {
	Latest    null.Float `json:"latest"`
	Previous  null.Float `json:"previous"`
	ChangePct null.Float `json:"change_pct"`
}

func (c Change) encoded() changeJSON {
	return changeJSON{
		Latest:    Finite(c.Latest),
		Previous:  Finite(c.Previous),
		ChangePct: Finite(c.ChangePct),
	}
}

// Finite wraps v, leaving it null when it is NaN or infinite.
func Finite(v float64) null.Float {
	return null.NewFloat(v, !math.IsNaN(v) && !math.IsInf(v, 0))
}

// MAPoint is one defined point of a moving-average overlay.
type MAPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ScannerRow is one line of the market scanner.
type ScannerRow struct {
	Sector     string  `json:"sector"`
	Instrument string  `json:"instrument"`
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	ChangePct  float64 `json:"change_pct"`
}

// MarshalJSON writes a non-finite price or change as null.
func (r ScannerRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Sector     string     `json:"sector"`
		Instrument string     `json:"instrument"`
		Symbol     string     `json:"symbol"`
		Price      null.Float `json:"price"`
		ChangePct  null.Float `json:"change_pct"`
	}{r.Sector, r.Instrument, r.Symbol, Finite(r.Price), Finite(r.ChangePct)})
}

// MacroTick is a side-panel macro indicator reading.
type MacroTick struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Change
}

// MarshalJSON flattens the embedded Change next to the name and symbol.
func (m MacroTick) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
		changeJSON
	}{m.Name, m.Symbol, m.Change.encoded()})
}

// SourcingRecord is one strategic sourcing hub for an instrument.
type SourcingRecord struct {
	Country string `yaml:"country" json:"country"`
	Tag     string `yaml:"tag" json:"tag,omitempty"`
	Note    string `yaml:"note" json:"note"`
}
