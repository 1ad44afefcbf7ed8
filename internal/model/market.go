package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Instrument is a tracked asset: a display name plus the provider symbol.
type Instrument struct {
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// Sector groups instruments for display. Instruments keep declaration order.
type Sector struct {
	Name        string       `yaml:"name" json:"name"`
	Instruments []Instrument `yaml:"instruments" json:"instruments"`
}

// PriceBar represents one trading day. Close is always set on extracted bars;
// the other fields may be missing when the provider left the cell empty.
type PriceBar struct {
	Date   time.Time  `json:"date"`
	Open   null.Float `json:"open"`
	High   null.Float `json:"high"`
	Low    null.Float `json:"low"`
	Close  float64    `json:"close"`
	Volume null.Float `json:"volume"`
}
