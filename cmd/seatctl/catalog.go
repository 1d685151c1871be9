package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// catalog is the provisioning file read by "seatctl provision".
//
//	events:
//	  - id: 1
//	    title: Opening night
//	    date: 2026-11-02 20:00
//	    type: concert
//	    description: Season opener
//	    poster_path: posters/1.jpg
//	    rows: 10
//	    cols: 20
//	    default_price: 100000
//	    row_prices: {1: 250000, 2: 200000}
type catalog struct {
	Events []eventSpec `yaml:"events"`
}

type eventSpec struct {
	model.Event  `yaml:",inline"`
	DefaultPrice int64         `yaml:"default_price"`
	RowPrices    map[int]int64 `yaml:"row_prices"`
}

func loadCatalog(path string, maxPrice int64) (*catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseCatalog(raw, maxPrice)
}

// parseCatalog validates the file.  Every effective seat price must lie
// in 1..maxPrice, the same range SetPrice enforces later.
func parseCatalog(raw []byte, maxPrice int64) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Events) == 0 {
		return nil, fmt.Errorf("catalog has no events")
	}
	seen := make(map[int64]bool, len(c.Events))
	for i, ev := range c.Events {
		if ev.ID <= 0 || ev.Rows <= 0 || ev.Cols <= 0 {
			return nil, fmt.Errorf("event #%d: id, rows and cols must be positive", i+1)
		}
		if seen[ev.ID] {
			return nil, fmt.Errorf("event %d listed twice", ev.ID)
		}
		seen[ev.ID] = true
		if ev.DefaultPrice < 0 {
			return nil, fmt.Errorf("event %d: default_price must not be negative", ev.ID)
		}
		base := ev.DefaultPrice
		if base == 0 {
			base = model.DefaultSeatPrice
		}
		if base > maxPrice {
			return nil, fmt.Errorf("event %d: default price %d exceeds ceiling %d", ev.ID, base, maxPrice)
		}
		for row, p := range ev.RowPrices {
			if row < 1 || row > ev.Rows {
				return nil, fmt.Errorf("event %d: row_prices row %d outside 1..%d", ev.ID, row, ev.Rows)
			}
			if p <= 0 {
				return nil, fmt.Errorf("event %d: row %d price must be positive", ev.ID, row)
			}
			if p > maxPrice {
				return nil, fmt.Errorf("event %d: row %d price %d exceeds ceiling %d", ev.ID, row, p, maxPrice)
			}
		}
	}
	return &c, nil
}
