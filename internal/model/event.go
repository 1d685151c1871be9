package model

import (
    "fmt"
    "time"
)

// Event represents a scheduled performance with a rectangular seat
// grid.  Events are provisioned once; the reservation core only reads
// them to validate seat references.
//
// Fields:
//  ID        - primary key identifier.
//  Title     - display title.
//  Date      - free-form date string shown to users.
//  Type      - event category (concert, theatre, ...).
//  Description/PosterPath - optional listing text and poster image.
//  Rows/Cols - dimensions of the seat grid.
//  CreatedAt - provisioning timestamp.
type Event struct {
    ID          int64     `json:"id" yaml:"id"`
    Title       string    `json:"title" yaml:"title"`
    Date        string    `json:"date" yaml:"date"`
    Type        string    `json:"type" yaml:"type"`
    Description string    `json:"description,omitempty" yaml:"description"`
    PosterPath  string    `json:"poster_path,omitempty" yaml:"poster_path"`
    Rows        int       `json:"rows" yaml:"rows"`
    Cols        int       `json:"cols" yaml:"cols"`
    CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// DefaultSeatPrice is used for rows that have no explicit price.
const DefaultSeatPrice int64 = 100000

// SeatLabel returns the seat id for a grid position, e.g. R3C12.
func SeatLabel(row, col int) string {
    return fmt.Sprintf("R%dC%d", row, col)
}

// Grid expands the event dimensions into its seats, all FREE.  Prices
// come from rowPrices keyed by 1-based row; missing rows use
// defaultPrice.
func (e Event) Grid(rowPrices map[int]int64, defaultPrice int64) []Seat {
    if defaultPrice <= 0 {
        defaultPrice = DefaultSeatPrice
    }
    seats := make([]Seat, 0, e.Rows*e.Cols)
    for r := 1; r <= e.Rows; r++ {
        price := defaultPrice
        if p, ok := rowPrices[r]; ok && p > 0 {
            price = p
        }
        for c := 1; c <= e.Cols; c++ {
            seats = append(seats, Seat{
                EventID: e.ID,
                SeatID:  SeatLabel(r, c),
                Row:     r,
                Col:     c,
                Status:  SeatFree,
                Price:   price,
            })
        }
    }
    return seats
}
