package domain

import "time"

// Pin is the legacy flat record that predates the Location/Instance split.
// Type is the primary type kept for older snapshots; Types, when present,
// lists every type selected for the pin.
type Pin struct {
	ID          string    `json:"id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Types       []string  `json:"types,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PinInput is what a caller supplies to create a legacy pin.
type PinInput struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Types       []string `json:"types,omitempty"`
}

// DateGroup is one bucket of pins sharing a local calendar date ("2006-01-02").
type DateGroup struct {
	Date string `json:"date"`
	Pins []Pin  `json:"pins"`
}
