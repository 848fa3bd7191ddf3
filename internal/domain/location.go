// Package domain contains the core data types for the pinlog application.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import "time"

// Field limits shared by locations, instances and legacy pins.
// Lengths are counted in runes after trimming surrounding whitespace.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// StorageVersion is the single schema marker written alongside every snapshot.
const StorageVersion = 1

// Location is a geocoded point with a user-given name.
// A location is the top-level aggregate; instances belong to exactly one location
// and are deleted with it.
type Location struct {
	ID        string     `json:"id"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Name      string     `json:"name"`
	Address   string     `json:"address,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Instances []Instance `json:"instances"`
}

// Instance is a timestamped, categorized event recorded at a location.
// LocationID is a lookup key back to the owning location, not an ownership link.
type Instance struct {
	ID          string    `json:"id"`
	LocationID  string    `json:"locationId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Types       []PinType `json:"types"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LocationInput is what a caller supplies to create a location (typically a map click).
type LocationInput struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
}

// InstanceInput is what a caller supplies to record an instance at a location.
type InstanceInput struct {
	LocationID  string    `json:"locationId"`
	Title       string    `json:"title"`
	Types       []PinType `json:"types"`
	Description string    `json:"description,omitempty"`
}

// InstanceRef pairs an instance with the location that owns it.
type InstanceRef struct {
	Location Location `json:"location"`
	Instance Instance `json:"instance"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the pair lies within lat [-90,90] and lng [-180,180].
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Coordinates returns the location's point.
func (l Location) Coordinates() Coordinates {
	return Coordinates{Lat: l.Lat, Lng: l.Lng}
}

// InstanceCount returns the total number of instances across locs.
func InstanceCount(locs []Location) int {
	n := 0
	for _, l := range locs {
		n += len(l.Instances)
	}
	return n
}
