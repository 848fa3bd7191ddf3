// Package repo persists whole-list snapshots of locations and legacy pins.
// Each list lives under one item-store key as a single JSON array; every save
// replaces the array in one write. No business logic lives here, only
// serialization and storage-error mapping.
package repo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shumpiss/pinlog/internal/domain"
)

// Storage keys. These names are shared with exported files and must not change.
const (
	LocationsKey = "map-locations"
	PinsKey      = "map-pins"
	VersionKey   = "map-storage-version"
)

// timeLayout is ISO-8601 UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z"

// storedLocation is the on-disk shape of a location. Dates are strings so the
// format is pinned independently of time.Time's default marshaling.
type storedLocation struct {
	ID        string           `json:"id"`
	Lat       float64          `json:"lat"`
	Lng       float64          `json:"lng"`
	Name      string           `json:"name"`
	Address   string           `json:"address,omitempty"`
	CreatedAt string           `json:"createdAt"`
	Instances []storedInstance `json:"instances"`
}

type storedInstance struct {
	ID          string   `json:"id"`
	LocationID  string   `json:"locationId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Types       []string `json:"types"`
	CreatedAt   string   `json:"createdAt"`
}

type storedPin struct {
	ID          string   `json:"id"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Types       []string `json:"types,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// FormatTime renders t the way snapshots store it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime accepts any RFC 3339 timestamp, with or without fractional seconds.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// EncodeLocations serializes locs as a JSON array. pretty selects two-space
// indentation, which is the export format.
func EncodeLocations(locs []domain.Location, pretty bool) (string, error) {
	out := make([]storedLocation, len(locs))
	for i, l := range locs {
		sl := storedLocation{
			ID:        l.ID,
			Lat:       l.Lat,
			Lng:       l.Lng,
			Name:      l.Name,
			Address:   l.Address,
			CreatedAt: FormatTime(l.CreatedAt),
			Instances: make([]storedInstance, len(l.Instances)),
		}
		for j, in := range l.Instances {
			types := make([]string, len(in.Types))
			for k, t := range in.Types {
				types[k] = string(t)
			}
			sl.Instances[j] = storedInstance{
				ID:          in.ID,
				LocationID:  in.LocationID,
				Title:       in.Title,
				Description: in.Description,
				Types:       types,
				CreatedAt:   FormatTime(in.CreatedAt),
			}
		}
		out[i] = sl
	}
	return marshal(out, pretty)
}

// DecodeLocations parses a JSON array produced by EncodeLocations.
// Missing instance lists decode as empty, never nil.
func DecodeLocations(data string) ([]domain.Location, error) {
	var in []storedLocation
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	locs := make([]domain.Location, len(in))
	for i, sl := range in {
		created, err := ParseTime(sl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode locations: location %q createdAt: %w", sl.ID, err)
		}
		l := domain.Location{
			ID:        sl.ID,
			Lat:       sl.Lat,
			Lng:       sl.Lng,
			Name:      sl.Name,
			Address:   sl.Address,
			CreatedAt: created,
			Instances: make([]domain.Instance, len(sl.Instances)),
		}
		for j, si := range sl.Instances {
			ic, err := ParseTime(si.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("decode locations: instance %q createdAt: %w", si.ID, err)
			}
			types := make([]domain.PinType, len(si.Types))
			for k, t := range si.Types {
				types[k] = domain.PinType(t)
			}
			l.Instances[j] = domain.Instance{
				ID:          si.ID,
				LocationID:  si.LocationID,
				Title:       si.Title,
				Description: si.Description,
				Types:       types,
				CreatedAt:   ic,
			}
		}
		locs[i] = l
	}
	return locs, nil
}

// EncodePins serializes legacy pins as a JSON array.
func EncodePins(pins []domain.Pin, pretty bool) (string, error) {
	out := make([]storedPin, len(pins))
	for i, p := range pins {
		out[i] = storedPin{
			ID:          p.ID,
			Lat:         p.Lat,
			Lng:         p.Lng,
			Title:       p.Title,
			Description: p.Description,
			Type:        p.Type,
			Types:       p.Types,
			CreatedAt:   FormatTime(p.CreatedAt),
		}
	}
	return marshal(out, pretty)
}

// DecodePins parses a JSON array produced by EncodePins.
func DecodePins(data string) ([]domain.Pin, error) {
	var in []storedPin
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return nil, fmt.Errorf("decode pins: %w", err)
	}
	pins := make([]domain.Pin, len(in))
	for i, sp := range in {
		created, err := ParseTime(sp.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode pins: pin %q createdAt: %w", sp.ID, err)
		}
		pins[i] = domain.Pin{
			ID:          sp.ID,
			Lat:         sp.Lat,
			Lng:         sp.Lng,
			Title:       sp.Title,
			Description: sp.Description,
			Type:        sp.Type,
			Types:       sp.Types,
			CreatedAt:   created,
		}
	}
	return pins, nil
}

func marshal(v any, pretty bool) (string, error) {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
