package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/shumpiss/pinlog/internal/domain"
	"github.com/shumpiss/pinlog/internal/repo"
)

// LocationImport is the outcome of checking an import document. Exactly one of
// Locations (on success) or Problems (on failure) is meaningful.
type LocationImport struct {
	Locations []domain.Location
	Problems  []string
}

// OK reports whether the document passed every check.
func (r LocationImport) OK() bool { return len(r.Problems) == 0 }

// PinImport is the pin counterpart of LocationImport.
type PinImport struct {
	Pins     []domain.Pin
	Problems []string
}

// OK reports whether the document passed every check.
func (r PinImport) OK() bool { return len(r.Problems) == 0 }

// Pointer fields distinguish "missing" from "zero" so required fields can be
// reported by name.
type importLocation struct {
	ID        *string           `json:"id"`
	Lat       *float64          `json:"lat"`
	Lng       *float64          `json:"lng"`
	Name      *string           `json:"name"`
	Address   string            `json:"address"`
	CreatedAt *string           `json:"createdAt"`
	Instances *[]importInstance `json:"instances"`
}

type importInstance struct {
	ID          *string  `json:"id"`
	LocationID  *string  `json:"locationId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Types       []string `json:"types"`
	CreatedAt   *string  `json:"createdAt"`
}

type importPin struct {
	ID          *string  `json:"id"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Title       *string  `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Types       []string `json:"types"`
	CreatedAt   *string  `json:"createdAt"`
}

// problems accumulates human-readable findings with a path prefix.
type problems []string

func (p *problems) add(path, format string, args ...any) {
	*p = append(*p, path+": "+fmt.Sprintf(format, args...))
}

// fieldSet holds the exact key spellings a record may carry.
type fieldSet map[string]bool

func newFieldSet(names ...string) fieldSet {
	fs := make(fieldSet, len(names))
	for _, n := range names {
		fs[n] = true
	}
	return fs
}

var (
	locationFields = newFieldSet("id", "lat", "lng", "name", "address", "createdAt", "instances")
	instanceFields = newFieldSet("id", "locationId", "title", "description", "types", "createdAt")
	pinFields      = newFieldSet("id", "lat", "lng", "title", "description", "type", "types", "createdAt")
)

// checkKeys reports every key of rec that is not spelled exactly like a known
// field. encoding/json folds case when matching keys, so "NAME" would
// otherwise fill Name.
func (p *problems) checkKeys(path string, rec map[string]json.RawMessage, known fieldSet) {
	for _, k := range slices.Sorted(maps.Keys(rec)) {
		if !known[k] {
			p.add(path, "unknown field %q", k)
		}
	}
}

// locationKeyProblems checks key spelling on every location and instance.
// Documents that are not arrays of objects are left to the typed decode.
func locationKeyProblems(data string) problems {
	var recs []map[string]json.RawMessage
	if json.Unmarshal([]byte(data), &recs) != nil {
		return nil
	}
	var probs problems
	for i, rec := range recs {
		path := fmt.Sprintf("locations[%d]", i)
		probs.checkKeys(path, rec, locationFields)
		var insts []map[string]json.RawMessage
		if raw, ok := rec["instances"]; ok && json.Unmarshal(raw, &insts) == nil {
			for j, inst := range insts {
				probs.checkKeys(fmt.Sprintf("%s.instances[%d]", path, j), inst, instanceFields)
			}
		}
	}
	return probs
}

// pinKeyProblems checks key spelling on every pin.
func pinKeyProblems(data string) problems {
	var recs []map[string]json.RawMessage
	if json.Unmarshal([]byte(data), &recs) != nil {
		return nil
	}
	var probs problems
	for i, rec := range recs {
		probs.checkKeys(fmt.Sprintf("pins[%d]", i), rec, pinFields)
	}
	return probs
}

// decodeStrict decodes a single JSON document into v, rejecting unknown
// fields and trailing data.
func decodeStrict(data string, v any) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after the top-level value")
	}
	return nil
}

// CheckLocationImport decodes and validates an exported location document
// without touching storage.
func CheckLocationImport(data string) LocationImport {
	if probs := locationKeyProblems(data); len(probs) > 0 {
		return LocationImport{Problems: probs}
	}
	var raw []importLocation
	if err := decodeStrict(data, &raw); err != nil {
		return LocationImport{Problems: []string{"document: " + err.Error()}}
	}
	if raw == nil {
		return LocationImport{Problems: []string{"document: expected an array of locations"}}
	}

	var probs problems
	locs := make([]domain.Location, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, rl := range raw {
		path := fmt.Sprintf("locations[%d]", i)
		loc := domain.Location{Address: domain.NormalizeText(rl.Address)}

		switch {
		case rl.ID == nil || strings.TrimSpace(*rl.ID) == "":
			probs.add(path+".id", "required")
		case seen[*rl.ID]:
			probs.add(path+".id", "duplicate id %q", *rl.ID)
		default:
			loc.ID = *rl.ID
			seen[loc.ID] = true
		}

		if rl.Name == nil {
			probs.add(path+".name", "required")
		} else if loc.Name = domain.NormalizeText(*rl.Name); !domain.ValidName(loc.Name) {
			probs.add(path+".name", "must be 1-%d characters", domain.MaxTitleLength)
		}

		if rl.Lat == nil || rl.Lng == nil {
			probs.add(path, "lat and lng are required")
		} else {
			loc.Lat, loc.Lng = *rl.Lat, *rl.Lng
			if !loc.Coordinates().Valid() {
				probs.add(path, "coordinates out of range (%g, %g)", loc.Lat, loc.Lng)
			}
		}

		if rl.CreatedAt == nil {
			probs.add(path+".createdAt", "required")
		} else if t, err := repo.ParseTime(*rl.CreatedAt); err != nil {
			probs.add(path+".createdAt", "not a timestamp: %q", *rl.CreatedAt)
		} else {
			loc.CreatedAt = t
		}

		if rl.Instances == nil {
			probs.add(path+".instances", "required")
			locs = append(locs, loc)
			continue
		}
		loc.Instances = make([]domain.Instance, 0, len(*rl.Instances))
		seenInst := make(map[string]bool, len(*rl.Instances))
		for j, ri := range *rl.Instances {
			ipath := fmt.Sprintf("%s.instances[%d]", path, j)
			in := domain.Instance{
				Title:       domain.NormalizeText(ri.Title),
				Description: domain.NormalizeText(ri.Description),
			}
			switch {
			case ri.ID == nil || strings.TrimSpace(*ri.ID) == "":
				probs.add(ipath+".id", "required")
			case seenInst[*ri.ID]:
				probs.add(ipath+".id", "duplicate id %q", *ri.ID)
			default:
				in.ID = *ri.ID
				seenInst[in.ID] = true
			}
			if ri.LocationID == nil || *ri.LocationID != loc.ID {
				probs.add(ipath+".locationId", "must equal the owning location id %q", loc.ID)
			} else {
				in.LocationID = *ri.LocationID
			}
			in.Types = make([]domain.PinType, len(ri.Types))
			for k, t := range ri.Types {
				in.Types[k] = domain.PinType(t)
			}
			if !domain.ValidTypes(in.Types) {
				probs.add(ipath+".types", "at least one of %v required", domain.AllPinTypes())
			}
			if !domain.ValidDescription(in.Description) {
				probs.add(ipath+".description", "longer than %d characters", domain.MaxDescriptionLength)
			}
			if ri.CreatedAt == nil {
				probs.add(ipath+".createdAt", "required")
			} else if t, err := repo.ParseTime(*ri.CreatedAt); err != nil {
				probs.add(ipath+".createdAt", "not a timestamp: %q", *ri.CreatedAt)
			} else {
				in.CreatedAt = t
			}
			loc.Instances = append(loc.Instances, in)
		}
		locs = append(locs, loc)
	}

	if len(probs) > 0 {
		return LocationImport{Problems: probs}
	}
	return LocationImport{Locations: locs}
}

// CheckPinImport decodes and validates an exported pin document.
func CheckPinImport(data string) PinImport {
	if probs := pinKeyProblems(data); len(probs) > 0 {
		return PinImport{Problems: probs}
	}
	var raw []importPin
	if err := decodeStrict(data, &raw); err != nil {
		return PinImport{Problems: []string{"document: " + err.Error()}}
	}
	if raw == nil {
		return PinImport{Problems: []string{"document: expected an array of pins"}}
	}

	var probs problems
	pins := make([]domain.Pin, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, rp := range raw {
		path := fmt.Sprintf("pins[%d]", i)
		p := domain.Pin{Description: domain.NormalizeText(rp.Description)}

		switch {
		case rp.ID == nil || strings.TrimSpace(*rp.ID) == "":
			probs.add(path+".id", "required")
		case seen[*rp.ID]:
			probs.add(path+".id", "duplicate id %q", *rp.ID)
		default:
			p.ID = *rp.ID
			seen[p.ID] = true
		}
		if rp.Title == nil {
			probs.add(path+".title", "required")
		} else if p.Title = domain.NormalizeText(*rp.Title); !domain.ValidName(p.Title) {
			probs.add(path+".title", "must be 1-%d characters", domain.MaxTitleLength)
		}
		if !domain.ValidDescription(p.Description) {
			probs.add(path+".description", "longer than %d characters", domain.MaxDescriptionLength)
		}
		if rp.Lat == nil || rp.Lng == nil {
			probs.add(path, "lat and lng are required")
		} else {
			p.Lat, p.Lng = *rp.Lat, *rp.Lng
			if !(domain.Coordinates{Lat: p.Lat, Lng: p.Lng}).Valid() {
				probs.add(path, "coordinates out of range (%g, %g)", p.Lat, p.Lng)
			}
		}
		if typ, types, ok := resolvePinTypes(rp.Type, rp.Types); ok {
			p.Type, p.Types = typ, types
		} else {
			probs.add(path+".type", "must be one of %v", domain.AllPinTypes())
		}
		if rp.CreatedAt == nil {
			probs.add(path+".createdAt", "required")
		} else if t, err := repo.ParseTime(*rp.CreatedAt); err != nil {
			probs.add(path+".createdAt", "not a timestamp: %q", *rp.CreatedAt)
		} else {
			p.CreatedAt = t
		}
		pins = append(pins, p)
	}

	if len(probs) > 0 {
		return PinImport{Problems: probs}
	}
	return PinImport{Pins: pins}
}
