package domain

import "time"

// ExportRow is a single row in the flat (CSV) export.
// It is a denormalized view: one row per instance, with location fields repeated
// for every instance at that location. Locations with no instances yield one row
// with zero values for all instance fields.
type ExportRow struct {
	// Location fields, repeated for every instance at the location.
	LocationID        string
	LocationName      string
	LocationAddress   string
	Lat               float64
	Lng               float64
	LocationCreatedAt time.Time

	// Instance fields, zero values when the location has no instances.
	InstanceID          string
	InstanceTitle       string
	InstanceDescription string
	InstanceCreatedAt   *time.Time

	// Types of the instance in stored order.
	// Callers that need a joined string (e.g. CSV) should join with "|".
	Types []string
}

// FlattenLocations builds export rows in snapshot order.
func FlattenLocations(locs []Location) []ExportRow {
	rows := make([]ExportRow, 0, len(locs))
	for _, l := range locs {
		base := ExportRow{
			LocationID:        l.ID,
			LocationName:      l.Name,
			LocationAddress:   l.Address,
			Lat:               l.Lat,
			Lng:               l.Lng,
			LocationCreatedAt: l.CreatedAt,
		}
		if len(l.Instances) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, in := range l.Instances {
			row := base
			row.InstanceID = in.ID
			row.InstanceTitle = in.Title
			row.InstanceDescription = in.Description
			created := in.CreatedAt
			row.InstanceCreatedAt = &created
			row.Types = make([]string, len(in.Types))
			for i, t := range in.Types {
				row.Types[i] = string(t)
			}
			rows = append(rows, row)
		}
	}
	return rows
}
