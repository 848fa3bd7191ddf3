package handler

import (
	"net/http"

	"github.com/shumpiss/pinlog/internal/domain"
)

// ListLocations handles GET /locations.
// Locations are returned in snapshot order. Supports ?page= and ?limit=.
func (s *Server) ListLocations(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	locs, err := s.locations.LoadLocations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paginate(locs, params))
}

// CreateLocation handles POST /locations.
func (s *Server) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var in domain.LocationInput
	if err := decodeJSON(r, &in); err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	created, err := s.locations.AddLocation(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetLocation handles GET /locations/{locationId}.
func (s *Server) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "locationId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	loc, found, err := s.locations.GetLocationByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, domain.NewError(domain.CodeLocationNotFound, "Location not found",
			map[string]any{"locationId": id}))
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// UpdateLocation handles PUT /locations/{locationId}.
// The body is a full location; omitted instances and createdAt keep their
// stored values.
func (s *Server) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "locationId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	var loc domain.Location
	if err := decodeJSON(r, &loc); err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	loc.ID = id

	updated, err := s.locations.UpdateLocation(r.Context(), loc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteLocation handles DELETE /locations/{locationId}.
// Deleting an unknown id succeeds.
func (s *Server) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "locationId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	if err := s.locations.DeleteLocation(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateInstance handles POST /locations/{locationId}/instances.
func (s *Server) CreateInstance(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathParam(r, "locationId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	var in domain.InstanceInput
	if err := decodeJSON(r, &in); err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	in.LocationID = locationID

	created, err := s.locations.AddInstance(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateInstance handles PUT /locations/{locationId}/instances/{instanceId}.
func (s *Server) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathParam(r, "locationId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	instanceID, err := pathParam(r, "instanceId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	var inst domain.Instance
	if err := decodeJSON(r, &inst); err != nil {
		writeRequestError(w, codeInvalidRequest, err)
		return
	}
	inst.ID = instanceID
	inst.LocationID = locationID

	updated, err := s.locations.UpdateInstance(r.Context(), inst)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteInstance handles DELETE /locations/{locationId}/instances/{instanceId}.
// Returns 404 when the location is unknown; an unknown instance succeeds.
func (s *Server) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathParam(r, "locationId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	instanceID, err := pathParam(r, "instanceId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	if err := s.locations.DeleteInstance(r.Context(), locationID, instanceID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInstances handles GET /instances?order=asc|desc.
// Every instance across all locations, newest first unless order=asc.
func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	ascending, err := ascendingParam(r)
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	instances, err := s.locations.GetInstancesByDate(r.Context(), ascending)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

// GetInstance handles GET /instances/{instanceId}.
// The response pairs the instance with its owning location.
func (s *Server) GetInstance(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "instanceId")
	if err != nil {
		writeRequestError(w, codeInvalidParam, err)
		return
	}
	ref, found, err := s.locations.GetInstanceByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, domain.NewError(domain.CodeInstanceNotFound, "Instance not found",
			map[string]any{"instanceId": id}))
		return
	}
	writeJSON(w, http.StatusOK, ref)
}
