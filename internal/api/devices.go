package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aquasense/aquasense-core/internal/device"
)

// handleListDevices returns all registered devices, optionally filtered
// by ?location= and ?status= (true/false).
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var filter device.ListFilter
	if loc := r.URL.Query().Get("location"); loc != "" {
		filter.Location = &loc
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "status must be true or false")
			return
		}
		filter.Status = &status
	}

	devices, err := s.registry.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one device by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("fetching device failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to fetch device")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleRegisterDevice allocates the next free numeric device id.
// New field units call this once before their first status message.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	id, err := s.registry.AllocateID(r.Context())
	if err != nil {
		s.logger.Error("device id allocation failed", "error", err)
		writeInternalError(w, "failed to allocate device id")
		return
	}

	s.logger.Info("device id allocated", "device_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleUpdateDevice applies a partial profile update: location and
// enabled field flags. Absent members are left untouched.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var profile device.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.UpdateProfile(r.Context(), id, profile)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("profile update failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to update device")
		return
	}
	writeJSON(w, http.StatusOK, d)
}
