package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aquasense/aquasense-core/internal/device"
	"github.com/aquasense/aquasense-core/internal/infrastructure/mqtt"
)

// resendPayload asks a field unit to publish its current readings now.
var resendPayload = []byte(`{"command":"resend"}`)

// handleResend publishes a resend command to one device. Fire and
// forget: the device replies on its normal sensor topics, or not at all.
func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.mqtt == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "command transport not connected")
		return
	}

	if _, err := s.registry.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("fetching device failed", "device_id", id, "error", err)
		writeInternalError(w, "failed to fetch device")
		return
	}

	topic := mqtt.Topics{}.DeviceCommand(id)
	if err := s.mqtt.Publish(topic, resendPayload, 1, false); err != nil {
		s.logger.Warn("resend command publish failed", "device_id", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "command publish failed")
		return
	}

	s.logger.Info("resend command sent", "device_id", id)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
