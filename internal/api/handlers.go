package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
	"github.com/wehrfritz/equilibrium-core/internal/irstore"
	"github.com/wehrfritz/equilibrium-core/internal/orchestrator"
	"github.com/wehrfritz/equilibrium-core/internal/queue"
	"github.com/wehrfritz/equilibrium-core/internal/state"
)

// handleStatus returns the hub's current state: active scene, tracked
// device attributes, and queue depth.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}

// handleActivateScene activates the named scene. The call returns once the
// transition macro has completed, so a 200 means the scene is live.
func (s *Server) handleActivateScene(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.controller.ActivateScene(r.Context(), name); err != nil {
		switch {
		case errors.Is(err, state.ErrSceneNotFound):
			writeNotFound(w, "scene not found: "+name)
		case errors.Is(err, queue.ErrQueueFull):
			writeError(w, http.StatusServiceUnavailable, "queue_full", "command queue is full")
		default:
			s.logger.Error("scene activation failed", "scene", name, "error", err)
			writeInternalError(w, "scene activation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scene":  name,
		"status": state.SceneActive,
	})
}

// handleDeactivateScene stops the active scene.
func (s *Server) handleDeactivateScene(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.DeactivateScene(r.Context()); err != nil {
		switch {
		case errors.Is(err, state.ErrNoActiveScene):
			writeConflict(w, "no scene is active")
		default:
			s.logger.Error("scene deactivation failed", "error", err)
			writeInternalError(w, "scene deactivation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": state.SceneInactive,
	})
}

// codeResponse is the JSON shape for a stored IR code. The raw timing
// sequence is omitted from list responses to keep payloads small.
type codeResponse struct {
	DeviceID  string           `json:"device_id"`
	Name      string           `json:"name"`
	Protocol  ircodec.Protocol `json:"protocol"`
	Pulses    int              `json:"pulses"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func toCodeResponse(c irstore.StoredCode) codeResponse {
	return codeResponse{
		DeviceID:  c.DeviceID,
		Name:      c.Name,
		Protocol:  c.Protocol,
		Pulses:    len(c.Sequence),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// handleListCodes returns every stored IR code.
func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.codes.List(r.Context())
	if err != nil {
		s.logger.Error("listing ir codes failed", "error", err)
		writeInternalError(w, "failed to list codes")
		return
	}

	out := make([]codeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toCodeResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"codes": out})
}

// handleListDeviceCodes returns the stored IR codes for one device.
func (s *Server) handleListDeviceCodes(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")

	codes, err := s.codes.ListByDevice(r.Context(), device)
	if err != nil {
		s.logger.Error("listing ir codes failed", "device", device, "error", err)
		writeInternalError(w, "failed to list codes")
		return
	}

	out := make([]codeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toCodeResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"device_id": device, "codes": out})
}

// handleDeleteCode removes a stored IR code.
func (s *Server) handleDeleteCode(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")
	name := chi.URLParam(r, "name")

	if err := s.codes.Delete(r.Context(), device, name); err != nil {
		if errors.Is(err, irstore.ErrCodeNotFound) {
			writeNotFound(w, "code not found")
			return
		}
		s.logger.Error("deleting ir code failed", "device", device, "name", name, "error", err)
		writeInternalError(w, "failed to delete code")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// recordRequest is the request body for POST /codes/record.
type recordRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

// handleRecordCode puts the hub into IR learn mode and blocks until a code
// is captured or the capture window times out.
func (s *Server) handleRecordCode(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" || req.Name == "" {
		writeBadRequest(w, "device_id and name are required")
		return
	}

	stored, err := s.controller.RecordIR(r.Context(), req.DeviceID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrRecordingBusy):
			writeConflict(w, "a recording is already in progress")
		default:
			s.logger.Error("ir learn failed", "device", req.DeviceID, "name", req.Name, "error", err)
			writeInternalError(w, "recording failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toCodeResponse(*stored))
}

// sendCodeRequest is the request body for POST /codes/send.
type sendCodeRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Repeat   int    `json:"repeat"`
}

// handleSendCode enqueues an IR transmission and waits for it to complete.
func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" || req.Name == "" {
		writeBadRequest(w, "device_id and name are required")
		return
	}

	handle, err := s.controller.SendIR(r.Context(), req.DeviceID, req.Name, req.Repeat)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}

	if err := handle.Wait(r.Context()); err != nil {
		s.logger.Warn("ir send failed", "device", req.DeviceID, "name", req.Name, "error", err)
		writeError(w, http.StatusBadGateway, "transmit_failed", "ir transmission failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"command_id": handle.ID()})
}

// sendKeyRequest is the request body for POST /keys.
type sendKeyRequest struct {
	Key    string `json:"key"`
	HoldMs int    `json:"hold_ms"`
}

// handleSendKey enqueues a BLE HID key press and waits for it to complete.
func (s *Server) handleSendKey(w http.ResponseWriter, r *http.Request) {
	var req sendKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Key == "" {
		writeBadRequest(w, "key is required")
		return
	}

	handle, err := s.controller.SendBLEKey(req.Key, time.Duration(req.HoldMs)*time.Millisecond)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}

	if err := handle.Wait(r.Context()); err != nil {
		s.logger.Warn("ble key failed", "key", req.Key, "error", err)
		writeError(w, http.StatusBadGateway, "transmit_failed", "ble key delivery failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"command_id": handle.ID()})
}

// pairingRequest is the request body for POST /pairing/confirm.
type pairingRequest struct {
	Accept bool `json:"accept"`
}

// handleConfirmPairing forwards the user's pairing decision to the BLE
// peripheral.
func (s *Server) handleConfirmPairing(w http.ResponseWriter, r *http.Request) {
	var req pairingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.controller.ConfirmPairing(req.Accept); err != nil {
		s.logger.Warn("pairing confirmation failed", "error", err)
		writeConflict(w, "no pairing request pending")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"accepted": req.Accept})
}

// writeDispatchError maps enqueue failures to HTTP responses.
func (s *Server) writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, irstore.ErrCodeNotFound):
		writeNotFound(w, "code not found")
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, "queue_full", "command queue is full")
	case errors.Is(err, queue.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting_down", "hub is shutting down")
	default:
		s.logger.Error("command dispatch failed", "error", err)
		writeInternalError(w, "command dispatch failed")
	}
}
