package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"maru/internal/model"
	"maru/internal/service"
	"maru/internal/store"
)

func (s *HTTPServer) handleSchedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		schedules, err := s.svc.Schedules(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("list schedules failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schedules": schedules})

	case http.MethodPost:
		var sched model.ClassSchedule
		if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := s.svc.CreateSchedule(r.Context(), sched)
		if err != nil {
			s.writeAdminError(w, err, "create schedule")
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		if err := s.svc.DeleteSchedule(r.Context(), id); err != nil {
			s.writeAdminError(w, err, "delete schedule")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBlocks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		blocks, err := s.svc.Blocks(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("list blocks failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})

	case http.MethodPost:
		var block model.BlockedSlot
		if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := s.svc.CreateBlock(r.Context(), block)
		if err != nil {
			s.writeAdminError(w, err, "create block")
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		if err := s.svc.DeleteBlock(r.Context(), id); err != nil {
			s.writeAdminError(w, err, "delete block")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) writeAdminError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "unknown room")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg(op + " failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
