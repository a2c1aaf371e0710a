// Package api is the HTTP JSON facade over the rental engine. It maps
// engine results onto status codes: malformed submissions are 400,
// conflicts with existing commitments are 409, and accepted submissions
// are 201 with the persisted rows and a fee estimate.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"maru/internal/model"
	"maru/internal/service"
	"maru/internal/store"
)

// HTTPServer serves the rental API.
type HTTPServer struct {
	svc    *service.Service
	logger *zerolog.Logger
	mux    *http.ServeMux
}

// NewHTTPServer wires the routes.
func NewHTTPServer(svc *service.Service, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("/api/requests", s.handleRequests)
	s.mux.HandleFunc("/api/requests/validate", s.handleValidate)
	s.mux.HandleFunc("/api/requests/decide", s.handleDecide)
	s.mux.HandleFunc("/api/bundles", s.handleBundles)
	s.mux.HandleFunc("/api/discounts", s.handleDiscount)
	s.mux.HandleFunc("/api/schedules", s.handleSchedules)
	s.mux.HandleFunc("/api/blocks", s.handleBlocks)
	return s
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validationResponse is the refusal body: code is the representative
// issue code (BATCH_CONFLICT when a multi-session submission fails) and
// issues carries the full per-session list.
type validationResponse struct {
	Code   model.IssueCode `json:"code"`
	Issues []model.Issue   `json:"issues"`
}

// writeRefusal maps a failed validation onto 400/409.
func writeRefusal(w http.ResponseWriter, res *service.SubmitResult, batch bool) {
	issues := res.Validation.Issues
	code := model.CodeValidationError
	status := http.StatusBadRequest
	if len(issues) > 0 {
		code = issues[0].Code
	}
	for _, i := range issues {
		switch i.Code {
		case model.CodeConflict, model.CodeClassConflict, model.CodeBlocked:
			status = http.StatusConflict
		}
	}
	if batch && len(issues) > 0 {
		code = model.CodeBatchConflict
	}
	writeJSON(w, status, validationResponse{Code: code, Issues: issues})
}

func (s *HTTPServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submit(w, r, true)
	case http.MethodGet:
		s.listBundles(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	s.submit(w, r, false)
}

func (s *HTTPServer) submit(w http.ResponseWriter, r *http.Request, persist bool) {
	var in service.SubmitInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.ApplicantName == "" && persist {
		writeError(w, http.StatusBadRequest, "applicant_name is required")
		return
	}

	var (
		res *service.SubmitResult
		err error
	)
	if persist {
		res, err = s.svc.Submit(r.Context(), in)
	} else {
		res, err = s.svc.DryRun(r.Context(), in)
	}
	if errors.Is(err, service.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown room %q", in.RoomID))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("submission failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !res.Validation.OK {
		writeRefusal(w, res, len(in.Sessions) > 1 || in.StartDate != "")
		return
	}
	status := http.StatusOK
	if persist {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (s *HTTPServer) listBundles(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.Bundles(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list bundles failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bundles": views})
}

func (s *HTTPServer) handleBundles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	batchID := r.URL.Query().Get("batch_id")
	if batchID == "" {
		s.listBundles(w, r)
		return
	}
	view, err := s.svc.Bundle(r.Context(), batchID)
	if errors.Is(err, service.ErrBundleNotFound) {
		writeError(w, http.StatusNotFound, "bundle not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("load bundle failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DecideRequest is the staff decision body.
type DecideRequest struct {
	RequestID string              `json:"request_id"`
	Status    model.RequestStatus `json:"status"`
	Comment   string              `json:"comment,omitempty"`
}

func (s *HTTPServer) handleDecide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "request_id is required")
		return
	}

	err := s.svc.Decide(r.Context(), req.RequestID, req.Status, req.Comment)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "request not found")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.logger.Error().Err(err).Msg("decision failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// DiscountRequest attaches a discount to a bundle.
type DiscountRequest struct {
	BatchID string  `json:"batch_id"`
	Mode    string  `json:"mode"`
	RatePct float64 `json:"rate_pct,omitempty"`
	Amount  int64   `json:"amount_krw,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

func (s *HTTPServer) handleDiscount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	var req DiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	d := model.Discount{
		Mode:      model.DiscountMode(req.Mode),
		RatePct:   req.RatePct,
		AmountKRW: req.Amount,
		Reason:    req.Reason,
	}
	if d.Mode != model.DiscountRate && d.Mode != model.DiscountAmount {
		writeError(w, http.StatusBadRequest, `mode must be "rate" or "amount"`)
		return
	}

	err := s.svc.ApplyDiscount(r.Context(), req.BatchID, d)
	switch {
	case errors.Is(err, service.ErrBundleNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "bundle not found")
	case errors.Is(err, service.ErrGalleryDiscount):
		writeError(w, http.StatusBadRequest, "discounts do not apply to gallery requests")
	case err != nil:
		s.logger.Error().Err(err).Msg("discount failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
