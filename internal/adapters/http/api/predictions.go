package api

import (
	"errors"
	"net/http"

	"github.com/okian/turforacle/internal/adapters/ledger"
	"github.com/okian/turforacle/internal/domain/model"
)

// handleLogPrediction handles POST /v1/predictions.
func (s *Server) handleLogPrediction(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	var p ledger.Prediction
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	id, err := s.ledger.Log(r.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAgent):
			writeError(w, http.StatusBadRequest, "invalid_agent", err)
			return
		case errors.Is(err, ledger.ErrInvalidValue):
			writeError(w, http.StatusBadRequest, "invalid_value", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleListPredictions handles GET /v1/predictions.
func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	entries, err := s.ledger.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if entries == nil {
		entries = []model.PredictionEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": entries})
}

// handleAccuracy handles GET /v1/predictions/accuracy.
func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	acc, err := s.ledger.Accuracy(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

type resolveRequest struct {
	ActualValue *float64 `json:"actualValue"`
}

// handleResolvePrediction handles POST /v1/predictions/{id}/resolve.
func (s *Server) handleResolvePrediction(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	var req resolveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.ActualValue == nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("actualValue is required"))
		return
	}
	id := r.PathValue("id")
	found, err := s.ledger.Resolve(r.Context(), id, *req.ActualValue)
	switch {
	case errors.Is(err, ledger.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "already_resolved", err)
		return
	case errors.Is(err, ledger.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, "invalid_value", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	case !found:
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "resolved": true})
}

func (s *Server) requireLedger(w http.ResponseWriter) bool {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrNoLedger)
		return false
	}
	return true
}
