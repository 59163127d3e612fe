package api

import (
	"errors"
	"net/http"

	"github.com/okian/turforacle/internal/adapters/mq/queue"
	service "github.com/okian/turforacle/internal/app"
	"github.com/okian/turforacle/internal/domain/canonical"
	"github.com/okian/turforacle/internal/domain/dedupe"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/pkg/logger"
)

type ackResponse struct {
	Status    string `json:"status"`
	EventHash string `json:"eventHash"`
	Duplicate bool   `json:"duplicate"`
	RequestID string `json:"requestId"`
}

// handleSubmitEvent handles POST /v1/events.
func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	var e model.Event
	if err := decode(r, &e); err != nil {
		writeDecodeError(w, err)
		return
	}

	requestID := RequestIDFrom(r.Context())
	res, err := s.deps.Submit(r.Context(), e, requestID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err)
		return
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	case errors.Is(err, queue.ErrClosed), errors.Is(err, service.ErrNotStarted), errors.Is(err, dedupe.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	default:
		s.logger.Error(r.Context(), "submit failed", logger.String("requestID", requestID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventHash: res.EventHash, Duplicate: true, RequestID: requestID})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventHash: res.EventHash, RequestID: requestID})
}

// handleCanonicalize handles POST /v1/events/canonicalize.
func (s *Server) handleCanonicalize(w http.ResponseWriter, r *http.Request) {
	var e model.Event
	if err := decode(r, &e); err != nil {
		writeDecodeError(w, err)
		return
	}
	c, err := canonical.Commit(e)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type verifyRequest struct {
	Event model.Event `json:"event"`
	Hash  string      `json:"hash"`
}

type verifyResponse struct {
	Valid bool   `json:"valid"`
	Hash  string `json:"hash"`
}

// handleVerify handles POST /v1/events/verify.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	ok, err := canonical.Verify(req.Event, req.Hash)
	if err != nil {
		code := "bad_request"
		if errors.Is(err, model.ErrValidation) {
			code = "validation_failed"
		}
		writeError(w, http.StatusBadRequest, code, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: ok, Hash: req.Hash})
}
