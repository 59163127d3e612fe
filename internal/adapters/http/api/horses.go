package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/pkg/logger"
)

const defaultTopLimit = 10

// handleRegisterHorse handles POST /v1/horses.
func (s *Server) handleRegisterHorse(w http.ResponseWriter, r *http.Request) {
	var h repository.Horse
	if err := decode(r, &h); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := s.deps.Register(r.Context(), h); err != nil {
		if errors.Is(err, repository.ErrInvalidValue) || errors.Is(err, repository.ErrSelfParent) {
			writeError(w, http.StatusBadRequest, "invalid_horse", err)
			return
		}
		s.logger.Error(r.Context(), "register failed", logger.Int("tokenId", int(h.TokenID)), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	stored, err := s.deps.Horse(r.Context(), h.TokenID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// handleGetHorse handles GET /v1/horses/{id}.
func (s *Server) handleGetHorse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	h, err := s.deps.Horse(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// handleTopHorses handles GET /v1/horses/top?limit=.
func (s *Server) handleTopHorses(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.maxTopLimit {
			writeError(w, http.StatusBadRequest, "invalid_limit", repository.ErrInvalidLimit)
			return
		}
		limit = n
	}
	entries, err := s.deps.TopN(r.Context(), limit)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"horses": entries, "count": len(entries)})
}

// handleHorseRank handles GET /v1/horses/{id}/rank.
func (s *Server) handleHorseRank(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	e, err := s.deps.Rank(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleHorseXFactor handles GET /v1/horses/{id}/xfactor.
func (s *Server) handleHorseXFactor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTokenID(w, r)
	if !ok {
		return
	}
	res, err := s.deps.XFactor(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func pathTokenID(w http.ResponseWriter, r *http.Request) (model.TokenID, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token_id", errors.New("token id must be an unsigned integer"))
		return 0, false
	}
	return model.TokenID(id), true
}

func (s *Server) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "invalid_limit", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
