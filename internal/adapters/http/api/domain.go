package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/okian/turforacle/internal/domain/cascade"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/domain/xfactor"
)

type cascadeRequest struct {
	Event     model.CascadeEvent    `json:"event"`
	Offspring []model.TokenID       `json:"offspring"`
	SexMap    model.OffspringSexMap `json:"sexMap"`
}

type cascadeResponse struct {
	Adjustments []model.OffspringAdjustment `json:"adjustments"`
}

// handleCascade handles POST /v1/cascade.
func (s *Server) handleCascade(w http.ResponseWriter, r *http.Request) {
	var req cascadeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	adj := cascade.Apply(req.Event, req.Offspring, req.SexMap)
	if adj == nil {
		adj = []model.OffspringAdjustment{}
	}
	writeJSON(w, http.StatusOK, cascadeResponse{Adjustments: adj})
}

// handleListInjuries handles GET /v1/injuries.
func (s *Server) handleListInjuries(w http.ResponseWriter, _ *http.Request) {
	codes := s.catalog.Codes()
	out := make([]injury.Classification, 0, len(codes))
	for _, code := range codes {
		c, _ := s.catalog.Classify(code)
		out = append(out, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"injuries": out})
}

// handleGetInjury handles GET /v1/injuries/{code}.
func (s *Server) handleGetInjury(w http.ResponseWriter, r *http.Request) {
	c, ok := s.catalog.Classify(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_injury", nil)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type applyInjuryRequest struct {
	Value float64 `json:"value"`
	Code  string  `json:"code"`
}

// handleApplyInjury handles POST /v1/injuries/apply.
func (s *Server) handleApplyInjury(w http.ResponseWriter, r *http.Request) {
	var req applyInjuryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	adj, ok := s.catalog.Apply(req.Value, req.Code)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_injury", nil)
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

type xfactorRequest struct {
	TargetID string               `json:"targetId"`
	Pedigree []model.PedigreeNode `json:"pedigree"`
	MaxDepth int                  `json:"maxDepth,omitempty"`
}

// handleXFactor handles POST /v1/xfactor.
func (s *Server) handleXFactor(w http.ResponseWriter, r *http.Request) {
	var req xfactorRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("targetId is required"))
		return
	}
	depth := req.MaxDepth
	if depth == 0 {
		depth = s.maxXFactorDepth
	}
	if depth < 0 || depth > s.maxXFactorDepth {
		writeError(w, http.StatusBadRequest, "invalid_depth",
			fmt.Errorf("maxDepth must be between 1 and %d", s.maxXFactorDepth))
		return
	}
	res := xfactor.Detect(req.TargetID, model.NewPedigree(req.Pedigree...), xfactor.WithMaxDepth(depth))
	writeJSON(w, http.StatusOK, res)
}

// handlePurse handles GET /v1/purse?gross=&placing=.
func (s *Server) handlePurse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gross, err := decimal.NewFromString(q.Get("gross"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("gross must be a decimal amount"))
		return
	}
	placing, err := strconv.Atoi(q.Get("placing"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("placing must be an integer"))
		return
	}
	b, err := s.distributor.Distribute(gross, placing)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
