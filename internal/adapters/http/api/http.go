// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/turforacle/internal/adapters/ledger"
	"github.com/okian/turforacle/internal/adapters/repository"
	service "github.com/okian/turforacle/internal/app"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/internal/domain/purse"
	"github.com/okian/turforacle/internal/domain/xfactor"
	"github.com/okian/turforacle/pkg/logger"
	"github.com/okian/turforacle/pkg/metrics"
)

const (
	defaultMaxTopLimit = 100
	maxBodyBytes       = 1 << 20
)

// Dependencies required by HTTP handlers. The oracle service implements it.
type Dependencies interface {
	// Submit validates, commits and queues an event.
	Submit(ctx context.Context, e model.Event, requestID string) (service.SubmitResult, error)

	Register(ctx context.Context, h repository.Horse) error
	Horse(ctx context.Context, id model.TokenID) (repository.Horse, error)
	TopN(ctx context.Context, n int) ([]repository.Entry, error)
	Rank(ctx context.Context, id model.TokenID) (repository.Entry, error)
	XFactor(ctx context.Context, id model.TokenID) (xfactor.Result, error)

	Stats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the oracle API.
type Server struct {
	deps            Dependencies
	ledger          ledger.Ledger
	distributor     *purse.Distributor
	catalog         *injury.Catalog
	maxTopLimit     int
	maxXFactorDepth int
	logger          logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:            deps,
		distributor:     purse.NewDistributor(),
		catalog:         injury.Default(),
		maxTopLimit:     defaultMaxTopLimit,
		maxXFactorDepth: xfactor.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestID(MetricsMiddleware(h, endpoint)))
	}

	route("GET /healthz", "healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	route("POST /v1/events", "events", s.handleSubmitEvent)
	route("POST /v1/events/canonicalize", "events_canonicalize", s.handleCanonicalize)
	route("POST /v1/events/verify", "events_verify", s.handleVerify)

	route("POST /v1/cascade", "cascade", s.handleCascade)
	route("GET /v1/injuries", "injuries", s.handleListInjuries)
	route("GET /v1/injuries/{code}", "injury", s.handleGetInjury)
	route("POST /v1/injuries/apply", "injury_apply", s.handleApplyInjury)
	route("POST /v1/xfactor", "xfactor", s.handleXFactor)
	route("GET /v1/purse", "purse", s.handlePurse)

	route("POST /v1/horses", "horses_register", s.handleRegisterHorse)
	route("GET /v1/horses/top", "horses_top", s.handleTopHorses)
	route("GET /v1/horses/{id}", "horse", s.handleGetHorse)
	route("GET /v1/horses/{id}/rank", "horse_rank", s.handleHorseRank)
	route("GET /v1/horses/{id}/xfactor", "horse_xfactor", s.handleHorseXFactor)

	route("POST /v1/predictions", "predictions_log", s.handleLogPrediction)
	route("GET /v1/predictions", "predictions", s.handleListPredictions)
	route("GET /v1/predictions/accuracy", "predictions_accuracy", s.handleAccuracy)
	route("POST /v1/predictions/{id}/resolve", "predictions_resolve", s.handleResolvePrediction)
}

type errorResponse struct {
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Problems []model.FieldError `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		resp.Problems = ve.Problems
	}
	writeJSON(w, status, resp)
}

// decode reads a single JSON document from the request body.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// writeDecodeError answers a body that could not be decoded. Records with
// undeclared fields are reported with their field problems.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrValidation) {
		writeError(w, http.StatusBadRequest, "validation_failed", err)
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}
