package api

import (
	"github.com/okian/turforacle/internal/adapters/ledger"
	"github.com/okian/turforacle/internal/domain/injury"
	"github.com/okian/turforacle/internal/domain/purse"
	"github.com/okian/turforacle/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLedger enables the prediction routes.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Server) { s.ledger = l }
}

// WithDistributor sets the purse fee policy.
func WithDistributor(d *purse.Distributor) Option {
	return func(s *Server) {
		if d != nil {
			s.distributor = d
		}
	}
}

// WithInjuryCatalog sets the catalog served by the injury routes.
func WithInjuryCatalog(c *injury.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithMaxTopLimit caps GET /v1/horses/top?limit.
func WithMaxTopLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxTopLimit = n
		}
	}
}

// WithMaxXFactorDepth caps the maxDepth accepted by POST /v1/xfactor. It is
// also the depth used when the request names none.
func WithMaxXFactorDepth(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxXFactorDepth = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
