// Package xfactor traces the sex-linked "X-factor" heart trait through a
// pedigree. The trait rides the X chromosome: every horse inherits it through
// its dam, and only fillies and mares can inherit it through their sire.
package xfactor

import (
	"math"

	"github.com/okian/turforacle/internal/domain/model"
)

const (
	// DefaultMaxDepth bounds the ancestor search. It is also the only guard
	// against cyclic pedigrees.
	DefaultMaxDepth = 8

	premiumPerConfidence = 0.15
	decayPerGeneration   = 0.1
	minFoundConfidence   = 0.5
)

// knownCarriers is the documented transmission line of the trait.
var knownCarriers = map[string]struct{}{
	"Eclipse":          {},
	"Pocahontas":       {},
	"Princequillo":     {},
	"War Admiral":      {},
	"Blue Larkspur":    {},
	"Mahmoud":          {},
	"Secretariat":      {},
	"Sir Gallahad III": {},
}

// IsKnownCarrier reports whether name is on the documented carrier line.
func IsKnownCarrier(name string) bool {
	_, ok := knownCarriers[name]
	return ok
}

// Result is the outcome of a detection.
type Result struct {
	IsCarrier  bool    `json:"isCarrier"`
	Confidence float64 `json:"confidence"`
	// InheritancePath runs from the target to the carrier ancestor. When no
	// carrier is found it holds the names visited, for diagnostics.
	InheritancePath   []string `json:"inheritancePath"`
	PremiumMultiplier float64  `json:"breedingPremiumMultiplier"`
}

type config struct {
	maxDepth int
}

// Option configures Detect.
type Option func(*config)

// WithMaxDepth overrides the search depth. Non-positive values are ignored.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// Detect searches the ancestors of targetID for the trait, dam first, and
// returns the first match.
func Detect(targetID string, graph model.Pedigree, opts ...Option) Result {
	cfg := config{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	target, ok := graph[targetID]
	if !ok {
		return notCarrier(nil)
	}
	if target.ConfirmedCarrier {
		return carrier([]string{target.Name}, 1.0)
	}

	var trace []string
	path, confidence, found := search(graph, target, 0, cfg.maxDepth, nil, &trace)
	if !found {
		return notCarrier(trace)
	}
	return carrier(path, confidence)
}

// search walks from node toward its ancestors. path is copied on every
// append so sibling branches never share backing storage.
func search(graph model.Pedigree, node model.PedigreeNode, depth, maxDepth int, path []string, trace *[]string) ([]string, float64, bool) {
	if depth >= maxDepth {
		return nil, 0, false
	}
	path = append(path[:len(path):len(path)], node.Name)
	*trace = append(*trace, node.Name)

	if node.ConfirmedCarrier || IsKnownCarrier(node.Name) {
		return path, math.Max(minFoundConfidence, 1-float64(depth)*decayPerGeneration), true
	}

	parents := []*string{node.DamID}
	if node.Sex == model.SexFemale {
		parents = append(parents, node.SireID)
	}
	for _, id := range parents {
		if id == nil {
			continue
		}
		parent, ok := graph[*id]
		if !ok {
			continue
		}
		if p, c, found := search(graph, parent, depth+1, maxDepth, path, trace); found {
			return p, c, true
		}
	}
	return nil, 0, false
}

func carrier(path []string, confidence float64) Result {
	return Result{
		IsCarrier:         true,
		Confidence:        confidence,
		InheritancePath:   path,
		PremiumMultiplier: 1 + premiumPerConfidence*confidence,
	}
}

func notCarrier(trace []string) Result {
	if trace == nil {
		trace = []string{}
	}
	return Result{InheritancePath: trace, PremiumMultiplier: 1.0}
}
