package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: value DESC, then token id ASC. "less" means ranks earlier, so an
// in-order traversal yields the ranking from most to least valuable.

// valueScale stores values as fixed-point micro-units.
const valueScale = 1_000_000

type valueFP int64

func toFixedPoint(x float64) valueFP {
	scaled := x * valueScale
	if scaled >= math.MaxInt64 {
		return valueFP(math.MaxInt64)
	}
	return valueFP(math.Round(scaled))
}

func toFloat(x valueFP) float64 {
	return float64(x) / valueScale
}

type node struct {
	id    model.TokenID
	value valueFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aValue valueFP, aID model.TokenID, bValue valueFP, bID model.TokenID) bool {
	if aValue != bValue {
		return aValue > bValue
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id model.TokenID, value valueFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, value: value, prio: prio, size: 1}
	}
	if less(value, id, n.value, n.id) {
		n.left = insert(n.left, id, value, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, value, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id model.TokenID, value valueFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case value == n.value && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, value)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, value)
		}
	case less(value, id, n.value, n.id):
		n.left = deleteNode(n.left, id, value)
	default:
		n.right = deleteNode(n.right, id, value)
	}
	fix(n)
	return n
}

// collect appends up to limit nodes in rank order. limit < 0 collects all.
func collect(n *node, limit int, byID map[model.TokenID]*record, out *[]Entry) {
	if n == nil || (limit >= 0 && len(*out) >= limit) {
		return
	}
	collect(n.left, limit, byID, out)
	if limit < 0 || len(*out) < limit {
		if rec, ok := byID[n.id]; ok {
			*out = append(*out, Entry{TokenID: n.id, Name: rec.horse.Name, Value: toFloat(n.value)})
		}
	}
	collect(n.right, limit, byID, out)
}

type record struct {
	horse Horse
	value valueFP
	prio  uint64
}

// TreapStore keeps horses in a map plus a treap ordered by value.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	byID     map[model.TokenID]*record
	children map[model.TokenID]map[model.TokenID]struct{}
	rng      *rand.Rand
	seed     uint64
	now      func() time.Time
}

// NewTreapStore constructs an empty registry.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:     make(map[model.TokenID]*record),
		children: make(map[model.TokenID]map[model.TokenID]struct{}),
		seed:     uint64(time.Now().UnixNano()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)) //nolint:gosec // treap balance only
	return s
}

func validValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Register implements Store.
func (s *TreapStore) Register(_ context.Context, h Horse) error {
	start := time.Now()
	defer observe("register", start)

	if !validValue(h.Value) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, h.Value)
	}
	if (h.SireID != nil && *h.SireID == h.TokenID) || (h.DamID != nil && *h.DamID == h.TokenID) {
		return fmt.Errorf("%w: %d", ErrSelfParent, h.TokenID)
	}
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = s.now()
	}

	s.mu.Lock()
	if old, ok := s.byID[h.TokenID]; ok {
		s.root = deleteNode(s.root, h.TokenID, old.value)
		s.unlink(old.horse)
	}
	rec := &record{horse: h, value: toFixedPoint(h.Value), prio: s.rng.Uint64()}
	s.byID[h.TokenID] = rec
	s.root = insert(s.root, h.TokenID, rec.value, rec.prio)
	s.link(h)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateHorsesRegistered(count)
	return nil
}

func (s *TreapStore) link(h Horse) {
	for _, p := range []*model.TokenID{h.SireID, h.DamID} {
		if p == nil {
			continue
		}
		kids, ok := s.children[*p]
		if !ok {
			kids = make(map[model.TokenID]struct{})
			s.children[*p] = kids
		}
		kids[h.TokenID] = struct{}{}
	}
}

func (s *TreapStore) unlink(h Horse) {
	for _, p := range []*model.TokenID{h.SireID, h.DamID} {
		if p == nil {
			continue
		}
		delete(s.children[*p], h.TokenID)
		if len(s.children[*p]) == 0 {
			delete(s.children, *p)
		}
	}
}

// Horse implements Store.
func (s *TreapStore) Horse(_ context.Context, id model.TokenID) (Horse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return Horse{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return rec.horse, nil
}

// SetValue implements Store in O(log n) expected time.
func (s *TreapStore) SetValue(_ context.Context, id model.TokenID, value float64, eventHash string) (Horse, error) {
	start := time.Now()
	defer observe("set_value", start)

	if !validValue(value) {
		return Horse{}, fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return Horse{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	nv := toFixedPoint(value)
	if nv != rec.value {
		s.root = deleteNode(s.root, id, rec.value)
		s.root = insert(s.root, id, nv, rec.prio)
		rec.value = nv
	}
	rec.horse.Value = value
	rec.horse.LastEventHash = eventHash
	rec.horse.UpdatedAt = s.now()
	return rec.horse, nil
}

// Offspring implements Store.
func (s *TreapStore) Offspring(_ context.Context, parent model.TokenID) ([]model.TokenID, model.OffspringSexMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[parent]; !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrNotFound, parent)
	}
	ids, sexes := s.describe(s.children[parent], 0, false)
	return ids, sexes, nil
}

// Siblings implements Store.
func (s *TreapStore) Siblings(_ context.Context, id model.TokenID) ([]model.TokenID, model.OffspringSexMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	set := make(map[model.TokenID]struct{})
	for _, p := range []*model.TokenID{rec.horse.SireID, rec.horse.DamID} {
		if p == nil {
			continue
		}
		for kid := range s.children[*p] {
			set[kid] = struct{}{}
		}
	}
	ids, sexes := s.describe(set, id, true)
	return ids, sexes, nil
}

// describe sorts a set of registered ids and maps their sexes. Caller holds
// s.mu.
func (s *TreapStore) describe(set map[model.TokenID]struct{}, skip model.TokenID, skipSet bool) ([]model.TokenID, model.OffspringSexMap) {
	ids := make([]model.TokenID, 0, len(set))
	sexes := make(model.OffspringSexMap, len(set))
	for id := range set {
		if skipSet && id == skip {
			continue
		}
		ids = append(ids, id)
		if rec, ok := s.byID[id]; ok {
			sexes[id] = rec.horse.Sex
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, sexes
}

// Pedigree implements Store. Each registered horse appears once, so cyclic
// lineage data cannot loop.
func (s *TreapStore) Pedigree(_ context.Context, id model.TokenID, depth int) (model.Pedigree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	graph := make(model.Pedigree)
	frontier := []model.TokenID{id}
	for gen := 0; gen <= depth && len(frontier) > 0; gen++ {
		var next []model.TokenID
		for _, cur := range frontier {
			key := nodeID(cur)
			if _, seen := graph[key]; seen {
				continue
			}
			rec, ok := s.byID[cur]
			if !ok {
				continue
			}
			h := rec.horse
			n := model.PedigreeNode{ID: key, Name: h.Name, Sex: h.Sex, ConfirmedCarrier: h.XFactor}
			if h.SireID != nil {
				sire := nodeID(*h.SireID)
				n.SireID = &sire
				next = append(next, *h.SireID)
			}
			if h.DamID != nil {
				dam := nodeID(*h.DamID)
				n.DamID = &dam
				next = append(next, *h.DamID)
			}
			graph[key] = n
		}
		frontier = next
	}
	return graph, nil
}

func nodeID(id model.TokenID) string { return strconv.FormatUint(uint64(id), 10) }

// Rank implements Store. Equal values share a rank.
func (s *TreapStore) Rank(_ context.Context, id model.TokenID) (Entry, error) {
	start := time.Now()
	defer observe("rank", start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[id]; !ok {
		return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	all := make([]Entry, 0, len(s.byID))
	collect(s.root, -1, s.byID, &all)
	assignRanksWithTies(all)
	for _, e := range all {
		if e.TokenID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// TopN implements Store.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer observe("top_n", start)

	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, min(n, len(s.byID)))
	collect(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count implements Store.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies gives equal values the same rank; ranks stay
// consecutive.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Value != entries[i-1].Value {
			rank++
		}
		entries[i].Rank = rank
	}
}

func observe(op string, start time.Time) {
	metrics.RecordRegistryLatency(op, float64(time.Since(start).Milliseconds()))
}
