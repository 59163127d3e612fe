// Package ledger keeps agent valuation predictions in an append-only
// JSON-lines file and scores them once the actual value is known.
package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/okian/turforacle/internal/domain/model"
	"github.com/okian/turforacle/pkg/metrics"
)

const (
	defaultBand = 0.2
	agentTagLen = 8
	maxLineSize = 1 << 20
)

// Prediction is what an agent submits; the ledger assigns the id.
type Prediction struct {
	AgentID        string  `json:"agentId"`
	PredictedValue float64 `json:"predictedValue"`
	// Timestamp in unix milliseconds. Zero means now.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Ledger is the prediction log.
type Ledger interface {
	Log(ctx context.Context, p Prediction) (string, error)
	// Resolve records the actual value for id. It reports false when id is
	// not in the log.
	Resolve(ctx context.Context, id string, actual float64) (bool, error)
	List(ctx context.Context) ([]model.PredictionEntry, error)
	Accuracy(ctx context.Context) (model.Accuracy, error)
}

// FileLedger stores one JSON entry per line. Appends and rewrites are
// serialized by mu so a Log can never be lost to a concurrent Resolve.
type FileLedger struct {
	path string
	now  func() time.Time
	band float64

	mu sync.RWMutex
	// ids holds every entry id in the log once the first Log has read it.
	ids map[string]struct{}
}

// NewFileLedger opens (lazily) the log at path, creating its directory.
func NewFileLedger(path string, opts ...Option) (*FileLedger, error) {
	l := &FileLedger{path: path, now: time.Now, band: defaultBand}
	for _, opt := range opts {
		opt(l)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create dir: %v", ErrStorage, err)
	}
	return l, nil
}

// Path returns the log location.
func (l *FileLedger) Path() string { return l.path }

// EntryID derives the id of a prediction from its timestamp and agent.
func EntryID(timestampMs int64, agentID string) string {
	tag := hex.EncodeToString(crypto.Keccak256([]byte(agentID)))[:agentTagLen]
	return fmt.Sprintf("%d-%s", timestampMs, tag)
}

// Log appends p and returns its id. When the agent already has an entry at
// that millisecond the timestamp moves forward to the next free one, so ids
// stay unique.
func (l *FileLedger) Log(_ context.Context, p Prediction) (id string, err error) {
	start := time.Now()
	defer func() { observe("log", err, start) }()

	if p.AgentID == "" {
		return "", ErrInvalidAgent
	}
	if !finite(p.PredictedValue) {
		return "", fmt.Errorf("%w: predicted %v", ErrInvalidValue, p.PredictedValue)
	}
	ts := p.Timestamp
	if ts == 0 {
		ts = l.now().UnixMilli()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.loadIDs(); err != nil {
		return "", err
	}
	for {
		if _, taken := l.ids[EntryID(ts, p.AgentID)]; !taken {
			break
		}
		ts++
	}
	entry := model.PredictionEntry{
		ID:             EntryID(ts, p.AgentID),
		AgentID:        p.AgentID,
		Timestamp:      ts,
		PredictedValue: p.PredictedValue,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", ErrStorage, err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: open: %v", ErrStorage, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%w: append: %v", ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close: %v", ErrStorage, err)
	}
	l.ids[entry.ID] = struct{}{}
	return entry.ID, nil
}

// loadIDs indexes the ids already in the log. Callers hold mu.
func (l *FileLedger) loadIDs() error {
	if l.ids != nil {
		return nil
	}
	entries, err := l.read()
	if err != nil {
		return err
	}
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[e.ID] = struct{}{}
	}
	l.ids = ids
	return nil
}

// Resolve sets the actual value of the first entry with id and rewrites the
// log atomically. The file is not touched when id is unknown.
func (l *FileLedger) Resolve(_ context.Context, id string, actual float64) (found bool, err error) {
	start := time.Now()
	defer func() { observe("resolve", err, start) }()

	if !finite(actual) {
		return false, fmt.Errorf("%w: actual %v", ErrInvalidValue, actual)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return false, err
	}
	idx := -1
	for i := range entries {
		if entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	if entries[idx].Resolved {
		return true, fmt.Errorf("%w: %s", ErrAlreadyResolved, id)
	}
	v := actual
	entries[idx].ActualValue = &v
	entries[idx].Resolved = true

	if err := l.rewrite(entries); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every entry in log order.
func (l *FileLedger) List(_ context.Context) (entries []model.PredictionEntry, err error) {
	start := time.Now()
	defer func() { observe("list", err, start) }()

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read()
}

// Accuracy scores resolved entries. An entry is correct when the prediction
// is within the band of the actual value.
func (l *FileLedger) Accuracy(ctx context.Context) (model.Accuracy, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return model.Accuracy{}, err
	}
	return Score(entries, l.band), nil
}

// Score computes accuracy over entries with the given relative band.
func Score(entries []model.PredictionEntry, band float64) model.Accuracy {
	acc := model.Accuracy{Total: len(entries)}
	for _, e := range entries {
		if !e.Resolved || e.ActualValue == nil {
			continue
		}
		acc.Resolved++
		actual := *e.ActualValue
		if math.Abs(e.PredictedValue-actual) <= math.Abs(actual)*band {
			acc.Correct++
		}
	}
	if acc.Resolved > 0 {
		acc.Accuracy = float64(acc.Correct) / float64(acc.Resolved)
	}
	return acc
}

func (l *FileLedger) read() ([]model.PredictionEntry, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.PredictionEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrStorage, err)
	}
	defer f.Close()

	entries := make([]model.PredictionEntry, 0)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e model.PredictionEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptEntry, lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrStorage, err)
	}
	return entries, nil
}

// rewrite replaces the log through a synced temp file and rename.
func (l *FileLedger) rewrite(entries []model.PredictionEntry) error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()
	fail := func(stage string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrStorage, stage, err)
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fail("encode", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flush", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close: %v", ErrStorage, err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename: %v", ErrStorage, err)
	}
	return nil
}

func observe(op string, err error, start time.Time) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordLedgerOp(op, result, float64(time.Since(start).Milliseconds()))
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
