package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tphummel/machine_registry/internal/models"
)

// Lister fetches the raw machine collection from the backend.
type Lister interface {
	ListMachines(ctx context.Context) (json.RawMessage, error)
}

// Mirror receives a copy of every successfully loaded collection.
type Mirror interface {
	ReplaceSnapshot(records []models.Machine, at time.Time) error
}

// LoadShapeError reports a list response that is neither a JSON array nor a
// paginated {"results": [...]} envelope.
type LoadShapeError struct {
	Detail string
	Err    error
}

func (e *LoadShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected machine list shape: %s: %v", e.Detail, e.Err)
	}
	return "unexpected machine list shape: " + e.Detail
}

func (e *LoadShapeError) Unwrap() error { return e.Err }

// Store holds the locally loaded machine collection. Every load replaces the
// collection as a whole; records are never patched in place.
type Store struct {
	lister Lister
	mirror Mirror
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	records  []models.Machine
	inFlight int
}

// Option configures a Store.
type Option func(*Store)

// WithMirror refreshes m after every successful load.
func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used to stamp mirror snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store that loads through lister.
func New(lister Lister, opts ...Option) *Store {
	s := &Store{lister: lister, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the collection and replaces the local copy. On a shape or
// transport failure the collection becomes empty and the error is returned.
// Concurrent loads are not ordered: whichever completes last wins.
func (s *Store) Load(ctx context.Context) ([]models.Machine, error) {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	raw, err := s.lister.ListMachines(ctx)
	var records []models.Machine
	if err == nil {
		records, err = Decode(raw)
	}

	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.records = []models.Machine{}
	} else {
		s.records = records
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("load machines", "error", err)
		return []models.Machine{}, err
	}

	if s.mirror != nil {
		if merr := s.mirror.ReplaceSnapshot(records, s.now().UTC()); merr != nil {
			s.logger.Warn("refresh snapshot mirror", "error", merr)
		}
	}
	s.logger.Info("machines loaded", "count", len(records))
	return cloneAll(records), nil
}

// Decode parses a list response body into machines.
func Decode(raw []byte) ([]models.Machine, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &LoadShapeError{Detail: "empty body"}
	}

	var records []models.Machine
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, &LoadShapeError{Detail: "array", Err: err}
		}
	case '{':
		var envelope struct {
			Results *[]models.Machine `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, &LoadShapeError{Detail: "object", Err: err}
		}
		if envelope.Results == nil {
			return nil, &LoadShapeError{Detail: "object without results array"}
		}
		records = *envelope.Results
	default:
		return nil, &LoadShapeError{Detail: fmt.Sprintf("body starts with %q", trimmed[0])}
	}

	if records == nil {
		records = []models.Machine{}
	}
	return records, nil
}

// Records returns a copy of the current collection.
func (s *Store) Records() []models.Machine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Find returns a copy of the record with the given id.
func (s *Store) Find(id int64) (models.Machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return models.Machine{}, false
}

// Loading reports whether a load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// CountByCriticality returns the number of loaded records per criticality
// level. Records without a level are counted under "unknown".
func (s *Store) CountByCriticality() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, r := range s.records {
		level := r.CriticalityLevel
		if level == "" {
			level = "unknown"
		}
		counts[level]++
	}
	return counts
}

func cloneAll(records []models.Machine) []models.Machine {
	out := make([]models.Machine, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
