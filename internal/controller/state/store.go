// Package state persists flow records. The store stands in for the hosting
// flow-persistence mechanism at the contract boundary: one record per flow
// invocation, holding the session URI as the flow's durable output.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type FlowState string

const (
	FlowPending FlowState = "PENDING"
	FlowStarted FlowState = "STARTED"
	FlowFailed  FlowState = "FAILED"
)

// FlowRecord is the durable trace of one collection flow. Once the state
// is STARTED the session URI is the only live handle: nothing in this
// process monitors the transfer further.
type FlowRecord struct {
	ID         string    `json:"id"`
	PathSpec   string    `json:"pathSpec"`
	SessionURI string    `json:"sessionUri,omitempty"`
	State      FlowState `json:"state"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Store struct {
	mu    sync.RWMutex
	flows map[string]*FlowRecord
}

func New() *Store {
	return &Store{flows: make(map[string]*FlowRecord)}
}

// CreateFlow registers a new pending record. Duplicate IDs are rejected:
// a flow runs exactly once.
func (s *Store) CreateFlow(id, pathSpec string) (*FlowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.flows[id]; exists {
		return nil, fmt.Errorf("flow %s already exists", id)
	}

	now := time.Now()
	rec := &FlowRecord{
		ID:        id,
		PathSpec:  pathSpec,
		State:     FlowPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.flows[id] = rec
	return copyRecord(rec), nil
}

// MarkStarted records the action's commitment: the session URI.
func (s *Store) MarkStarted(id, sessionURI string) error {
	return s.update(id, func(rec *FlowRecord) {
		rec.State = FlowStarted
		rec.SessionURI = sessionURI
	})
}

// MarkFailed records a terminal initiation failure.
func (s *Store) MarkFailed(id string, cause error) error {
	return s.update(id, func(rec *FlowRecord) {
		rec.State = FlowFailed
		rec.Error = cause.Error()
	})
}

func (s *Store) update(id string, mutate func(*FlowRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.flows[id]
	if !exists {
		return fmt.Errorf("flow %s not found", id)
	}
	mutate(rec)
	rec.UpdatedAt = time.Now()
	return nil
}

// GetFlow returns a copy of one record.
func (s *Store) GetFlow(id string) (*FlowRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.flows[id]
	if !exists {
		return nil, false
	}
	return copyRecord(rec), true
}

// ListFlows returns copies of all records, oldest first.
func (s *Store) ListFlows() []*FlowRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*FlowRecord, 0, len(s.flows))
	for _, rec := range s.flows {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func copyRecord(rec *FlowRecord) *FlowRecord {
	c := *rec
	return &c
}

// SaveFile writes all records to path as JSON. The write goes through a
// temp file and rename so a crash never leaves a half-written record set.
func (s *Store) SaveFile(path string) error {
	records := s.ListFlows()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding flow records: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile merges records from path into the store. A missing file is
// not an error: the store simply starts empty.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var records []*FlowRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding flow records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.flows[rec.ID] = rec
	}
	return nil
}
