package store

import (
	"context"
	"slices"
	"sync"

	"github.com/casualjim/loom/messages"
)

// Memory is an in process archive. Transcripts are deep copied on the way in
// and out, so callers can keep mutating their state without corrupting the
// archive.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]Transcript
	order []string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in memory archive.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]Transcript)}
}

func (m *Memory) Save(_ context.Context, tr Transcript) error {
	tr, err := prepare(tr)
	if err != nil {
		return err
	}
	tr.Messages = messages.CloneAll(tr.Messages)
	tr.Vars = tr.Vars.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[tr.RunID]; exists {
		m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == tr.RunID })
	}
	m.order = append(m.order, tr.RunID)
	m.data[tr.RunID] = tr
	return nil
}

func (m *Memory) Load(_ context.Context, runID string) (Transcript, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tr, ok := m.data[runID]
	if !ok {
		return Transcript{}, ErrNotFound
	}
	tr.Messages = messages.CloneAll(tr.Messages)
	tr.Vars = tr.Vars.Clone()
	return tr, nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order), nil
}

func (m *Memory) Delete(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[runID]; !ok {
		return nil
	}
	delete(m.data, runID)
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == runID })
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
