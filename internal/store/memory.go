package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsegate/pulsegate/internal/escalation"
)

// Memory implements Store in process memory with the same optimistic write
// semantics as the Postgres implementation. Used for development and tests.
type Memory struct {
	mu     sync.Mutex
	states map[string]escalation.State
	scores []ScoreRecord
	drafts []DraftRecord
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]escalation.State)}
}

func (m *Memory) GetState(ctx context.Context, accountID string) (escalation.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[accountID]; ok {
		return st, nil
	}
	return escalation.State{AccountID: accountID}, nil
}

func (m *Memory) PutState(ctx context.Context, prev, next escalation.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.states[next.AccountID]
	if prev.UpdatedAt.IsZero() {
		if exists {
			return ErrConflict
		}
	} else if !exists ||
		stored.Stage != prev.Stage ||
		stored.MessagesUnanswered != prev.MessagesUnanswered ||
		stored.TerminalNotified != prev.TerminalNotified {
		return ErrConflict
	}

	next.UpdatedAt = time.Now().UTC()
	m.states[next.AccountID] = next
	return nil
}

func (m *Memory) ListStates(ctx context.Context) ([]escalation.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make([]escalation.State, 0, len(m.states))
	for _, st := range m.states {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].AccountID < states[j].AccountID })
	return states, nil
}

func (m *Memory) SaveScore(ctx context.Context, rec ScoreRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = uuid.NewString()
	m.scores = append(m.scores, rec)
	return rec.ID, nil
}

func (m *Memory) LatestScore(ctx context.Context, accountID, domain string) (*ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *ScoreRecord
	for i := range m.scores {
		rec := m.scores[i]
		if rec.AccountID != accountID || rec.Domain != domain {
			continue
		}
		if latest == nil || rec.ComputedAt.After(latest.ComputedAt) {
			latest = &rec
		}
	}
	return latest, nil
}

func (m *Memory) ListScores(ctx context.Context, accountID, domain string, limit int) ([]ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	var recs []ScoreRecord
	for _, rec := range m.scores {
		if rec.AccountID != accountID {
			continue
		}
		if domain != "" && rec.Domain != domain {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ComputedAt.After(recs[j].ComputedAt) })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *Memory) RecordDraft(ctx context.Context, rec DraftRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	m.drafts = append(m.drafts, rec)
	return nil
}

// Drafts returns a copy of the draft audit trail, for tests.
func (m *Memory) Drafts() []DraftRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DraftRecord, len(m.drafts))
	copy(out, m.drafts)
	return out
}
