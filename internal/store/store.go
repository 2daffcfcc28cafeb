// Package store persists escalation states and score history. The
// escalation state write path is optimistic and account-scoped: concurrent
// scans of the same account cannot both win, while cross-account writes
// never contend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pulsegate/pulsegate/internal/escalation"
)

// ErrConflict is returned by PutState when the stored record no longer
// matches the state the caller read. The caller should re-read and
// re-decide.
var ErrConflict = errors.New("escalation state changed since read")

// ScoreRecord is one persisted scoring result. Breakdown is stored as the
// raw JSON document; the full result may additionally be archived to blob
// storage, referenced by StorageRef.
type ScoreRecord struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	Domain     string          `json:"domain"`
	Score      float64         `json:"score"`
	Band       string          `json:"band"`
	Escalate   bool            `json:"escalate"`
	Breakdown  json.RawMessage `json:"breakdown"`
	StorageRef string          `json:"storage_ref,omitempty"`
	ComputedAt time.Time       `json:"computed_at"`
}

// DraftRecord is the audit trail row for one draft request handed to the
// drafting surface.
type DraftRecord struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Stage     int       `json:"stage"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	DraftID   string    `json:"draft_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract consumed by the escalation engine and
// the read API.
type Store interface {
	// GetState returns the escalation state for an account. A missing
	// record is a valid default, not an error: the zero state at stage 0
	// is returned with the given account ID filled in.
	GetState(ctx context.Context, accountID string) (escalation.State, error)

	// PutState writes next on top of prev. It fails with ErrConflict when
	// the stored record does not match prev (another scan won the race).
	PutState(ctx context.Context, prev, next escalation.State) error

	// ListStates returns all known escalation states.
	ListStates(ctx context.Context) ([]escalation.State, error)

	// SaveScore appends a score record and returns its ID.
	SaveScore(ctx context.Context, rec ScoreRecord) (string, error)

	// LatestScore returns the most recent score for an account in one
	// domain, or nil when none exists.
	LatestScore(ctx context.Context, accountID, domain string) (*ScoreRecord, error)

	// ListScores returns up to limit recent scores for an account, newest
	// first, optionally filtered by domain ("" for all).
	ListScores(ctx context.Context, accountID, domain string, limit int) ([]ScoreRecord, error)

	// RecordDraft appends a draft audit row.
	RecordDraft(ctx context.Context, rec DraftRecord) error
}
