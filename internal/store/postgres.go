package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulsegate/pulsegate/internal/escalation"
)

// Postgres implements Store on database/sql with the lib/pq driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed Store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetState(ctx context.Context, accountID string) (escalation.State, error) {
	st := escalation.State{AccountID: accountID}
	err := s.db.QueryRowContext(ctx,
		`SELECT account_id, stage, stage_entered_at, last_message_sent_at,
		        messages_unanswered, terminal_notified, updated_at
		 FROM escalation_states WHERE account_id = $1`,
		accountID,
	).Scan(&st.AccountID, &st.Stage, &st.StageEnteredAt, &st.LastMessageSentAt,
		&st.MessagesUnanswered, &st.TerminalNotified, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		// Lazily created: stage 0 is the valid default for an unseen account.
		return escalation.State{AccountID: accountID}, nil
	}
	if err != nil {
		return st, fmt.Errorf("get state %s: %w", accountID, err)
	}
	return st, nil
}

// PutState writes next guarded by the fields of prev that every transition
// mutates (stage, unanswered count, terminal flag). A zero prev.UpdatedAt
// means the record was absent at read time, so the write must insert.
func (s *Postgres) PutState(ctx context.Context, prev, next escalation.State) error {
	if prev.UpdatedAt.IsZero() {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO escalation_states
			   (account_id, stage, stage_entered_at, last_message_sent_at,
			    messages_unanswered, terminal_notified, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, now())
			 ON CONFLICT (account_id) DO NOTHING`,
			next.AccountID, next.Stage, next.StageEnteredAt, next.LastMessageSentAt,
			next.MessagesUnanswered, next.TerminalNotified,
		)
		if err != nil {
			return fmt.Errorf("insert state %s: %w", next.AccountID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert state %s: %w", next.AccountID, err)
		}
		if n == 0 {
			return ErrConflict
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE escalation_states
		 SET stage = $2, stage_entered_at = $3, last_message_sent_at = $4,
		     messages_unanswered = $5, terminal_notified = $6, updated_at = now()
		 WHERE account_id = $1 AND stage = $7 AND messages_unanswered = $8 AND terminal_notified = $9`,
		next.AccountID, next.Stage, next.StageEnteredAt, next.LastMessageSentAt,
		next.MessagesUnanswered, next.TerminalNotified,
		prev.Stage, prev.MessagesUnanswered, prev.TerminalNotified,
	)
	if err != nil {
		return fmt.Errorf("update state %s: %w", next.AccountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update state %s: %w", next.AccountID, err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Postgres) ListStates(ctx context.Context) ([]escalation.State, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, stage, stage_entered_at, last_message_sent_at,
		        messages_unanswered, terminal_notified, updated_at
		 FROM escalation_states ORDER BY account_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	var states []escalation.State
	for rows.Next() {
		var st escalation.State
		if err := rows.Scan(&st.AccountID, &st.Stage, &st.StageEnteredAt, &st.LastMessageSentAt,
			&st.MessagesUnanswered, &st.TerminalNotified, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

func (s *Postgres) SaveScore(ctx context.Context, rec ScoreRecord) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO scores (account_id, domain, score, band, escalate, breakdown, storage_ref, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		rec.AccountID, rec.Domain, rec.Score, rec.Band, rec.Escalate,
		rec.Breakdown, nilIfEmpty(rec.StorageRef), rec.ComputedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert score for %s: %w", rec.AccountID, err)
	}
	return id, nil
}

func (s *Postgres) LatestScore(ctx context.Context, accountID, domain string) (*ScoreRecord, error) {
	rec := &ScoreRecord{}
	var storageRef sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, domain, score, band, escalate, breakdown, storage_ref, computed_at
		 FROM scores WHERE account_id = $1 AND domain = $2
		 ORDER BY computed_at DESC LIMIT 1`,
		accountID, domain,
	).Scan(&rec.ID, &rec.AccountID, &rec.Domain, &rec.Score, &rec.Band,
		&rec.Escalate, &rec.Breakdown, &storageRef, &rec.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest score for %s/%s: %w", accountID, domain, err)
	}
	rec.StorageRef = storageRef.String
	return rec, nil
}

func (s *Postgres) ListScores(ctx context.Context, accountID, domain string, limit int) ([]ScoreRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, account_id, domain, score, band, escalate, breakdown, storage_ref, computed_at
	          FROM scores WHERE account_id = $1`
	args := []any{accountID}
	if domain != "" {
		query += ` AND domain = $2`
		args = append(args, domain)
	}
	query += fmt.Sprintf(` ORDER BY computed_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scores for %s: %w", accountID, err)
	}
	defer rows.Close()

	var recs []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		var storageRef sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Domain, &rec.Score, &rec.Band,
			&rec.Escalate, &rec.Breakdown, &storageRef, &rec.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		rec.StorageRef = storageRef.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Postgres) RecordDraft(ctx context.Context, rec DraftRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (account_id, stage, recipient, subject, draft_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.AccountID, rec.Stage, rec.Recipient, rec.Subject, nilIfEmpty(rec.DraftID),
	)
	if err != nil {
		return fmt.Errorf("record draft for %s: %w", rec.AccountID, err)
	}
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
