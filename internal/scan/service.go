// Package scan evaluates accounts against the scorers and the escalation
// ladder. Each account's evaluation is independent and atomic: a failure
// in one account's collaborators never blocks the rest of the batch, and
// the state write is optimistic so overlapping scans of the same account
// cannot race.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsegate/pulsegate/internal/archive"
	"github.com/pulsegate/pulsegate/internal/drafts"
	"github.com/pulsegate/pulsegate/internal/escalation"
	"github.com/pulsegate/pulsegate/internal/narrative"
	"github.com/pulsegate/pulsegate/internal/store"
	"github.com/pulsegate/pulsegate/pkg/scoring"
	"github.com/pulsegate/pulsegate/pkg/signal"
)

// defaultWorkers bounds per-batch concurrency when the config does not.
const defaultWorkers = 8

// AccountFacts is everything the dispatch layer supplies for one account
// in one scan. Signal sets are recomputed upstream each interval.
type AccountFacts struct {
	AccountID    string                     `json:"account_id"`
	Payment      signal.PaymentSignals      `json:"payment"`
	Technical    *signal.TechnicalSignals   `json:"technical,omitempty"`
	Health       *signal.HealthSignals      `json:"health,omitempty"`
	Relationship signal.RelationshipSignals `json:"relationship"`
	// RespondedSince reports whether a qualifying response arrived since
	// the last drafted message.
	RespondedSince bool `json:"responded_since"`
}

// Outcome summarizes one account's evaluation.
type Outcome struct {
	AccountID    string            `json:"account_id"`
	Action       escalation.Action `json:"action"`
	Stage        int               `json:"stage"`
	Reason       string            `json:"reason"`
	PaymentScore float64           `json:"payment_score"`
	PaymentBand  scoring.Band      `json:"payment_band"`
	DraftIDs     []string          `json:"draft_ids,omitempty"`
	Err          string            `json:"error,omitempty"`
}

// Service runs per-account evaluations. The scheduled dispatch layer
// supplies now and the account set; the service never reads the wall
// clock for decisions.
type Service struct {
	store     store.Store
	drafts    drafts.Client
	narrative narrative.Client // nil disables enrichment
	archive   archive.Client   // nil disables blob archival
	floors    map[int]int      // nil uses the engine defaults
	contact   string           // escalation recipient address, from config
	workers   int
}

// NewService creates a scan Service. narrative and blobs may be nil.
func NewService(st store.Store, dr drafts.Client, nr narrative.Client, blobs archive.Client) *Service {
	return &Service{
		store:     st,
		drafts:    dr,
		narrative: nr,
		archive:   blobs,
		workers:   defaultWorkers,
	}
}

// SetFloors overrides the stage time floors (from config).
func (s *Service) SetFloors(floors map[int]int) { s.floors = floors }

// SetEscalationContact sets the address terminal-stage notices are drafted
// to. The engine only decides the role; the address is deployment config.
func (s *Service) SetEscalationContact(addr string) { s.contact = addr }

// SetWorkers overrides batch concurrency.
func (s *Service) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Scan evaluates a batch of accounts with bounded parallelism. Accounts
// are isolated: one account's failure is reported in its outcome and the
// rest of the batch proceeds. Cancelling ctx stops launching new
// accounts; in-flight evaluations complete so no state write is torn.
func (s *Service) Scan(ctx context.Context, now time.Time, accounts []AccountFacts) []Outcome {
	outcomes := make([]Outcome, len(accounts))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, facts := range accounts {
		if ctx.Err() != nil {
			outcomes[i] = Outcome{AccountID: facts.AccountID, Err: ctx.Err().Error()}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, facts AccountFacts) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.EvaluateAccount(ctx, now, facts)
		}(i, facts)
	}
	wg.Wait()
	return outcomes
}

// EvaluateAccount runs the full pipeline for one account: score, decide,
// persist, then fire the draft and narrative side effects. Only a state
// write failure is fatal; collaborator failures are logged and the
// committed transition stands.
func (s *Service) EvaluateAccount(ctx context.Context, now time.Time, facts AccountFacts) Outcome {
	payment := scoring.ScorePayment(facts.AccountID, facts.Payment, now)
	s.persistScore(ctx, payment)

	var technical *scoring.ScoreResult
	if facts.Technical != nil {
		technical = scoring.ScoreTechnical(facts.AccountID, *facts.Technical, now)
		s.persistScore(ctx, technical)
	}
	if facts.Health != nil {
		s.evaluateHealth(ctx, now, facts, payment, technical)
	}

	dec, err := s.transition(ctx, now, facts, payment)
	if err != nil {
		log.Printf("scan %s: state transition failed: %v", facts.AccountID, err)
		return Outcome{
			AccountID:    facts.AccountID,
			PaymentScore: payment.Score,
			PaymentBand:  payment.Band,
			Err:          err.Error(),
		}
	}

	out := Outcome{
		AccountID:    facts.AccountID,
		Action:       dec.Action,
		Stage:        dec.Next.Stage,
		Reason:       dec.Reason,
		PaymentScore: payment.Score,
		PaymentBand:  payment.Band,
	}

	// Side effects after the committed transition. Failures here must not
	// undo the stage reached.
	for _, req := range dec.Requests {
		dreq := drafts.Request{
			AccountID: req.AccountID,
			Recipient: string(req.Recipient),
			Stage:     req.Stage,
			Subject:   req.Subject,
			Body:      req.Body,
			Tone:      req.Tone,
		}
		if req.Recipient == escalation.RecipientEscalation {
			dreq.Address = s.contact
		}
		draftID, err := s.drafts.CreateDraft(ctx, dreq)
		if err != nil {
			log.Printf("scan %s: draft creation failed at stage %d: %v", facts.AccountID, req.Stage, err)
			continue
		}
		out.DraftIDs = append(out.DraftIDs, draftID)
		if err := s.store.RecordDraft(ctx, store.DraftRecord{
			AccountID: req.AccountID,
			Stage:     req.Stage,
			Recipient: string(req.Recipient),
			Subject:   req.Subject,
			DraftID:   draftID,
		}); err != nil {
			log.Printf("scan %s: draft audit record failed: %v", facts.AccountID, err)
		}
	}

	if s.narrative != nil && dec.Action == escalation.ActionAdvance {
		if text, err := s.narrative.Explain(ctx, payment); err != nil {
			log.Printf("scan %s: narrative enrichment failed: %v", facts.AccountID, err)
		} else if text != "" {
			log.Printf("scan %s: narrative: %s", facts.AccountID, text)
		}
	}

	if dec.Action != escalation.ActionNone {
		log.Printf("scan %s: stage=%d action=%s reason=%q", facts.AccountID, dec.Next.Stage, dec.Action, dec.Reason)
	}
	return out
}

// Resolve applies the explicit payment-received event: the ladder resets
// to stage 0 and a terminal account is unfrozen.
func (s *Service) Resolve(ctx context.Context, now time.Time, accountID string) (escalation.State, error) {
	for attempt := 0; attempt < 2; attempt++ {
		prev, err := s.store.GetState(ctx, accountID)
		if err != nil {
			return escalation.State{}, err
		}
		next := escalation.Reset(prev, now)
		err = s.store.PutState(ctx, prev, next)
		if err == nil {
			log.Printf("resolve %s: ladder reset from stage %d", accountID, prev.Stage)
			return next, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return escalation.State{}, err
		}
	}
	return escalation.State{}, fmt.Errorf("resolve %s: %w", accountID, store.ErrConflict)
}

// transition reads, decides, and optimistically writes one account's
// state, retrying once on a concurrent-scan conflict.
func (s *Service) transition(ctx context.Context, now time.Time, facts AccountFacts, payment *scoring.ScoreResult) (escalation.Decision, error) {
	var dec escalation.Decision
	for attempt := 0; attempt < 2; attempt++ {
		prev, err := s.store.GetState(ctx, facts.AccountID)
		if err != nil {
			return dec, fmt.Errorf("read state: %w", err)
		}

		dec = escalation.Decide(escalation.Input{
			Now:          now,
			State:        prev,
			Payment:      payment,
			Responded:    facts.RespondedSince,
			Signals:      facts.Payment,
			Relationship: facts.Relationship,
			Floors:       s.floors,
		})
		if !dec.Changed {
			return dec, nil
		}

		err = s.store.PutState(ctx, prev, dec.Next)
		if err == nil {
			return dec, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return dec, fmt.Errorf("write state: %w", err)
		}
		log.Printf("scan %s: concurrent update detected, retrying", facts.AccountID)
	}
	return dec, fmt.Errorf("write state: %w", store.ErrConflict)
}

// evaluateHealth computes the aggregate health score using the bands (not
// the raw scores) of the other domains, compares it to the previously
// stored result, and persists it.
func (s *Service) evaluateHealth(ctx context.Context, now time.Time, facts AccountFacts, payment, technical *scoring.ScoreResult) {
	external := scoring.ExternalBands{scoring.DomainPayment: payment.Band}
	if technical != nil {
		external[scoring.DomainTechnical] = technical.Band
	}

	var prev *scoring.ScoreResult
	if rec, err := s.store.LatestScore(ctx, facts.AccountID, scoring.DomainHealth); err != nil {
		log.Printf("scan %s: previous health score unavailable: %v", facts.AccountID, err)
	} else if rec != nil {
		prev = &scoring.ScoreResult{Score: rec.Score, Band: scoring.Band(rec.Band)}
	}

	health := scoring.ScoreHealth(facts.AccountID, *facts.Health, external, now)
	if scoring.ShouldEscalateHealth(health, prev) {
		log.Printf("scan %s: account health escalation: score=%.1f band=%s", facts.AccountID, health.Score, health.Band)
	}
	s.persistScore(ctx, health)
}

// persistScore archives the full document (best effort) and appends the
// score row. A failed archive downgrades to a row without a storage ref;
// a failed row insert is logged, since history is advisory for scoring.
func (s *Service) persistScore(ctx context.Context, result *scoring.ScoreResult) {
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		log.Printf("score %s/%s: marshal breakdown: %v", result.SubjectID, result.Domain, err)
		return
	}

	rec := store.ScoreRecord{
		AccountID:  result.SubjectID,
		Domain:     result.Domain,
		Score:      result.Score,
		Band:       string(result.Band),
		Escalate:   result.Escalate,
		Breakdown:  breakdown,
		ComputedAt: result.ComputedAt,
	}

	if s.archive != nil {
		blobID := uuid.NewString()
		if doc, err := json.Marshal(result); err != nil {
			log.Printf("score %s/%s: marshal document: %v", result.SubjectID, result.Domain, err)
		} else if err := s.archive.PutScore(ctx, result.SubjectID, blobID, doc); err != nil {
			log.Printf("score %s/%s: archive failed: %v", result.SubjectID, result.Domain, err)
		} else {
			rec.StorageRef = archive.Ref(result.SubjectID, blobID)
		}
	}

	if _, err := s.store.SaveScore(ctx, rec); err != nil {
		log.Printf("score %s/%s: save failed: %v", result.SubjectID, result.Domain, err)
	}
}
