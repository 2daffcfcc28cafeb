// Package escalation implements the dunning escalation ladder: a persisted
// per-account state machine that decides, once per scan, whether an account
// holds its stage, advances, resets, or reaches the terminal human-handoff
// stage. The decision core is pure; persistence and draft creation happen
// around it.
package escalation

import (
	"fmt"
	"time"

	"github.com/pulsegate/pulsegate/pkg/scoring"
	"github.com/pulsegate/pulsegate/pkg/signal"
)

// TerminalStage is the human-handoff stage. Once an account is notified at
// this stage, no further automated action occurs until an explicit
// payment-received reset.
const TerminalStage = 5

// defaultFloors is the minimum whole days an account must sit in each
// stage before it is eligible to advance out of it. Stage 0 has no floor.
var defaultFloors = map[int]int{
	0: 0,
	1: 7,
	2: 10,
	3: 7,
	4: 5,
}

// FloorDays returns the time floor for a stage, in whole days.
func FloorDays(stage int, overrides map[int]int) int {
	if overrides != nil {
		if d, ok := overrides[stage]; ok {
			return d
		}
	}
	return defaultFloors[stage]
}

// State is the persisted escalation record for one account. It is created
// lazily at stage 0 on first scan, mutated only through Decide and Reset,
// and never deleted.
type State struct {
	AccountID          string     `json:"account_id"`
	Stage              int        `json:"stage"`
	StageEnteredAt     time.Time  `json:"stage_entered_at"`
	LastMessageSentAt  *time.Time `json:"last_message_sent_at,omitempty"`
	MessagesUnanswered int        `json:"messages_unanswered"`
	TerminalNotified   bool       `json:"terminal_notified"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Action classifies what a scan decided for one account.
type Action string

const (
	ActionNone    Action = "NONE"    // terminal, or not delinquent
	ActionHold    Action = "HOLD"    // delinquent but a gate is unmet
	ActionAdvance Action = "ADVANCE" // moved one stage up
	ActionReset   Action = "RESET"   // recovered, back to stage 0
)

// Recipient distinguishes who a message request is addressed to.
type Recipient string

const (
	RecipientOwner      Recipient = "OWNER"
	RecipientEscalation Recipient = "ESCALATION"
)

// MessageRequest asks the drafting surface for one outbound draft. Drafts
// are always routed to a human for approval; nothing in this package, or
// downstream of it, sends mail.
type MessageRequest struct {
	AccountID string
	Recipient Recipient
	Stage     int
	Subject   string
	Body      string
	Tone      float64
}

// Input is everything one scan of one account needs. Now is supplied by
// the caller; the engine never reads the wall clock.
type Input struct {
	Now     time.Time
	State   State
	Payment *scoring.ScoreResult
	// Responded reports whether a qualifying response arrived since
	// LastMessageSentAt. The caller derives it from upstream facts.
	Responded    bool
	Signals      signal.PaymentSignals
	Relationship signal.RelationshipSignals
	// Floors overrides the stage time floors when non-nil.
	Floors map[int]int
}

// Decision is the outcome of one scan for one account. Changed reports
// whether Next differs from the input state and needs to be persisted.
type Decision struct {
	Next     State
	Requests []MessageRequest
	Action   Action
	Reason   string
	Changed  bool
}

// Decide evaluates one account against the ladder. It is a pure function:
// no I/O, no clock reads, no mutation of its input.
//
// Advancement from stage n to n+1 requires both gates: the account has sat
// in stage n for at least its time floor, and at least one message has gone
// unanswered. Reaching the terminal stage issues two message requests (the
// account owner and the designated escalation recipient) and freezes the
// state until an explicit reset.
func Decide(in Input) Decision {
	st := in.State
	prev := st

	if st.TerminalNotified {
		return decided(prev, st, nil, ActionNone, "terminal stage; awaiting payment-received reset")
	}

	if in.Payment == nil || !in.Payment.Escalate {
		if st.Stage > 0 {
			// Recovered mid-ladder: a new delinquency cycle starts clean.
			st.Stage = 0
			st.StageEnteredAt = in.Now
			st.MessagesUnanswered = 0
			return decided(prev, st, nil, ActionReset, "payment risk cleared; ladder reset")
		}
		return decided(prev, st, nil, ActionNone, "not delinquent")
	}

	if in.Responded {
		// A response resets the non-response gate without regressing the
		// stage.
		st.MessagesUnanswered = 0
		return decided(prev, st, nil, ActionHold, "qualifying response received")
	}

	st.MessagesUnanswered++

	floor := FloorDays(st.Stage, in.Floors)
	days := wholeDays(st.StageEnteredAt, in.Now)
	if days < floor {
		return decided(prev, st, nil, ActionHold,
			fmt.Sprintf("time floor unmet: %d of %d days in stage %d", days, floor, st.Stage))
	}

	// Both gates met: advance exactly one stage.
	st.Stage++
	st.StageEnteredAt = in.Now
	st.MessagesUnanswered = 0
	sent := in.Now
	st.LastMessageSentAt = &sent

	tone := scoring.Tone(in.Relationship)
	requests := []MessageRequest{ownerMessage(st.AccountID, st.Stage, in.Signals, tone)}
	if st.Stage == TerminalStage {
		requests = append(requests, escalationMessage(st.AccountID, in.Signals, tone))
		st.TerminalNotified = true
		return decided(prev, st, requests, ActionAdvance, "terminal stage reached; handed off")
	}

	return decided(prev, st, requests, ActionAdvance,
		fmt.Sprintf("advanced to stage %d", st.Stage))
}

// Reset applies the explicit payment-received / resolved event. Unlike the
// scan-detected recovery in Decide, it also clears a terminal state.
func Reset(st State, now time.Time) State {
	st.Stage = 0
	st.StageEnteredAt = now
	st.MessagesUnanswered = 0
	st.TerminalNotified = false
	return st
}

func decided(prev, next State, requests []MessageRequest, action Action, reason string) Decision {
	changed := next.Stage != prev.Stage ||
		next.MessagesUnanswered != prev.MessagesUnanswered ||
		next.TerminalNotified != prev.TerminalNotified ||
		!next.StageEnteredAt.Equal(prev.StageEnteredAt)
	return Decision{Next: next, Requests: requests, Action: action, Reason: reason, Changed: changed}
}

func wholeDays(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		if from.IsZero() {
			// Lazily created state has no entry timestamp yet; treat the
			// floor as satisfied (stage 0 has a zero floor anyway).
			return int(^uint(0) >> 1)
		}
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
