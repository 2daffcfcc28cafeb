package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pulsegate/pulsegate/internal/escalation"
	"github.com/pulsegate/pulsegate/internal/scan"
	"github.com/pulsegate/pulsegate/internal/store"
)

type stateResponse struct {
	AccountID          string     `json:"account_id"`
	Stage              int        `json:"stage"`
	Terminal           bool       `json:"terminal"`
	StageEnteredAt     *time.Time `json:"stage_entered_at,omitempty"`
	LastMessageSentAt  *time.Time `json:"last_message_sent_at,omitempty"`
	MessagesUnanswered int        `json:"messages_unanswered"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

func stateToResponse(st escalation.State) stateResponse {
	resp := stateResponse{
		AccountID:          st.AccountID,
		Stage:              st.Stage,
		Terminal:           st.TerminalNotified,
		LastMessageSentAt:  st.LastMessageSentAt,
		MessagesUnanswered: st.MessagesUnanswered,
	}
	if !st.StageEnteredAt.IsZero() {
		t := st.StageEnteredAt
		resp.StageEnteredAt = &t
	}
	if !st.UpdatedAt.IsZero() {
		t := st.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

type scoreResponse struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	Domain     string          `json:"domain"`
	Score      float64         `json:"score"`
	Band       string          `json:"band"`
	Escalate   bool            `json:"escalate"`
	Breakdown  json.RawMessage `json:"breakdown"`
	StorageRef string          `json:"storage_ref,omitempty"`
	ComputedAt string          `json:"computed_at"`
}

func scoreToResponse(rec *store.ScoreRecord) scoreResponse {
	return scoreResponse{
		ID:         rec.ID,
		AccountID:  rec.AccountID,
		Domain:     rec.Domain,
		Score:      rec.Score,
		Band:       rec.Band,
		Escalate:   rec.Escalate,
		Breakdown:  rec.Breakdown,
		StorageRef: rec.StorageRef,
		ComputedAt: rec.ComputedAt.Format(time.RFC3339),
	}
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	states, err := h.store.ListStates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	result := []stateResponse{}
	for _, st := range states {
		result = append(result, stateToResponse(st))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("accountID")

	st, err := h.store.GetState(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load state")
		return
	}

	writeJSON(w, http.StatusOK, stateToResponse(st))
}

func (h *Handler) handleListScores(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("accountID")

	// An absent domain filter lists scores across all domains.
	domain := r.URL.Query().Get("domain")

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	scores, err := h.store.ListScores(r.Context(), accountID, domain, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list scores")
		return
	}

	result := []scoreResponse{}
	for i := range scores {
		result = append(result, scoreToResponse(&scores[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("accountID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account id")
		return
	}

	st, err := h.scanSvc.Resolve(r.Context(), time.Now().UTC(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve account")
		return
	}

	writeJSON(w, http.StatusOK, stateToResponse(st))
}

type scanRequest struct {
	Accounts []scan.AccountFacts `json:"accounts"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Accounts) == 0 {
		writeError(w, http.StatusBadRequest, "no accounts in scan request")
		return
	}

	outcomes := h.scanSvc.Scan(r.Context(), time.Now().UTC(), req.Accounts)
	writeJSON(w, http.StatusOK, outcomes)
}
