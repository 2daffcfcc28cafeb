// Package api implements the hosted PulseGate REST API.
// It provides read endpoints over escalation state and score history,
// plus operator endpoints for resolving accounts and triggering scans.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/pulsegate/pulsegate/internal/scan"
	"github.com/pulsegate/pulsegate/internal/store"
)

// Handler is the top-level API handler for the hosted PulseGate service.
type Handler struct {
	store   store.Store
	scanSvc *scan.Service
}

// NewHandler creates a new API handler.
func NewHandler(st store.Store, scanSvc *scan.Service) *Handler {
	return &Handler{
		store:   st,
		scanSvc: scanSvc,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Read endpoints
	mux.HandleFunc("GET /api/v1/accounts", h.handleListAccounts)
	mux.HandleFunc("GET /api/v1/accounts/{accountID}/state", h.handleGetState)
	mux.HandleFunc("GET /api/v1/accounts/{accountID}/scores", h.handleListScores)

	// Write endpoints (auth-protected)
	mux.HandleFunc("POST /api/v1/accounts/{accountID}/resolve", h.handleResolve)
	mux.HandleFunc("POST /internal/scan", h.handleScan)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
