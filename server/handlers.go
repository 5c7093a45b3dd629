package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rustyeddy/fxlot/calc"
	"github.com/rustyeddy/fxlot/input"
	"github.com/rustyeddy/fxlot/market"
	"github.com/rustyeddy/fxlot/pricing"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

type ratesResponse struct {
	Rates       map[string]string `json:"rates"`
	UpdatedAt   string            `json:"updated_at"`
	LastUpdated string            `json:"last_updated"`
	Fetch       *fetchStatus      `json:"fetch,omitempty"`
}

type fetchStatus struct {
	InProgress  bool   `json:"in_progress"`
	LastError   string `json:"last_error,omitempty"`
	LastSuccess string `json:"last_success,omitempty"`
}

type convertRequest struct {
	Balance string `json:"balance"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type convertResponse struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

type snapshotResponse struct {
	ID        string            `json:"id"`
	FetchedAt string            `json:"fetched_at"`
	Rates     map[string]string `json:"rates"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
		"service": "fxlot",
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	currencies := make([]string, 0, len(market.Currencies))
	for _, c := range market.Currencies {
		currencies = append(currencies, c.String())
	}
	balances := make([]string, 0, len(market.BalanceCurrencies))
	for _, b := range market.BalanceCurrencies {
		balances = append(balances, b.String())
	}
	steps := input.RiskSteps()
	risk := make([]string, 0, len(steps))
	for _, p := range steps {
		risk = append(risk, p.StringFixed(1))
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"currencies":         currencies,
		"balance_currencies": balances,
		"risk_percents":      risk,
		"leverages":          input.Leverages,
	})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()

	resp := ratesResponse{
		Rates:       rateStrings(snap.Rates),
		LastUpdated: calc.FormatUpdated(snap.UpdatedAt),
	}
	if !snap.UpdatedAt.IsZero() {
		resp.UpdatedAt = snap.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if s.fetcher != nil {
		st := s.fetcher.Status()
		resp.Fetch = &fetchStatus{InProgress: st.InProgress, LastError: st.LastError}
		if !st.LastSuccess.IsZero() {
			resp.Fetch.LastSuccess = st.LastSuccess.UTC().Format(time.RFC3339)
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleRefresh starts a fetch and answers before it completes.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.fetcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "rate refresh is not configured")
		return
	}

	err := s.fetcher.FetchAsync(context.Background(), func(_ market.RateTable, err error) {
		if err != nil {
			s.log.Warn().Err(err).Msg("Background rate refresh failed")
		}
	})
	if pricing.IsKind(err, pricing.AlreadyInProgress) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, "rate journal is not configured")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	recs, err := s.journal.List(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list rate snapshots")
		s.writeError(w, http.StatusInternalServerError, "failed to read rate history")
		return
	}

	out := make([]snapshotResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, snapshotResponse{
			ID:        rec.ID,
			FetchedAt: rec.FetchedAt.UTC().Format(time.RFC3339),
			Rates:     rateStrings(rec.Rates),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	var req calc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.engine.Evaluate(req)
	if errors.Is(err, calc.ErrInvalidRequest) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Calculation failed")
		s.writeError(w, http.StatusInternalServerError, "calculation failed")
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	balance, err := s.engine.SwitchBalanceCurrency(req.Balance, req.From, req.To)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	to, _ := market.ParseBalanceCurrency(req.To)
	s.writeJSON(w, http.StatusOK, convertResponse{Balance: balance, Currency: to.String()})
}

func rateStrings(t market.RateTable) map[string]string {
	out := make(map[string]string, t.Len())
	for c, r := range t.Map() {
		if c == market.JPY {
			out[c.String()] = r.StringFixed(4)
			continue
		}
		out[c.String()] = r.StringFixed(2)
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
