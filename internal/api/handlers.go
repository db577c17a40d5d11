package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/services"
	"github.com/stakeflow/stakeflow-indexer/internal/types"
)

const errDashboardNotLoaded = "dashboard has not been loaded yet"

type errorResponse struct {
	Error string `json:"error"`
}

type dashboardResponse struct {
	*services.Dashboard
	// LastError is set when the latest refresh failed and an older dashboard is served.
	LastError string `json:"last_error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// latest writes a 503 and returns nil when no load has succeeded yet.
func (s *Server) latest(w http.ResponseWriter) (*services.Dashboard, error) {
	dashboard, lastErr := s.service.LatestDashboard()
	if dashboard == nil {
		message := errDashboardNotLoaded
		if lastErr != nil {
			message = lastErr.Error()
		}
		writeError(w, http.StatusServiceUnavailable, message)
	}
	return dashboard, lastErr
}

func (s *Server) healthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getDashboard(w http.ResponseWriter, _ *http.Request) {
	dashboard, lastErr := s.latest(w)
	if dashboard == nil {
		return
	}

	resp := dashboardResponse{Dashboard: dashboard}
	if lastErr != nil {
		resp.LastError = lastErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getDaily(w http.ResponseWriter, _ *http.Request) {
	if dashboard, _ := s.latest(w); dashboard != nil {
		writeJSON(w, http.StatusOK, dashboard.Daily)
	}
}

func (s *Server) getAudit(w http.ResponseWriter, _ *http.Request) {
	if dashboard, _ := s.latest(w); dashboard != nil {
		writeJSON(w, http.StatusOK, dashboard.Audit)
	}
}

func (s *Server) getWallets(w http.ResponseWriter, r *http.Request) {
	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	dashboard, _ := s.latest(w)
	if dashboard == nil {
		return
	}

	wallets := dashboard.Wallets
	if wallets == nil {
		wallets = []*services.WalletStats{}
	}
	if limit >= 0 && limit < len(wallets) {
		wallets = wallets[:limit]
	}
	writeJSON(w, http.StatusOK, wallets)
}

// refresh is the manual retry of a failed load. The load runs to completion
// even if the client goes away.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.service.Refresh(context.WithoutCancel(r.Context()))
	if err != nil {
		status := http.StatusInternalServerError
		if types.IsTransportError(err) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: dashboard})
}
