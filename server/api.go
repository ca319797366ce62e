package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"arena-server/auth"
	"arena-server/game"
	"arena-server/protocol"
	"arena-server/store"
)

const (
	statsDays  = 7
	statsLimit = 10
	qrSize     = 256
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// MetricsResponse is served at /api/v1/metrics
type MetricsResponse struct {
	Timestamp      time.Time `json:"timestamp"`
	UptimeSec      int64     `json:"uptime_sec"`
	Tick           uint64    `json:"tick"`
	Players        int       `json:"players"`
	Alive          int       `json:"alive"`
	Food           int       `json:"food"`
	Connections    int       `json:"connections"`
	TickCostMs     float64   `json:"tick_cost_ms"`
	EventsLost     int       `json:"events_lost"`
	TickRate       int       `json:"tick_rate"`
	NetworkRate    int       `json:"network_rate"`
	BoundaryRadius float64   `json:"boundary_radius"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	st := s.game.Stats()
	cfg := s.game.Config()
	resp := MetricsResponse{
		Timestamp:      time.Now().UTC(),
		UptimeSec:      int64(time.Since(s.started).Seconds()),
		Tick:           st.Tick,
		Players:        st.Players,
		Alive:          st.Alive,
		Food:           st.Food,
		Connections:    s.hub.TotalConns(),
		TickCostMs:     float64(st.TickCost) / float64(time.Millisecond),
		TickRate:       cfg.TickRate,
		NetworkRate:    cfg.NetworkRate,
		BoundaryRadius: cfg.BoundaryRadius,
	}
	if s.analytics != nil {
		resp.EventsLost = s.analytics.Dropped()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board := s.game.Stats().Leaderboard
	if board == nil {
		board = []protocol.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, board)
}

// StatsResponse is served at /api/v1/stats
type StatsResponse struct {
	Events      map[string]int    `json:"events"`
	DeathCauses map[string]int    `json:"death_causes"`
	TopKillers  []store.KillerRow `json:"top_killers"`
	BestScores  []store.ScoreRow  `json:"best_scores"`
	DailyJoins  []store.DayCount  `json:"daily_joins"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, http.StatusServiceUnavailable, "analytics disabled")
		return
	}
	resp, err := s.collectStats()
	if err != nil {
		log.Printf("stats: %v", err)
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) collectStats() (StatsResponse, error) {
	var resp StatsResponse
	var err error
	if resp.Events, err = s.analytics.EventCounts(statsDays); err != nil {
		return resp, err
	}
	if resp.DeathCauses, err = s.analytics.DeathCauses(); err != nil {
		return resp, err
	}
	if resp.TopKillers, err = s.analytics.TopKillers(statsLimit); err != nil {
		return resp, err
	}
	if resp.BestScores, err = s.analytics.BestScores(statsLimit); err != nil {
		return resp, err
	}
	resp.DailyJoins, err = s.analytics.DailyJoins(statsDays)
	return resp, err
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusNotFound, "admin disabled")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	token, err := s.auth.Login(req.Password, extractIP(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	case errors.Is(err, auth.ErrDisabled):
		writeError(w, http.StatusNotFound, "admin disabled")
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		log.Printf("login: %v", err)
		writeError(w, http.StatusInternalServerError, "login failed")
	}
}

// requireAdmin rejects requests without a valid bearer token
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			writeError(w, http.StatusNotFound, "admin disabled")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		if _, err := s.auth.ValidateToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.game.Kick(id); err != nil {
		if errors.Is(err, game.ErrNotFound) {
			writeError(w, http.StatusNotFound, "player not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "kick failed")
		return
	}
	log.Printf("player %s kicked", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(s.publicURL, qrcode.Medium, qrSize)
	if err != nil {
		log.Printf("qr: %v", err)
		writeError(w, http.StatusInternalServerError, "qr failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=3600")
	w.Write(png)
}
