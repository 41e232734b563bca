package server

import (
	"net/http"
	"rank-decay-tracker/internal/api"
	"rank-decay-tracker/internal/ratelimit"
)

type healthStatus struct {
	Status   string            `json:"status"`
	Store    string            `json:"store"`
	Governor ratelimit.Status  `json:"governor"`
	Upstream api.RateLimitInfo `json:"upstream"`
}

func (s *DecayServer) Health(w http.ResponseWriter, r *http.Request) {
	h := healthStatus{
		Status:   "ok",
		Store:    "ok",
		Governor: s.governor.Status(),
		Upstream: s.riot.GetRateLimitInfo(),
	}
	if err := s.players.Ping(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("store ping failed")
		h.Status = "degraded"
		h.Store = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: h, Error: "store unavailable"})
		return
	}
	writeSuccess(w, h)
}
