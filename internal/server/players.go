package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"rank-decay-tracker/internal/domain"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

type keyRequest struct {
	Key string `json:"key"`
}

type updateRequest struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

type updateDecayRequest struct {
	Key           string     `json:"key"`
	DecayDays     *int       `json:"decayDays"`
	LastCheckedAt *time.Time `json:"lastCheckedAt"`
}

type updateFavoriteRequest struct {
	Key      string `json:"key"`
	Favorite *bool  `json:"favorite"`
}

// pathParam returns a decoded route parameter. chi matches on RawPath when the
// request has one, and then its params are still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	u, err := url.PathUnescape(v)
	if err != nil {
		return "", fmt.Errorf("%w: invalid %s: %v", domain.ErrValidation, name, err)
	}
	return u, nil
}

func (s *DecayServer) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.ListPlayers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, players)
}

func (s *DecayServer) GetPlayer(w http.ResponseWriter, r *http.Request) {
	key, err := pathParam(r, "key")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.players.GetPlayer(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, rec)
}

func (s *DecayServer) GetDecayHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation))
			return
		}
		limit = n
	}

	key, err := pathParam(r, "key")
	if err != nil {
		writeError(w, r, err)
		return
	}
	changes, err := s.players.DecayHistory(r.Context(), key, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if changes == nil {
		changes = []domain.DecayChange{}
	}
	writeSuccess(w, changes)
}

func (s *DecayServer) Search(w http.ResponseWriter, r *http.Request) {
	handle, err := pathParam(r, "handle")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tag, err := pathParam(r, "tag")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.players.Search(r.Context(), handle, tag)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, rec)
}

func (s *DecayServer) Refresh(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.players.Refresh(r.Context(), req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, rec)
}

func (s *DecayServer) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Data) == 0 || bytes.Equal(req.Data, []byte("null")) {
		writeError(w, r, fmt.Errorf("%w: data is required", domain.ErrValidation))
		return
	}

	var patch domain.PlayerPatch
	dec := json.NewDecoder(bytes.NewReader(req.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid data: %v", domain.ErrValidation, err))
		return
	}

	rec, err := s.players.UpdatePlayer(r.Context(), req.Key, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, rec)
}

func (s *DecayServer) UpdateDecay(w http.ResponseWriter, r *http.Request) {
	var req updateDecayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.DecayDays == nil {
		writeError(w, r, fmt.Errorf("%w: decayDays is required", domain.ErrValidation))
		return
	}

	rec, err := s.players.UpdateDecay(r.Context(), req.Key, *req.DecayDays, req.LastCheckedAt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, rec)
}

func (s *DecayServer) UpdateFavorite(w http.ResponseWriter, r *http.Request) {
	var req updateFavoriteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Favorite == nil {
		writeError(w, r, fmt.Errorf("%w: favorite is required", domain.ErrValidation))
		return
	}

	rec, err := s.players.UpdateFavorite(r.Context(), req.Key, *req.Favorite)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, rec)
}

func (s *DecayServer) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.players.DeletePlayer(r.Context(), req.Key); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, map[string]string{"deleted": req.Key})
}
