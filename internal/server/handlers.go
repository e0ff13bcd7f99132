package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/clawtrends/claw-trends/pkg/models"
)

// rangeWindows maps the range query parameter to a lookback window. An absent
// or unknown range means all-time.
var rangeWindows = map[string]time.Duration{
	"day":   24 * time.Hour,
	"3days": 72 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
}

// requireCronSecret gates the sync trigger behind a bearer token. With no
// secret configured the endpoint is open, which is only acceptable for local
// development.
func (s *Server) requireCronSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cronSecret != "" {
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	stats, err := s.syncer.Sync(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("sync failed")
		writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	typ := models.TypePull
	if r.URL.Query().Get("type") == string(models.TypeIssue) {
		typ = models.TypeIssue
	}

	var since *time.Time
	rangeParam := r.URL.Query().Get("range")
	if window, ok := rangeWindows[rangeParam]; ok {
		t := time.Now().Add(-window)
		since = &t
	}

	clusters, err := s.clusters.Clusters(r.Context(), typ, since)
	if err != nil {
		s.log.Error().Err(err).Msg("cluster query failed")
		writeError(w, http.StatusInternalServerError, "cluster query failed")
		return
	}
	if clusters == nil {
		clusters = []models.Cluster{}
	}

	w.Header().Set("Cache-Control", "public, s-maxage=300, stale-while-revalidate=600")
	writeJSON(w, http.StatusOK, map[string]any{
		"type":     string(typ),
		"range":    rangeParam,
		"clusters": clusters,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
