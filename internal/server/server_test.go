package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawtrends/claw-trends/pkg/models"
)

type fakeSyncRunner struct {
	stats *models.SyncStats
	err   error
	calls int
}

func (f *fakeSyncRunner) Sync(ctx context.Context) (*models.SyncStats, error) {
	f.calls++
	return f.stats, f.err
}

type fakeClusterReader struct {
	clusters []models.Cluster
	err      error
	gotType  models.RecordType
	gotSince *time.Time
}

func (f *fakeClusterReader) Clusters(ctx context.Context, typ models.RecordType, since *time.Time) ([]models.Cluster, error) {
	f.gotType = typ
	f.gotSince = since
	return f.clusters, f.err
}

func newTestServer(sr SyncRunner, cr ClusterReader, secret string) http.Handler {
	return New(sr, cr, secret, zerolog.Nop()).Router()
}

func TestSyncRequiresBearerToken(t *testing.T) {
	sr := &fakeSyncRunner{stats: &models.SyncStats{}}
	h := newTestServer(sr, &fakeClusterReader{}, "s3cret")

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"correct", "Bearer s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sync", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Equal(t, 1, sr.calls)
}

func TestSyncReturnsStats(t *testing.T) {
	sr := &fakeSyncRunner{stats: &models.SyncStats{NewPulls: 3, ProcessedPulls: 2, FullClosureCheck: true}}
	h := newTestServer(sr, &fakeClusterReader{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/sync", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.SyncStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.NewPulls)
	assert.Equal(t, 2, got.ProcessedPulls)
	assert.True(t, got.FullClosureCheck)
}

func TestSyncFailureIs500(t *testing.T) {
	sr := &fakeSyncRunner{err: errors.New("qdrant down")}
	h := newTestServer(sr, &fakeClusterReader{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/sync", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClustersDefaultsToPullsAllTime(t *testing.T) {
	cr := &fakeClusterReader{clusters: []models.Cluster{{ID: "pr-1", Label: "a", Count: 2}}}
	h := newTestServer(&fakeSyncRunner{}, cr, "")

	req := httptest.NewRequest(http.MethodGet, "/api/clusters", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TypePull, cr.gotType)
	assert.Nil(t, cr.gotSince)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "s-maxage")
}

func TestClustersTypeAndRangeParams(t *testing.T) {
	cr := &fakeClusterReader{}
	h := newTestServer(&fakeSyncRunner{}, cr, "")

	req := httptest.NewRequest(http.MethodGet, "/api/clusters?type=issue&range=week", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TypeIssue, cr.gotType)
	require.NotNil(t, cr.gotSince)
	lookback := time.Since(*cr.gotSince)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), lookback.Seconds(), 60)
}

func TestClustersUnknownRangeMeansAllTime(t *testing.T) {
	cr := &fakeClusterReader{}
	h := newTestServer(&fakeSyncRunner{}, cr, "")

	req := httptest.NewRequest(http.MethodGet, "/api/clusters?range=fortnight", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cr.gotSince)
}

func TestClustersEmptyResultIsEmptyArray(t *testing.T) {
	h := newTestServer(&fakeSyncRunner{}, &fakeClusterReader{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/clusters", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Clusters []models.Cluster `json:"clusters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Clusters)
	assert.Empty(t, body.Clusters)
}
