package syncer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawtrends/claw-trends/internal/vectordb"
	"github.com/clawtrends/claw-trends/pkg/models"
)

type fakeSource struct {
	open          map[models.RecordType][]*models.Record
	listNewCalls  int
	openNumsCalls int
	err           error
}

func (f *fakeSource) ListNew(ctx context.Context, typ models.RecordType, known map[string]bool) ([]*models.Record, error) {
	f.listNewCalls++
	if f.err != nil {
		return nil, f.err
	}
	var fresh []*models.Record
	for _, rec := range f.open[typ] {
		if !known[rec.ID()] {
			fresh = append(fresh, rec)
		}
	}
	return fresh, nil
}

func (f *fakeSource) ListOpenNumbers(ctx context.Context, typ models.RecordType) ([]int, error) {
	f.openNumsCalls++
	if f.err != nil {
		return nil, f.err
	}
	var numbers []int
	for _, rec := range f.open[typ] {
		numbers = append(numbers, rec.Number)
	}
	return numbers, nil
}

type fakeEmbedder struct {
	failFor map[string]bool // substring of text -> fail
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	for sub := range f.failFor {
		if strings.Contains(text, sub) {
			return nil, errors.New("embedding unavailable")
		}
	}
	return []float32{0.5}, nil
}

type fakeIndex struct {
	neighbors map[string][]vectordb.Neighbor // record id -> canned result
	entries   map[string]vectordb.Entry
}

func (f *fakeIndex) Upsert(ctx context.Context, entry vectordb.Entry) error {
	if f.entries == nil {
		f.entries = make(map[string]vectordb.Entry)
	}
	f.entries[entry.Metadata.ID] = entry
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, topK int) ([]vectordb.Neighbor, error) {
	// Per-record scripting happens through the pending id set by tests; keep
	// it simple and return one shared canned result.
	return f.neighbors["*"], nil
}

type storedRow struct {
	rec       *models.Record
	clusterID string
	status    string
}

type fakeStore struct {
	rows    map[string]*storedRow
	meta    map[string]string
	inserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*storedRow), meta: make(map[string]string)}
}

func (f *fakeStore) InsertRecord(ctx context.Context, rec *models.Record, clusterID string) error {
	f.inserts++
	if _, ok := f.rows[rec.ID()]; ok {
		return nil // dedup by primary key
	}
	f.rows[rec.ID()] = &storedRow{rec: rec, clusterID: clusterID, status: models.StatusOpen}
	return nil
}

func (f *fakeStore) ExistingIDs(ctx context.Context, typ models.RecordType) (map[string]bool, error) {
	ids := make(map[string]bool)
	for id, row := range f.rows {
		if row.rec.Type == typ {
			ids[id] = true
		}
	}
	return ids, nil
}

func (f *fakeStore) MarkClosed(ctx context.Context, typ models.RecordType, openNumbers []int) error {
	open := make(map[int]bool, len(openNumbers))
	for _, n := range openNumbers {
		open[n] = true
	}
	for _, row := range f.rows {
		if row.rec.Type == typ && row.status == models.StatusOpen && !open[row.rec.Number] {
			row.status = models.StatusClosed
		}
	}
	return nil
}

func (f *fakeStore) GetMeta(ctx context.Context, key string) (string, error) {
	return f.meta[key], nil
}

func (f *fakeStore) SetMeta(ctx context.Context, key, value string) error {
	f.meta[key] = value
	return nil
}

func rec(typ models.RecordType, number int, title string) *models.Record {
	return &models.Record{
		Type:      typ,
		Number:    number,
		Title:     title,
		Status:    models.StatusOpen,
		CreatedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
}

func newReconciler(src *fakeSource, emb *fakeEmbedder, idx *fakeIndex, st *fakeStore) *Reconciler {
	return NewReconciler(src, emb, idx, st, time.Hour, zerolog.Nop())
}

func TestSyncIngestsNewRecords(t *testing.T) {
	src := &fakeSource{open: map[models.RecordType][]*models.Record{
		models.TypePull:  {rec(models.TypePull, 1, "Fix login crash")},
		models.TypeIssue: {rec(models.TypeIssue, 2, "Dark mode broken")},
	}}
	idx := &fakeIndex{}
	st := newFakeStore()

	stats, err := newReconciler(src, &fakeEmbedder{}, idx, st).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ProcessedPulls)
	assert.Equal(t, 1, stats.ProcessedIssues)
	require.Contains(t, st.rows, "pr-1")
	require.Contains(t, st.rows, "issue-2")
	// Vector index and relational row carry the same cluster id.
	assert.Equal(t, st.rows["pr-1"].clusterID, idx.entries["pr-1"].Metadata.ClusterID)
}

func TestSyncJoinsExistingCluster(t *testing.T) {
	src := &fakeSource{open: map[models.RecordType][]*models.Record{
		models.TypePull: {rec(models.TypePull, 9, "Login crashes on iOS")},
	}}
	idx := &fakeIndex{neighbors: map[string][]vectordb.Neighbor{
		"*": {{ID: "pr-1", Score: 0.91, ClusterID: "pr-1"}},
	}}
	st := newFakeStore()

	_, err := newReconciler(src, &fakeEmbedder{}, idx, st).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pr-1", st.rows["pr-9"].clusterID)
}

func TestSyncIdempotence(t *testing.T) {
	src := &fakeSource{open: map[models.RecordType][]*models.Record{
		models.TypePull: {rec(models.TypePull, 1, "a"), rec(models.TypePull, 2, "b")},
	}}
	st := newFakeStore()
	r := newReconciler(src, &fakeEmbedder{}, &fakeIndex{}, st)

	_, err := r.Sync(context.Background())
	require.NoError(t, err)

	clustersBefore := map[string]string{}
	for id, row := range st.rows {
		clustersBefore[id] = row.clusterID
	}
	insertsBefore := st.inserts

	// Second cycle with no new upstream records changes nothing.
	stats, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.NewPulls)
	assert.Equal(t, insertsBefore, st.inserts)
	require.Len(t, st.rows, len(clustersBefore))
	for id, row := range st.rows {
		assert.Equal(t, clustersBefore[id], row.clusterID)
	}
}

func TestSyncSkipsFailingRecordAndContinues(t *testing.T) {
	src := &fakeSource{open: map[models.RecordType][]*models.Record{
		models.TypePull: {
			rec(models.TypePull, 1, "poisoned title"),
			rec(models.TypePull, 2, "healthy"),
		},
	}}
	st := newFakeStore()
	emb := &fakeEmbedder{failFor: map[string]bool{"poisoned": true}}

	stats, err := newReconciler(src, emb, &fakeIndex{}, st).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.NewPulls)
	assert.Equal(t, 1, stats.ProcessedPulls)
	assert.NotContains(t, st.rows, "pr-1")
	assert.Contains(t, st.rows, "pr-2")

	// The skipped record is still unknown, so the next cycle retries it.
	emb.failFor = nil
	_, err = newReconciler(src, emb, &fakeIndex{}, st).Sync(context.Background())
	require.NoError(t, err)
	assert.Contains(t, st.rows, "pr-1")
}

func TestSyncListingFailureIsFatal(t *testing.T) {
	src := &fakeSource{err: errors.New("502 bad gateway")}

	_, err := newReconciler(src, &fakeEmbedder{}, &fakeIndex{}, newFakeStore()).Sync(context.Background())
	assert.Error(t, err)
}

func TestClosureCheckMarksMissingRecordsClosed(t *testing.T) {
	src := &fakeSource{open: map[models.RecordType][]*models.Record{
		models.TypePull: {rec(models.TypePull, 1, "still open")},
	}}
	st := newFakeStore()
	st.rows["pr-1"] = &storedRow{rec: rec(models.TypePull, 1, "still open"), clusterID: "pr-1", status: models.StatusOpen}
	st.rows["pr-2"] = &storedRow{rec: rec(models.TypePull, 2, "merged away"), clusterID: "pr-2", status: models.StatusOpen}

	stats, err := newReconciler(src, &fakeEmbedder{}, &fakeIndex{}, st).Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, stats.FullClosureCheck)
	assert.Equal(t, models.StatusOpen, st.rows["pr-1"].status)
	assert.Equal(t, models.StatusClosed, st.rows["pr-2"].status)
	assert.NotEmpty(t, st.meta["last_full_closure_check"])
}

func TestClosureIsMonotonicWithinSession(t *testing.T) {
	src := &fakeSource{open: map[models.RecordType][]*models.Record{
		models.TypePull: {rec(models.TypePull, 2, "reappeared")},
	}}
	st := newFakeStore()
	// Already closed locally; upstream listing lag makes it show up open.
	st.rows["pr-2"] = &storedRow{rec: rec(models.TypePull, 2, "reappeared"), clusterID: "pr-2", status: models.StatusClosed}

	r := newReconciler(src, &fakeEmbedder{}, &fakeIndex{}, st)
	r.now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }

	_, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, st.rows["pr-2"].status)
}

func TestClosureCheckGatedByWatermark(t *testing.T) {
	src := &fakeSource{open: map[models.RecordType][]*models.Record{}}
	st := newFakeStore()

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	st.meta["last_full_closure_check"] = now.Add(-30 * time.Minute).Format(time.RFC3339)

	r := newReconciler(src, &fakeEmbedder{}, &fakeIndex{}, st)
	r.now = func() time.Time { return now }

	stats, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.FullClosureCheck)
	assert.Equal(t, 0, src.openNumsCalls)

	// Past the interval the full check runs and the watermark advances.
	st.meta["last_full_closure_check"] = now.Add(-2 * time.Hour).Format(time.RFC3339)
	stats, err = r.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.FullClosureCheck)
	assert.Equal(t, 2, src.openNumsCalls) // one listing per record type
	assert.Equal(t, now.Format(time.RFC3339), st.meta["last_full_closure_check"])
}
