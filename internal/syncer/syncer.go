// Package syncer drives one bounded unit of ingestion work per invocation:
// discover upstream records not yet persisted, assign each to a cluster, and
// keep open/closed status eventually consistent with the upstream source.
package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clawtrends/claw-trends/internal/cluster"
	"github.com/clawtrends/claw-trends/internal/embedding"
	"github.com/clawtrends/claw-trends/internal/store"
	"github.com/clawtrends/claw-trends/internal/vectordb"
	"github.com/clawtrends/claw-trends/pkg/models"
)

// Source lists upstream records.
type Source interface {
	ListNew(ctx context.Context, typ models.RecordType, known map[string]bool) ([]*models.Record, error)
	ListOpenNumbers(ctx context.Context, typ models.RecordType) ([]int, error)
}

// Embedder produces one embedding per record text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the vector-index slice the incremental path needs.
type Index interface {
	Upsert(ctx context.Context, entry vectordb.Entry) error
	Query(ctx context.Context, vector []float32, topK int) ([]vectordb.Neighbor, error)
}

// Store is the relational-store slice the reconciler needs.
type Store interface {
	InsertRecord(ctx context.Context, rec *models.Record, clusterID string) error
	ExistingIDs(ctx context.Context, typ models.RecordType) (map[string]bool, error)
	MarkClosed(ctx context.Context, typ models.RecordType, openNumbers []int) error
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
}

var recordTypes = []models.RecordType{models.TypePull, models.TypeIssue}

// Reconciler performs one sync cycle at a time. Safe to invoke repeatedly:
// relational inserts are deduplicated by primary key and index upserts are
// idempotent by id, so a crashed or repeated cycle never double-processes.
type Reconciler struct {
	source            Source
	embedder          Embedder
	index             Index
	store             Store
	fullCheckInterval time.Duration
	now               func() time.Time
	log               zerolog.Logger
}

// NewReconciler wires a reconciler from its collaborators
func NewReconciler(source Source, embedder Embedder, index Index, st Store, fullCheckInterval time.Duration, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		source:            source,
		embedder:          embedder,
		index:             index,
		store:             st,
		fullCheckInterval: fullCheckInterval,
		now:               time.Now,
		log:               log,
	}
}

// Sync runs one reconciliation cycle: ingest new PRs and issues, then run
// closure detection if the full-check watermark is due.
func (r *Reconciler) Sync(ctx context.Context) (*models.SyncStats, error) {
	start := r.now()
	stats := &models.SyncStats{}

	for _, typ := range recordTypes {
		processed, total, err := r.syncType(ctx, typ)
		if err != nil {
			return nil, err
		}
		switch typ {
		case models.TypePull:
			stats.ProcessedPulls, stats.NewPulls = processed, total
		case models.TypeIssue:
			stats.ProcessedIssues, stats.NewIssues = processed, total
		}
	}

	ranFullCheck, err := r.closureCheck(ctx)
	if err != nil {
		return nil, err
	}
	stats.FullClosureCheck = ranFullCheck

	stats.DurationMs = int(r.now().Sub(start).Milliseconds())
	r.log.Info().
		Int("new_prs", stats.NewPulls).
		Int("processed_prs", stats.ProcessedPulls).
		Int("new_issues", stats.NewIssues).
		Int("processed_issues", stats.ProcessedIssues).
		Bool("full_closure_check", stats.FullClosureCheck).
		Msg("sync cycle complete")
	return stats, nil
}

// syncType ingests the new records of one type. A failure on one record is
// logged and skipped; the record stays unpersisted and is retried on the next
// cycle. Listing or id-load failures abort the cycle.
func (r *Reconciler) syncType(ctx context.Context, typ models.RecordType) (processed, total int, err error) {
	known, err := r.store.ExistingIDs(ctx, typ)
	if err != nil {
		return 0, 0, err
	}

	fresh, err := r.source.ListNew(ctx, typ, known)
	if err != nil {
		return 0, 0, err
	}

	for _, rec := range fresh {
		if err := r.ingest(ctx, rec); err != nil {
			r.log.Warn().Str("id", rec.ID()).Err(err).Msg("failed to process record, skipping")
			continue
		}
		processed++
	}

	return processed, len(fresh), nil
}

// ingest embeds one record, assigns it a cluster from its single nearest
// already-indexed neighbor, and persists it to both stores.
func (r *Reconciler) ingest(ctx context.Context, rec *models.Record) error {
	vector, err := r.embedder.Embed(ctx, embedding.PrepareText(rec.Title, rec.Body))
	if err != nil {
		return err
	}

	neighbors, err := r.index.Query(ctx, vector, cluster.IncrementalTopK)
	if err != nil {
		return err
	}
	clusterID := cluster.AssignCluster(neighbors)

	entry := vectordb.Entry{
		Metadata: vectordb.Metadata{
			ID:        rec.ID(),
			Type:      rec.Type,
			Number:    rec.Number,
			Title:     rec.Title,
			URL:       rec.URL,
			CreatedAt: rec.CreatedAt,
			ClusterID: clusterID,
		},
		Vector: vector,
	}
	if err := r.index.Upsert(ctx, entry); err != nil {
		return err
	}

	return r.store.InsertRecord(ctx, rec, clusterID)
}

// closureCheck marks locally-open rows closed when they no longer appear in
// the complete upstream open listing. Gated by a watermark: running against a
// partial listing would close records that simply weren't fetched, so it only
// runs when a full pass is due, and always against full listings.
func (r *Reconciler) closureCheck(ctx context.Context) (bool, error) {
	last, err := r.store.GetMeta(ctx, store.MetaLastFullClosureCheck)
	if err != nil {
		return false, err
	}

	now := r.now()
	if last != "" {
		t, err := time.Parse(time.RFC3339, last)
		if err == nil && now.Sub(t) <= r.fullCheckInterval {
			return false, nil
		}
	}

	for _, typ := range recordTypes {
		openNumbers, err := r.source.ListOpenNumbers(ctx, typ)
		if err != nil {
			return false, err
		}
		if err := r.store.MarkClosed(ctx, typ, openNumbers); err != nil {
			return false, err
		}
	}

	// Watermark moves only after a fully successful pass.
	if err := r.store.SetMeta(ctx, store.MetaLastFullClosureCheck, now.Format(time.RFC3339)); err != nil {
		return false, err
	}
	return true, nil
}
