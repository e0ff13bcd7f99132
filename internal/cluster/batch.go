package cluster

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clawtrends/claw-trends/internal/embedding"
	"github.com/clawtrends/claw-trends/internal/vectordb"
	"github.com/clawtrends/claw-trends/pkg/models"
)

const (
	batchTopK        = 10 // wide enough to catch transitive chains in one pass
	embedBatchSize   = 50
	embedConcurrency = 3
	queryConcurrency = 20
	upsertBatchSize  = 100
)

// Embedder is the embedding half of the similarity oracle.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the vector-index half of the similarity oracle.
type Index interface {
	UpsertBatch(ctx context.Context, entries []vectordb.Entry) error
	Query(ctx context.Context, vector []float32, topK int) ([]vectordb.Neighbor, error)
}

// BatchClusterer rebuilds the full partition from scratch: embed everything,
// build the kNN similarity graph, collapse it with union-find, and write the
// resulting cluster ids back to the index. Re-runnable: identical input
// reproduces identical output.
type BatchClusterer struct {
	embedder Embedder
	index    Index
	log      zerolog.Logger
}

// NewBatchClusterer creates a batch clusterer over the given oracle halves
func NewBatchClusterer(embedder Embedder, index Index, log zerolog.Logger) *BatchClusterer {
	return &BatchClusterer{embedder: embedder, index: index, log: log}
}

// Run clusters the full record population and returns the assignment of every
// record id to its cluster id. The index is left reflecting the final
// partition.
func (b *BatchClusterer) Run(ctx context.Context, records []*models.Record) (map[string]string, error) {
	if len(records) == 0 {
		return map[string]string{}, nil
	}

	vectors, err := b.embedAll(ctx, records)
	if err != nil {
		return nil, err
	}
	b.log.Info().Int("records", len(records)).Msg("embedded all records")

	// Stage every vector before querying so each record's neighbors are drawn
	// from the complete population.
	if err := b.upsertAll(ctx, records, vectors, nil); err != nil {
		return nil, err
	}

	neighborSets, err := b.queryAll(ctx, vectors)
	if err != nil {
		return nil, err
	}

	assignment := b.partition(records, neighborSets)

	// The read side trusts index metadata, so the final partition has to be
	// written back rather than left implicit in union-find state.
	if err := b.upsertAll(ctx, records, vectors, assignment); err != nil {
		return nil, err
	}

	return assignment, nil
}

// embedAll embeds every record in fixed-size batches, at most
// embedConcurrency calls in flight. A single failed call aborts the run.
func (b *BatchClusterer) embedAll(ctx context.Context, records []*models.Record) ([][]float32, error) {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = embedding.PrepareText(rec.Title, rec.Body)
	}

	vectors := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize * embedConcurrency {
		g, gctx := errgroup.WithContext(ctx)

		windowEnd := min(start+embedBatchSize*embedConcurrency, len(texts))
		for lo := start; lo < windowEnd; lo += embedBatchSize {
			lo, hi := lo, min(lo+embedBatchSize, windowEnd)
			g.Go(func() error {
				batch, err := b.embedder.EmbedBatch(gctx, texts[lo:hi])
				if err != nil {
					return err
				}
				// Batch responses are order-preserving, so pairing by index is
				// valid; each goroutine writes a disjoint slice range.
				copy(vectors[lo:hi], batch)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("batch embedding failed: %w", err)
		}
		b.log.Debug().Int("embedded", windowEnd).Int("total", len(texts)).Msg("embedding progress")
	}

	return vectors, nil
}

// queryAll fetches the topK neighbors of every record, at most
// queryConcurrency queries in flight. Results are collected per record;
// merging happens later in a single sequential pass.
func (b *BatchClusterer) queryAll(ctx context.Context, vectors [][]float32) ([][]vectordb.Neighbor, error) {
	neighborSets := make([][]vectordb.Neighbor, len(vectors))

	for start := 0; start < len(vectors); start += queryConcurrency {
		g, gctx := errgroup.WithContext(ctx)

		windowEnd := min(start+queryConcurrency, len(vectors))
		for i := start; i < windowEnd; i++ {
			i := i
			g.Go(func() error {
				neighbors, err := b.index.Query(gctx, vectors[i], batchTopK)
				if err != nil {
					return err
				}
				neighborSets[i] = neighbors
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("neighbor query failed: %w", err)
		}
	}

	return neighborSets, nil
}

// partition runs the sequential union-find pass over the collected neighbor
// sets and flattens the groups into a record -> cluster assignment.
func (b *BatchClusterer) partition(records []*models.Record, neighborSets [][]vectordb.Neighbor) map[string]string {
	uf := NewUnionFind()

	// Seed every record so zero-neighbor records still form singleton
	// clusters instead of vanishing from the assignment.
	for _, rec := range records {
		uf.Find(rec.ID())
	}

	for i, rec := range records {
		selfID := rec.ID()
		for _, neighbor := range neighborSets[i] {
			if neighbor.ID == selfID {
				continue
			}
			if !models.SameNamespace(selfID, neighbor.ID) {
				continue
			}
			// Inclusive comparison; see SimilarityThreshold.
			if neighbor.Score >= SimilarityThreshold {
				uf.Union(selfID, neighbor.ID)
			}
		}
	}

	groups := uf.Groups()
	b.log.Info().Int("records", len(records)).Int("clusters", len(groups)).Msg("partition complete")

	assignment := make(map[string]string, len(records))
	for root, members := range groups {
		for _, member := range members {
			assignment[member] = root
		}
	}
	return assignment
}

// upsertAll writes every record's vector and metadata in batches. A nil
// assignment stages entries with an empty cluster id.
func (b *BatchClusterer) upsertAll(ctx context.Context, records []*models.Record, vectors [][]float32, assignment map[string]string) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))

		entries := make([]vectordb.Entry, 0, end-start)
		for i := start; i < end; i++ {
			rec := records[i]
			entries = append(entries, vectordb.Entry{
				Metadata: vectordb.Metadata{
					ID:        rec.ID(),
					Type:      rec.Type,
					Number:    rec.Number,
					Title:     rec.Title,
					URL:       rec.URL,
					CreatedAt: rec.CreatedAt,
					ClusterID: assignment[rec.ID()],
				},
				Vector: vectors[i],
			})
		}

		if err := b.index.UpsertBatch(ctx, entries); err != nil {
			return fmt.Errorf("batch upsert failed: %w", err)
		}
	}
	return nil
}
