package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clawtrends/claw-trends/pkg/models"
)

// ErrPersistence marks a failed relational-store operation.
var ErrPersistence = errors.New("persistence error")

// MetaLastFullClosureCheck is the watermark key gating closure detection.
const MetaLastFullClosureCheck = "last_full_closure_check"

// Postgres is the relational summary store: one row per record, plus sync
// metadata. It is the source of truth for status and display fields; vectors
// and cluster metadata live in the index.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against the given postgres URL
func Connect(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrPersistence, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrPersistence, err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool
func (p *Postgres) Close() {
	p.pool.Close()
}

// EnsureSchema creates tables and indexes if they don't exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id VARCHAR(255) PRIMARY KEY,
			record_type VARCHAR(10) NOT NULL,
			number INTEGER NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			cluster_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'open',
			comments INTEGER NOT NULL DEFAULT 0,
			UNIQUE (record_type, number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_cluster_id ON records (cluster_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_status ON records (status)`,
		`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records (created_at)`,
		`CREATE TABLE IF NOT EXISTS sync_meta (
			key VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %v", ErrPersistence, err)
		}
	}
	return nil
}

// InsertRecord inserts one freshly observed record. Deduplicated by primary
// key: re-inserting an already-persisted record is a no-op, which is what
// makes re-running a sync cycle safe.
func (p *Postgres) InsertRecord(ctx context.Context, rec *models.Record, clusterID string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO records (id, record_type, number, title, url, cluster_id, created_at, status, comments)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID(), string(rec.Type), rec.Number, rec.Title, rec.URL, clusterID,
		rec.CreatedAt, models.StatusOpen, rec.Comments)
	if err != nil {
		return fmt.Errorf("%w: insert %s: %v", ErrPersistence, rec.ID(), err)
	}
	return nil
}

// ReplaceAssignments persists a full batch-clustering result. Rows already
// present get only their cluster_id refreshed; status and display fields are
// never touched here.
func (p *Postgres) ReplaceAssignments(ctx context.Context, records []*models.Record, assignment map[string]string) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		clusterID := assignment[rec.ID()]
		if clusterID == "" {
			clusterID = rec.ID()
		}
		batch.Queue(
			`INSERT INTO records (id, record_type, number, title, url, cluster_id, created_at, status, comments)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET cluster_id = EXCLUDED.cluster_id`,
			rec.ID(), string(rec.Type), rec.Number, rec.Title, rec.URL, clusterID,
			rec.CreatedAt, models.StatusOpen, rec.Comments)
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%w: replace assignments: %v", ErrPersistence, err)
	}
	return nil
}

// ExistingIDs returns the composite ids of every persisted record of a type
func (p *Postgres) ExistingIDs(ctx context.Context, typ models.RecordType) (map[string]bool, error) {
	rows, err := p.pool.Query(ctx, `SELECT id FROM records WHERE record_type = $1`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("%w: existing ids: %v", ErrPersistence, err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: existing ids: %v", ErrPersistence, err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: existing ids: %v", ErrPersistence, err)
	}
	return ids, nil
}

// MarkClosed sets status to closed for every open row of the given type whose
// number is absent from openNumbers, which must be the complete currently-open
// upstream population. Monotonic: closed rows are never reopened.
func (p *Postgres) MarkClosed(ctx context.Context, typ models.RecordType, openNumbers []int) error {
	open := make([]int32, len(openNumbers))
	for i, n := range openNumbers {
		open[i] = int32(n)
	}

	_, err := p.pool.Exec(ctx,
		`UPDATE records SET status = 'closed'
		 WHERE record_type = $1 AND status = 'open' AND number != ALL($2::int4[])`,
		string(typ), open)
	if err != nil {
		return fmt.Errorf("%w: mark closed: %v", ErrPersistence, err)
	}
	return nil
}

// GetMeta returns a sync metadata value, or "" when the key was never set
func (p *Postgres) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM sync_meta WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: get meta %s: %v", ErrPersistence, key, err)
	}
	return value, nil
}

// SetMeta stores a sync metadata value
func (p *Postgres) SetMeta(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sync_meta (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("%w: set meta %s: %v", ErrPersistence, key, err)
	}
	return nil
}

// Clusters aggregates rows by cluster id. The label is re-derived from the
// oldest member; members are listed newest-first. Unscoped queries order by
// member count, time-scoped ones by most recent activity.
func (p *Postgres) Clusters(ctx context.Context, typ models.RecordType, since *time.Time) ([]models.Cluster, error) {
	query := `
		SELECT
			cluster_id,
			COUNT(*)::int AS count,
			(array_agg(title ORDER BY created_at ASC))[1] AS label,
			json_agg(
				json_build_object(
					'number', number,
					'title', title,
					'url', url,
					'status', status,
					'created_at', created_at
				)
				ORDER BY created_at DESC
			) AS members
		FROM records
		WHERE record_type = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
		GROUP BY cluster_id`

	if since != nil {
		query += ` ORDER BY MAX(created_at) DESC`
	} else {
		query += ` ORDER BY count DESC, MAX(created_at) DESC`
	}

	rows, err := p.pool.Query(ctx, query, string(typ), since)
	if err != nil {
		return nil, fmt.Errorf("%w: clusters: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var clusters []models.Cluster
	for rows.Next() {
		var c models.Cluster
		var membersJSON []byte
		if err := rows.Scan(&c.ID, &c.Count, &c.Label, &membersJSON); err != nil {
			return nil, fmt.Errorf("%w: clusters: %v", ErrPersistence, err)
		}
		if err := json.Unmarshal(membersJSON, &c.Members); err != nil {
			return nil, fmt.Errorf("%w: clusters: %v", ErrPersistence, err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: clusters: %v", ErrPersistence, err)
	}
	return clusters, nil
}
