package vectordb

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/clawtrends/claw-trends/pkg/models"
)

// Entry pairs a vector with its payload for (batch) upserts.
type Entry struct {
	Metadata Metadata
	Vector   []float32
}

// Upsert stores or overwrites one vector-index entry. Idempotent: the point
// id is derived from the record key, so re-upserting the same entry is a
// plain overwrite.
func (c *Client) Upsert(ctx context.Context, entry Entry) error {
	return c.UpsertBatch(ctx, []Entry{entry})
}

// UpsertBatch stores or overwrites multiple entries in one call
func (c *Client) UpsertBatch(ctx context.Context, entries []Entry) error {
	points := make([]*qdrant.PointStruct, len(entries))
	for i := range entries {
		points[i] = entryToPoint(&entries[i])
	}

	_, err := c.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert failed: %v", ErrIndex, err)
	}
	return nil
}

func entryToPoint(entry *Entry) *qdrant.PointStruct {
	// Qdrant point ids must be UUIDs; the composite record key stays in the
	// payload and the point id is its deterministic hash.
	pointID := models.PointUUID(entry.Metadata.ID)

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID),
		Vectors: qdrant.NewVectors(entry.Vector...),
		Payload: metadataToPayload(&entry.Metadata),
	}
}
