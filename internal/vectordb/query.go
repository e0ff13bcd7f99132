package vectordb

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Query returns the topK nearest neighbors of vector by descending cosine
// similarity. Fewer than topK results are returned when the index is small.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]Neighbor, error) {
	points, err := c.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", ErrIndex, err)
	}

	neighbors := make([]Neighbor, 0, len(points))
	for _, point := range points {
		meta := payloadToMetadata(point.Payload)
		neighbors = append(neighbors, Neighbor{
			ID:        meta.ID,
			Score:     float64(point.Score),
			ClusterID: meta.ClusterID,
		})
	}

	return neighbors, nil
}

// SearchResult is one similarity hit with its full payload.
type SearchResult struct {
	Metadata Metadata
	Score    float64
}

// Search is Query with the full payload attached, for interactive use.
func (c *Client) Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error) {
	points, err := c.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", ErrIndex, err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, SearchResult{
			Metadata: payloadToMetadata(point.Payload),
			Score:    float64(point.Score),
		})
	}

	return results, nil
}
