package vectordb

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

const scrollPageSize = 256

// ListAll enumerates the metadata of every entry in the index, paginating
// internally with the scroll API. Used by read paths that re-derive the
// working set from the index alone.
func (c *Client) ListAll(ctx context.Context) ([]Metadata, error) {
	var all []Metadata
	var offset *qdrant.PointId

	points := c.qdrant.GetPointsClient()

	for {
		resp, err := points.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: c.collection,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scroll failed: %v", ErrIndex, err)
		}

		for _, point := range resp.GetResult() {
			all = append(all, payloadToMetadata(point.Payload))
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return all, nil
}
