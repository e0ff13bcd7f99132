package vectordb

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"
)

const vectorDimensions = 768

// EnsureCollection creates the record collection if it doesn't exist
func (c *Client) EnsureCollection(ctx context.Context, log zerolog.Logger) error {
	exists, err := c.qdrant.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("%w: failed to check collection: %v", ErrIndex, err)
	}

	if exists {
		return nil
	}

	err = c.qdrant.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorDimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create collection: %v", ErrIndex, err)
	}

	// Payload indexes for filtering and enumeration
	indexes := []struct {
		field     string
		fieldType qdrant.FieldType
	}{
		{"id", qdrant.FieldType_FieldTypeKeyword},
		{"type", qdrant.FieldType_FieldTypeKeyword},
		{"cluster_id", qdrant.FieldType_FieldTypeKeyword},
		{"number", qdrant.FieldType_FieldTypeInteger},
	}

	for _, idx := range indexes {
		_, err = c.qdrant.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: c.collection,
			FieldName:      idx.field,
			FieldType:      qdrant.PtrOf(idx.fieldType),
		})
		if err != nil {
			// Index creation failure is not fatal
			log.Warn().Str("field", idx.field).Err(err).Msg("failed to create payload index")
		}
	}

	return nil
}
