package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrService marks a failed embedding call. A batch call either fully
// succeeds or fully fails; there is no partial success within one call.
var ErrService = errors.New("embedding service error")

// Provider generates embeddings. EmbedBatch is one-to-one and
// order-preserving: vector i always belongs to text i.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// PrepareText combines a record's title and body into the text it is embedded
// from, truncated to stay inside provider token limits.
func PrepareText(title, body string) string {
	text := title + "\n" + body
	if len(text) > 6000 {
		text = text[:6000] + "..."
	}
	return text
}

// checkBatch verifies the one-to-one, order-preserving response contract.
func checkBatch(want, got int) error {
	if want != got {
		return fmt.Errorf("%w: got %d embeddings for %d texts", ErrService, got, want)
	}
	return nil
}
