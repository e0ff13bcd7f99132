package cluster

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clawtrends/claw-trends/internal/vectordb"
)

// SimilarityThreshold is the score at which two records count as the same
// topic. The two assignment paths compare against it differently: batch
// clustering unions at score >= threshold, incremental assignment joins only
// at score > threshold. The asymmetry is deliberate and pinned by tests; an
// exact-threshold neighbor seeds a new cluster on the incremental path but
// merges on the next full rebuild.
const SimilarityThreshold = 0.82

// IncrementalTopK is the neighbor-query depth of the incremental path: only
// the single nearest neighbor is ever consulted.
const IncrementalTopK = 1

// AssignCluster decides the cluster for one new record given its
// nearest-neighbor query result (topK=1) against the already-indexed
// population. Greedy, not transitive: only the single top neighbor is ever
// consulted, so a record can miss a cluster a full rebuild would put it in.
func AssignCluster(neighbors []vectordb.Neighbor) string {
	if len(neighbors) > 0 {
		top := neighbors[0]
		// Strict inequality; see SimilarityThreshold.
		if top.Score > SimilarityThreshold && top.ClusterID != "" {
			return top.ClusterID
		}
	}

	return NewClusterID()
}

// NewClusterID mints an opaque synthetic cluster id. Uniqueness comes from
// wall-clock millis plus a random suffix; no collision detection.
func NewClusterID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("cluster-%d-%s", time.Now().UnixMilli(), suffix)
}
