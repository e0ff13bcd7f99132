package vectordb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/clawtrends/claw-trends/internal/config"
	"github.com/clawtrends/claw-trends/pkg/models"
)

// ErrIndex marks a failed vector-index operation.
var ErrIndex = errors.New("vector index error")

// Client wraps Qdrant operations for the record collection.
type Client struct {
	qdrant     *qdrant.Client
	collection string
}

// NewClient creates a new Qdrant client
func NewClient(cfg *config.QdrantConfig) (*Client, error) {
	host, port := parseHostPort(cfg.URL)

	// cloud.qdrant.io requires TLS
	useTLS := strings.Contains(host, "qdrant.io") || strings.Contains(host, "qdrant.cloud")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &Client{qdrant: client, collection: cfg.Collection}, nil
}

// parseHostPort extracts host and port from URL string
func parseHostPort(url string) (string, int) {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	if idx := strings.LastIndex(url, ":"); idx != -1 {
		host := url[:idx]
		var port int
		_, _ = fmt.Sscanf(url[idx+1:], "%d", &port)
		if port == 0 {
			port = 6334
		}
		return host, port
	}

	return url, 6334
}

// Close closes the connection
func (c *Client) Close() error {
	if c.qdrant != nil {
		return c.qdrant.Close()
	}
	return nil
}

// Metadata is the payload stored with every vector. ID is the composite
// record key; it, not the point UUID, is the identity the rest of the system
// works with.
type Metadata struct {
	ID        string
	Type      models.RecordType
	Number    int
	Title     string
	URL       string
	CreatedAt time.Time
	ClusterID string
}

// Neighbor is one nearest-neighbor query result.
type Neighbor struct {
	ID        string
	Score     float64
	ClusterID string
}

func metadataToPayload(m *Metadata) map[string]*qdrant.Value {
	return map[string]*qdrant.Value{
		"id":         qdrant.NewValueString(m.ID),
		"type":       qdrant.NewValueString(string(m.Type)),
		"number":     qdrant.NewValueInt(int64(m.Number)),
		"title":      qdrant.NewValueString(m.Title),
		"url":        qdrant.NewValueString(m.URL),
		"created_at": qdrant.NewValueString(m.CreatedAt.Format(time.RFC3339)),
		"cluster_id": qdrant.NewValueString(m.ClusterID),
	}
}

func payloadToMetadata(payload map[string]*qdrant.Value) Metadata {
	m := Metadata{}

	if v := payload["id"]; v != nil {
		m.ID = v.GetStringValue()
	}
	if v := payload["type"]; v != nil {
		m.Type = models.RecordType(v.GetStringValue())
	}
	if v := payload["number"]; v != nil {
		m.Number = int(v.GetIntegerValue())
	}
	if v := payload["title"]; v != nil {
		m.Title = v.GetStringValue()
	}
	if v := payload["url"]; v != nil {
		m.URL = v.GetStringValue()
	}
	if v := payload["created_at"]; v != nil {
		m.CreatedAt, _ = time.Parse(time.RFC3339, v.GetStringValue())
	}
	if v := payload["cluster_id"]; v != nil {
		m.ClusterID = v.GetStringValue()
	}

	return m
}
