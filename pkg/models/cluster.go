package models

import "time"

// ClusterMember is one record inside a cluster, carrying only display fields.
type ClusterMember struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Cluster is an aggregated topic: every record currently assigned the same
// cluster id. Label is re-derived at read time from the oldest member, so it
// stays meaningful even when a full re-cluster picks a different root id.
type Cluster struct {
	ID      string          `json:"id"`
	Label   string          `json:"label"`
	Count   int             `json:"count"`
	Members []ClusterMember `json:"members"`
}
