package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordType distinguishes the two kinds of tracked records. The type is also
// the namespace prefix of a record's composite id, which keeps PRs and issues
// from ever being clustered together.
type RecordType string

const (
	TypePull  RecordType = "pr"
	TypeIssue RecordType = "issue"
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	return t == TypePull || t == TypeIssue
}

// Record status values. Status only ever moves open -> closed.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Record is one tracked pull request or issue. Records are immutable after
// ingestion except for Status.
type Record struct {
	Type      RecordType `json:"type"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	URL       string     `json:"url"`
	Author    string     `json:"author"`
	Comments  int        `json:"comments"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// ID returns the composite key, e.g. "pr-1234". The same string identifies the
// record in the vector index payload, the union-find structure, and the
// relational store.
func (r *Record) ID() string {
	return RecordID(r.Type, r.Number)
}

// PointUUID returns the deterministic vector-index point id for this record.
func (r *Record) PointUUID() string {
	return PointUUID(r.ID())
}

// RecordID builds the composite key for a record type and number.
func RecordID(t RecordType, number int) string {
	return fmt.Sprintf("%s-%d", t, number)
}

// ParseRecordID splits a composite key back into type and number.
func ParseRecordID(id string) (RecordType, int, error) {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid record id: %q", id)
	}
	t := RecordType(id[:idx])
	if !t.Valid() {
		return "", 0, fmt.Errorf("invalid record id: %q", id)
	}
	number, err := strconv.Atoi(id[idx+1:])
	if err != nil || number <= 0 {
		return "", 0, fmt.Errorf("invalid record id: %q", id)
	}
	return t, number, nil
}

// SameNamespace reports whether two composite keys share a record-type prefix.
// Used when filtering neighbor-query results so a PR never unions with an
// issue-shaped entry.
func SameNamespace(a, b string) bool {
	ta, _, errA := ParseRecordID(a)
	tb, _, errB := ParseRecordID(b)
	return errA == nil && errB == nil && ta == tb
}

// PointUUID derives a stable UUID from a composite record key. Qdrant point
// ids must be UUIDs, so the key itself travels in the payload.
func PointUUID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}
