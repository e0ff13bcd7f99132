package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordID(t *testing.T) {
	assert.Equal(t, "pr-1234", RecordID(TypePull, 1234))
	assert.Equal(t, "issue-7", RecordID(TypeIssue, 7))
}

func TestParseRecordID(t *testing.T) {
	tests := []struct {
		id      string
		typ     RecordType
		number  int
		wantErr bool
	}{
		{id: "pr-1234", typ: TypePull, number: 1234},
		{id: "issue-42", typ: TypeIssue, number: 42},
		{id: "pr-", wantErr: true},
		{id: "cluster-1700000000000-ab12cd34", wantErr: true},
		{id: "commit-99", wantErr: true},
		{id: "pr-0", wantErr: true},
		{id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			typ, number, err := ParseRecordID(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.number, number)
		})
	}
}

func TestSameNamespace(t *testing.T) {
	assert.True(t, SameNamespace("pr-1", "pr-900"))
	assert.True(t, SameNamespace("issue-3", "issue-4"))
	assert.False(t, SameNamespace("pr-1", "issue-1"))
	assert.False(t, SameNamespace("pr-1", "cluster-1700000000000-ab12cd34"))
}

func TestPointUUID(t *testing.T) {
	// Point ids must be deterministic so upserts stay idempotent.
	assert.Equal(t, PointUUID("pr-5"), PointUUID("pr-5"))
	assert.NotEqual(t, PointUUID("pr-5"), PointUUID("issue-5"))
	assert.Len(t, PointUUID("pr-5"), 36)

	r := &Record{Type: TypePull, Number: 5}
	assert.Equal(t, PointUUID("pr-5"), r.PointUUID())
}
