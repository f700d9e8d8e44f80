package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRecord() map[string]any {
	return map[string]any{
		"key": "PROJ-123",
		"fields": map[string]any{
			"summary": "Add login page",
			"status": map[string]any{
				"name": "In Progress",
			},
			"components": []any{
				map[string]any{"name": "auth"},
				map[string]any{"name": "web"},
			},
			"labels":   []any{"frontend", "urgent"},
			"assignee": nil,
			"votes":    float64(3),
		},
	}
}

func TestMapFieldValue(t *testing.T) {
	record := sampleRecord()

	tests := []struct {
		name string
		path string
		want any
	}{
		{"top level field", "key", "PROJ-123"},
		{"nested field", "fields.summary", "Add login page"},
		{"deeply nested field", "fields.status.name", "In Progress"},
		{"indexed field", "fields.components[0].name", "auth"},
		{"second index", "fields.components[1].name", "web"},
		{"bare list element", "fields.labels[1]", "urgent"},
		{"missing field", "fields.nope", nil},
		{"missing nested field", "fields.status.nope", nil},
		{"null field", "fields.assignee", nil},
		{"path through null", "fields.assignee.displayName", nil},
		{"index out of range", "fields.components[5].name", nil},
		{"negative index", "fields.components[-1].name", nil},
		{"index into non-list", "fields.summary[0]", nil},
		{"field access on scalar", "fields.summary.name", nil},
		{"empty path", "", nil},
		{"malformed segment", "fields.components[x].name", nil},
		{"unclosed bracket", "fields.components[0.name", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldValue(record, tt.path))
		})
	}
}

func TestMapFieldValue_NilRecord(t *testing.T) {
	assert.Nil(t, MapFieldValue(nil, "key"))
}

func TestMapFieldString(t *testing.T) {
	record := sampleRecord()

	assert.Equal(t, "PROJ-123", MapFieldString(record, "key"))
	assert.Equal(t, "auth", MapFieldString(record, "fields.components[0].name"))

	// Non-string leaves coerce to empty, same as missing.
	assert.Equal(t, "", MapFieldString(record, "fields.votes"))
	assert.Equal(t, "", MapFieldString(record, "fields.status"))
	assert.Equal(t, "", MapFieldString(record, "fields.nope"))
}
