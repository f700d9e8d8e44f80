package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigJSON_AcceptsPresets(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, ok := Preset(name)
			require.True(t, ok)

			raw, err := json.Marshal(cfg)
			require.NoError(t, err)

			assert.NoError(t, ValidateConfigJSON(raw))
		})
	}
}

func TestValidateConfigJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an object", `[1, 2, 3]`},
		{"missing field_paths", `{"issue_types": {}, "status_buckets": {}, "priority_buckets": {}}`},
		{"empty field path", `{
			"field_paths": {"title": ""},
			"issue_types": {}, "status_buckets": {}, "priority_buckets": {}
		}`},
		{"non-string issue type list", `{
			"field_paths": {"title": "fields.summary"},
			"issue_types": {"user_story": [1]},
			"status_buckets": {}, "priority_buckets": {}
		}`},
		{"bad custom category", `{
			"field_paths": {"title": "fields.summary"},
			"issue_types": {"custom": {"Spike": "nonsense"}},
			"status_buckets": {}, "priority_buckets": {}
		}`},
		{"zero batch size", `{
			"field_paths": {"title": "fields.summary"},
			"issue_types": {}, "status_buckets": {}, "priority_buckets": {},
			"import": {"batch_size": 0}
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateConfigJSON([]byte(tt.raw)))
		})
	}
}
