package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cloudConfig(t *testing.T) *ProjectConfig {
	cfg, ok := Preset("cloud")
	require.True(t, ok)
	return cfg
}

func TestNormalizeStatus(t *testing.T) {
	cfg := cloudConfig(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"To Do", "todo"},
		{"Open", "todo"},
		{"In Progress", "in_progress"},
		{"In Review", "in_progress"},
		{"Done", "done"},
		{"Resolved", "done"},
		{"Blocked", "blocked"},
		{"in progress", "in_progress"}, // case-insensitive
		{"DONE", "done"},
		{"Weird Custom Status", "Weird Custom Status"}, // unmapped passes through
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw, cfg))
		})
	}
}

func TestNormalizeStatus_CustomBucket(t *testing.T) {
	cfg := cloudConfig(t)
	cfg.StatusBuckets.Custom = map[string][]string{
		"waiting": {"Pending Customer", "Pending Vendor"},
	}

	assert.Equal(t, "waiting", NormalizeStatus("Pending Customer", cfg))

	// Named buckets still win over custom ones.
	assert.Equal(t, "done", NormalizeStatus("Done", cfg))
}

func TestNormalizePriority(t *testing.T) {
	cfg := cloudConfig(t)

	assert.Equal(t, "critical", NormalizePriority("Blocker", cfg))
	assert.Equal(t, "high", NormalizePriority("Major", cfg))
	assert.Equal(t, "low", NormalizePriority("Trivial", cfg))
	assert.Equal(t, "P99", NormalizePriority("P99", cfg))
}

func TestCategorizeIssueType(t *testing.T) {
	cfg := cloudConfig(t)

	tests := []struct {
		raw  string
		want Category
	}{
		{"Story", CategoryUserStory},
		{"User Story", CategoryUserStory},
		{"Bug", CategoryDefect},
		{"defect", CategoryDefect},
		{"Epic", CategoryEpic},
		{"Task", CategoryTask},
		{"Sub-task", CategoryTask},
		{"Improvement", CategoryUnknown},
		{"", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeIssueType(tt.raw, cfg))
		})
	}
}

func TestCategorizeIssueType_CustomOverride(t *testing.T) {
	cfg := cloudConfig(t)
	cfg.IssueTypes.Custom = map[string]Category{
		"Improvement": CategoryUserStory,
	}

	assert.Equal(t, CategoryUserStory, CategorizeIssueType("Improvement", cfg))
	assert.Equal(t, CategoryUserStory, CategorizeIssueType("improvement", cfg))
}

func TestCategorizeIssueType_FixedRulesWinOverCustom(t *testing.T) {
	cfg := cloudConfig(t)
	cfg.IssueTypes.Custom = map[string]Category{
		"Bug": CategoryTask,
	}

	// The ordered fixed rules are checked before custom overrides.
	assert.Equal(t, CategoryDefect, CategorizeIssueType("Bug", cfg))
}

func TestWorkflowCategories(t *testing.T) {
	cfg := cloudConfig(t)

	assert.True(t, cfg.IsDone("done"))
	assert.False(t, cfg.IsDone("todo"))
	assert.True(t, cfg.IsActive("todo"))
	assert.True(t, cfg.IsActive("in_progress"))
	assert.True(t, cfg.IsBlocked("blocked"))
	assert.False(t, cfg.IsBlocked("done"))
}

func TestClone_Independence(t *testing.T) {
	a := cloudConfig(t)
	b := a.Clone()

	b.FieldPaths["title"] = "changed"
	b.StatusBuckets.Buckets["done"] = []string{"changed"}
	b.IssueTypes.UserStory[0] = "changed"

	assert.Equal(t, "fields.summary", a.FieldPaths["title"])
	assert.Contains(t, a.StatusBuckets.Buckets["done"], "Done")
	assert.Equal(t, "Story", a.IssueTypes.UserStory[0])
}
