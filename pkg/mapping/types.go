package mapping

// Category is the normalized classification of a tracked item.
type Category string

const (
	CategoryUserStory Category = "user_story"
	CategoryDefect    Category = "defect"
	CategoryEpic      Category = "epic"
	CategoryTask      Category = "task"
	CategoryUnknown   Category = "unknown"
)

// ProjectConfig describes how raw tracker records for one project are mapped
// into normalized tracked items. It is plain data: adapting to a differently
// configured tracker instance is a config change, not a code change.
type ProjectConfig struct {
	ProjectKey string `json:"project_key"`

	// Preset names the built-in preset this config was derived from, if any.
	Preset string `json:"preset,omitempty"`

	// FieldPaths maps a named field to a dotted/indexed path into a raw
	// record, e.g. "components[0].name".
	FieldPaths map[string]string `json:"field_paths"`

	IssueTypes      IssueTypeMapping   `json:"issue_types"`
	StatusBuckets   BucketMapping      `json:"status_buckets"`
	PriorityBuckets BucketMapping      `json:"priority_buckets"`
	Workflow        WorkflowCategories `json:"workflow"`
	Import          ImportSettings     `json:"import"`

	// Filters holds extra per-category query clauses appended to the
	// generated tracker queries.
	Filters map[string]string `json:"filters,omitempty"`
}

// IssueTypeMapping maps raw issue type names to normalized categories. The
// fixed lists are checked in declaration order (user story, defect, epic,
// task) before the custom overrides.
type IssueTypeMapping struct {
	UserStory []string            `json:"user_story"`
	Defect    []string            `json:"defect"`
	Epic      []string            `json:"epic"`
	Task      []string            `json:"task"`
	Custom    map[string]Category `json:"custom,omitempty"`
}

// BucketMapping groups raw values into named buckets. Named buckets are
// checked before the custom bucket map.
type BucketMapping struct {
	Buckets map[string][]string `json:"buckets"`
	Custom  map[string][]string `json:"custom,omitempty"`
}

// WorkflowCategories names which status buckets count as done, active or
// blocked.
type WorkflowCategories struct {
	Done    []string `json:"done"`
	Active  []string `json:"active"`
	Blocked []string `json:"blocked"`
}

// ImportSettings holds per-project import pacing.
type ImportSettings struct {
	BatchSize           int `json:"batch_size"`
	DelayBetweenBatches int `json:"delay_between_batches"` // milliseconds
}

// typeRule is one entry of the ordered categorization rule list.
type typeRule struct {
	category Category
	values   []string
}

// typeRules returns the fixed categorization rules in evaluation order.
func (c *ProjectConfig) typeRules() []typeRule {
	return []typeRule{
		{CategoryUserStory, c.IssueTypes.UserStory},
		{CategoryDefect, c.IssueTypes.Defect},
		{CategoryEpic, c.IssueTypes.Epic},
		{CategoryTask, c.IssueTypes.Task},
	}
}

// IsDone reports whether a status bucket counts as done for this project.
func (c *ProjectConfig) IsDone(bucket string) bool {
	return containsFold(c.Workflow.Done, bucket)
}

// IsActive reports whether a status bucket counts as active for this project.
func (c *ProjectConfig) IsActive(bucket string) bool {
	return containsFold(c.Workflow.Active, bucket)
}

// IsBlocked reports whether a status bucket counts as blocked for this project.
func (c *ProjectConfig) IsBlocked(bucket string) bool {
	return containsFold(c.Workflow.Blocked, bucket)
}

// Clone returns a deep copy of the config.
func (c *ProjectConfig) Clone() *ProjectConfig {
	out := *c
	out.FieldPaths = cloneStringMap(c.FieldPaths)
	out.IssueTypes = IssueTypeMapping{
		UserStory: cloneStrings(c.IssueTypes.UserStory),
		Defect:    cloneStrings(c.IssueTypes.Defect),
		Epic:      cloneStrings(c.IssueTypes.Epic),
		Task:      cloneStrings(c.IssueTypes.Task),
		Custom:    cloneCategoryMap(c.IssueTypes.Custom),
	}
	out.StatusBuckets = c.StatusBuckets.clone()
	out.PriorityBuckets = c.PriorityBuckets.clone()
	out.Workflow = WorkflowCategories{
		Done:    cloneStrings(c.Workflow.Done),
		Active:  cloneStrings(c.Workflow.Active),
		Blocked: cloneStrings(c.Workflow.Blocked),
	}
	out.Filters = cloneStringMap(c.Filters)
	return &out
}

func (b BucketMapping) clone() BucketMapping {
	return BucketMapping{
		Buckets: cloneBuckets(b.Buckets),
		Custom:  cloneBuckets(b.Custom),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneCategoryMap(in map[string]Category) map[string]Category {
	if in == nil {
		return nil
	}
	out := make(map[string]Category, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneBuckets(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = cloneStrings(v)
	}
	return out
}
