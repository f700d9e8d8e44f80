package mapping

import "sort"

// DefaultPreset is used when a project has neither a persisted config nor an
// explicitly requested preset.
const DefaultPreset = "cloud"

// builtinPresets is the read-only registry of named presets, built once at
// process start. Callers always receive clones.
var builtinPresets = map[string]*ProjectConfig{
	"cloud":        cloudPreset(),
	"server":       serverPreset(),
	"scaled-agile": scaledAgilePreset(),
}

// Preset returns a clone of a built-in preset by name.
func Preset(name string) (*ProjectConfig, bool) {
	p, ok := builtinPresets[name]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// PresetNames returns the sorted names of all built-in presets.
func PresetNames() []string {
	names := make([]string, 0, len(builtinPresets))
	for name := range builtinPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloudPreset() *ProjectConfig {
	return &ProjectConfig{
		Preset: "cloud",
		FieldPaths: map[string]string{
			"key":                 "key",
			"title":               "fields.summary",
			"description":         "fields.description",
			"status":              "fields.status.name",
			"priority":            "fields.priority.name",
			"issue_type":          "fields.issuetype.name",
			"component":           "fields.components[0].name",
			"assignee":            "fields.assignee.displayName",
			"reporter":            "fields.reporter.displayName",
			"created":             "fields.created",
			"updated":             "fields.updated",
			"acceptance_criteria": "fields.customfield_10020",
		},
		IssueTypes: IssueTypeMapping{
			UserStory: []string{"Story", "User Story"},
			Defect:    []string{"Bug", "Defect"},
			Epic:      []string{"Epic"},
			Task:      []string{"Task", "Sub-task"},
		},
		StatusBuckets: BucketMapping{
			Buckets: map[string][]string{
				"todo":        {"To Do", "Open", "Backlog", "Selected for Development"},
				"in_progress": {"In Progress", "In Development", "In Review"},
				"done":        {"Done", "Closed", "Resolved"},
				"blocked":     {"Blocked", "On Hold"},
			},
		},
		PriorityBuckets: BucketMapping{
			Buckets: map[string][]string{
				"critical": {"Highest", "Blocker", "Critical"},
				"high":     {"High", "Major"},
				"medium":   {"Medium"},
				"low":      {"Low", "Lowest", "Minor", "Trivial"},
			},
		},
		Workflow: WorkflowCategories{
			Done:    []string{"done"},
			Active:  []string{"todo", "in_progress"},
			Blocked: []string{"blocked"},
		},
		Import: ImportSettings{
			BatchSize:           50,
			DelayBetweenBatches: 1000,
		},
	}
}

func serverPreset() *ProjectConfig {
	p := cloudPreset()
	p.Preset = "server"

	// Server instances expose assignee/reporter as plain name fields and use
	// a different custom field id for acceptance criteria.
	p.FieldPaths["assignee"] = "fields.assignee.name"
	p.FieldPaths["reporter"] = "fields.reporter.name"
	p.FieldPaths["acceptance_criteria"] = "fields.customfield_10100"

	p.StatusBuckets.Buckets["todo"] = []string{"To Do", "Open", "Reopened"}
	p.StatusBuckets.Buckets["done"] = []string{"Done", "Closed", "Resolved"}

	return p
}

func scaledAgilePreset() *ProjectConfig {
	p := cloudPreset()
	p.Preset = "scaled-agile"

	p.IssueTypes.UserStory = append(p.IssueTypes.UserStory, "Enabler Story")
	p.IssueTypes.Epic = append(p.IssueTypes.Epic, "Feature", "Capability")
	p.IssueTypes.Custom = map[string]Category{
		"Program Increment Objective": CategoryEpic,
		"Spike":                       CategoryTask,
	}

	p.StatusBuckets.Buckets["in_progress"] = append(
		p.StatusBuckets.Buckets["in_progress"], "Implementing", "Validating")

	p.Import.BatchSize = 100

	return p
}
