package mapping

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/halim/trackmind/pkg/tracker"
)

// DiscoverySampleSize is how many recent records schema discovery samples.
const DiscoverySampleSize = 50

// SchemaDiscovery enumerates what a tracker instance actually exposes for a
// project. It is read-only; the caller decides whether to derive and save a
// config from it.
type SchemaDiscovery struct {
	IssueTypes   []string `json:"issue_types"`
	Statuses     []string `json:"statuses"`
	Priorities   []string `json:"priorities"`
	CustomFields []string `json:"custom_fields"`
	Sampled      int      `json:"sampled"`
}

// DiscoverSchema samples a small batch of recent records and enumerates the
// issue types, statuses, priorities and custom field keys seen in them.
func DiscoverSchema(ctx context.Context, client tracker.Client, projectKey string) (*SchemaDiscovery, error) {
	query := fmt.Sprintf("project = %q ORDER BY updated DESC", projectKey)

	page, err := client.Search(ctx, query, 0, DiscoverySampleSize)
	if err != nil {
		return nil, fmt.Errorf("schema discovery failed: %w", err)
	}

	issueTypes := make(map[string]struct{})
	statuses := make(map[string]struct{})
	priorities := make(map[string]struct{})
	customFields := make(map[string]struct{})

	for _, record := range page.Items {
		collect(issueTypes, MapFieldString(record, "fields.issuetype.name"))
		collect(statuses, MapFieldString(record, "fields.status.name"))
		collect(priorities, MapFieldString(record, "fields.priority.name"))

		fields, ok := MapFieldValue(record, "fields").(map[string]any)
		if !ok {
			continue
		}
		for key, value := range fields {
			if strings.HasPrefix(key, "customfield_") && value != nil {
				customFields[key] = struct{}{}
			}
		}
	}

	return &SchemaDiscovery{
		IssueTypes:   sorted(issueTypes),
		Statuses:     sorted(statuses),
		Priorities:   sorted(priorities),
		CustomFields: sorted(customFields),
		Sampled:      len(page.Items),
	}, nil
}

func collect(set map[string]struct{}, value string) {
	if value != "" {
		set[value] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
