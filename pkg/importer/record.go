package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/halim/trackmind/pkg/embedding"
	"github.com/halim/trackmind/pkg/mapping"
	"github.com/halim/trackmind/pkg/store"
	"github.com/halim/trackmind/pkg/tracker"
)

// sourceTimeLayouts covers the timestamp formats trackers emit.
var sourceTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// processRecord normalizes one raw record, upserts it and refreshes its
// embedding. An upserted item with a failed embedding still counts as
// processed; the failure is reported via embedErr so callers record it on the
// job, and the missing vector is caught up by the reconciliation sweep.
func (im *Importer) processRecord(ctx context.Context, cfg *mapping.ProjectConfig, record tracker.Record, bulk bool) (item *store.TrackedItem, embedErr, err error) {
	item, err = normalizeRecord(record, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := im.store.UpsertItem(ctx, item); err != nil {
		return nil, nil, fmt.Errorf("failed to upsert item %s: %w", item.ExternalID, err)
	}

	docDate := item.SourceCreatedAt
	_, err = im.embedder.EmbedContent(ctx, embedding.Request{
		Content:      EmbeddableText(item),
		SourceID:     item.ExternalID,
		SourceType:   item.Category,
		Version:      EmbeddingVersion,
		DocumentDate: &docDate,
		BulkImport:   bulk,
	})
	if err != nil {
		im.logger.Warn().
			Err(err).
			Str("external_id", item.ExternalID).
			Msg("Embedding failed for imported item")
		return item, fmt.Errorf("embedding failed for %s: %w", item.ExternalID, err), nil
	}

	return item, nil, nil
}

// normalizeRecord maps a raw tracker record into a tracked item using the
// project's field paths and vocabulary buckets.
func normalizeRecord(record tracker.Record, cfg *mapping.ProjectConfig) (*store.TrackedItem, error) {
	externalID := mapping.MapFieldString(record, recordKeyPath(cfg))
	if externalID == "" {
		return nil, fmt.Errorf("record has no external id")
	}

	title := mapping.MapFieldString(record, cfg.FieldPaths["title"])
	if title == "" {
		return nil, fmt.Errorf("record %s has no title", externalID)
	}

	rawType := mapping.MapFieldString(record, cfg.FieldPaths["issue_type"])
	category := mapping.CategorizeIssueType(rawType, cfg)

	rawStatus := mapping.MapFieldString(record, cfg.FieldPaths["status"])
	rawPriority := mapping.MapFieldString(record, cfg.FieldPaths["priority"])

	now := time.Now().UTC()
	sourceCreated := parseSourceTime(mapping.MapFieldString(record, cfg.FieldPaths["created"]))
	sourceUpdated := parseSourceTime(mapping.MapFieldString(record, cfg.FieldPaths["updated"]))
	if sourceUpdated.IsZero() {
		sourceUpdated = sourceCreated
	}
	if sourceCreated.IsZero() {
		sourceCreated = now
	}
	if sourceUpdated.IsZero() {
		sourceUpdated = now
	}

	return &store.TrackedItem{
		ExternalID:         externalID,
		Category:           string(category),
		Title:              title,
		Description:        mapping.MapFieldString(record, cfg.FieldPaths["description"]),
		AcceptanceCriteria: mapping.MapFieldString(record, cfg.FieldPaths["acceptance_criteria"]),
		Status:             mapping.NormalizeStatus(rawStatus, cfg),
		Priority:           mapping.NormalizePriority(rawPriority, cfg),
		Assignee:           mapping.MapFieldString(record, cfg.FieldPaths["assignee"]),
		Reporter:           mapping.MapFieldString(record, cfg.FieldPaths["reporter"]),
		Component:          mapping.MapFieldString(record, cfg.FieldPaths["component"]),
		SourceCreatedAt:    sourceCreated,
		SourceUpdatedAt:    sourceUpdated,
	}, nil
}

// EmbeddableText builds the canonical text representation of an item for
// embedding. Reconciliation relies on this being reproducible from the
// stored item alone.
func EmbeddableText(item *store.TrackedItem) string {
	parts := []string{item.Title}
	if item.Description != "" {
		parts = append(parts, item.Description)
	}
	if item.AcceptanceCriteria != "" {
		parts = append(parts, item.AcceptanceCriteria)
	}
	return strings.Join(parts, "\n\n")
}

func recordKeyPath(cfg *mapping.ProjectConfig) string {
	if path, ok := cfg.FieldPaths["key"]; ok && path != "" {
		return path
	}
	return "key"
}

func parseSourceTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range sourceTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
