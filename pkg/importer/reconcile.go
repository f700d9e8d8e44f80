package importer

import (
	"context"

	"github.com/halim/trackmind/pkg/embedding"
)

// ReconcileResult summarizes one reconciliation sweep.
type ReconcileResult struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ReconcileEmbeddings sweeps every tracked item and pushes its embeddable
// text back through the embedding store. Items whose vector already matches
// the current content are skipped by the embedding policy, so the sweep is
// cheap when the store is consistent. It catches items whose embedding call
// failed during import.
func (im *Importer) ReconcileEmbeddings(ctx context.Context) (*ReconcileResult, error) {
	items, err := im.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++

		docDate := item.SourceCreatedAt
		res, err := im.embedder.EmbedContent(ctx, embedding.Request{
			Content:      EmbeddableText(&item),
			SourceID:     item.ExternalID,
			SourceType:   item.Category,
			Version:      EmbeddingVersion,
			DocumentDate: &docDate,
			BulkImport:   true,
		})
		if err != nil {
			result.Failed++
			im.logger.Warn().
				Err(err).
				Str("external_id", item.ExternalID).
				Msg("Reconciliation embedding failed")
			continue
		}

		switch res.Action {
		case embedding.ActionCreated:
			result.Created++
		case embedding.ActionUpdated:
			result.Updated++
		default:
			result.Skipped++
		}
	}

	im.logger.Info().
		Int("scanned", result.Scanned).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Embedding reconciliation completed")

	return result, nil
}
