package embedding

import "time"

// Action is the outcome of an embed decision.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// StalenessWindow is the minimum age before a changed item's embedding may be
// regenerated outside bulk import. It throttles churn from rapid interactive
// edits; bulk imports are authoritative refreshes and bypass it.
const StalenessWindow = time.Hour

// Decision reasons.
const (
	ReasonNoExisting        = "no existing embedding"
	ReasonContentUnchanged  = "content unchanged"
	ReasonRecentlyGenerated = "too recently regenerated"
	ReasonForced            = "forced regeneration"
	ReasonContentChanged    = "content changed"
)

// Decide is the pure create/update/skip policy. It takes the five inputs that
// determine the outcome and performs no I/O.
func Decide(hasExisting, contentChanged, ageUnderWindow, isBulkContext, force bool) (Action, string) {
	if !hasExisting {
		return ActionCreated, ReasonNoExisting
	}

	if force {
		return ActionUpdated, ReasonForced
	}

	if !contentChanged {
		return ActionSkipped, ReasonContentUnchanged
	}

	if ageUnderWindow && !isBulkContext {
		return ActionSkipped, ReasonRecentlyGenerated
	}

	return ActionUpdated, ReasonContentChanged
}
