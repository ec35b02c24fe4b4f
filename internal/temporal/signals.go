// Package temporal contains helpers for Temporal workflows
// which are shared by the worker and its event dispatcher.
package temporal

import (
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// SearchAttribute is a Temporal search attribute key used by Timpani
// to find the workflow which receives each type of webhook event.
const SearchAttribute = "WaitingForSignals"

// AdvertiseSignals marks the calling workflow as the receiver of the given
// signals, so that Timpani knows where to send the corresponding events:
// https://docs.temporal.io/develop/go/observability#visibility
func AdvertiseSignals(ctx workflow.Context, signals []string) error {
	sa := temporal.NewSearchAttributeKeyKeywordList(SearchAttribute).ValueSet(signals)
	if err := workflow.UpsertTypedSearchAttributes(ctx, sa); err != nil {
		return fmt.Errorf("failed to set workflow search attribute: %w", err)
	}
	return nil
}
