package content

import (
	"context"

	"daily_insight_bot/internal/domain/interest"
)

// Source produces the daily message text for a selected category.
// The production implementation is an external content/LLM service; the
// delivery engine only depends on this category -> text contract.
type Source interface {
	MessageFor(ctx context.Context, category interest.Category) (string, error)
}
