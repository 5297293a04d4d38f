package interest

import (
	"context"
)

// Repository defines the operations for persisting and retrieving interest
// Records. Records are created on first interaction and only ever updated
// afterwards; nothing is ever deleted.
type Repository interface {
	// UpsertAll atomically creates or replaces the given records. Either
	// every record is persisted or none is: scores are renormalized across
	// a recipient's whole set, so a partial write would leave the store
	// with a mix of renormalized and stale rows.
	UpsertAll(ctx context.Context, recs []*Record) error
	// ListByRecipient returns every category record for one recipient,
	// ordered by score descending (category as the final key, so exact
	// ties come back in a stable order).
	ListByRecipient(ctx context.Context, rcpt Recipient) ([]*Record, error)
	// ListRecipients enumerates every distinct recipient known to the store
	// for the given platform.
	ListRecipients(ctx context.Context, platform string) ([]Recipient, error)
}
