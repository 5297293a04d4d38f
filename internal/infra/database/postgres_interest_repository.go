package database

import (
	"context"
	"database/sql"
	"fmt"

	"daily_insight_bot/internal/domain/interest"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type PostgresInterestRepository struct {
	db *sql.DB
}

func NewPostgresInterestRepository(db *sql.DB) *PostgresInterestRepository {
	return &PostgresInterestRepository{db: db}
}

const upsertInterestQuery = `INSERT INTO interest_records
            (platform, platform_user_id, category, score, ask_count, weighted_count, last_asked, updated_at)
           VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
           ON CONFLICT (platform, platform_user_id, category) DO UPDATE SET
             score = EXCLUDED.score,
             ask_count = EXCLUDED.ask_count,
             weighted_count = EXCLUDED.weighted_count,
             last_asked = EXCLUDED.last_asked,
             updated_at = EXCLUDED.updated_at`

// UpsertAll writes the records in a single transaction. Scores only make
// sense as a complete, renormalized set, so a failure rolls back every row.
func (r *PostgresInterestRepository) UpsertAll(ctx context.Context, recs []*interest.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning interest upsert transaction: %w", err)
	}
	defer tx.Rollback() // No-op if the transaction committed.

	for _, rec := range recs {
		_, err := tx.ExecContext(ctx, upsertInterestQuery,
			rec.Platform, rec.PlatformUserID, rec.Category,
			rec.Score, rec.AskCount, rec.WeightedCount, rec.LastAsked, rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("error upserting interest record for category %s: %w", rec.Category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing interest upsert transaction: %w", err)
	}
	return nil
}

func (r *PostgresInterestRepository) ListByRecipient(ctx context.Context, rcpt interest.Recipient) ([]*interest.Record, error) {
	query := `SELECT platform, platform_user_id, category, score, ask_count, weighted_count, last_asked, updated_at
               FROM interest_records
               WHERE platform = $1 AND platform_user_id = $2
               ORDER BY score DESC, last_asked DESC NULLS LAST, category`

	rows, err := r.db.QueryContext(ctx, query, rcpt.Platform, rcpt.PlatformUserID)
	if err != nil {
		return nil, fmt.Errorf("error listing interest records: %w", err)
	}
	defer rows.Close()

	records := make([]*interest.Record, 0)
	for rows.Next() {
		rec := &interest.Record{}
		if err := rows.Scan(
			&rec.Platform, &rec.PlatformUserID, &rec.Category,
			&rec.Score, &rec.AskCount, &rec.WeightedCount, &rec.LastAsked, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning interest record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interest records: %w", err)
	}
	return records, nil
}

func (r *PostgresInterestRepository) ListRecipients(ctx context.Context, platform string) ([]interest.Recipient, error) {
	query := `SELECT DISTINCT platform, platform_user_id
               FROM interest_records
               WHERE platform = $1
               ORDER BY platform_user_id`

	rows, err := r.db.QueryContext(ctx, query, platform)
	if err != nil {
		return nil, fmt.Errorf("error listing recipients: %w", err)
	}
	defer rows.Close()

	recipients := make([]interest.Recipient, 0)
	for rows.Next() {
		var rcpt interest.Recipient
		if err := rows.Scan(&rcpt.Platform, &rcpt.PlatformUserID); err != nil {
			return nil, fmt.Errorf("error scanning recipient: %w", err)
		}
		recipients = append(recipients, rcpt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}
	return recipients, nil
}
