// internal/app/scoring_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"daily_insight_bot/internal/domain/interest"

	"github.com/sirupsen/logrus"
)

// DefaultInterestHalfLife is the decay half-life of the weighted interaction
// accumulator: an interaction loses half its influence every two weeks.
const DefaultInterestHalfLife = 14 * 24 * time.Hour

// ScoringService maintains per-recipient interest statistics and selects the
// highest-signal category for a recipient.
type ScoringService interface {
	// RecordInteraction registers one interaction in a category and
	// renormalizes the recipient's scores.
	RecordInteraction(ctx context.Context, rcpt interest.Recipient, category interest.Category, at time.Time) error
	// SelectCategoryFor returns the category with the highest score for the
	// recipient. Read-only; recipients without records get CategoryGeneral.
	SelectCategoryFor(ctx context.Context, rcpt interest.Recipient) (interest.Category, error)
}

// ScoringServiceImpl implements ScoringService over an interest.Repository.
type ScoringServiceImpl struct {
	interestRepo interest.Repository
	halfLife     time.Duration
	logger       *logrus.Entry
}

func NewScoringService(repo interest.Repository, halfLife time.Duration, logger *logrus.Entry) *ScoringServiceImpl {
	if halfLife <= 0 {
		halfLife = DefaultInterestHalfLife
	}
	return &ScoringServiceImpl{
		interestRepo: repo,
		halfLife:     halfLife,
		logger:       logger,
	}
}

// RecordInteraction applies exponential time decay to every accumulator of
// the recipient, adds the new interaction at full weight, and renormalizes
// the scores so they express each category's share of attention in [0,100].
//
// Decay is anchored on each record's UpdatedAt, which every write refreshes:
// weight(t) = 2^(-t/halfLife). Categories the recipient stops asking about
// therefore drift toward zero influence as new interactions arrive.
func (s *ScoringServiceImpl) RecordInteraction(ctx context.Context, rcpt interest.Recipient, category interest.Category, at time.Time) error {
	if !category.IsValid() {
		return fmt.Errorf("unknown interest category: %s", category)
	}

	records, err := s.interestRepo.ListByRecipient(ctx, rcpt)
	if err != nil {
		return fmt.Errorf("failed to list interest records: %w", err)
	}

	var target *interest.Record
	for _, r := range records {
		if r.Category == category {
			target = r
		}
		if !r.UpdatedAt.IsZero() {
			elapsed := at.Sub(r.UpdatedAt)
			if elapsed < 0 {
				elapsed = 0
			}
			r.WeightedCount *= math.Pow(0.5, elapsed.Hours()/s.halfLife.Hours())
		}
	}
	if target == nil {
		target = &interest.Record{
			Platform:       rcpt.Platform,
			PlatformUserID: rcpt.PlatformUserID,
			Category:       category,
		}
		records = append(records, target)
	}

	target.WeightedCount++
	target.AskCount++ // monotonic; never decremented
	target.LastAsked = sql.NullTime{Time: at, Valid: true}

	var sum float64
	for _, r := range records {
		sum += r.WeightedCount
	}

	for _, r := range records {
		if sum > 0 {
			r.Score = r.WeightedCount / sum * 100
		}
		r.UpdatedAt = at
	}

	// The renormalized set is only valid as a whole: the repository persists
	// it atomically so a failure cannot leave a mix of new and stale scores.
	if err := s.interestRepo.UpsertAll(ctx, records); err != nil {
		return fmt.Errorf("failed to persist interest records: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"platform":  rcpt.Platform,
		"recipient": rcpt.PlatformUserID,
		"category":  category,
		"ask_count": target.AskCount,
	}).Debug("Interaction recorded")
	return nil
}

// SelectCategoryFor is deterministic given the stored state and never mutates
// it: highest score wins, ties break toward the most recently asked category
// and then alphabetically, and a recipient without any signal gets the
// general category.
func (s *ScoringServiceImpl) SelectCategoryFor(ctx context.Context, rcpt interest.Recipient) (interest.Category, error) {
	records, err := s.interestRepo.ListByRecipient(ctx, rcpt)
	if err != nil {
		return "", fmt.Errorf("failed to list interest records: %w", err)
	}

	var best *interest.Record
	for _, r := range records {
		// A record whose accumulator never left zero carries no signal; a
		// recipient with nothing but those is treated as unregistered.
		if r.WeightedCount <= 0 {
			continue
		}
		if best == nil || outranks(r, best) {
			best = r
		}
	}
	if best == nil {
		return interest.CategoryGeneral, nil
	}
	return best.Category, nil
}

// outranks orders candidate records: score, then last-asked recency, then
// category name so fully tied records still resolve the same way every run.
func outranks(a, b *interest.Record) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if moreRecentlyAsked(a, b) {
		return true
	}
	if moreRecentlyAsked(b, a) {
		return false
	}
	return a.Category < b.Category
}

func moreRecentlyAsked(a, b *interest.Record) bool {
	if !a.LastAsked.Valid {
		return false
	}
	if !b.LastAsked.Valid {
		return true
	}
	return a.LastAsked.Time.After(b.LastAsked.Time)
}
