package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"daily_insight_bot/internal/domain/interest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecipient = interest.Recipient{Platform: interest.PlatformTelegram, PlatformUserID: "100500"}

func newTestScoring(repo *memInterestRepo) *ScoringServiceImpl {
	return NewScoringService(repo, DefaultInterestHalfLife, testLogger())
}

func TestRecordInteraction_AskCountMatchesCalls(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 9; i++ {
		require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryMoney, now))
	}
	require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryLove, now))

	money := repo.get(testRecipient, interest.CategoryMoney)
	require.NotNil(t, money)
	assert.EqualValues(t, 9, money.AskCount)

	love := repo.get(testRecipient, interest.CategoryLove)
	require.NotNil(t, love)
	assert.EqualValues(t, 1, love.AskCount)
}

func TestRecordInteraction_ScoresSumTo100(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)
	ctx := context.Background()
	now := time.Now()

	interactions := []interest.Category{
		interest.CategoryMoney, interest.CategoryMoney, interest.CategoryLove,
		interest.CategoryCareer, interest.CategoryMoney, interest.CategoryHealth,
	}
	for i, category := range interactions {
		require.NoError(t, svc.RecordInteraction(ctx, testRecipient, category, now.Add(time.Duration(i)*time.Hour)))

		records, err := repo.ListByRecipient(ctx, testRecipient)
		require.NoError(t, err)
		var sum float64
		for _, rec := range records {
			assert.GreaterOrEqual(t, rec.Score, 0.0)
			assert.LessOrEqual(t, rec.Score, 100.0)
			sum += rec.Score
		}
		assert.InDelta(t, 100.0, sum, 1e-9, "scores must renormalize after every update")
	}
}

func TestRecordInteraction_SingleCategoryScoresFull(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)

	require.NoError(t, svc.RecordInteraction(context.Background(), testRecipient, interest.CategoryAcademics, time.Now()))

	rec := repo.get(testRecipient, interest.CategoryAcademics)
	require.NotNil(t, rec)
	assert.InDelta(t, 100.0, rec.Score, 1e-9)
}

func TestRecordInteraction_RejectsUnknownCategory(t *testing.T) {
	svc := newTestScoring(newMemInterestRepo())
	err := svc.RecordInteraction(context.Background(), testRecipient, interest.Category("astrology"), time.Now())
	assert.Error(t, err)
}

func TestRecordInteraction_OldInterestDecays(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)
	ctx := context.Background()
	start := time.Now()

	// Heavy career interest, then a long silence, then a few health asks.
	for i := 0; i < 10; i++ {
		require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryCareer, start))
	}
	later := start.Add(10 * DefaultInterestHalfLife)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryHealth, later))
	}

	career := repo.get(testRecipient, interest.CategoryCareer)
	health := repo.get(testRecipient, interest.CategoryHealth)
	require.NotNil(t, career)
	require.NotNil(t, health)
	assert.Greater(t, health.Score, career.Score, "recent interactions must outweigh decayed ones")
	assert.EqualValues(t, 10, career.AskCount, "decay must never touch the raw ask count")

	selected, err := svc.SelectCategoryFor(ctx, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, interest.CategoryHealth, selected)
}

func TestRecordInteraction_FailedPersistLeavesScoresConsistent(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryMoney, now))
	require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryLove, now))

	repo.upsertErr = fmt.Errorf("connection reset by peer")
	err := svc.RecordInteraction(ctx, testRecipient, interest.CategoryCareer, now.Add(time.Hour))
	require.Error(t, err)

	records, listErr := repo.ListByRecipient(ctx, testRecipient)
	require.NoError(t, listErr)
	require.Len(t, records, 2, "the failed write must not leave a partial career record")
	var sum float64
	for _, rec := range records {
		sum += rec.Score
	}
	assert.InDelta(t, 100.0, sum, 1e-9, "a failed write must not leave partially renormalized scores")
}

func TestSelectCategoryFor_HighestScoreWins(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)
	ctx := context.Background()
	now := time.Now()

	// {money: 9 asks, love: 1 ask}, all very recent.
	for i := 0; i < 9; i++ {
		require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryMoney, now))
	}
	require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryLove, now))

	selected, err := svc.SelectCategoryFor(ctx, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, interest.CategoryMoney, selected)
}

func TestSelectCategoryFor_Deterministic(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryLove, now))
	require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryMoney, now.Add(time.Minute)))

	first, err := svc.SelectCategoryFor(ctx, testRecipient)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := svc.SelectCategoryFor(ctx, testRecipient)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelectCategoryFor_NoRecordsReturnsGeneral(t *testing.T) {
	svc := newTestScoring(newMemInterestRepo())

	selected, err := svc.SelectCategoryFor(context.Background(), testRecipient)
	require.NoError(t, err)
	assert.Equal(t, interest.CategoryGeneral, selected)
}

func TestSelectCategoryFor_ZeroWeightTreatedAsUnregistered(t *testing.T) {
	repo := newMemInterestRepo()
	require.NoError(t, repo.UpsertAll(context.Background(), []*interest.Record{{
		Platform:       testRecipient.Platform,
		PlatformUserID: testRecipient.PlatformUserID,
		Category:       interest.CategoryCareer,
		WeightedCount:  0,
	}}))
	svc := newTestScoring(repo)

	selected, err := svc.SelectCategoryFor(context.Background(), testRecipient)
	require.NoError(t, err)
	assert.Equal(t, interest.CategoryGeneral, selected)
}

func TestSelectCategoryFor_SingleCategoryAlwaysWins(t *testing.T) {
	repo := newMemInterestRepo()
	svc := newTestScoring(repo)
	ctx := context.Background()

	require.NoError(t, svc.RecordInteraction(ctx, testRecipient, interest.CategoryRelationships, time.Now().Add(-365*24*time.Hour)))

	selected, err := svc.SelectCategoryFor(ctx, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, interest.CategoryRelationships, selected)
}

func TestSelectCategoryFor_TieBreaksByRecency(t *testing.T) {
	repo := newMemInterestRepo()
	ctx := context.Background()
	now := time.Now()

	// Hand-crafted tie: identical scores, different last-asked timestamps.
	for category, lastAsked := range map[interest.Category]time.Time{
		interest.CategoryMoney: now.Add(-2 * time.Hour),
		interest.CategoryLove:  now.Add(-1 * time.Hour),
	} {
		rec := &interest.Record{
			Platform:       testRecipient.Platform,
			PlatformUserID: testRecipient.PlatformUserID,
			Category:       category,
			Score:          50,
			AskCount:       1,
			WeightedCount:  1,
			UpdatedAt:      now,
		}
		rec.LastAsked.Time, rec.LastAsked.Valid = lastAsked, true
		require.NoError(t, repo.UpsertAll(ctx, []*interest.Record{rec}))
	}
	svc := newTestScoring(repo)

	selected, err := svc.SelectCategoryFor(ctx, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, interest.CategoryLove, selected)
}

func TestSelectCategoryFor_FullTieBreaksByCategory(t *testing.T) {
	repo := newMemInterestRepo()
	ctx := context.Background()

	// Hand-seeded rows: identical scores and no last-asked timestamps.
	for _, category := range []interest.Category{interest.CategoryMoney, interest.CategoryCareer} {
		require.NoError(t, repo.UpsertAll(ctx, []*interest.Record{{
			Platform:       testRecipient.Platform,
			PlatformUserID: testRecipient.PlatformUserID,
			Category:       category,
			Score:          50,
			AskCount:       1,
			WeightedCount:  1,
			UpdatedAt:      time.Now(),
		}}))
	}
	svc := newTestScoring(repo)

	for i := 0; i < 10; i++ {
		selected, err := svc.SelectCategoryFor(ctx, testRecipient)
		require.NoError(t, err)
		assert.Equal(t, interest.CategoryCareer, selected, "full ties must resolve alphabetically")
	}
}
