package app

import (
	"context"
	"io"
	"sort"
	"sync"

	"daily_insight_bot/internal/domain/interest"

	"github.com/sirupsen/logrus"
)

// memInterestRepo is an in-memory interest.Repository for tests.
type memInterestRepo struct {
	mu        sync.Mutex
	records   map[string]*interest.Record // key: platform|user|category
	listErr   error
	upsertErr error
}

func newMemInterestRepo() *memInterestRepo {
	return &memInterestRepo{records: make(map[string]*interest.Record)}
}

func recordKey(platform, userID string, category interest.Category) string {
	return platform + "|" + userID + "|" + string(category)
}

func (m *memInterestRepo) UpsertAll(ctx context.Context, recs []*interest.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		// Atomic like the real store: a failed write applies nothing.
		return m.upsertErr
	}
	for _, rec := range recs {
		stored := *rec
		m.records[recordKey(rec.Platform, rec.PlatformUserID, rec.Category)] = &stored
	}
	return nil
}

func (m *memInterestRepo) ListByRecipient(ctx context.Context, rcpt interest.Recipient) ([]*interest.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*interest.Record
	for _, rec := range m.records {
		if rec.Platform == rcpt.Platform && rec.PlatformUserID == rcpt.PlatformUserID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	// Mirrors the store's ordering: score, last-asked recency, category.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.LastAsked.Valid != b.LastAsked.Valid {
			return a.LastAsked.Valid
		}
		if a.LastAsked.Valid && !a.LastAsked.Time.Equal(b.LastAsked.Time) {
			return a.LastAsked.Time.After(b.LastAsked.Time)
		}
		return a.Category < b.Category
	})
	return out, nil
}

func (m *memInterestRepo) ListRecipients(ctx context.Context, platform string) ([]interest.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	seen := make(map[interest.Recipient]bool)
	for _, rec := range m.records {
		if rec.Platform == platform {
			seen[rec.Recipient()] = true
		}
	}
	out := make([]interest.Recipient, 0, len(seen))
	for rcpt := range seen {
		out = append(out, rcpt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlatformUserID < out[j].PlatformUserID })
	return out, nil
}

func (m *memInterestRepo) get(rcpt interest.Recipient, category interest.Category) *interest.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey(rcpt.Platform, rcpt.PlatformUserID, category)]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
