// internal/infra/content/static_source.go
package content

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"daily_insight_bot/internal/domain/interest"
)

// StaticSource serves canned per-category messages. It stands in for the
// external content service that produces the real readings; the delivery
// engine only sees the category -> text contract.
type StaticSource struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewStaticSource(seed int64) *StaticSource {
	return &StaticSource{rand: rand.New(rand.NewSource(seed))}
}

var messagesByCategory = map[interest.Category][]string{
	interest.CategoryMoney: {
		"*Money*: A careful look at recurring expenses pays off today. One small leak, once plugged, stays plugged.",
		"*Money*: Hold off on impulse purchases until tomorrow. What still feels worth it then, probably is.",
	},
	interest.CategoryLove: {
		"*Love*: Say the small appreciative thing out loud today instead of just thinking it.",
		"*Love*: An old conversation deserves a second chance. Reopen it gently.",
	},
	interest.CategoryCareer: {
		"*Career*: Finish the task you keep postponing before noon; the afternoon will thank you.",
		"*Career*: Someone is quietly noticing the quality of your work. Keep the bar where it is.",
	},
	interest.CategoryHealth: {
		"*Health*: Your body keeps better books than your calendar. Schedule the rest it has been invoicing you for.",
		"*Health*: A short walk beats a long plan today.",
	},
	interest.CategoryRelationships: {
		"*Relationships*: Reach out to the friend you've been meaning to call. The timing is better than you think.",
		"*Relationships*: Listen for what isn't being said in today's conversations.",
	},
	interest.CategoryAcademics: {
		"*Academics*: Review beats rereading. Close the book and test yourself on yesterday's material.",
		"*Academics*: The confusing chapter becomes clear on the second pass. Give it one.",
	},
	interest.CategoryGeneral: {
		"*Today*: Small consistent steps outrun big occasional leaps. Pick one thing and move it forward.",
		"*Today*: An unexpected message brings a welcome shift in perspective.",
	},
}

func (s *StaticSource) MessageFor(ctx context.Context, category interest.Category) (string, error) {
	messages, ok := messagesByCategory[category]
	if !ok {
		return "", fmt.Errorf("no content configured for category %q", category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return messages[s.rand.Intn(len(messages))], nil
}
