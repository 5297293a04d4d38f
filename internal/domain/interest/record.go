package interest

import (
	"database/sql"
	"time"
)

// Category is one of the fixed topical buckets used to personalize daily messages.
type Category string

const (
	CategoryMoney         Category = "money"
	CategoryLove          Category = "love"
	CategoryCareer        Category = "career"
	CategoryHealth        Category = "health"
	CategoryRelationships Category = "relationships"
	CategoryAcademics     Category = "academics"
	CategoryGeneral       Category = "general"
)

// AllCategories lists every known category in presentation order.
var AllCategories = []Category{
	CategoryMoney,
	CategoryLove,
	CategoryCareer,
	CategoryHealth,
	CategoryRelationships,
	CategoryAcademics,
	CategoryGeneral,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Recipient identifies an end user on a specific messaging platform.
type Recipient struct {
	Platform       string `json:"platform"`
	PlatformUserID string `json:"platform_user_id"`
}

// PlatformTelegram is the platform tag for the Telegram transport.
const PlatformTelegram = "telegram"

// Record holds per-recipient, per-category interest statistics.
// Corresponds to one row of the 'interest_records' table; the tuple
// (Platform, PlatformUserID, Category) is unique.
type Record struct {
	Platform       string
	PlatformUserID string
	Category       Category
	Score          float64 // normalized share of attention, [0,100]
	AskCount       int64   // raw interaction count, never decremented
	WeightedCount  float64 // time-decayed accumulator, internal only
	LastAsked      sql.NullTime
	UpdatedAt      time.Time
}

// Recipient returns the addressing pair for this record.
func (r *Record) Recipient() Recipient {
	return Recipient{Platform: r.Platform, PlatformUserID: r.PlatformUserID}
}
