// internal/domain/delivery/report.go
package delivery

import (
	"daily_insight_bot/internal/domain/interest"
	"daily_insight_bot/internal/domain/messenger"
)

// Outcome is the per-recipient result of one delivery attempt within a run.
// Outcomes are ephemeral; they live only for the duration of a run.
type Outcome struct {
	Recipient interest.Recipient    `json:"recipient"`
	Category  interest.Category     `json:"category"`
	Sent      bool                  `json:"sent"`
	MessageID string                `json:"message_id,omitempty"`
	Failure   messenger.FailureKind `json:"failure,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Report summarizes one delivery run. Never persisted; returned synchronously
// to the trigger caller.
type Report struct {
	Total    int       `json:"total"`
	Success  int       `json:"success"`
	Failed   int       `json:"failed"`
	Outcomes []Outcome `json:"outcomes,omitempty"`
}

// Aggregate folds per-recipient outcomes into a run summary.
// Pure function: total = len(outcomes), failed = total - success.
func Aggregate(outcomes []Outcome) Report {
	report := Report{
		Total:    len(outcomes),
		Outcomes: outcomes,
	}
	for _, o := range outcomes {
		if o.Sent {
			report.Success++
		}
	}
	report.Failed = report.Total - report.Success
	return report
}
