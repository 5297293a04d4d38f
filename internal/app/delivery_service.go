// internal/app/delivery_service.go
package app

import (
	"context"
	"fmt"
	"sync"

	"daily_insight_bot/internal/domain/content"
	"daily_insight_bot/internal/domain/delivery"
	"daily_insight_bot/internal/domain/interest"
	"daily_insight_bot/internal/domain/messenger"

	"github.com/sirupsen/logrus"
)

// DefaultDeliveryConcurrency bounds the worker pool used to fan out sends, so
// a large population does not trample the platform's rate limits.
const DefaultDeliveryConcurrency = 4

// DeliveryService runs the personalized daily-message delivery engine: one
// run enumerates eligible recipients, selects a category per recipient, sends
// through the messaging transport and folds the outcomes into a report.
type DeliveryService interface {
	// RunAll executes a full-population run and returns its report. The
	// report is valid even when ctx expires mid-dispatch: outstanding sends
	// are abandoned, recorded outcomes are still aggregated.
	RunAll(ctx context.Context) (*delivery.Report, error)
	// RunOne dispatches exactly one recipient, bypassing enumeration.
	// Unregistered recipients still succeed, using the general category.
	RunOne(ctx context.Context, rcpt interest.Recipient) (*delivery.Outcome, error)
}

// DeliveryServiceImpl implements DeliveryService.
type DeliveryServiceImpl struct {
	interestRepo interest.Repository
	scoring      ScoringService
	contentSrc   content.Source
	client       messenger.Client
	concurrency  int
	logger       *logrus.Entry
}

func NewDeliveryService(
	interestRepo interest.Repository,
	scoring ScoringService,
	contentSrc content.Source,
	client messenger.Client,
	concurrency int,
	logger *logrus.Entry,
) *DeliveryServiceImpl {
	if concurrency <= 0 {
		concurrency = DefaultDeliveryConcurrency
	}
	return &DeliveryServiceImpl{
		interestRepo: interestRepo,
		scoring:      scoring,
		contentSrc:   contentSrc,
		client:       client,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// checkPreconditions guards the run against fatal misconfiguration before any
// recipient is touched.
func (s *DeliveryServiceImpl) checkPreconditions() error {
	if s.client == nil {
		return fmt.Errorf("delivery run aborted: messenger client is not configured")
	}
	if s.interestRepo == nil {
		return fmt.Errorf("delivery run aborted: interest store is not configured")
	}
	if s.contentSrc == nil {
		return fmt.Errorf("delivery run aborted: content source is not configured")
	}
	return nil
}

func (s *DeliveryServiceImpl) RunAll(ctx context.Context) (*delivery.Report, error) {
	if err := s.checkPreconditions(); err != nil {
		return nil, err
	}

	recipients, err := s.interestRepo.ListRecipients(ctx, interest.PlatformTelegram)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate recipients: %w", err)
	}
	s.logger.WithField("recipients", len(recipients)).Info("Delivery run started")

	// Bounded fan-out: a fixed set of workers consuming a task channel.
	// The concurrency bound is a tunable, not a correctness requirement.
	jobs := make(chan interest.Recipient)
	var (
		mu       sync.Mutex
		outcomes []delivery.Outcome
		wg       sync.WaitGroup
	)

	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rcpt := range jobs {
				outcome := s.deliverOne(ctx, rcpt)
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, rcpt := range recipients {
		select {
		case <-ctx.Done():
			s.logger.WithError(ctx.Err()).Warn("Delivery run deadline reached; abandoning remaining recipients")
			break dispatch
		default:
		}
		select {
		case jobs <- rcpt:
		case <-ctx.Done():
			// Run budget exhausted: abandon recipients not yet handed to a
			// worker and return the partial report below.
			s.logger.WithError(ctx.Err()).Warn("Delivery run deadline reached; abandoning remaining recipients")
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	report := delivery.Aggregate(outcomes)
	s.logger.WithFields(logrus.Fields{
		"total":   report.Total,
		"success": report.Success,
		"failed":  report.Failed,
	}).Info("Delivery run completed")
	return &report, nil
}

func (s *DeliveryServiceImpl) RunOne(ctx context.Context, rcpt interest.Recipient) (*delivery.Outcome, error) {
	if err := s.checkPreconditions(); err != nil {
		return nil, err
	}
	outcome := s.deliverOne(ctx, rcpt)
	return &outcome, nil
}

// deliverOne processes a single recipient: select -> content -> send ->
// outcome. Every failure is captured in the outcome; nothing escapes to the
// caller, so one recipient can never abort the batch.
func (s *DeliveryServiceImpl) deliverOne(ctx context.Context, rcpt interest.Recipient) delivery.Outcome {
	outcome := delivery.Outcome{Recipient: rcpt}

	category, err := s.scoring.SelectCategoryFor(ctx, rcpt)
	if err != nil {
		return s.failOutcome(outcome, messenger.FailureTransient, fmt.Errorf("category selection failed: %w", err))
	}
	outcome.Category = category

	text, err := s.contentSrc.MessageFor(ctx, category)
	if err != nil {
		return s.failOutcome(outcome, messenger.FailureRequest, fmt.Errorf("content source failed for category %s: %w", category, err))
	}

	s.client.SendPresence(rcpt.PlatformUserID)

	messageID, err := s.client.SendMessage(ctx, rcpt.PlatformUserID, text, &messenger.SendOptions{Markdown: true})
	if err != nil {
		return s.failOutcome(outcome, messenger.ClassifyError(err), err)
	}

	outcome.Sent = true
	outcome.MessageID = messageID
	s.logger.WithFields(logrus.Fields{
		"recipient": rcpt.PlatformUserID,
		"category":  category,
	}).Debug("Daily message delivered")
	return outcome
}

func (s *DeliveryServiceImpl) failOutcome(outcome delivery.Outcome, kind messenger.FailureKind, err error) delivery.Outcome {
	outcome.Sent = false
	outcome.Failure = kind
	outcome.Error = err.Error()

	logCtx := s.logger.WithFields(logrus.Fields{
		"recipient": outcome.Recipient.PlatformUserID,
		"category":  outcome.Category,
		"failure":   kind,
	}).WithError(err)
	if kind == messenger.FailureRequest {
		// Request-class failures point at our own data, not the platform.
		logCtx.Error("Delivery failed with a request error; possible data-integrity issue")
	} else {
		logCtx.Warn("Delivery failed")
	}
	return outcome
}
