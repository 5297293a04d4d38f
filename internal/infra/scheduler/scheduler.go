package scheduler

import (
	"context"
	"log"
	"time"

	"daily_insight_bot/internal/app"

	"github.com/robfig/cron/v3"
)

// DeliveryScheduler fires the daily full-population delivery run on a cron
// schedule. The trigger layer guarantees runs don't overlap: cron entries for
// the same job are skipped while a previous invocation is still running.
type DeliveryScheduler struct {
	cronEngine      *cron.Cron
	deliveryService app.DeliveryService
	logger          *log.Logger
	cronSpecDaily   string
	runTimeout      time.Duration
}

func NewDeliveryScheduler(
	deliveryService app.DeliveryService,
	logger *log.Logger,
	cronSpecDaily string, // e.g., "0 9 * * *" (9:00 AM daily)
	runTimeout time.Duration,
) *DeliveryScheduler {
	return &DeliveryScheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		deliveryService: deliveryService,
		logger:          logger,
		cronSpecDaily:   cronSpecDaily,
		runTimeout:      runTimeout,
	}
}

func (s *DeliveryScheduler) Start() {
	s.logger.Println("INFO: Starting delivery scheduler...")

	_, err := s.cronEngine.AddJob(s.cronSpecDaily,
		cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(cron.FuncJob(s.executeDailyRun)))
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add daily delivery cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Println("INFO: Delivery scheduler started.")
}

func (s *DeliveryScheduler) executeDailyRun() {
	s.logger.Println("INFO: Cron job triggered for daily delivery run.")
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	report, err := s.deliveryService.RunAll(ctx)
	if err != nil {
		s.logger.Printf("ERROR: Daily delivery run failed: %v", err)
		return
	}
	s.logger.Printf("INFO: Daily delivery run finished. Total: %d, Success: %d, Failed: %d",
		report.Total, report.Success, report.Failed)
}

func (s *DeliveryScheduler) Stop() {
	s.logger.Println("INFO: Stopping delivery scheduler...")
	ctx := s.cronEngine.Stop() // Stops new jobs from firing, waits for running ones.
	<-ctx.Done()
	s.logger.Println("INFO: Delivery scheduler gracefully stopped.")
}
