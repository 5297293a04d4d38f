// internal/infra/httpapi/trigger_handler.go
package httpapi

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"daily_insight_bot/internal/app"
	"daily_insight_bot/internal/domain/interest"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// TriggerHandler exposes the delivery engine to the external scheduled
// trigger (hosted cron, uptime pinger, manual curl).
type TriggerHandler struct {
	deliveryService app.DeliveryService
	secret          string
	allowAnonymous  bool
	runTimeout      time.Duration
	logger          *logrus.Entry
}

func NewTriggerHandler(deliveryService app.DeliveryService, secret string, allowAnonymous bool, runTimeout time.Duration, logger *logrus.Entry) *TriggerHandler {
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}
	return &TriggerHandler{
		deliveryService: deliveryService,
		secret:          secret,
		allowAnonymous:  allowAnonymous,
		runTimeout:      runTimeout,
		logger:          logger,
	}
}

type reportPayload struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// HandleRun runs the delivery engine. Without a recipient parameter it runs
// the full population; with one it dispatches that single recipient, which is
// the manual-verification mode.
func (h *TriggerHandler) HandleRun(c fiber.Ctx) error {
	if !h.authorized(c) {
		h.logger.Warn("Unauthorized delivery trigger attempt")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	// The run budget is the trigger's execution window; the engine returns a
	// valid partial report if it expires mid-dispatch.
	ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
	defer cancel()

	if recipientID := c.Query("recipient"); recipientID != "" {
		return h.runSingle(c, ctx, recipientID)
	}
	return h.runAll(c, ctx)
}

func (h *TriggerHandler) runAll(c fiber.Ctx, ctx context.Context) error {
	report, err := h.deliveryService.RunAll(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Full-population delivery run failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"ok":   true,
		"mode": "all",
		"report": reportPayload{
			Total:   report.Total,
			Success: report.Success,
			Failed:  report.Failed,
		},
	})
}

func (h *TriggerHandler) runSingle(c fiber.Ctx, ctx context.Context, recipientID string) error {
	platform := c.Query("platform")
	if platform == "" {
		platform = interest.PlatformTelegram
	}
	rcpt := interest.Recipient{Platform: platform, PlatformUserID: recipientID}

	outcome, err := h.deliveryService.RunOne(ctx, rcpt)
	if err != nil {
		h.logger.WithError(err).Error("Single-recipient delivery run failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"ok":     true,
		"mode":   "single",
		"result": outcome,
	})
}

// authorized checks the trigger credential: a bearer token or a ?token= query
// parameter. Running without a configured secret is only permitted when the
// insecure flag was set explicitly at startup.
func (h *TriggerHandler) authorized(c fiber.Ctx) bool {
	if h.secret == "" {
		return h.allowAnonymous
	}
	if token, ok := strings.CutPrefix(c.Get("Authorization"), "Bearer "); ok && secretsMatch(token, h.secret) {
		return true
	}
	return secretsMatch(c.Query("token"), h.secret)
}

// secretsMatch compares a presented credential in constant time.
func secretsMatch(presented, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}
