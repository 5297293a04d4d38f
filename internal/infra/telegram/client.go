// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"daily_insight_bot/internal/domain/messenger"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
)

// TelebotAdapter implements the messenger.Client interface using the
// gopkg.in/telebot.v3 library. The bot handle is injected explicitly so tests
// can substitute a fake transport without environment mutation.
type TelebotAdapter struct {
	bot         *telebot.Bot
	maxAttempts int
	backoffBase time.Duration
	logger      *logrus.Entry
}

func NewTelebotAdapter(b *telebot.Bot, logger *logrus.Entry) *TelebotAdapter {
	return &TelebotAdapter{
		bot:         b,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		logger:      logger,
	}
}

// SendMessage sends a text message to the specified recipient, retrying
// transient platform failures a bounded number of times with backoff.
// Permanent failures (blocked recipient, malformed request) are returned
// immediately, classified.
func (tba *TelebotAdapter) SendMessage(ctx context.Context, recipientID string, text string, opts *messenger.SendOptions) (string, error) {
	recipient, err := parseRecipient(recipientID)
	if err != nil {
		return "", err
	}

	var lastErr *messenger.SendError
	for attempt := 1; attempt <= tba.maxAttempts; attempt++ {
		msg, err := tba.bot.Send(recipient, text, toSendOptions(opts))
		if err == nil {
			return strconv.Itoa(msg.ID), nil
		}

		lastErr = classifyError(err)
		if lastErr.Kind != messenger.FailureTransient {
			return "", lastErr
		}
		if attempt == tba.maxAttempts {
			break
		}

		wait := tba.backoffFor(err, attempt)
		tba.logger.WithFields(logrus.Fields{
			"recipient": recipientID,
			"attempt":   attempt,
			"wait":      wait,
		}).WithError(err).Warn("Transient send failure; retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", messenger.NewSendError(messenger.FailureTransient, ctx.Err())
		}
	}
	return "", lastErr
}

// backoffFor returns the delay before the next attempt. Flood-wait hints from
// the platform take precedence over the exponential schedule.
func (tba *TelebotAdapter) backoffFor(err error, attempt int) time.Duration {
	if flood, ok := asFloodError(err); ok && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return tba.backoffBase << (attempt - 1)
}

// SendPresence shows the "typing" chat action. Best-effort: presence is
// cosmetic, so failures are logged at debug level and swallowed.
func (tba *TelebotAdapter) SendPresence(recipientID string) {
	recipient, err := parseRecipient(recipientID)
	if err != nil {
		return
	}
	if err := tba.bot.Notify(recipient, telebot.Typing); err != nil {
		tba.logger.WithField("recipient", recipientID).WithError(err).Debug("Failed to send typing presence")
	}
}

func (tba *TelebotAdapter) EditMessage(ctx context.Context, recipientID string, messageID string, text string, opts *messenger.SendOptions) error {
	chatID, err := parseChatID(recipientID)
	if err != nil {
		return err
	}
	stored := &telebot.StoredMessage{MessageID: messageID, ChatID: chatID}
	if _, err := tba.bot.Edit(stored, text, toSendOptions(opts)); err != nil {
		return classifyError(err)
	}
	return nil
}

func (tba *TelebotAdapter) DeleteMessage(ctx context.Context, recipientID string, messageID string) error {
	chatID, err := parseChatID(recipientID)
	if err != nil {
		return err
	}
	stored := &telebot.StoredMessage{MessageID: messageID, ChatID: chatID}
	if err := tba.bot.Delete(stored); err != nil {
		return classifyError(err)
	}
	return nil
}

func (tba *TelebotAdapter) AckCallback(callbackID string, text string) error {
	callback := &telebot.Callback{ID: callbackID}
	if err := tba.bot.Respond(callback, &telebot.CallbackResponse{Text: text}); err != nil {
		return classifyError(err)
	}
	return nil
}

func parseRecipient(recipientID string) (*telebot.User, error) {
	chatID, err := parseChatID(recipientID)
	if err != nil {
		return nil, err
	}
	return &telebot.User{ID: chatID}, nil
}

func parseChatID(recipientID string) (int64, error) {
	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return 0, messenger.NewSendError(messenger.FailureRequest,
			fmt.Errorf("invalid telegram recipient id %q: %w", recipientID, err))
	}
	return chatID, nil
}

func toSendOptions(opts *messenger.SendOptions) *telebot.SendOptions {
	sendOpts := &telebot.SendOptions{}
	if opts != nil && opts.Markdown {
		sendOpts.ParseMode = telebot.ModeMarkdown
	}
	return sendOpts
}
