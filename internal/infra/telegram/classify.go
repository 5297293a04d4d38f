// internal/infra/telegram/classify.go
package telegram

import (
	"errors"
	"net/http"

	"daily_insight_bot/internal/domain/messenger"

	"gopkg.in/telebot.v3"
)

// classifyError maps a telebot error onto the closed messenger.FailureKind
// variant. Telegram reports a blocked or deleted conversation as HTTP 403,
// which must surface as the distinguishable RecipientUnavailable condition
// rather than a generic failure.
func classifyError(err error) *messenger.SendError {
	if flood, ok := asFloodError(err); ok {
		return messenger.NewSendError(messenger.FailureTransient, flood)
	}

	var tbErr *telebot.Error
	if errors.As(err, &tbErr) {
		switch {
		case tbErr.Code == http.StatusForbidden:
			return messenger.NewSendError(messenger.FailureRecipientUnavailable, tbErr)
		case tbErr.Code == http.StatusTooManyRequests || tbErr.Code >= http.StatusInternalServerError:
			return messenger.NewSendError(messenger.FailureTransient, tbErr)
		default:
			// 400-class: malformed payload, unknown chat id and the like.
			return messenger.NewSendError(messenger.FailureRequest, tbErr)
		}
	}

	// No platform response at all: network-level failure, worth a retry.
	return messenger.NewSendError(messenger.FailureTransient, err)
}

func asFloodError(err error) (telebot.FloodError, bool) {
	var flood telebot.FloodError
	ok := errors.As(err, &flood)
	return flood, ok
}
