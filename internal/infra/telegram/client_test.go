package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"daily_insight_bot/internal/domain/messenger"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

// apiScript serves scripted Bot API responses, one per request.
type apiScript struct {
	calls     int32
	responses []string
}

func (s *apiScript) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&s.calls, 1)) - 1
		if n >= len(s.responses) {
			n = len(s.responses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, s.responses[n])
	}
}

const (
	okSendResponse  = `{"ok":true,"result":{"message_id":42,"chat":{"id":100500}}}`
	blockedResponse = `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
	serverErrorResp = `{"ok":false,"error_code":502,"description":"Bad Gateway"}`
	badRequestResp  = `{"ok":false,"error_code":400,"description":"Bad Request: message text is empty"}`
)

func newTestAdapter(t *testing.T, script *apiScript) (*TelebotAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(script.handler())
	t.Cleanup(server.Close)

	bot, err := telebot.NewBot(telebot.Settings{
		Token:   "test-token",
		URL:     server.URL,
		Offline: true,
	})
	require.NoError(t, err)

	l := logrus.New()
	l.SetOutput(io.Discard)
	adapter := NewTelebotAdapter(bot, logrus.NewEntry(l))
	adapter.backoffBase = time.Millisecond
	return adapter, server
}

func TestSendMessage_Success(t *testing.T) {
	script := &apiScript{responses: []string{okSendResponse}}
	adapter, _ := newTestAdapter(t, script)

	messageID, err := adapter.SendMessage(context.Background(), "100500", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", messageID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&script.calls))
}

func TestSendMessage_BlockedRecipientNotRetried(t *testing.T) {
	script := &apiScript{responses: []string{blockedResponse}}
	adapter, _ := newTestAdapter(t, script)

	_, err := adapter.SendMessage(context.Background(), "100500", "hello", nil)
	require.Error(t, err)
	assert.Equal(t, messenger.FailureRecipientUnavailable, messenger.ClassifyError(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&script.calls), "a 403 must never be retried")
}

func TestSendMessage_TransientFailureRetriedThenSucceeds(t *testing.T) {
	script := &apiScript{responses: []string{serverErrorResp, okSendResponse}}
	adapter, _ := newTestAdapter(t, script)

	messageID, err := adapter.SendMessage(context.Background(), "100500", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", messageID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&script.calls))
}

func TestSendMessage_RetriesAreBounded(t *testing.T) {
	script := &apiScript{responses: []string{serverErrorResp}}
	adapter, _ := newTestAdapter(t, script)

	_, err := adapter.SendMessage(context.Background(), "100500", "hello", nil)
	require.Error(t, err)
	assert.Equal(t, messenger.FailureTransient, messenger.ClassifyError(err))
	assert.EqualValues(t, defaultMaxAttempts, atomic.LoadInt32(&script.calls))
}

func TestSendMessage_BadRequestNotRetried(t *testing.T) {
	script := &apiScript{responses: []string{badRequestResp}}
	adapter, _ := newTestAdapter(t, script)

	_, err := adapter.SendMessage(context.Background(), "100500", "hello", nil)
	require.Error(t, err)
	assert.Equal(t, messenger.FailureRequest, messenger.ClassifyError(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&script.calls))
}

func TestSendMessage_InvalidRecipientID(t *testing.T) {
	script := &apiScript{responses: []string{okSendResponse}}
	adapter, _ := newTestAdapter(t, script)

	_, err := adapter.SendMessage(context.Background(), "not-an-id", "hello", nil)
	require.Error(t, err)
	assert.Equal(t, messenger.FailureRequest, messenger.ClassifyError(err))
	assert.Zero(t, atomic.LoadInt32(&script.calls), "no network call for an unparseable id")
}

func TestSendMessage_ContextCancelledDuringBackoff(t *testing.T) {
	script := &apiScript{responses: []string{serverErrorResp}}
	adapter, _ := newTestAdapter(t, script)
	adapter.backoffBase = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := adapter.SendMessage(ctx, "100500", "hello", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation must cut the backoff short")
	assert.Equal(t, messenger.FailureTransient, messenger.ClassifyError(err))
}
