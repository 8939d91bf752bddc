package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(testLogger(), Config{
		Token:      "123:abc",
		BaseURL:    srv.URL,
		MaxRetries: 0,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestSendMessageBody(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	err := c.SendMessage(context.Background(), SendMessageRequest{
		ChatID:           -1001,
		Text:             "hi",
		MessageThreadID:  55,
		ReplyToMessageID: 900,
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["chat_id"].(float64) != -1001 || gotBody["text"] != "hi" {
		t.Fatalf("body = %v", gotBody)
	}
	if gotBody["message_thread_id"].(float64) != 55 {
		t.Fatalf("message_thread_id missing: %v", gotBody)
	}
	rp, ok := gotBody["reply_parameters"].(map[string]any)
	if !ok || rp["message_id"].(float64) != 900 {
		t.Fatalf("reply_parameters = %v", gotBody["reply_parameters"])
	}
}

func TestSendMessageOmitsZeroThreadID(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	if err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if _, present := gotBody["message_thread_id"]; present {
		t.Fatalf("message_thread_id sent for main-chat message")
	}
	if _, present := gotBody["reply_parameters"]; present {
		t.Fatalf("reply_parameters sent without target")
	}
}

func TestSendMessageValidatesInput(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request reached server")
	})

	if err := c.SendMessage(context.Background(), SendMessageRequest{Text: "hi"}); err == nil {
		t.Fatalf("expected error for missing chat id")
	}
	if err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "  "}); err == nil {
		t.Fatalf("expected error for blank text")
	}
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	})

	err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode() != http.StatusBadRequest {
		t.Fatalf("err = %v, want status-coded 400", err)
	}
	if !strings.Contains(apiErr.Error(), "chat not found") {
		t.Fatalf("error text lost the description: %v", apiErr)
	}
}

func TestRateLimitCarriesRetryAfter(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"description":"Too Many Requests: retry after 7"}`))
	})

	err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want api error", err)
	}
	if apiErr.retryAfter != 7*time.Second {
		t.Fatalf("retryAfter = %v, want server-requested 7s", apiErr.retryAfter)
	}
}

func TestRetriesOnServerError(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"ok":false,"description":"bad gateway"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{Token: "t", BaseURL: srv.URL, MaxRetries: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if calls != 2 {
		t.Fatalf("server saw %d calls, want 2", calls)
	}
}

func TestGetMeDecodesUser(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"id":424242,"is_bot":true,"username":"threadbot"}}`))
	})

	me, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.ID != 424242 || !me.IsBot || me.Username != "threadbot" {
		t.Fatalf("me = %+v", me)
	}
}

func TestSetWebhookSendsAllowedUpdates(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true,"result":true}`))
	})

	err := c.SetWebhook(context.Background(), "https://bot.example.com/bot/update/s", []string{"message", "edited_message"})
	if err != nil {
		t.Fatalf("SetWebhook: %v", err)
	}
	if gotBody["url"] != "https://bot.example.com/bot/update/s" {
		t.Fatalf("url = %v", gotBody["url"])
	}
	allowed, ok := gotBody["allowed_updates"].([]any)
	if !ok || len(allowed) != 2 {
		t.Fatalf("allowed_updates = %v", gotBody["allowed_updates"])
	}
}
