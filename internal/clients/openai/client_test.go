package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yungbote/threadbot-backend/internal/domain/chat"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(testLogger(), Config{
		APIKey:      "sk-test",
		BaseURL:     srv.URL,
		Model:       "test-model",
		Temperature: 0.3,
		MaxRetries:  0,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + string(mustJSON(content)) + `}}]}`
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func TestCompleteSendsConversation(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotReq chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completionBody("a reply")))
	})

	turns := []chat.Turn{
		chat.SystemTurn("persona"),
		chat.UserTurn("hello"),
	}
	got, err := c.Complete(context.Background(), turns)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "a reply" {
		t.Fatalf("reply = %q", got)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" || gotReq.Temperature != 0.3 {
		t.Fatalf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "persona" {
		t.Fatalf("messages[0] = %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "hello" {
		t.Fatalf("messages[1] = %+v", gotReq.Messages[1])
	}
}

func TestCompleteRejectsEmptyConversation(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request reached server")
	})
	if _, err := c.Complete(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty conversation")
	}
}

func TestCompleteErrorsOnUpstreamFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := c.Complete(context.Background(), []chat.Turn{chat.UserTurn("hi")})
	if !errors.Is(err, chat.ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestRateLimitCarriesRetryAfter(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	})

	_, err := c.Complete(context.Background(), []chat.Turn{chat.UserTurn("hi")})
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want api error", err)
	}
	if apiErr.retryAfter != 3*time.Second {
		t.Fatalf("retryAfter = %v, want server-requested 3s", apiErr.retryAfter)
	}
}

func TestCompleteErrorsOnEmptyChoices(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	if _, err := c.Complete(context.Background(), []chat.Turn{chat.UserTurn("hi")}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestCompleteErrorsOnBlankContent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("   ")))
	})
	if _, err := c.Complete(context.Background(), []chat.Turn{chat.UserTurn("hi")}); err == nil {
		t.Fatalf("expected error for blank content")
	}
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		w.Write([]byte(completionBody("ok now")))
	}))
	defer srv.Close()

	c, err := New(testLogger(), Config{APIKey: "sk-test", BaseURL: srv.URL, MaxRetries: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Complete(context.Background(), []chat.Turn{chat.UserTurn("hi")})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "ok now" || calls != 2 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}
