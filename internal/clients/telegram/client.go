package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/threadbot-backend/internal/pkg/ctxutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/envutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/httpx"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

// Client is the Bot API surface the rest of the backend uses.
type Client interface {
	SendMessage(ctx context.Context, req SendMessageRequest) error
	SetWebhook(ctx context.Context, url string, allowedUpdates []string) error
	GetMe(ctx context.Context) (*User, error)
}

type SendMessageRequest struct {
	ChatID int64
	Text   string
	// Optional sub-thread to post into; 0 means the main chat.
	MessageThreadID int64
	// Message this reply is threaded under.
	ReplyToMessageID int64
}

type Config struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		Token:      strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		BaseURL:    envutil.String("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		Timeout:    time.Duration(envutil.Int("TELEGRAM_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxRetries: envutil.Int("TELEGRAM_MAX_RETRIES", 3),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("missing TELEGRAM_BOT_TOKEN")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "TelegramClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

type apiError struct {
	status      int
	description string
	// Server-requested backoff from a Retry-After header; 0 when absent.
	retryAfter time.Duration
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram api error: status=%d description=%q", e.status, e.description)
}

func (e *apiError) HTTPStatusCode() int { return e.status }

func (c *client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	if req.ChatID == 0 {
		return fmt.Errorf("missing chat id")
	}
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("missing message text")
	}
	body := map[string]any{
		"chat_id": req.ChatID,
		"text":    req.Text,
	}
	if req.MessageThreadID != 0 {
		body["message_thread_id"] = req.MessageThreadID
	}
	if req.ReplyToMessageID != 0 {
		body["reply_parameters"] = map[string]any{"message_id": req.ReplyToMessageID}
	}
	_, err := c.call(ctx, "sendMessage", body)
	return err
}

func (c *client) SetWebhook(ctx context.Context, url string, allowedUpdates []string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("missing webhook url")
	}
	body := map[string]any{"url": url}
	if len(allowedUpdates) > 0 {
		body["allowed_updates"] = allowedUpdates
	}
	_, err := c.call(ctx, "setWebhook", body)
	return err
}

func (c *client) GetMe(ctx context.Context) (*User, error) {
	raw, err := c.call(ctx, "getMe", map[string]any{})
	if err != nil {
		return nil, err
	}
	var me User
	if err := json.Unmarshal(raw, &me); err != nil {
		return nil, fmt.Errorf("decode getMe result: %w", err)
	}
	return &me, nil
}

func (c *client) call(ctx context.Context, method string, body map[string]any) (json.RawMessage, error) {
	ctx = ctxutil.Default(ctx)
	url := fmt.Sprintf("%s/bot%s/%s", c.cfg.BaseURL, c.cfg.Token, method)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := httpx.JitterSleep(time.Duration(attempt) * 500 * time.Millisecond)
			var apiErr *apiError
			if errors.As(lastErr, &apiErr) && apiErr.retryAfter > 0 {
				backoff = apiErr.retryAfter
			}
			if err := httpx.Sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		raw, err := c.doOnce(ctx, url, method, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !httpx.IsRetryableError(err) {
			break
		}
		c.log.Warn("telegram call retrying", "method", method, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *client) doOnce(ctx context.Context, url, method string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read response: %w", method, err)
	}

	retryAfter := httpx.RetryAfterDuration(resp, 0, 30*time.Second)

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &apiError{status: resp.StatusCode, description: "unparseable response body", retryAfter: retryAfter}
	}
	if !parsed.OK {
		return nil, &apiError{status: resp.StatusCode, description: parsed.Description, retryAfter: retryAfter}
	}
	return parsed.Result, nil
}
