package openai

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

	"github.com/yungbote/threadbot-backend/internal/domain/chat"
	"github.com/yungbote/threadbot-backend/internal/pkg/ctxutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/envutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/httpx"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

// Client completes an ordered conversation against an OpenAI-compatible
// chat-completions endpoint.
type Client interface {
	Complete(ctx context.Context, turns []chat.Turn) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:     envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:       envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		Temperature: envutil.Float64("OPENAI_TEMPERATURE", 0.7),
		Timeout:     time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 120)) * time.Second,
		MaxRetries:  envutil.Int("OPENAI_MAX_RETRIES", 3),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "OpenAIClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type apiError struct {
	status  int
	message string
	// Server-requested backoff from a Retry-After header; 0 when absent.
	retryAfter time.Duration
}

func (e *apiError) Error() string {
	return fmt.Sprintf("openai api error: status=%d message=%q", e.status, e.message)
}

func (e *apiError) HTTPStatusCode() int { return e.status }

func (c *client) Complete(ctx context.Context, turns []chat.Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("empty conversation")
	}

	msgs := make([]chatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, chatMessage{Role: string(t.Role), Content: t.Content})
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := httpx.JitterSleep(time.Duration(attempt) * time.Second)
			var apiErr *apiError
			if errors.As(lastErr, &apiErr) && apiErr.retryAfter > 0 {
				backoff = apiErr.retryAfter
			}
			if err := httpx.Sleep(ctx, backoff); err != nil {
				return "", err
			}
		}

		text, err := c.doOnce(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !httpx.IsRetryableError(err) {
			break
		}
		c.log.Warn("completion call retrying", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("%w: %w", chat.ErrModelUnavailable, lastErr)
}

func (c *client) doOnce(ctx context.Context, payload []byte) (string, error) {
	ctx = ctxutil.Default(ctx)
	url := c.cfg.BaseURL + "/v1/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	retryAfter := httpx.RetryAfterDuration(resp, 0, 30*time.Second)

	var parsed chatResponse
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr != nil {
		return "", &apiError{status: resp.StatusCode, message: "unparseable response body", retryAfter: retryAfter}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &apiError{status: resp.StatusCode, message: msg, retryAfter: retryAfter}
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	text := parsed.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("completion response is empty")
	}
	return text, nil
}
