package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/threadbot-backend/internal/pkg/envutil"
)

type Config struct {
	Port    string
	LogMode string

	// Path secret for the webhook endpoint.
	WebhookSecret string
	// Externally reachable base URL the webhook is registered under.
	// Empty skips registration (useful behind a tunnel during development).
	PublicBaseURL string

	AllowedChatIDs   map[int64]struct{}
	ReplyProbability float64
	MaxContext       int
	PromptsFile      string

	// Optional Redis address for a restart-surviving dedup cache.
	RedisAddr string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Port:             envutil.String("PORT", "8080"),
		LogMode:          envutil.String("LOG_MODE", "dev"),
		WebhookSecret:    strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		PublicBaseURL:    strings.TrimRight(envutil.String("PUBLIC_BASE_URL", ""), "/"),
		ReplyProbability: envutil.Float64("REPLY_PROBABILITY", 0.2),
		MaxContext:       envutil.Int("MAX_CONTEXT_MESSAGES", 20),
		PromptsFile:      envutil.String("PROMPTS_FILE", ""),
		RedisAddr:        envutil.String("REDIS_ADDR", ""),
	}
	if cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("missing WEBHOOK_SECRET")
	}

	ids := envutil.Int64CSV("ALLOWED_CHAT_IDS")
	if len(ids) > 0 {
		cfg.AllowedChatIDs = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			cfg.AllowedChatIDs[id] = struct{}{}
		}
	}
	return cfg, nil
}

// WebhookURL is the full externally visible endpoint, or "" when no public
// base URL is configured.
func (c Config) WebhookURL() string {
	if c.PublicBaseURL == "" {
		return ""
	}
	return c.PublicBaseURL + "/bot/update/" + c.WebhookSecret
}
