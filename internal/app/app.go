package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/yungbote/threadbot-backend/internal/clients/openai"
	"github.com/yungbote/threadbot-backend/internal/clients/telegram"
	"github.com/yungbote/threadbot-backend/internal/data/db"
	chatrepo "github.com/yungbote/threadbot-backend/internal/data/repos/chat"
	apphttp "github.com/yungbote/threadbot-backend/internal/http"
	"github.com/yungbote/threadbot-backend/internal/http/handlers"
	"github.com/yungbote/threadbot-backend/internal/pkg/dedup"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
	"github.com/yungbote/threadbot-backend/internal/services"
)

// App owns every long-lived component and the wiring between them.
type App struct {
	Log    *logger.Logger
	Config Config
	Server *http.Server

	tg telegram.Client
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	dbService, err := db.New(log)
	if err != nil {
		return nil, fmt.Errorf("wire db: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	tg, err := telegram.NewFromEnv(log)
	if err != nil {
		return nil, fmt.Errorf("wire telegram client: %w", err)
	}
	model, err := openai.NewFromEnv(log)
	if err != nil {
		return nil, fmt.Errorf("wire model client: %w", err)
	}

	sender, err := newBotSender(ctx, tg)
	if err != nil {
		return nil, fmt.Errorf("resolve bot identity: %w", err)
	}
	log.Info("Resolved bot identity", "bot_id", sender.BotID())

	prompts, err := services.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	cache := wireDedup(log, cfg)

	messages := chatrepo.NewChatMessageRepo(dbService.DB(), log)
	summaries := chatrepo.NewThreadSummaryRepo(dbService.DB(), log)
	memory := services.NewMemoryService(messages, summaries, log)
	replies := services.NewReplyService(model, memory, prompts, cfg.MaxContext, log)
	router := services.NewEventRouter(sender, replies, services.NewProbabilityGate(), services.RouterConfig{
		AllowedChatIDs:      cfg.AllowedChatIDs,
		ReplyProbability:    cfg.ReplyProbability,
		MediaFallbackPrompt: prompts.MediaFallback,
	}, log)

	webhook := handlers.NewWebhookHandler(log, router, cache, cfg.WebhookSecret)
	engine := apphttp.NewRouter(apphttp.RouterConfig{
		Log:            log,
		WebhookHandler: webhook,
		Mode:           cfg.LogMode,
	})

	return &App{
		Log:    log,
		Config: cfg,
		Server: apphttp.NewServer(":"+cfg.Port, engine),
		tg:     tg,
	}, nil
}

// wireDedup prefers Redis when configured so duplicate filtering survives
// restarts; otherwise it falls back to the in-process cache.
func wireDedup(log *logger.Logger, cfg Config) dedup.Cache {
	if cfg.RedisAddr != "" {
		cache, err := dedup.NewRedisCache(log, cfg.RedisAddr)
		if err == nil {
			return cache
		}
		log.Warn("redis dedup unavailable, using in-memory cache", "error", err)
	}
	return dedup.NewMemoryCache()
}

// RegisterWebhook points the Bot API at this deployment. Subscribing to
// edited messages and channel posts keeps those deliveries flowing even
// though the router currently ignores them.
func (a *App) RegisterWebhook(ctx context.Context) error {
	url := a.Config.WebhookURL()
	if url == "" {
		a.Log.Warn("PUBLIC_BASE_URL not set, skipping webhook registration")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := a.tg.SetWebhook(ctx, url, []string{"message", "edited_message", "channel_post"}); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	a.Log.Info("Webhook registered", "base_url", a.Config.PublicBaseURL)
	return nil
}

// botSender adapts the Bot API client to the router's outbound surface,
// carrying the bot's own id resolved once at startup.
type botSender struct {
	tg    telegram.Client
	botID int64
}

func newBotSender(ctx context.Context, tg telegram.Client) (*botSender, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	me, err := tg.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	return &botSender{tg: tg, botID: me.ID}, nil
}

func (s *botSender) SendMessage(ctx context.Context, req telegram.SendMessageRequest) error {
	return s.tg.SendMessage(ctx, req)
}

func (s *botSender) BotID() int64 { return s.botID }
