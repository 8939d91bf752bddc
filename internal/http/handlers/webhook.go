package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/threadbot-backend/internal/clients/telegram"
	"github.com/yungbote/threadbot-backend/internal/http/response"
	"github.com/yungbote/threadbot-backend/internal/pkg/dedup"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
	"github.com/yungbote/threadbot-backend/internal/services"
)

// WebhookHandler terminates the bot update endpoint: it authenticates the
// path secret, drops duplicate deliveries, and hands fresh updates to the
// event router.
type WebhookHandler struct {
	log    *logger.Logger
	router services.EventRouter
	dedup  dedup.Cache
	secret string
}

func NewWebhookHandler(log *logger.Logger, router services.EventRouter, cache dedup.Cache, secret string) *WebhookHandler {
	return &WebhookHandler{
		log:    log.With("handler", "Webhook"),
		router: router,
		dedup:  cache,
		secret: secret,
	}
}

func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	if subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(h.secret)) != 1 {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", "invalid webhook secret")
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.log.Warn("malformed update payload", "error", err)
		response.RespondError(c, http.StatusBadRequest, "bad_request", "malformed update payload")
		return
	}

	ctx := c.Request.Context()

	// Duplicate deliveries are acknowledged without reprocessing; the
	// sender retries until it sees a 2xx.
	if h.dedup.Seen(ctx, update.UpdateID) {
		h.log.Debug("duplicate update", "update_id", update.UpdateID)
		response.RespondOK(c, gin.H{"outcome": "duplicate"})
		return
	}

	outcome, err := h.router.Handle(ctx, &update)
	if err != nil {
		if errors.Is(err, services.ErrStorageUnavailable) {
			// Release the id so the transport's retry of this lost event
			// is not swallowed as a duplicate.
			h.dedup.Forget(ctx, update.UpdateID)
			h.log.Error("update processing failed", "update_id", update.UpdateID, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "storage_unavailable", "conversation storage unavailable")
			return
		}
		// Outbound delivery failures are logged but acknowledged; a retry
		// of the same update would be dropped by the dedup cache anyway.
		h.log.Error("update handled with delivery failure", "update_id", update.UpdateID, "error", err)
		response.RespondOK(c, gin.H{"outcome": string(services.OutcomeIgnored)})
		return
	}

	response.RespondOK(c, gin.H{"outcome": string(outcome)})
}
