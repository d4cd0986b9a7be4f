package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
	"github.com/bolingo/onboarding-bot/internal/pkg/metrics"
)

// SecretTokenHeader carries the secret configured with the platform webhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const enqueueTimeout = 2 * time.Second

// UpdateDeduplicator detects redelivered updates.
type UpdateDeduplicator interface {
	FirstSeen(ctx context.Context, updateID int64) (bool, error)
}

// WebhookHandler receives chat platform updates.
type WebhookHandler struct {
	queue  ports.ChatEventQueue
	dedup  UpdateDeduplicator
	secret string
	log    zerolog.Logger
}

// NewWebhookHandler creates a WebhookHandler. dedup may be nil and an empty
// secret disables the header check.
func NewWebhookHandler(queue ports.ChatEventQueue, dedup UpdateDeduplicator, secret string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{queue: queue, dedup: dedup, secret: secret, log: log}
}

// Receive handles POST /webhook. The platform retries anything but a 2xx, so
// every authenticated update is acknowledged with 200 whatever happens to it.
//
// @Summary      Receive a chat platform update
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        X-Telegram-Bot-Api-Secret-Token  header    string  false  "Webhook secret"
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  errorResponse
// @Router       /webhook [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	if h.secret != "" {
		got := c.Request().Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			metrics.WebhookUpdatesTotal.WithLabelValues("unauthorized").Inc()
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook secret")
		}
	}

	var upd tgUpdate
	if err := c.Bind(&upd); err != nil {
		metrics.WebhookUpdatesTotal.WithLabelValues("invalid").Inc()
		h.log.Warn().Err(err).Msg("undecodable webhook update")
		return ok(c)
	}

	ev, mapped := toChatEvent(upd)
	if !mapped {
		metrics.WebhookUpdatesTotal.WithLabelValues("ignored").Inc()
		return ok(c)
	}

	ctx := c.Request().Context()
	if h.dedup != nil && upd.UpdateID != 0 {
		first, err := h.dedup.FirstSeen(ctx, upd.UpdateID)
		switch {
		case err != nil:
			// Without the cache a redelivery is still harmless: replays are idempotent.
			h.log.Warn().Err(err).Int64("update_id", upd.UpdateID).Msg("update de-duplication unavailable")
		case !first:
			metrics.WebhookUpdatesTotal.WithLabelValues("duplicate").Inc()
			return ok(c)
		}
	}

	enqCtx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()
	if err := h.queue.Enqueue(enqCtx, ev); err != nil {
		metrics.WebhookUpdatesTotal.WithLabelValues("dropped").Inc()
		h.log.Error().Err(err).Int64("update_id", upd.UpdateID).Int64("user_id", ev.UserID).Msg("chat update dropped")
		return ok(c)
	}

	metrics.WebhookUpdatesTotal.WithLabelValues("enqueued").Inc()
	return ok(c)
}

func ok(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// toChatEvent reduces an update to a state machine event. Updates that can
// never change onboarding state are not mapped.
func toChatEvent(upd tgUpdate) (domain.ChatEvent, bool) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if cq.From.ID == 0 || cq.From.IsBot {
			return domain.ChatEvent{}, false
		}
		ev := domain.ChatEvent{
			UpdateID:    upd.UpdateID,
			UserID:      cq.From.ID,
			ChatID:      cq.From.ID,
			DisplayName: displayName(cq.From),
			Event:       domain.EventForCallback(cq.Data),
			CallbackID:  cq.ID,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		}
		// Unknown buttons are still acknowledged by the service.
		return ev, true

	case upd.Message != nil:
		m := upd.Message
		if m.From == nil || m.From.ID == 0 || m.From.IsBot || !isStartCommand(m.Text) {
			return domain.ChatEvent{}, false
		}
		return domain.ChatEvent{
			UpdateID:    upd.UpdateID,
			UserID:      m.From.ID,
			ChatID:      m.Chat.ID,
			DisplayName: displayName(*m.From),
			Event:       domain.EventStart,
		}, true
	}
	return domain.ChatEvent{}, false
}

// isStartCommand accepts "/start", "/start <payload>" and "/start@botname".
func isStartCommand(text string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/start"
}

func displayName(u tgUser) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
