package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Denis16-blip/store-checklist-bot/internal/bridge"
	"github.com/Denis16-blip/store-checklist-bot/internal/metrics"
	"github.com/Denis16-blip/store-checklist-bot/internal/telegram"
	"github.com/Denis16-blip/store-checklist-bot/internal/web"
)

// handleWebhook accepts one provider update, hands it to the runtime and
// returns. It answers 200 once the update is queued, not once processed.
func (a *app) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.WebhookDuration.Observe(time.Since(start).Seconds())
	}()

	if a.cfg.Secret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != a.cfg.Secret {
		metrics.UpdatesRejected.WithLabelValues("bad_secret").Inc()
		web.RespondJSONError(a.log, w, web.ErrNotFound)
		return
	}

	var u telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		// Answer 200 and drop: Telegram retries every non-2xx response, and a
		// malformed payload will never parse better on the next attempt.
		metrics.UpdatesRejected.WithLabelValues("malformed").Inc()
		a.log.Warn().Err(err).Msg("dropping malformed update")
		web.OK(w)
		return
	}

	if err := a.bridge.Submit(&u); err != nil {
		// Retryable: Telegram re-delivers the update on 503.
		reason := "not_ready"
		if errors.Is(err, bridge.ErrBusy) {
			reason = "busy"
		}
		metrics.UpdatesRejected.WithLabelValues(reason).Inc()
		a.log.Warn().Err(err).Int64("update_id", u.ID).Msg("hand-off refused")
		web.RespondJSONError(a.log, w, fmt.Errorf("%v: %w", err, web.ErrServiceUnavailable))
		return
	}

	metrics.UpdatesReceived.Inc()
	web.OK(w)
}

// setWebhook registers BASE_URL/telegram as the webhook endpoint.
func (a *app) setWebhook(ctx context.Context) error {
	url := a.cfg.BaseURL + "/telegram"
	if err := a.tg.SetWebhook(ctx, url, a.cfg.Secret); err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	a.log.Info().Str("url", url).Msg("webhook registered")
	return nil
}

// timeoutContext bounds direct provider calls made from HTTP handlers.
func timeoutContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}
