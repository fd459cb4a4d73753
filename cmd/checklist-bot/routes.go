package main

import (
	"net/http"
	"time"

	"github.com/Denis16-blip/store-checklist-bot/internal/metrics"
	"github.com/Denis16-blip/store-checklist-bot/internal/version"
	"github.com/Denis16-blip/store-checklist-bot/internal/web"
)

func (a *app) initRoutes() {
	a.mux = http.NewServeMux()

	a.mux.HandleFunc("/", a.handleRoot)
	a.mux.HandleFunc("POST /telegram", a.handleWebhook)

	// Diagnostics. Everything here answers from local state; only
	// /webhookinfo talks to Telegram, and it is a direct HTTP call that
	// never touches the runtime.
	a.mux.Handle("GET /metrics", metrics.Handler())
	a.mux.HandleFunc("GET /diag", a.handleDiag)
	a.mux.HandleFunc("GET /webhookinfo", a.handleWebhookInfo)
}

func (a *app) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		web.RespondJSONError(a.log, w, web.ErrNotFound)
		return
	}
	web.RespondJSON(w, map[string]string{
		"service": "store-checklist-bot",
		"version": version.Version().Version,
	})
}

func (a *app) handleDiag(w http.ResponseWriter, r *http.Request) {
	var lastErr string
	if err := a.bridge.LastErr(); err != nil {
		lastErr = err.Error()
	}
	web.RespondJSON(w, struct {
		Time           string       `json:"time"`
		Version        version.Info `json:"version"`
		Ready          bool         `json:"ready"`
		Alive          bool         `json:"alive"`
		LastError      string       `json:"last_error,omitempty"`
		ItemsTotal     int          `json:"items_total"`
		SessionsActive int          `json:"sessions_active"`
		UptimeSeconds  int64        `json:"uptime_seconds"`
	}{
		Time:           time.Now().UTC().Format(time.RFC3339),
		Version:        version.Version(),
		Ready:          a.bridge.Ready(),
		Alive:          a.bridge.Alive(),
		LastError:      lastErr,
		ItemsTotal:     a.list.Len(),
		SessionsActive: a.sessions.Len(),
		UptimeSeconds:  int64(time.Since(a.started).Seconds()),
	})
}

func (a *app) handleWebhookInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r)
	defer cancel()
	info, err := a.tg.GetWebhookInfo(ctx)
	if err != nil {
		web.RespondJSONError(a.log, w, err)
		return
	}
	web.RespondJSON(w, info)
}
