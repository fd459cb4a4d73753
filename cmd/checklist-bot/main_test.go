package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Denis16-blip/store-checklist-bot/internal/bridge"
	"github.com/Denis16-blip/store-checklist-bot/internal/telegram"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(env(map[string]string{
		"BOT_TOKEN":         "12345:SECRET",
		"TG_SECRET":         "hunter2",
		"BASE_URL":          "https://bot.example.com/",
		"TELEGRAM_ADMIN_ID": "900",
		"PORT":              "9090",
		"LOG_LEVEL":         "debug",
	}))
	require.NoError(t, err)
	require.Equal(t, "12345:SECRET", cfg.Token)
	require.Equal(t, "hunter2", cfg.Secret)
	// Trailing slash is trimmed so BASE_URL+"/telegram" is well-formed.
	require.Equal(t, "https://bot.example.com", cfg.BaseURL)
	require.Equal(t, int64(900), cfg.AdminChatID)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(env(map[string]string{"BOT_TOKEN": "t"}))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Zero(t, cfg.AdminChatID)
	require.Empty(t, cfg.BaseURL)
}

func TestLoadConfigRequiresToken(t *testing.T) {
	_, err := loadConfig(env(nil))
	require.ErrorContains(t, err, "BOT_TOKEN")
}

func TestLoadConfigRejectsBadAdminID(t *testing.T) {
	_, err := loadConfig(env(map[string]string{
		"BOT_TOKEN":         "t",
		"TELEGRAM_ADMIN_ID": "@admin",
	}))
	require.ErrorContains(t, err, "TELEGRAM_ADMIN_ID")
}

// newWebhookApp builds just enough of the app to exercise the webhook
// handler against a real bridge.
func newWebhookApp(t *testing.T, handle func(context.Context, *telegram.Update)) *app {
	t.Helper()
	if handle == nil {
		handle = func(context.Context, *telegram.Update) {}
	}
	return &app{
		cfg: config{Secret: "hunter2"},
		log: zerolog.Nop(),
		bridge: &bridge.Bridge[*telegram.Update]{
			Handle: handle,
			Key:    func(u *telegram.Update) int64 { return u.ChatID() },
			Log:    zerolog.Nop(),
		},
	}
}

func startBridge(t *testing.T, a *app) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a.bridge.Start(ctx)
	deadline := time.Now().Add(5 * time.Second)
	for !a.bridge.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("bridge never became ready")
		}
		time.Sleep(time.Millisecond)
	}
}

func postUpdate(a *app, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	rec := httptest.NewRecorder()
	a.handleWebhook(rec, req)
	return rec
}

const sampleUpdate = `{"update_id":1,"message":{"message_id":2,"chat":{"id":100},"text":"/start"}}`

func TestWebhookAcceptsUpdate(t *testing.T) {
	got := make(chan *telegram.Update, 1)
	a := newWebhookApp(t, func(_ context.Context, u *telegram.Update) { got <- u })
	startBridge(t, a)

	rec := postUpdate(a, "hunter2", sampleUpdate)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case u := <-got:
		require.Equal(t, int64(100), u.ChatID())
	case <-time.After(5 * time.Second):
		t.Fatal("update never reached the handler")
	}
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	a := newWebhookApp(t, nil)
	startBridge(t, a)

	require.Equal(t, http.StatusNotFound, postUpdate(a, "", sampleUpdate).Code)
	require.Equal(t, http.StatusNotFound, postUpdate(a, "wrong", sampleUpdate).Code)
}

func TestWebhookDropsMalformedPayload(t *testing.T) {
	a := newWebhookApp(t, nil)
	startBridge(t, a)

	// 200, not an error: the provider retries every non-2xx forever and the
	// payload will never parse better.
	rec := postUpdate(a, "hunter2", "{not json")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAnswers503BeforeReady(t *testing.T) {
	a := newWebhookApp(t, nil) // bridge never started

	rec := postUpdate(a, "hunter2", sampleUpdate)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "not ready")
}
