// Package telegram implements the slice of the Telegram Bot API the bot
// needs: sending messages with inline keyboards, sending grouped photos and
// managing the webhook registration.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Denis16-blip/store-checklist-bot/internal/version"
)

const defaultAPIURL = "https://api.telegram.org"

// MaxMediaGroup is the largest number of items the Bot API accepts in a
// single sendMediaGroup call.
const MaxMediaGroup = 10

// Client is a Telegram Bot API client.
type Client struct {
	// Token is the bot credential.
	Token string
	// BaseURL overrides the Bot API base URL. Used in tests. Empty means the
	// production API.
	BaseURL string
	// HTTPClient is an optional custom HTTP client. If nil, a client with a
	// 30 second timeout is used.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that masks the token and other
	// secrets in error messages.
	Scrubber *strings.Replacer
}

func (c *Client) apiURL(method string) string {
	base := c.BaseURL
	if base == "" {
		base = defaultAPIURL
	}
	return base + "/bot" + c.Token + "/" + method
}

func (c *Client) httpc() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return defaultHTTPClient
}

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

type scrubbedError struct {
	err      error
	scrubber *strings.Replacer
}

func (se *scrubbedError) Error() string {
	if se.scrubber != nil {
		return se.scrubber.Replace(se.err.Error())
	}
	return se.err.Error()
}

func (se *scrubbedError) Unwrap() error { return se.err }

func (c *Client) scrubErr(err error) error {
	return &scrubbedError{err: err, scrubber: c.Scrubber}
}

// apiResponse is the envelope every Bot API method responds with.
type apiResponse[Result any] struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Result      Result `json:"result,omitempty"`
}

// call makes a Bot API request and unmarshals the result envelope into the
// specified type.
func call[Result any](ctx context.Context, c *Client, method string, args any) (Result, error) {
	var zero Result

	data, err := json.Marshal(args)
	if err != nil {
		return zero, c.scrubErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(method), bytes.NewReader(data))
	if err != nil {
		return zero, c.scrubErr(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := c.httpc().Do(req)
	if err != nil {
		return zero, c.scrubErr(err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return zero, c.scrubErr(err)
	}

	var resp apiResponse[Result]
	if err := json.Unmarshal(b, &resp); err != nil {
		return zero, c.scrubErr(fmt.Errorf("%s: want JSON envelope, got %d: %s", method, res.StatusCode, b))
	}
	if !resp.OK {
		return zero, c.scrubErr(fmt.Errorf("%s: API error %d: %s", method, res.StatusCode, resp.Description))
	}
	return resp.Result, nil
}

// SendMessage sends a text message, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb *InlineKeyboardMarkup) error {
	args := struct {
		ChatID      int64                 `json:"chat_id"`
		Text        string                `json:"text"`
		ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	}{ChatID: chatID, Text: text, ReplyMarkup: kb}
	_, err := call[*Message](ctx, c, "sendMessage", args)
	return err
}

// SendMediaGroup sends up to [MaxMediaGroup] photos as an album.
func (c *Client) SendMediaGroup(ctx context.Context, chatID int64, media []InputMediaPhoto) error {
	if len(media) > MaxMediaGroup {
		return fmt.Errorf("sendMediaGroup: %d items, want at most %d", len(media), MaxMediaGroup)
	}
	args := struct {
		ChatID int64             `json:"chat_id"`
		Media  []InputMediaPhoto `json:"media"`
	}{ChatID: chatID, Media: media}
	_, err := call[[]Message](ctx, c, "sendMediaGroup", args)
	return err
}

// AnswerCallbackQuery acknowledges an inline keyboard button press so the
// client stops showing a progress indicator.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	args := struct {
		CallbackQueryID string `json:"callback_query_id"`
	}{CallbackQueryID: callbackID}
	_, err := call[bool](ctx, c, "answerCallbackQuery", args)
	return err
}

// SetWebhook registers url as the webhook endpoint. The secret token is
// echoed back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	args := struct {
		URL         string `json:"url"`
		SecretToken string `json:"secret_token,omitempty"`
	}{URL: url, SecretToken: secret}
	_, err := call[bool](ctx, c, "setWebhook", args)
	return err
}

// GetWebhookInfo returns the current webhook registration state.
func (c *Client) GetWebhookInfo(ctx context.Context) (WebhookInfo, error) {
	return call[WebhookInfo](ctx, c, "getWebhookInfo", struct{}{})
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	return call[User](ctx, c, "getMe", struct{}{})
}
